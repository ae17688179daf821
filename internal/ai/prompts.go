package ai

import "fmt"

const systemPrompt = `You are an expert resume writer and ATS (Applicant Tracking System) analyst. Your core principles are:

- Provide honest, data-driven analysis grounded only in the supplied text
- Never invent skills or experiences that are not in the source material
- Score consistently: 0 means unparseable or entirely unsuitable, 100 means exemplary
- Keep feedback specific and actionable`

func basicCheckPrompt(resumeText string) string {
	return fmt.Sprintf(`Perform a quick ATS compatibility check of the resume below.
Score it from 0 to 100 for how reliably standard ATS software would parse it,
and list up to five short feedback points on structure and formatting.

Resume:
%s`, resumeText)
}

func detailedReportPrompt(resumeText string) string {
	return fmt.Sprintf(`Perform an in-depth ATS analysis of the resume below.
Score it from 0 to 100, weighing parseability, section structure, quantified
achievements, keyword density and clarity. Provide detailed feedback points,
each naming the issue and the concrete fix.

Resume:
%s`, resumeText)
}

func optimizationPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`Evaluate how well the resume below targets the given job description.
Score the match from 0 to 100. Identify keywords from the job description that
the resume already covers (matched) and those it lacks (missing), and provide
concrete suggestions for closing the gap without inventing experience.

Job description:
%s

Resume:
%s`, jobDescription, resumeText)
}
