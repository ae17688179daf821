package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"resumepilot-backend/internal/models"
)

// ErrAnalysisFailed wraps any provider-side failure so callers can trigger
// the credit-rollback path without inspecting provider internals.
var ErrAnalysisFailed = errors.New("ai analysis failed")

const maxRetries = 2

// GeminiAnalyzer implements Analyzer on the Gemini API. All calls go through
// a circuit breaker so a misbehaving upstream fails fast instead of holding
// request goroutines for the full retry budget.
type GeminiAnalyzer struct {
	client  *genai.Client
	model   string
	breaker *gobreakerWrapper
	logger  *zap.Logger
}

var _ Analyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer creates a Gemini-backed Analyzer.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAnalyzer{
		client:  client,
		model:   model,
		breaker: newBreaker("gemini-analysis", logger),
		logger:  logger,
	}, nil
}

// Close is a no-op; the Gemini client holds no persistent connection in
// single-shot usage.
func (g *GeminiAnalyzer) Close() error { return nil }

// BasicCheck implements Analyzer.
func (g *GeminiAnalyzer) BasicCheck(ctx context.Context, resumeText string) (*models.ATSReport, error) {
	var report models.ATSReport
	if err := g.generate(ctx, "basic_check", basicCheckPrompt(resumeText), atsReportSchema(), &report); err != nil {
		return nil, err
	}
	report.Score = clampScore(report.Score)
	return &report, nil
}

// DetailedReport implements Analyzer.
func (g *GeminiAnalyzer) DetailedReport(ctx context.Context, resumeText string) (*models.ATSReport, error) {
	var report models.ATSReport
	if err := g.generate(ctx, "detailed_report", detailedReportPrompt(resumeText), atsReportSchema(), &report); err != nil {
		return nil, err
	}
	report.Score = clampScore(report.Score)
	return &report, nil
}

// OptimizeForJob implements Analyzer.
func (g *GeminiAnalyzer) OptimizeForJob(ctx context.Context, resumeText, jobDescription string) (*models.OptimizationReport, error) {
	var report models.OptimizationReport
	if err := g.generate(ctx, "job_optimization", optimizationPrompt(resumeText, jobDescription), optimizationSchema(), &report); err != nil {
		return nil, err
	}
	report.Score = clampScore(report.Score)
	return &report, nil
}

// generate runs one structured-output call with circuit breaker and retry,
// then unmarshals the JSON response into out.
func (g *GeminiAnalyzer) generate(ctx context.Context, operation, prompt string, config *genai.GenerateContentConfig, out any) error {
	config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)

	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operation, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		})
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAnalysisFailed, operation, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), out); err != nil {
		g.logger.Warn("Failed to parse AI response",
			zap.String("operation", operation),
			zap.Error(err))
		return fmt.Errorf("%w: %s: malformed response: %v", ErrAnalysisFailed, operation, err)
	}
	return nil
}

// executeWithRetry retries transient upstream failures with exponential backoff.
func (g *GeminiAnalyzer) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func isRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func atsReportSchema() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":    {Type: genai.TypeNumber},
				"feedback": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"score", "feedback"},
		},
	}
}

func optimizationSchema() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score": {Type: genai.TypeNumber},
				"keywordAnalysis": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"matched": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
						"missing": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					},
					Required: []string{"matched", "missing"},
				},
				"suggestions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"score", "keywordAnalysis", "suggestions"},
		},
	}
}
