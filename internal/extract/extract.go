// Package extract turns uploaded resume bytes into plain text for analysis.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

const mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var (
	// ErrUnsupportedFormat is returned for mime types no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionFailed wraps parser failures for a supported format.
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrEmptyDocument is returned when a document yields no usable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// Extractor converts file bytes into plain text based on the mime type.
type Extractor interface {
	Extract(data []byte, mimeType string) (string, error)
}

type extractor struct{}

// New returns the default Extractor supporting plain text, PDF and Word
// (docx) input. Legacy binary .doc is not supported.
func New() Extractor {
	return extractor{}
}

func (extractor) Extract(data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	mime := mimeType
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(strings.ToLower(mime))

	switch {
	case mime == "application/pdf":
		return extractPDF(data)
	case mime == mimeDocx:
		return extractDocx(data)
	case strings.HasPrefix(mime, "text/"):
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", ErrEmptyDocument
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs instead of returning
	// an error.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	text = strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func extractDocx(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrExtractionFailed, r)
		}
	}()

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			fmt.Fprintln(&sb, item)
		}
	}

	text = strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}
