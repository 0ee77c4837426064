// Package llm is the language-model completion service. Callers describe the
// prompt and the output schema once; each provider client maps that onto its
// own structured-output mechanism and returns the raw JSON text.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConfigured         = errors.New("language model not configured")
	ErrEmptyResponse         = errors.New("language model returned no content")
	ErrUnsupportedAttachment = errors.New("attachment type not supported by provider")
)

// Model produces a JSON document conforming to Request.Schema.
type Model interface {
	Provider() string
	GenerateJSON(ctx context.Context, req Request) (string, error)
}

type Request struct {
	// Name identifies the call in logs and, for OpenAI, names the response format.
	Name        string
	System      string
	Prompt      string
	Attachments []Attachment
	Schema      *Schema
	Temperature float64
	Safety      []SafetySetting
}

// Attachment is an inline document or image sent with the prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// DataURI encodes the attachment as a base64 data URI.
func (a Attachment) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, base64.StdEncoding.EncodeToString(a.Data))
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}

func (a Attachment) IsPDF() bool {
	return a.MIMEType == "application/pdf"
}

// SafetySetting uses Gemini category and threshold names, e.g.
// HARM_CATEGORY_HARASSMENT / BLOCK_MEDIUM_AND_ABOVE. Other providers ignore it.
type SafetySetting struct {
	Category  string
	Threshold string
}

// ExtractJSON trims code fences and prose around the outermost JSON object
// of a model reply.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object in reply", ErrEmptyResponse)
	}
	return text[start : end+1], nil
}
