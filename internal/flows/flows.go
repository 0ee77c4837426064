// Package flows defines every language-model call the service makes: the
// prompt, the output schema, and the validation applied to the reply. Nothing
// returned from here has skipped validation.
package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/llm"
	"recovery-plan/internal/logger"
)

// ErrMalformedOutput marks a reply that does not conform to the flow's schema.
var ErrMalformedOutput = errors.New("malformed model output")

type Runner struct {
	model   llm.Model
	catalog *catalog.Catalog
}

func NewRunner(model llm.Model, cat *catalog.Catalog) *Runner {
	return &Runner{model: model, catalog: cat}
}

func (r *Runner) Catalog() *catalog.Catalog {
	return r.catalog
}

// call sends req and strictly decodes the reply into out.
func (r *Runner) call(ctx context.Context, req llm.Request, out any) error {
	raw, err := r.model.GenerateJSON(ctx, req)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		logger.Warn("Model reply rejected", "flow", req.Name, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrMalformedOutput, req.Name, err)
	}
	// Exactly one JSON value; anything after it is rejected.
	if err := dec.Decode(&json.RawMessage{}); err != io.EOF {
		logger.Warn("Model reply rejected", "flow", req.Name, "error", "trailing data")
		return malformed(req.Name, "trailing data after JSON value")
	}
	return nil
}

func malformed(flow, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedOutput, flow, fmt.Sprintf(format, args...))
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
