package flows

import (
	"context"
	"strings"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/llm"
)

// SymptomClassification maps free-text symptoms to a plan. IsDynamic is true
// exactly when ConditionKey is "other".
type SymptomClassification struct {
	ConditionKey  string `json:"conditionKey"`
	ConditionName string `json:"conditionName"`
	IsDynamic     *bool  `json:"isDynamic"`
	Reasoning     string `json:"reasoning"`
}

// Dynamic reports whether the classification produced a custom plan.
func (s *SymptomClassification) Dynamic() bool {
	return s.IsDynamic != nil && *s.IsDynamic
}

// DocumentClassification maps a prescription to a fixed catalog plan.
type DocumentClassification struct {
	ConditionKey string `json:"conditionKey"`
	Reasoning    string `json:"reasoning"`
}

// Document is an uploaded prescription image or PDF.
type Document struct {
	MIMEType string
	Data     []byte
}

// AnalyzeSymptoms classifies symptoms into a catalog key or a dynamic plan.
func (r *Runner) AnalyzeSymptoms(ctx context.Context, symptoms string) (*SymptomClassification, error) {
	const flow = "analyzeSymptoms"

	conditions := make([]catalog.Condition, 0)
	for _, c := range r.catalog.Conditions() {
		if !c.IsDynamic() {
			conditions = append(conditions, c)
		}
	}

	prompt, err := render(analyzeSymptomsPrompt, struct {
		Symptoms   string
		Conditions []catalog.Condition
	}{symptoms, conditions})
	if err != nil {
		return nil, err
	}

	schema := llm.Object(
		llm.Field("conditionKey", llm.String("A key from the pre-defined list, or 'other'.").
			WithEnum(r.catalog.Keys(true)...)),
		llm.Field("conditionName", llm.String("Catalog name, or a coined name for a dynamic plan.")),
		llm.Field("isDynamic", llm.Boolean("True only when conditionKey is 'other'.")),
		llm.Field("reasoning", llm.String("Short explanation for the user.")),
	)

	var out SymptomClassification
	if err := r.call(ctx, llm.Request{
		Name:        flow,
		Prompt:      prompt,
		Schema:      schema,
		Temperature: 0.3,
	}, &out); err != nil {
		return nil, err
	}

	out.ConditionKey = strings.TrimSpace(out.ConditionKey)
	out.ConditionName = strings.TrimSpace(out.ConditionName)
	if out.IsDynamic == nil {
		return nil, malformed(flow, "isDynamic missing")
	}

	switch {
	case out.ConditionKey == catalog.OtherKey:
		if !*out.IsDynamic {
			return nil, malformed(flow, "key %q must be dynamic", out.ConditionKey)
		}
		if out.ConditionName == "" {
			return nil, malformed(flow, "dynamic plan has no name")
		}
	case r.catalog.IsCatalogKey(out.ConditionKey):
		if *out.IsDynamic {
			return nil, malformed(flow, "catalog key %q marked dynamic", out.ConditionKey)
		}
		out.ConditionName = r.catalog.Name(out.ConditionKey)
	default:
		return nil, malformed(flow, "unknown condition key %q", out.ConditionKey)
	}

	return &out, nil
}

// AnalyzePrescription matches a prescription document to a catalog key. The
// dynamic "other" plan is never a valid answer here.
func (r *Runner) AnalyzePrescription(ctx context.Context, doc Document) (*DocumentClassification, error) {
	const flow = "analyzePrescription"

	keys := r.catalog.Keys(false)
	prompt, err := render(analyzePrescriptionPrompt, struct{ Keys []string }{keys})
	if err != nil {
		return nil, err
	}

	schema := llm.Object(
		llm.Field("conditionKey", llm.String("The matching recovery plan key.").WithEnum(keys...)),
		llm.Field("reasoning", llm.String("The diagnosis found and why the key fits.")),
	)

	var out DocumentClassification
	if err := r.call(ctx, llm.Request{
		Name:        flow,
		Prompt:      prompt,
		Attachments: []llm.Attachment{{MIMEType: doc.MIMEType, Data: doc.Data}},
		Schema:      schema,
		Temperature: 0.2,
	}, &out); err != nil {
		return nil, err
	}

	out.ConditionKey = strings.TrimSpace(out.ConditionKey)
	if !r.catalog.IsCatalogKey(out.ConditionKey) {
		return nil, malformed(flow, "key %q is not a catalog plan", out.ConditionKey)
	}
	return &out, nil
}
