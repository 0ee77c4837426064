package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recovery-plan/internal/flows"
	"recovery-plan/internal/logger"
)

// MaxDocumentSize bounds uploaded prescriptions.
const MaxDocumentSize = 10 << 20

type ConditionAnalyzer interface {
	AnalyzeSymptoms(ctx context.Context, symptoms string) (*flows.SymptomClassification, error)
	AnalyzePrescription(ctx context.Context, doc flows.Document) (*flows.DocumentClassification, error)
}

type ConditionClassifier struct {
	analyzer ConditionAnalyzer
	timeout  time.Duration
}

func NewConditionClassifier(analyzer ConditionAnalyzer, timeout time.Duration) *ConditionClassifier {
	return &ConditionClassifier{analyzer: analyzer, timeout: timeout}
}

// ClassifyFromText maps free-text symptoms to a catalog plan or a dynamic one.
func (cc *ConditionClassifier) ClassifyFromText(ctx context.Context, symptoms string) (*flows.SymptomClassification, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return nil, fmt.Errorf("%w: symptoms are empty", ErrInvalidInput)
	}

	ctx, cancel := withTimeout(ctx, cc.timeout)
	defer cancel()

	result, err := cc.analyzer.AnalyzeSymptoms(ctx, symptoms)
	if err != nil {
		return nil, wrap(ErrGeneration, err)
	}
	logger.Info("🩺 Symptoms classified", "condition", result.ConditionKey, "dynamic", result.Dynamic())
	return result, nil
}

// ClassifyFromDocument maps a prescription image or PDF to a catalog plan.
func (cc *ConditionClassifier) ClassifyFromDocument(ctx context.Context, doc flows.Document) (*flows.DocumentClassification, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, cc.timeout)
	defer cancel()

	result, err := cc.analyzer.AnalyzePrescription(ctx, doc)
	if err != nil {
		return nil, wrap(ErrGeneration, err)
	}
	logger.Info("📄 Prescription classified", "condition", result.ConditionKey, "mime", doc.MIMEType)
	return result, nil
}

func validateDocument(doc flows.Document) error {
	switch {
	case len(doc.Data) == 0:
		return fmt.Errorf("%w: document is empty", ErrInvalidInput)
	case len(doc.Data) > MaxDocumentSize:
		return fmt.Errorf("%w: document exceeds %d bytes", ErrInvalidInput, MaxDocumentSize)
	case strings.HasPrefix(doc.MIMEType, "image/"), doc.MIMEType == "application/pdf":
		return nil
	default:
		return fmt.Errorf("%w: unsupported document type %q", ErrInvalidInput, doc.MIMEType)
	}
}
