package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"recovery-plan/internal/logger"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 2048

// AnthropicClient has no native response schema, so the schema travels in the
// system prompt and the reply is trimmed to its JSON object.
type AnthropicClient struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *anthropic.Client
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{apiKey: apiKey, model: model}
}

func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

func (c *AnthropicClient) initializeClientIfNeeded() (*anthropic.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key missing", ErrNotConfigured)
	}

	client := anthropic.NewClient(option.WithAPIKey(c.apiKey), option.WithMaxRetries(0))
	c.client = &client
	logger.Debug("Anthropic client initialized", "model", c.model)
	return c.client, nil
}

func (c *AnthropicClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	client, err := c.initializeClientIfNeeded()
	if err != nil {
		return "", err
	}

	params, err := c.buildParams(req)
	if err != nil {
		return "", err
	}

	logger.Debug("Sending Anthropic request", "flow", req.Name, "model", c.model, "attachments", len(req.Attachments))
	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		text.WriteString(block.Text)
	}
	if text.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return ExtractJSON(text.String())
}

func (c *AnthropicClient) buildParams(req Request) (anthropic.MessageNewParams, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, a := range req.Attachments {
		encoded := base64.StdEncoding.EncodeToString(a.Data)
		switch {
		case a.IsImage():
			blocks = append(blocks, anthropic.NewImageBlockBase64(a.MIMEType, encoded))
		case a.IsPDF():
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: encoded}))
		default:
			return anthropic.MessageNewParams{}, fmt.Errorf("%w: %s", ErrUnsupportedAttachment, a.MIMEType)
		}
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	system, err := anthropicSystemPrompt(req)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   anthropicMaxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params, nil
}

func anthropicSystemPrompt(req Request) (string, error) {
	if req.Schema == nil {
		return req.System, nil
	}
	schema, err := json.MarshalIndent(req.Schema.JSONSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode response schema: %w", err)
	}

	var b strings.Builder
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a single JSON object and nothing else. It must validate against this JSON Schema:\n")
	b.Write(schema)
	return b.String(), nil
}
