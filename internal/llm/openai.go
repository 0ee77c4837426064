package llm

import (
	"context"
	"fmt"
	"sync"

	"recovery-plan/internal/logger"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient uses chat completions with a strict JSON-schema response format.
type OpenAIClient struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *openai.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{apiKey: apiKey, model: model}
}

func (c *OpenAIClient) Provider() string {
	return "openai"
}

func (c *OpenAIClient) initializeClientIfNeeded() (*openai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key missing", ErrNotConfigured)
	}

	// Retries are the caller's decision.
	client := openai.NewClient(option.WithAPIKey(c.apiKey), option.WithMaxRetries(0))
	c.client = &client
	logger.Debug("OpenAI client initialized", "model", c.model)
	return c.client, nil
}

func (c *OpenAIClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	client, err := c.initializeClientIfNeeded()
	if err != nil {
		return "", err
	}

	params, err := c.buildParams(req)
	if err != nil {
		return "", err
	}

	logger.Debug("Sending OpenAI request", "flow", req.Name, "model", c.model, "attachments", len(req.Attachments))
	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) buildParams(req Request) (openai.ChatCompletionNewParams, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(req.Prompt)}
	for i, a := range req.Attachments {
		switch {
		case a.IsImage():
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: a.DataURI(),
			}))
		case a.IsPDF():
			parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
				FileData: openai.String(a.DataURI()),
				Filename: openai.String(fmt.Sprintf("document-%d.pdf", i+1)),
			}))
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("%w: %s", ErrUnsupportedAttachment, a.MIMEType)
		}
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(parts))

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.Schema != nil {
		name := req.Name
		if name == "" {
			name = "response"
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Strict: openai.Bool(true),
					Schema: req.Schema.JSONSchema(),
				},
			},
		}
	}
	return params, nil
}
