package llm

import "fmt"

// NewModel returns the client for a configured provider name.
func NewModel(provider, apiKey, model string) (Model, error) {
	switch provider {
	case "gemini":
		return NewGeminiClient(apiKey, model), nil
	case "openai":
		return NewOpenAIClient(apiKey, model), nil
	case "anthropic":
		return NewAnthropicClient(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown language model provider %q", provider)
	}
}
