package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func taskSchema() *Schema {
	return Object(
		Field("tasks", Array("tasks", Object(
			Field("id", String("task id")),
			Field("icon", String("icon").WithEnum("Bed", "Pill")),
		)).WithItemRange(5, 7)),
		Field("rate", Number("rate").WithRange(0, 1)),
	)
}

func TestSchema_JSONSchema(t *testing.T) {
	js := taskSchema().JSONSchema()

	assert.Equal(t, "object", js["type"])
	assert.Equal(t, []string{"tasks", "rate"}, js["required"])
	assert.Equal(t, false, js["additionalProperties"])

	props := js["properties"].(map[string]any)
	tasks := props["tasks"].(map[string]any)
	assert.Equal(t, "array", tasks["type"])
	assert.Equal(t, int64(5), tasks["minItems"])
	assert.Equal(t, int64(7), tasks["maxItems"])

	item := tasks["items"].(map[string]any)
	icon := item["properties"].(map[string]any)["icon"].(map[string]any)
	assert.Equal(t, []string{"Bed", "Pill"}, icon["enum"])

	rate := props["rate"].(map[string]any)
	assert.Equal(t, 0.0, rate["minimum"])
	assert.Equal(t, 1.0, rate["maximum"])

	var nilSchema *Schema
	assert.Nil(t, nilSchema.JSONSchema())
}

func TestToGeminiSchema(t *testing.T) {
	gs := toGeminiSchema(taskSchema())

	require.NotNil(t, gs)
	assert.Equal(t, genai.TypeObject, gs.Type)
	assert.Equal(t, []string{"tasks", "rate"}, gs.Required)
	assert.Equal(t, []string{"tasks", "rate"}, gs.PropertyOrdering)

	tasks := gs.Properties["tasks"]
	assert.Equal(t, genai.TypeArray, tasks.Type)
	assert.Equal(t, int64(5), *tasks.MinItems)

	icon := tasks.Items.Properties["icon"]
	assert.Equal(t, "enum", icon.Format)
	assert.Equal(t, []string{"Bed", "Pill"}, icon.Enum)
	assert.Equal(t, genai.TypeNumber, gs.Properties["rate"].Type)

	assert.Nil(t, toGeminiSchema(nil))
}

func TestGeminiClient_BuildGenerationConfig(t *testing.T) {
	c := NewGeminiClient("key", "gemini-2.0-flash")
	cfg := c.buildGenerationConfig(Request{
		System:      "be brief",
		Temperature: 0.5,
		Schema:      taskSchema(),
		Safety:      []SafetySetting{{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"}},
	})

	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.InDelta(t, 0.5, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.SystemInstruction)
	require.Len(t, cfg.SafetySettings, 1)
	assert.Equal(t, genai.HarmCategoryHarassment, cfg.SafetySettings[0].Category)
	assert.Equal(t, genai.HarmBlockThresholdBlockMediumAndAbove, cfg.SafetySettings[0].Threshold)
}

func TestClients_NotConfigured(t *testing.T) {
	for _, m := range []Model{
		NewGeminiClient("", "m"),
		NewOpenAIClient("", "m"),
		NewAnthropicClient("", "m"),
	} {
		t.Run(m.Provider(), func(t *testing.T) {
			_, err := m.GenerateJSON(context.Background(), Request{Prompt: "hi"})
			assert.True(t, errors.Is(err, ErrNotConfigured))
		})
	}
}

func TestOpenAIClient_BuildParams(t *testing.T) {
	c := NewOpenAIClient("key", "gpt-4o-mini")

	params, err := c.buildParams(Request{
		Name:        "generateRecoveryTasks",
		System:      "system",
		Prompt:      "prompt",
		Schema:      taskSchema(),
		Temperature: 0.2,
		Attachments: []Attachment{
			{MIMEType: "image/png", Data: []byte{1, 2}},
			{MIMEType: "application/pdf", Data: []byte("%PDF")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", params.Model)
	assert.Len(t, params.Messages, 2)
	require.NotNil(t, params.ResponseFormat.OfJSONSchema)
	assert.Equal(t, "generateRecoveryTasks", params.ResponseFormat.OfJSONSchema.JSONSchema.Name)

	_, err = c.buildParams(Request{Prompt: "p", Attachments: []Attachment{{MIMEType: "text/csv"}}})
	assert.True(t, errors.Is(err, ErrUnsupportedAttachment))
}

func TestAnthropicClient_BuildParams(t *testing.T) {
	c := NewAnthropicClient("key", "claude")

	params, err := c.buildParams(Request{
		System: "be kind",
		Prompt: "prompt",
		Schema: taskSchema(),
		Attachments: []Attachment{
			{MIMEType: "image/jpeg", Data: []byte{1}},
			{MIMEType: "application/pdf", Data: []byte("%PDF")},
		},
	})
	require.NoError(t, err)

	require.Len(t, params.Messages, 1)
	assert.Len(t, params.Messages[0].Content, 3)
	require.Len(t, params.System, 1)
	assert.Contains(t, params.System[0].Text, "be kind")
	assert.Contains(t, params.System[0].Text, `"additionalProperties": false`)

	_, err = c.buildParams(Request{Prompt: "p", Attachments: []Attachment{{MIMEType: "audio/ogg"}}})
	assert.True(t, errors.Is(err, ErrUnsupportedAttachment))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
		wantErr        bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"prose", "Sure! {\"a\":{\"b\":2}} Hope this helps.", `{"a":{"b":2}}`, false},
		{"none", "no json here", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttachment(t *testing.T) {
	a := Attachment{MIMEType: "image/png", Data: []byte("hi")}
	assert.Equal(t, "data:image/png;base64,aGk=", a.DataURI())
	assert.True(t, a.IsImage())
	assert.False(t, a.IsPDF())
	assert.True(t, Attachment{MIMEType: "application/pdf"}.IsPDF())
}

func TestNewModel(t *testing.T) {
	for _, p := range []string{"gemini", "openai", "anthropic"} {
		m, err := NewModel(p, "k", "m")
		require.NoError(t, err)
		assert.Equal(t, p, m.Provider())
	}
	_, err := NewModel("llama", "k", "m")
	assert.Error(t, err)
}
