package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/database"
	"recovery-plan/internal/services"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := NewApp()
	root := app.CreateRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConditionsCommand(t *testing.T) {
	out, err := execute(t, "conditions")
	require.NoError(t, err)
	assert.Contains(t, out, "flu")
	assert.Contains(t, out, "Influenza (Flu)")
}

func TestConditionsCommand_YAML(t *testing.T) {
	out, err := execute(t, "conditions", "-o", "yaml")
	require.NoError(t, err)

	var decoded []map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded, len(catalog.Default().Conditions()))
}

func TestConditionsCommand_UnknownFormat(t *testing.T) {
	_, err := execute(t, "conditions", "-o", "xml")
	assert.Error(t, err)
}

func TestToggleCommand_RequiresArgs(t *testing.T) {
	_, err := execute(t, "toggle", "--condition", "flu")
	assert.Error(t, err)
}

func TestApp_Condition(t *testing.T) {
	a := NewApp()

	cond, err := a.condition("flu", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "Influenza (Flu)", cond.Name)

	cond, err = a.condition("other", "Sore Throat")
	require.NoError(t, err)
	assert.Equal(t, services.ActiveCondition{Key: "other", Name: "Sore Throat"}, cond)

	_, err = a.condition("other", "")
	assert.Error(t, err)
	_, err = a.condition("dragon-pox", "")
	assert.Error(t, err)
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", mimeType("rx.PDF", nil))
	assert.Equal(t, "image/jpeg", mimeType("rx.jpeg", nil))
	assert.Equal(t, "image/png", mimeType("scan", []byte("\x89PNG\r\n\x1a\n0000")))
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-03-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	_, err = parseDate("03/01/2024", time.UTC)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestNewDayView(t *testing.T) {
	plan := &services.DayPlanResult{
		DayNumber: 2,
		PlanDate:  "2024-03-02",
		Persisted: true,
		Tasks: []database.Task{
			{ID: "flu-2-1", Text: "Rest", Icon: "Bed"},
			{ID: "flu-2-2", Text: "Drink water", Icon: "GlassWater"},
		},
	}
	done := services.NewCompletionSet(plan.Tasks[1])

	view := newDayView(services.ActiveCondition{Key: "flu", Name: "Influenza (Flu)"}, plan, done)
	require.Len(t, view.Tasks, 2)
	assert.False(t, view.Tasks[0].Done)
	assert.True(t, view.Tasks[1].Done)

	var out bytes.Buffer
	printDay(&out, view)
	assert.Contains(t, out.String(), "day 2 of 100")
	assert.Contains(t, out.String(), "✅ 🥛 flu-2-2")
}
