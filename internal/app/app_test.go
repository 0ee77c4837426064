package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recovery-plan/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{Location: time.UTC}
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	cfg.Database.Timeout = time.Second
	cfg.LLM.Provider = config.ProviderGemini
	cfg.LLM.Model = "gemini-2.0-flash"
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.Timeout = time.Second
	cfg.Schedule.PlanReminder = "0 7 * * *"
	cfg.Schedule.SaveReminder = "0 20 * * *"
	return cfg
}

func TestNewServices(t *testing.T) {
	sm, db, err := NewServices(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.NotNil(t, sm.DayPlans)
	assert.NotNil(t, sm.Classifier)
	assert.Equal(t, time.UTC, sm.Location())
}

func TestNewServices_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "mystery"

	_, _, err := NewServices(cfg)
	assert.Error(t, err)
}

func TestSetupCronJobs(t *testing.T) {
	cfg := testConfig(t)
	a := &Application{config: cfg, cron: cron.New()}
	require.NoError(t, a.setupCronJobs())
	assert.Len(t, a.cron.Entries(), 2)

	cfg.Schedule.SaveReminder = "every evening"
	a = &Application{config: cfg, cron: cron.New()}
	assert.Error(t, a.setupCronJobs())
}
