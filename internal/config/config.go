package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Telegram struct {
		Token   string  `yaml:"token"`
		ChatIDs []int64 `yaml:"chat_ids"`
	} `yaml:"telegram"`
	Database struct {
		Path    string        `yaml:"path"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"database"`
	LLM struct {
		Provider string        `yaml:"provider"`
		Model    string        `yaml:"model"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"llm"`
	Schedule struct {
		PlanReminder string `yaml:"plan_reminder"`
		SaveReminder string `yaml:"save_reminder"`
	} `yaml:"schedule"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Location *time.Location `yaml:"-"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Telegram.Token = getEnv("TG_TOKEN", "")

	chatIDs, err := parseChatIDs(getEnv("TG_CHAT_IDS", ""))
	if err != nil {
		return nil, err
	}
	cfg.Telegram.ChatIDs = chatIDs

	cfg.Database.Path = getEnv("DB_PATH", "recovery-plan.db")
	if cfg.Database.Timeout, err = getDuration("STORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini))
	cfg.LLM.Model = getEnv("LLM_MODEL", defaultModel(cfg.LLM.Provider))
	cfg.LLM.APIKey = apiKeyFor(cfg.LLM.Provider)
	if cfg.LLM.Timeout, err = getDuration("LLM_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	cfg.Schedule.PlanReminder = getEnv("PLAN_REMINDER_CRON", "0 7 * * *")
	cfg.Schedule.SaveReminder = getEnv("SAVE_REMINDER_CRON", "0 20 * * *")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.File = getEnv("LOG_FILE", "")

	tz := getEnv("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// Validate checks the settings required to run. The operator CLI does not
// need a bot token, the service does.
func (c *Config) Validate(requireTelegram bool) error {
	if requireTelegram && c.Telegram.Token == "" {
		return fmt.Errorf("TG_TOKEN is not set; export it or add it to .env")
	}
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("no API key configured for provider %s", c.LLM.Provider)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is empty")
	}
	return nil
}

// ChatAllowed reports whether the chat may use the bot. An empty allow-list
// admits every chat.
func (c *Config) ChatAllowed(chatID int64) bool {
	if len(c.Telegram.ChatIDs) == 0 {
		return true
	}
	for _, id := range c.Telegram.ChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return "gemini-2.0-flash"
	}
}

func apiKeyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return getEnv("OPENAI_API_KEY", "")
	case ProviderAnthropic:
		return getEnv("ANTHROPIC_API_KEY", "")
	default:
		return getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", ""))
	}
}

func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TG_CHAT_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
