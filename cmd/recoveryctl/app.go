package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"recovery-plan/internal/app"
	"recovery-plan/internal/catalog"
	"recovery-plan/internal/config"
	"recovery-plan/internal/database"
	"recovery-plan/internal/logger"
	"recovery-plan/internal/services"
)

type App struct {
	ClientID string
	Output   string

	services *services.ServiceManager
	db       *database.Database
}

func NewApp() *App {
	return &App{}
}

func (a *App) CreateRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recoveryctl",
		Short: "Operate recovery plans from the command line",
		Long: `recoveryctl works with the same database and language model as the bot.
Plans, completion and progress are stored under the selected client profile.`,
		SilenceUsage: true,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.ClientID, "client", "cli", "client profile to act as")
	rootCmd.PersistentFlags().StringVarP(&a.Output, "output", "o", "text", "output format: text or yaml")

	a.addPlanCommands(rootCmd)
	a.addAssistantCommands(rootCmd)
	return rootCmd
}

// Services opens the database and language model on first use.
func (a *App) Services() (*services.ServiceManager, error) {
	if a.services != nil {
		return a.services, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, err
	}
	if err := cfg.Validate(false); err != nil {
		return nil, err
	}

	sm, db, err := app.NewServices(cfg)
	if err != nil {
		return nil, err
	}
	a.services, a.db = sm, db
	return sm, nil
}

func (a *App) client(ctx context.Context) (*services.Client, error) {
	sm, err := a.Services()
	if err != nil {
		return nil, err
	}
	client := sm.OpenClient(ctx, a.ClientID)
	if !client.Session.Available() {
		logger.Warn("⚠️ Session unavailable, results will not be saved", "client", a.ClientID)
	}
	return client, nil
}

// condition resolves a condition flag. Catalog keys take the catalog name;
// the dynamic key needs an explicit name.
func (a *App) condition(key, name string) (services.ActiveCondition, error) {
	cat := catalog.Default()
	switch {
	case cat.IsCatalogKey(key):
		return services.ActiveCondition{Key: key, Name: cat.Name(key)}, nil
	case key == catalog.OtherKey && name != "":
		return services.ActiveCondition{Key: key, Name: name}, nil
	case key == catalog.OtherKey:
		return services.ActiveCondition{}, fmt.Errorf("--name is required for the %q plan", catalog.OtherKey)
	default:
		return services.ActiveCondition{}, fmt.Errorf("unknown condition %q, see 'recoveryctl conditions'", key)
	}
}

func (a *App) date(value string) (time.Time, error) {
	sm, err := a.Services()
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return sm.Now(), nil
	}
	return parseDate(value, sm.Location())
}

// render writes v as YAML, or calls text for the default format.
func (a *App) render(w io.Writer, v any, text func(io.Writer)) error {
	switch a.Output {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "text", "":
		text(w)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", a.Output)
	}
}

func (a *App) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("⚠️ Failed to close database", "error", err)
		}
		a.db = nil
		a.services = nil
	}
}
