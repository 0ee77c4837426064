package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/config"
	"recovery-plan/internal/database"
	"recovery-plan/internal/flows"
	"recovery-plan/internal/llm"
	"recovery-plan/internal/logger"
	"recovery-plan/internal/services"
	"recovery-plan/internal/telegram"
	"recovery-plan/internal/utils"
)

type Application struct {
	config     *config.Config
	db         *database.Database
	bot        *telegram.Bot
	services   *services.ServiceManager
	cron       *cron.Cron
	cancelFunc context.CancelFunc
	ctx        context.Context
}

// NewServices opens the database and builds the service layer. The caller
// owns the returned database.
func NewServices(cfg *config.Config) (*services.ServiceManager, *database.Database, error) {
	model, err := llm.NewModel(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	runner := flows.NewRunner(model, catalog.Default())
	serviceManager := services.NewServiceManager(db, runner, services.Options{
		Timeouts: services.Timeouts{Store: cfg.Database.Timeout, LLM: cfg.LLM.Timeout},
		Location: cfg.Location,
	})

	logger.Info("🧠 Language model ready", "provider", model.Provider(), "model", cfg.LLM.Model)
	return serviceManager, db, nil
}

func New(cfg *config.Config) (*Application, error) {
	serviceManager, db, err := NewServices(cfg)
	if err != nil {
		return nil, err
	}

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.ChatAllowed, serviceManager)
	if err != nil {
		db.Close()
		return nil, err
	}

	serviceManager.SetNotificationSender(bot)
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config:     cfg,
		db:         db,
		bot:        bot,
		services:   serviceManager,
		cron:       cron.New(cron.WithLocation(cfg.Location)),
		cancelFunc: cancel,
		ctx:        ctx,
	}

	if err := app.setupCronJobs(); err != nil {
		cancel()
		db.Close()
		return nil, err
	}

	return app, nil
}

func (a *Application) Start() error {
	logger.Info("🚀 Starting application")

	go a.bot.Start(a.ctx)
	a.cron.Start()

	logger.Info("✅ Application started", "bot", "@"+a.bot.GetUsername())
	logger.Info(utils.GetTimezoneInfo(a.services.Now(), a.config.Location))
	return nil
}

func (a *Application) Stop() error {
	logger.Info("🛑 Stopping application")

	a.cancelFunc()
	<-a.cron.Stop().Done()

	if err := a.db.Close(); err != nil {
		logger.Warn("⚠️ Failed to close database", "error", err)
	}

	logger.Info("✅ Application stopped")
	return nil
}

func (a *Application) setupCronJobs() error {
	// Warm and send today's plan to every client following one.
	if _, err := a.cron.AddFunc(a.config.Schedule.PlanReminder, func() {
		a.services.Reminder.SendMorningPlans(a.ctx)
	}); err != nil {
		return fmt.Errorf("plan reminder schedule %q: %w", a.config.Schedule.PlanReminder, err)
	}

	// Evening nudge to save ticked tasks.
	if _, err := a.cron.AddFunc(a.config.Schedule.SaveReminder, func() {
		a.services.Reminder.SendSaveReminders(a.ctx)
	}); err != nil {
		return fmt.Errorf("save reminder schedule %q: %w", a.config.Schedule.SaveReminder, err)
	}

	return nil
}
