package services

import (
	"context"
	"time"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/database"
	"recovery-plan/internal/flows"
)

type Options struct {
	Timeouts Timeouts
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

type ServiceManager struct {
	Sessions   *SessionProvider
	PlanStarts *PlanStartRegistry
	DayPlans   *DayPlanService
	Completion *CompletionTracker
	Progress   *ProgressSummarizer
	Classifier *ConditionClassifier
	Motivation *MotivationService
	Views      *ViewTracker
	Reminder   *ReminderService
	Catalog    *catalog.Catalog

	repository *database.Repository
	timeouts   Timeouts
	now        func() time.Time
}

func NewServiceManager(db *database.Database, runner *flows.Runner, opts Options) *ServiceManager {
	repo := database.NewRepository(db)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	starts := NewPlanStartRegistry(opts.Timeouts.Store, opts.Location, opts.Now)

	return &ServiceManager{
		Sessions:   NewSessionProvider(opts.Timeouts.Store),
		PlanStarts: starts,
		DayPlans:   NewDayPlanService(repo, runner, starts, opts.Timeouts),
		Completion: NewCompletionTracker(repo, opts.Timeouts.Store),
		Progress:   NewProgressSummarizer(repo, runner, runner.Catalog(), opts.Timeouts),
		Classifier: NewConditionClassifier(runner, opts.Timeouts.LLM),
		Motivation: NewMotivationService(runner, opts.Timeouts.LLM),
		Views:      NewViewTracker(),
		Reminder:   nil,
		Catalog:    runner.Catalog(),
		repository: repo,
		timeouts:   opts.Timeouts,
		now:        opts.Now,
	}
}

func (sm *ServiceManager) SetNotificationSender(sender NotificationSender) {
	sm.Reminder = NewReminderService(sender, sm)
}

// LocalStore returns the durable local storage of a client installation.
func (sm *ServiceManager) LocalStore(clientID string) LocalStore {
	return database.NewLocalStore(sm.repository, clientID)
}

// OpenClient resolves the client's session. A client whose storage is
// unavailable still opens, with an empty session.
func (sm *ServiceManager) OpenClient(ctx context.Context, clientID string) *Client {
	return sm.Sessions.Resolve(ctx, sm.LocalStore(clientID))
}

func (sm *ServiceManager) Now() time.Time {
	return sm.now()
}

func (sm *ServiceManager) Location() *time.Location {
	return sm.PlanStarts.location
}
