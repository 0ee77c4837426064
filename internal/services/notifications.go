package services

import (
	"context"
	"fmt"
	"time"

	"recovery-plan/internal/database"
	"recovery-plan/internal/logger"
	"recovery-plan/internal/utils"
)

// NotificationSender delivers reminders to a client.
type NotificationSender interface {
	SendMessage(clientID string, text string) error
	SendDayPlan(clientID string, cond ActiveCondition, plan *DayPlanResult, done *CompletionSet) error
}

// ActiveClientLister enumerates client-local values across clients.
type ActiveClientLister interface {
	ListLocalByKey(ctx context.Context, key string) ([]database.LocalEntry, error)
}

type ReminderService struct {
	sender     NotificationSender
	clients    ActiveClientLister
	open       func(clientID string) LocalStore
	sessions   *SessionProvider
	plans      *DayPlanService
	completion *CompletionTracker
	timeout    time.Duration
	now        func() time.Time
}

func NewReminderService(sender NotificationSender, sm *ServiceManager) *ReminderService {
	return &ReminderService{
		sender:     sender,
		clients:    sm.repository,
		open:       sm.LocalStore,
		sessions:   sm.Sessions,
		plans:      sm.DayPlans,
		completion: sm.Completion,
		timeout:    sm.timeouts.Store,
		now:        sm.now,
	}
}

type activeClient struct {
	client    *Client
	condition ActiveCondition
}

func (rs *ReminderService) activeClients(ctx context.Context) ([]activeClient, error) {
	listCtx, cancel := withTimeout(ctx, rs.timeout)
	entries, err := rs.clients.ListLocalByKey(listCtx, activeConditionKey)
	cancel()
	if err != nil {
		return nil, wrap(ErrStorageRead, err)
	}

	var out []activeClient
	for _, e := range entries {
		cond, err := DecodeActiveCondition(e.Value)
		if err != nil {
			logger.Warn("⚠️ Skipping client with bad active condition", "client", e.ClientID, "error", err)
			continue
		}
		out = append(out, activeClient{
			client:    rs.sessions.Resolve(ctx, rs.open(e.ClientID)),
			condition: cond,
		})
	}
	return out, nil
}

// SendMorningPlans prepares today's plan for every client following one and
// sends it. Stored plans are reused, so this never regenerates a day.
func (rs *ReminderService) SendMorningPlans(ctx context.Context) {
	clients, err := rs.activeClients(ctx)
	if err != nil {
		logger.Error("⚠️ Failed to list active clients", "error", err)
		return
	}

	today := rs.now()
	logger.Info("🔔 Morning plans", "clients", len(clients), "date", utils.DateKey(today, rs.plans.location))

	for _, ac := range clients {
		id := ac.client.Local.ClientID()
		plan, err := rs.plans.GetDayTasks(ctx, ac.client, ac.condition.Key, ac.condition.Name, today)
		if err != nil {
			logger.Error("❌ Failed to prepare plan", "client", id, "condition", ac.condition.Key, "error", err)
			continue
		}
		if plan.OutOfPeriod {
			logger.Debug("Plan period over, no reminder", "client", id, "day", plan.DayNumber)
			continue
		}

		done, err := rs.completion.LoadCompletion(ctx, ac.client.Session, ac.condition.Key, plan.PlanDate)
		if err != nil {
			logger.Warn("⚠️ Failed to load completion", "client", id, "error", err)
			done = NewCompletionSet()
		}

		if err := rs.sender.SendDayPlan(id, ac.condition, plan, done); err != nil {
			logger.Error("❌ Failed to send plan", "client", id, "error", err)
			continue
		}
		logger.Info("✅ Plan sent", "client", id, "day", plan.DayNumber)
	}
}

// SendSaveReminders nudges every active client to save today's progress.
func (rs *ReminderService) SendSaveReminders(ctx context.Context) {
	clients, err := rs.activeClients(ctx)
	if err != nil {
		logger.Error("⚠️ Failed to list active clients", "error", err)
		return
	}

	planDate := utils.DateKey(rs.now(), rs.plans.location)
	for _, ac := range clients {
		id := ac.client.Local.ClientID()
		done, err := rs.completion.LoadCompletion(ctx, ac.client.Session, ac.condition.Key, planDate)
		if err != nil {
			logger.Warn("⚠️ Failed to load completion", "client", id, "error", err)
			continue
		}

		text := fmt.Sprintf(
			"🌙 <b>Evening check-in: %s</b>\n\n"+
				"✅ Saved so far today: %d task(s)\n\n"+
				"Open /today, tick what you finished and press Save.",
			ac.condition.Name,
			done.Len(),
		)
		if err := rs.sender.SendMessage(id, text); err != nil {
			logger.Error("❌ Failed to send reminder", "client", id, "error", err)
		}
	}
}
