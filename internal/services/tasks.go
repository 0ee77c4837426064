package services

import (
	"context"
	"time"

	"recovery-plan/internal/database"
	"recovery-plan/internal/flows"
	"recovery-plan/internal/logger"
	"recovery-plan/internal/utils"
)

// PlanLength is the number of days a recovery plan covers.
const PlanLength = 100

// PlanStore is the remote store of generated day plans.
type PlanStore interface {
	GetDayPlan(ctx context.Context, sessionID, conditionKey, planDate string) (*database.DayPlan, error)
	UpsertDayPlan(ctx context.Context, plan database.DayPlan) error
}

type TaskGenerator interface {
	GenerateRecoveryTasks(ctx context.Context, in flows.TaskRequest) ([]database.Task, error)
}

type DayPlanResult struct {
	DayNumber   int
	PlanDate    string
	Tasks       []database.Task
	OutOfPeriod bool
	// Generated is true when the tasks came from the model on this call.
	Generated bool
	// Persisted is false when freshly generated tasks could not be stored.
	Persisted bool
}

type DayPlanService struct {
	store     PlanStore
	generator TaskGenerator
	starts    *PlanStartRegistry
	timeouts  Timeouts
	location  *time.Location
}

func NewDayPlanService(store PlanStore, generator TaskGenerator, starts *PlanStartRegistry, timeouts Timeouts) *DayPlanService {
	return &DayPlanService{
		store:     store,
		generator: generator,
		starts:    starts,
		timeouts:  timeouts,
		location:  starts.location,
	}
}

// GetDayTasks returns the task list for planDate. A stored plan is returned
// as is; otherwise one is generated and stored for later calls. Dates outside
// the plan period return no tasks without touching the store or the model.
func (s *DayPlanService) GetDayTasks(ctx context.Context, client *Client, conditionKey, conditionName string, planDate time.Time) (*DayPlanResult, error) {
	start, err := s.starts.GetPlanStartDate(ctx, client.Local, conditionKey)
	if err != nil {
		if client.Session.Available() {
			return nil, err
		}
		// Local storage is gone: serve today as day 1 and keep nothing.
		logger.Warn("⚠️ Plan start unavailable, using today", "client", client.Local.ClientID(), "condition", conditionKey, "error", err)
		start = s.starts.now()
	}

	result := &DayPlanResult{
		DayNumber: s.starts.DayNumber(planDate, start),
		PlanDate:  utils.DateKey(planDate, s.location),
		Tasks:     []database.Task{},
	}
	if result.DayNumber < 1 || result.DayNumber > PlanLength {
		result.OutOfPeriod = true
		return result, nil
	}

	session := client.Session
	if session.Available() {
		plan, err := s.readPlan(ctx, session.ID, conditionKey, result.PlanDate)
		if err != nil {
			return nil, wrap(ErrStorageRead, err)
		}
		if plan != nil {
			result.Tasks = plan.Tasks
			result.Persisted = true
			return result, nil
		}
	}

	tasks, err := s.generate(ctx, flows.TaskRequest{
		ConditionKey:  conditionKey,
		ConditionName: conditionName,
		DayNumber:     result.DayNumber,
	})
	if err != nil {
		return nil, wrap(ErrGeneration, err)
	}
	result.Tasks = tasks
	result.Generated = true

	if !session.Available() {
		logger.Warn("⚠️ No session, plan not saved", "client", client.Local.ClientID(), "condition", conditionKey)
		return result, nil
	}

	if err := s.writePlan(ctx, database.DayPlan{
		SessionID:    session.ID,
		ConditionKey: conditionKey,
		PlanDate:     result.PlanDate,
		Tasks:        tasks,
	}); err != nil {
		logger.Warn("⚠️ Failed to save generated plan", "condition", conditionKey, "date", result.PlanDate, "error", err)
		return result, nil
	}
	result.Persisted = true

	logger.Info("📋 Plan generated", "condition", conditionKey, "day", result.DayNumber, "tasks", len(tasks))
	return result, nil
}

func (s *DayPlanService) readPlan(ctx context.Context, sessionID, conditionKey, planDate string) (*database.DayPlan, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Store)
	defer cancel()
	return s.store.GetDayPlan(ctx, sessionID, conditionKey, planDate)
}

func (s *DayPlanService) writePlan(ctx context.Context, plan database.DayPlan) error {
	ctx, cancel := withTimeout(ctx, s.timeouts.Store)
	defer cancel()
	return s.store.UpsertDayPlan(ctx, plan)
}

func (s *DayPlanService) generate(ctx context.Context, in flows.TaskRequest) ([]database.Task, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.LLM)
	defer cancel()
	return s.generator.GenerateRecoveryTasks(ctx, in)
}
