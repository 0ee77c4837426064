package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recovery-plan/internal/logger"
	"recovery-plan/internal/utils"
)

const (
	sessionKey         = "recovery_session_id"
	planStartKeyPrefix = "plan_start_date_"
	activeConditionKey = "active_condition"
)

// LocalStore is the durable key/value storage of one client installation.
type LocalStore interface {
	ClientID() string
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetIfAbsent(ctx context.Context, key, value string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Session identifies a client to the remote store. An empty ID means the
// session could not be established and remote reads and writes are skipped.
type Session struct {
	ID string
}

func (s Session) Available() bool {
	return s.ID != ""
}

// Client is one installation: its local storage and the session resolved
// from it. Resolve it once per request and pass it down.
type Client struct {
	Local   LocalStore
	Session Session
}

type SessionProvider struct {
	timeout time.Duration
	newID   func() string
}

func NewSessionProvider(timeout time.Duration) *SessionProvider {
	return &SessionProvider{
		timeout: timeout,
		newID:   func() string { return uuid.New().String() },
	}
}

// GetOrCreateSessionID returns the client's session id, creating and storing
// a UUIDv4 on first use. Any storage failure yields "".
func (sp *SessionProvider) GetOrCreateSessionID(ctx context.Context, local LocalStore) string {
	ctx, cancel := withTimeout(ctx, sp.timeout)
	defer cancel()

	id, ok, err := local.Get(ctx, sessionKey)
	if err != nil {
		logger.Warn("⚠️ Session read failed", "client", local.ClientID(), "error", err)
		return ""
	}
	if ok && id != "" {
		return id
	}

	// SetIfAbsent returns the winner when two requests race on a new client.
	id, err = local.SetIfAbsent(ctx, sessionKey, sp.newID())
	if err != nil {
		logger.Warn("⚠️ Session write failed", "client", local.ClientID(), "error", err)
		return ""
	}
	logger.Info("🆕 Session created", "client", local.ClientID(), "session", id)
	return id
}

// Resolve builds the Client for a local store.
func (sp *SessionProvider) Resolve(ctx context.Context, local LocalStore) *Client {
	return &Client{Local: local, Session: Session{ID: sp.GetOrCreateSessionID(ctx, local)}}
}

type PlanStartRegistry struct {
	timeout  time.Duration
	location *time.Location
	now      func() time.Time
}

func NewPlanStartRegistry(timeout time.Duration, loc *time.Location, now func() time.Time) *PlanStartRegistry {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &PlanStartRegistry{timeout: timeout, location: loc, now: now}
}

// GetPlanStartDate returns when the client first opened the condition's
// plan, recording the current time on first use. The value never changes.
func (r *PlanStartRegistry) GetPlanStartDate(ctx context.Context, local LocalStore, conditionKey string) (time.Time, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	key := planStartKeyPrefix + conditionKey
	stored, ok, err := local.Get(ctx, key)
	if err != nil {
		return time.Time{}, wrap(ErrStorageRead, err)
	}
	if !ok {
		stored, err = local.SetIfAbsent(ctx, key, r.now().Format(time.RFC3339))
		if err != nil {
			return time.Time{}, wrap(ErrStorageWrite, err)
		}
	}

	start, err := time.Parse(time.RFC3339, stored)
	if err != nil {
		return time.Time{}, wrap(ErrStorageRead, fmt.Errorf("plan start for %s: %w", conditionKey, err))
	}
	return start, nil
}

// DayNumber is the 1-based day of the plan on planDate. Day 1 is the start
// date; dates before it give zero or less.
func (r *PlanStartRegistry) DayNumber(planDate, startDate time.Time) int {
	return utils.CalendarDaysBetween(planDate, startDate, r.location) + 1
}

// ActiveCondition is the plan a client is currently following.
type ActiveCondition struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

func SetActiveCondition(ctx context.Context, local LocalStore, cond ActiveCondition) error {
	raw, err := json.Marshal(cond)
	if err != nil {
		return err
	}
	if err := local.Set(ctx, activeConditionKey, string(raw)); err != nil {
		return wrap(ErrStorageWrite, err)
	}
	return nil
}

// GetActiveCondition returns the client's current plan; ok is false when
// none has been chosen.
func GetActiveCondition(ctx context.Context, local LocalStore) (cond ActiveCondition, ok bool, err error) {
	raw, ok, err := local.Get(ctx, activeConditionKey)
	if err != nil {
		return ActiveCondition{}, false, wrap(ErrStorageRead, err)
	}
	if !ok {
		return ActiveCondition{}, false, nil
	}
	cond, err = DecodeActiveCondition(raw)
	if err != nil {
		return ActiveCondition{}, false, err
	}
	return cond, true, nil
}

func DecodeActiveCondition(raw string) (ActiveCondition, error) {
	var cond ActiveCondition
	if err := json.Unmarshal([]byte(raw), &cond); err != nil {
		return ActiveCondition{}, wrap(ErrStorageRead, fmt.Errorf("active condition: %w", err))
	}
	if cond.Key == "" {
		return ActiveCondition{}, wrap(ErrStorageRead, fmt.Errorf("active condition has no key"))
	}
	return cond, nil
}
