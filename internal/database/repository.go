package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type Repository struct {
	Db *Database
}

func NewRepository(db *Database) *Repository {
	return &Repository{Db: db}
}

// Day plan methods

// GetDayPlan returns the stored plan for the key, or nil when none exists.
func (r *Repository) GetDayPlan(ctx context.Context, sessionID, conditionKey, planDate string) (*DayPlan, error) {
	var (
		plan     DayPlan
		rawTasks string
	)
	err := r.Db.db.QueryRowContext(ctx, `
		SELECT session_id, condition_key, plan_date, tasks, created_at
		FROM daily_plans
		WHERE session_id = ? AND condition_key = ? AND plan_date = ?
	`, sessionID, conditionKey, planDate).Scan(
		&plan.SessionID,
		&plan.ConditionKey,
		&plan.PlanDate,
		&rawTasks,
		&plan.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rawTasks), &plan.Tasks); err != nil {
		return nil, fmt.Errorf("decode stored tasks: %w", err)
	}
	return &plan, nil
}

// UpsertDayPlan writes the plan, replacing any row with the same key.
func (r *Repository) UpsertDayPlan(ctx context.Context, plan DayPlan) error {
	rawTasks, err := encodeTasks(plan.Tasks)
	if err != nil {
		return err
	}

	_, err = r.Db.db.ExecContext(ctx, `
		INSERT INTO daily_plans (session_id, condition_key, plan_date, tasks)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, condition_key, plan_date)
		DO UPDATE SET tasks = excluded.tasks, created_at = CURRENT_TIMESTAMP
	`, plan.SessionID, plan.ConditionKey, plan.PlanDate, rawTasks)
	return err
}

// Progress methods

// GetProgress returns the completion record for the key, or nil when none exists.
func (r *Repository) GetProgress(ctx context.Context, sessionID, conditionKey, planDate string) (*ProgressRecord, error) {
	var (
		rec      ProgressRecord
		rawTasks string
	)
	err := r.Db.db.QueryRowContext(ctx, `
		SELECT session_id, condition_key, plan_date, completed_tasks, updated_at
		FROM daily_progress
		WHERE session_id = ? AND condition_key = ? AND plan_date = ?
	`, sessionID, conditionKey, planDate).Scan(
		&rec.SessionID,
		&rec.ConditionKey,
		&rec.PlanDate,
		&rawTasks,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rawTasks), &rec.CompletedTasks); err != nil {
		return nil, fmt.Errorf("decode completed tasks: %w", err)
	}
	return &rec, nil
}

// UpsertProgress replaces the completion record for the key in full.
func (r *Repository) UpsertProgress(ctx context.Context, rec ProgressRecord) error {
	rawTasks, err := encodeTasks(rec.CompletedTasks)
	if err != nil {
		return err
	}

	_, err = r.Db.db.ExecContext(ctx, `
		INSERT INTO daily_progress (session_id, condition_key, plan_date, completed_tasks)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, condition_key, plan_date)
		DO UPDATE SET completed_tasks = excluded.completed_tasks, updated_at = CURRENT_TIMESTAMP
	`, rec.SessionID, rec.ConditionKey, rec.PlanDate, rawTasks)
	return err
}

// ListProgress returns every completion record of a condition, oldest date first.
func (r *Repository) ListProgress(ctx context.Context, sessionID, conditionKey string) ([]ProgressRecord, error) {
	rows, err := r.Db.db.QueryContext(ctx, `
		SELECT session_id, condition_key, plan_date, completed_tasks, updated_at
		FROM daily_progress
		WHERE session_id = ? AND condition_key = ?
		ORDER BY plan_date
	`, sessionID, conditionKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ProgressRecord
	for rows.Next() {
		var (
			rec      ProgressRecord
			rawTasks string
		)
		if err := rows.Scan(
			&rec.SessionID,
			&rec.ConditionKey,
			&rec.PlanDate,
			&rawTasks,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rawTasks), &rec.CompletedTasks); err != nil {
			return nil, fmt.Errorf("decode completed tasks for %s: %w", rec.PlanDate, err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ListProgressConditions returns the distinct condition keys a session has records for.
func (r *Repository) ListProgressConditions(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := r.Db.db.QueryContext(ctx, `
		SELECT DISTINCT condition_key
		FROM daily_progress
		WHERE session_id = ?
		ORDER BY condition_key
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Local storage methods

// GetLocal reads one client-local value. ok is false when the key is unset.
func (r *Repository) GetLocal(ctx context.Context, clientID, key string) (value string, ok bool, err error) {
	err = r.Db.db.QueryRowContext(ctx, `
		SELECT value FROM local_storage WHERE client_id = ? AND key = ?
	`, clientID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *Repository) SetLocal(ctx context.Context, clientID, key, value string) error {
	_, err := r.Db.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO local_storage (client_id, key, value)
		VALUES (?, ?, ?)
	`, clientID, key, value)
	return err
}

// SetLocalIfAbsent stores value only when the key is unset and returns
// whichever value is stored afterwards.
func (r *Repository) SetLocalIfAbsent(ctx context.Context, clientID, key, value string) (string, error) {
	if _, err := r.Db.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO local_storage (client_id, key, value)
		VALUES (?, ?, ?)
	`, clientID, key, value); err != nil {
		return "", err
	}

	stored, ok, err := r.GetLocal(ctx, clientID, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("local key %q vanished after insert", key)
	}
	return stored, nil
}

func (r *Repository) DeleteLocal(ctx context.Context, clientID, key string) error {
	_, err := r.Db.db.ExecContext(ctx, `
		DELETE FROM local_storage WHERE client_id = ? AND key = ?
	`, clientID, key)
	return err
}

// ListLocalByKey returns the value of key for every client that has it set.
func (r *Repository) ListLocalByKey(ctx context.Context, key string) ([]LocalEntry, error) {
	rows, err := r.Db.db.QueryContext(ctx, `
		SELECT client_id, key, value FROM local_storage WHERE key = ? ORDER BY client_id
	`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LocalEntry
	for rows.Next() {
		var e LocalEntry
		if err := rows.Scan(&e.ClientID, &e.Key, &e.Value); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func encodeTasks(tasks []Task) (string, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}
	return string(raw), nil
}
