package database

import "time"

// Task is one item of a day plan. IDs are unique within a condition and day.
type Task struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Icon string `json:"icon"`
}

// DayPlan is the stored task list for one (session, condition, date) key.
type DayPlan struct {
	SessionID    string    `json:"session_id"`
	ConditionKey string    `json:"condition_key"`
	PlanDate     string    `json:"plan_date"`
	Tasks        []Task    `json:"tasks"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProgressRecord is the set of completed tasks for one (session, condition, date) key.
type ProgressRecord struct {
	SessionID      string    `json:"session_id"`
	ConditionKey   string    `json:"condition_key"`
	PlanDate       string    `json:"plan_date"`
	CompletedTasks []Task    `json:"completed_tasks"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LocalEntry is one value of a client's durable local storage.
type LocalEntry struct {
	ClientID string `json:"client_id"`
	Key      string `json:"key"`
	Value    string `json:"value"`
}
