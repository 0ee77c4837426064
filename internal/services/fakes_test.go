package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"recovery-plan/internal/database"
	"recovery-plan/internal/flows"
)

var errBroken = errors.New("backend unavailable")

type fakeLocal struct {
	mu       sync.Mutex
	id       string
	values   map[string]string
	failGet  bool
	failSet  bool
	setCalls int
}

func newFakeLocal(id string) *fakeLocal {
	return &fakeLocal{id: id, values: make(map[string]string)}
}

func (f *fakeLocal) ClientID() string { return f.id }

func (f *fakeLocal) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return "", false, errBroken
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeLocal) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.failSet {
		return errBroken
	}
	f.values[key] = value
	return nil
}

func (f *fakeLocal) SetIfAbsent(_ context.Context, key, value string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.failSet {
		return "", errBroken
	}
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	f.values[key] = value
	return value, nil
}

func (f *fakeLocal) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

type storeKey struct{ session, condition, date string }

type fakeStore struct {
	mu        sync.Mutex
	plans     map[storeKey][]database.Task
	progress  map[storeKey][]database.Task
	failRead  bool
	failWrite bool
	reads     int
	writes    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans:    make(map[storeKey][]database.Task),
		progress: make(map[storeKey][]database.Task),
	}
}

func (f *fakeStore) GetDayPlan(_ context.Context, s, k, d string) (*database.DayPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.failRead {
		return nil, errBroken
	}
	tasks, ok := f.plans[storeKey{s, k, d}]
	if !ok {
		return nil, nil
	}
	return &database.DayPlan{SessionID: s, ConditionKey: k, PlanDate: d, Tasks: tasks}, nil
}

func (f *fakeStore) UpsertDayPlan(_ context.Context, plan database.DayPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.failWrite {
		return errBroken
	}
	f.plans[storeKey{plan.SessionID, plan.ConditionKey, plan.PlanDate}] = plan.Tasks
	return nil
}

func (f *fakeStore) GetProgress(_ context.Context, s, k, d string) (*database.ProgressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.failRead {
		return nil, errBroken
	}
	tasks, ok := f.progress[storeKey{s, k, d}]
	if !ok {
		return nil, nil
	}
	return &database.ProgressRecord{SessionID: s, ConditionKey: k, PlanDate: d, CompletedTasks: tasks}, nil
}

func (f *fakeStore) UpsertProgress(_ context.Context, rec database.ProgressRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.failWrite {
		return errBroken
	}
	f.progress[storeKey{rec.SessionID, rec.ConditionKey, rec.PlanDate}] = rec.CompletedTasks
	return nil
}

func (f *fakeStore) ListProgress(_ context.Context, s, k string) ([]database.ProgressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return nil, errBroken
	}
	var out []database.ProgressRecord
	for key, tasks := range f.progress {
		if key.session == s && key.condition == k {
			out = append(out, database.ProgressRecord{SessionID: s, ConditionKey: k, PlanDate: key.date, CompletedTasks: tasks})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanDate < out[j].PlanDate })
	return out, nil
}

func (f *fakeStore) ListProgressConditions(_ context.Context, s string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return nil, errBroken
	}
	seen := map[string]bool{}
	var keys []string
	for key := range f.progress {
		if key.session == s && !seen[key.condition] {
			seen[key.condition] = true
			keys = append(keys, key.condition)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type fakeFlows struct {
	mu        sync.Mutex
	calls     int
	err       error
	requests  []flows.TaskRequest
	summary   *flows.ProgressSummary
	symptoms  *flows.SymptomClassification
	document  *flows.DocumentClassification
	feedback  string
	summaries []flows.SummaryRequest
}

func (f *fakeFlows) GenerateRecoveryTasks(_ context.Context, in flows.TaskRequest) ([]database.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, in)
	if f.err != nil {
		return nil, f.err
	}
	tasks := make([]database.Task, flows.MinTasksPerDay)
	for i := range tasks {
		tasks[i] = database.Task{ID: flows.TaskID(in.ConditionKey, in.DayNumber, i+1), Text: "task", Icon: "Bed"}
	}
	return tasks, nil
}

func (f *fakeFlows) SummarizeProgress(_ context.Context, in flows.SummaryRequest) (*flows.ProgressSummary, error) {
	f.calls++
	f.summaries = append(f.summaries, in)
	return f.summary, f.err
}

func (f *fakeFlows) AnalyzeSymptoms(_ context.Context, _ string) (*flows.SymptomClassification, error) {
	f.calls++
	return f.symptoms, f.err
}

func (f *fakeFlows) AnalyzePrescription(_ context.Context, _ flows.Document) (*flows.DocumentClassification, error) {
	f.calls++
	return f.document, f.err
}

func (f *fakeFlows) MotivationalFeedback(_ context.Context, _ float64) (string, error) {
	f.calls++
	return f.feedback, f.err
}

type sentPlan struct {
	clientID string
	plan     *DayPlanResult
	done     int
}

type fakeSender struct {
	messages map[string][]string
	plans    []sentPlan
}

func newFakeSender() *fakeSender {
	return &fakeSender{messages: make(map[string][]string)}
}

func (f *fakeSender) SendMessage(clientID, text string) error {
	f.messages[clientID] = append(f.messages[clientID], text)
	return nil
}

func (f *fakeSender) SendDayPlan(clientID string, _ ActiveCondition, plan *DayPlanResult, done *CompletionSet) error {
	f.plans = append(f.plans, sentPlan{clientID: clientID, plan: plan, done: done.Len()})
	return nil
}
