package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-docbridge/internal/config"
	"go-docbridge/internal/features/run"
	"go-docbridge/internal/features/schedule"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeScheduleRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*schedule.Schedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{items: map[primitive.ObjectID]*schedule.Schedule{}}
}

func (r *fakeScheduleRepo) Create(_ context.Context, s *schedule.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	copied := *s
	r.items[s.ID] = &copied
	return nil
}

func (r *fakeScheduleRepo) Get(ctx context.Context, id string) (*schedule.Schedule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, oid)
}

func (r *fakeScheduleRepo) GetByID(_ context.Context, id primitive.ObjectID) (*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("schedule %s not found", id.Hex())
	}
	copied := *s
	return &copied, nil
}

func (r *fakeScheduleRepo) List(_ context.Context) ([]schedule.Schedule, error) {
	return nil, nil
}

func (r *fakeScheduleRepo) Update(_ context.Context, _ primitive.ObjectID, _ bson.M) error {
	return nil
}

func (r *fakeScheduleRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeScheduleRepo) ListDue(_ context.Context, now time.Time) ([]schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []schedule.Schedule
	for _, s := range r.items {
		if s.Enabled && s.NextRunAt != nil && !s.NextRunAt.After(now) {
			due = append(due, *s)
		}
	}
	return due, nil
}

func (r *fakeScheduleRepo) AcquireLease(_ context.Context, id primitive.ObjectID, owner string, until time.Time, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return false, nil
	}
	if s.LeaseExpiresAt != nil && s.LeaseExpiresAt.After(now) {
		return false, nil
	}
	s.LeaseOwner = owner
	s.LeaseExpiresAt = &until
	return true, nil
}

func (r *fakeScheduleRepo) ReleaseLease(_ context.Context, id primitive.ObjectID, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.items[id]; ok && s.LeaseOwner == owner {
		s.LeaseOwner = ""
		s.LeaseExpiresAt = nil
	}
	return nil
}

func (r *fakeScheduleRepo) ForceReleaseLease(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.items[id]; ok {
		s.LeaseOwner = ""
		s.LeaseExpiresAt = nil
	}
	return nil
}

func (r *fakeScheduleRepo) UpdateRunTimes(_ context.Context, id primitive.ObjectID, lastRun time.Time, nextRun time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.items[id]; ok {
		s.LastRunAt = &lastRun
		s.NextRunAt = &nextRun
	}
	return nil
}

func (r *fakeScheduleRepo) ReleaseExpiredLeases(_ context.Context, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.LeaseExpiresAt != nil && s.LeaseExpiresAt.Before(now) {
			s.LeaseOwner = ""
			s.LeaseExpiresAt = nil
		}
	}
	return nil
}

type fakeRunService struct {
	mu   sync.Mutex
	runs map[primitive.ObjectID]*run.Run
}

func newFakeRunService() *fakeRunService {
	return &fakeRunService{runs: map[primitive.ObjectID]*run.Run{}}
}

func (m *fakeRunService) Create(_ context.Context, r *run.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	copied := *r
	m.runs[r.ID] = &copied
	return nil
}

func (m *fakeRunService) Get(_ context.Context, id string) (*run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	r, ok := m.runs[oid]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	copied := *r
	return &copied, nil
}

func (m *fakeRunService) Logs(_ context.Context, _ string, _ string, _ string) (*run.Run, []run.LogEntry, error) {
	return nil, nil, nil
}

func (m *fakeRunService) History(_ context.Context, _ primitive.ObjectID, _ int64) ([]run.Run, error) {
	return nil, nil
}

func (m *fakeRunService) Recent(_ context.Context, _ int64) ([]run.Run, error) {
	return nil, nil
}

func (m *fakeRunService) HasActive(_ context.Context, scheduleID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ScheduleID != nil && *r.ScheduleID == scheduleID && !r.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (m *fakeRunService) LatestForCollection(_ context.Context, _ primitive.ObjectID) (*run.Run, error) {
	return nil, nil
}

func (m *fakeRunService) ListUnfinished(_ context.Context) ([]run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []run.Run
	for _, r := range m.runs {
		if !r.Status.IsTerminal() {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *fakeRunService) Begin(_ context.Context, runID primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[runID]; ok && !r.Status.IsTerminal() {
		r.Status = run.StatusInProgress
	}
}

func (m *fakeRunService) Progress(_ context.Context, _ primitive.ObjectID, _ run.Counters) {}

func (m *fakeRunService) Log(_ context.Context, _ primitive.ObjectID, _ run.LogLevel, _ string, _ string, _ map[string]interface{}) {
}

func (m *fakeRunService) Complete(_ context.Context, runID primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[runID]; ok && !r.Status.IsTerminal() {
		now := time.Now()
		r.Status = run.StatusCompleted
		r.Success = true
		r.CompletedAt = &now
	}
}

func (m *fakeRunService) Fail(_ context.Context, runID primitive.ObjectID, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[runID]; ok && !r.Status.IsTerminal() {
		now := time.Now()
		r.Status = run.StatusFailed
		r.CompletedAt = &now
		r.ErrorMessage = cause.Error()
	}
}

func (m *fakeRunService) all() []run.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]run.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out
}

// fakeExecutor completes every run it receives. When release is non-nil
// it blocks first, keeping the run active so guard behavior can be
// observed.
type fakeExecutor struct {
	mu       sync.Mutex
	executed []primitive.ObjectID
	release  chan struct{}
	runs     run.RunService
}

func (e *fakeExecutor) Execute(ctx context.Context, r *run.Run) {
	e.mu.Lock()
	e.executed = append(e.executed, r.ID)
	e.mu.Unlock()

	e.runs.Begin(ctx, r.ID)
	if e.release != nil {
		<-e.release
	}
	e.runs.Complete(ctx, r.ID)
}

func (e *fakeExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.executed)
}

func testConfig() *config.Config {
	return &config.Config{
		DispatchInterval: time.Minute,
		LeaseTTL:         time.Minute,
	}
}

func newDispatcherFixture(release chan struct{}) (*Dispatcher, *fakeScheduleRepo, *fakeRunService, *fakeExecutor) {
	schedules := newFakeScheduleRepo()
	runs := newFakeRunService()
	executor := &fakeExecutor{release: release, runs: runs}
	d := NewDispatcher(testConfig(), schedules, runs, executor, zap.NewNop())
	return d, schedules, runs, executor
}

func seedSchedule(t *testing.T, repo *fakeScheduleRepo, enabled bool, next time.Time) *schedule.Schedule {
	t.Helper()
	s := &schedule.Schedule{
		Name:           "every-five",
		SyncType:       run.SyncTypeSelective,
		CronExpression: "*/5 * * * *",
		Enabled:        enabled,
		NextRunAt:      &next,
	}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTickFiresOnlyDueSchedules(t *testing.T) {
	d, schedules, runs, executor := newDispatcherFixture(nil)
	now := time.Now()

	due := seedSchedule(t, schedules, true, now.Add(-time.Minute))
	seedSchedule(t, schedules, true, now.Add(time.Hour))
	seedSchedule(t, schedules, false, now.Add(-time.Minute))

	d.Tick(context.Background(), now)
	d.Stop()

	if executor.count() != 1 {
		t.Fatalf("expected exactly one run dispatched, got %d", executor.count())
	}

	created := runs.all()
	if len(created) != 1 {
		t.Fatalf("expected one run record, got %d", len(created))
	}
	r := created[0]
	if r.ScheduleID == nil || *r.ScheduleID != due.ID {
		t.Fatal("run should reference the due schedule")
	}
	if r.TriggeredBy != run.TriggeredByScheduled {
		t.Fatalf("expected scheduled trigger, got %s", r.TriggeredBy)
	}
	if r.Status != run.StatusCompleted {
		t.Fatalf("expected run to finish, got %s", r.Status)
	}

	stored, _ := schedules.GetByID(context.Background(), due.ID)
	if stored.NextRunAt == nil || !stored.NextRunAt.After(now) {
		t.Fatalf("next_run_at must advance past now, got %v", stored.NextRunAt)
	}
	if stored.LastRunAt == nil {
		t.Fatal("last_run_at must be recorded")
	}
	if stored.LeaseOwner != "" {
		t.Fatal("lease must be released after the run finishes")
	}
}

func TestConcurrentTicksFireAScheduleOnce(t *testing.T) {
	release := make(chan struct{})
	d, schedules, runs, executor := newDispatcherFixture(release)
	now := time.Now()
	seedSchedule(t, schedules, true, now.Add(-time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Tick(context.Background(), now)
		}()
	}
	wg.Wait()

	if executor.count() != 1 {
		t.Fatalf("schedule fired %d times under concurrent dispatch, want 1", executor.count())
	}
	if got := len(runs.all()); got != 1 {
		t.Fatalf("expected one run record, got %d", got)
	}

	close(release)
	d.Stop()
}

func TestManualTriggerBlockedWhileRunActive(t *testing.T) {
	release := make(chan struct{})
	d, schedules, _, executor := newDispatcherFixture(release)
	now := time.Now()
	s := seedSchedule(t, schedules, true, now.Add(time.Hour))

	syncID, err := d.TriggerRun(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("first trigger failed: %v", err)
	}
	if syncID == "" {
		t.Fatal("expected a run id")
	}

	if _, err := d.TriggerRun(context.Background(), s.ID); !errors.Is(err, ErrScheduleLocked) {
		t.Fatalf("expected ErrScheduleLocked while run is active, got %v", err)
	}

	close(release)
	d.Stop()

	if executor.count() != 1 {
		t.Fatalf("expected one execution, got %d", executor.count())
	}
}

func TestManualTriggerDoesNotAdvanceCadence(t *testing.T) {
	d, schedules, _, _ := newDispatcherFixture(nil)
	now := time.Now()
	next := now.Add(time.Hour)
	s := seedSchedule(t, schedules, true, next)

	if _, err := d.TriggerRun(context.Background(), s.ID); err != nil {
		t.Fatalf("trigger failed: %v", err)
	}
	d.Stop()

	stored, _ := schedules.GetByID(context.Background(), s.ID)
	if stored.NextRunAt == nil || !stored.NextRunAt.Equal(next) {
		t.Fatalf("manual runs must not move next_run_at, got %v want %v", stored.NextRunAt, next)
	}
}

func TestReconcileFailsInterruptedRuns(t *testing.T) {
	d, schedules, runs, _ := newDispatcherFixture(nil)
	now := time.Now()
	s := seedSchedule(t, schedules, true, now.Add(time.Hour))

	// simulate a crash: a run stuck in progress and the lease still held
	stuck := &run.Run{
		ScheduleID: &s.ID,
		SyncType:   run.SyncTypeSelective,
		Status:     run.StatusInProgress,
		StartedAt:  now.Add(-time.Hour),
	}
	if err := runs.Create(context.Background(), stuck); err != nil {
		t.Fatal(err)
	}
	until := now.Add(time.Hour)
	if _, err := schedules.AcquireLease(context.Background(), s.ID, "dead-process", until, now); err != nil {
		t.Fatal(err)
	}

	if err := d.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	got, err := runs.Get(context.Background(), stuck.ID.Hex())
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != run.StatusFailed {
		t.Fatalf("expected interrupted run to be failed, got %s", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("expected an error message on the interrupted run")
	}

	stored, _ := schedules.GetByID(context.Background(), s.ID)
	if stored.LeaseOwner != "" {
		t.Fatal("expected stale lease to be released")
	}

	active, _ := runs.HasActive(context.Background(), s.ID)
	if active {
		t.Fatal("schedule must be dispatchable again after reconciliation")
	}
}
