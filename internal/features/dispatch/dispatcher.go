package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-docbridge/internal/config"
	"go-docbridge/internal/features/run"
	"go-docbridge/internal/features/schedule"
	"go-docbridge/pkg/cronexpr"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrScheduleLocked is returned when a schedule cannot be fired because
// another dispatcher holds its lease or a run for it is still active.
var ErrScheduleLocked = errors.New("schedule already has an active run")

// Executor runs a pending sync run to its terminal state. Implemented by
// the syncer.
type Executor interface {
	Execute(ctx context.Context, r *run.Run)
}

// Dispatcher periodically fires due schedules. Each firing acquires the
// schedule's lease first and checks for an active run, so a schedule has
// at most one run in flight even with concurrent dispatchers or manual
// triggers racing the cron loop.
type Dispatcher struct {
	owner     string
	interval  time.Duration
	leaseTTL  time.Duration
	Schedules schedule.ScheduleRepository
	Runs      run.RunService
	Executor  Executor
	Logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(
	cfg *config.Config,
	schedules schedule.ScheduleRepository,
	runs run.RunService,
	executor Executor,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		owner:     uuid.NewString(),
		interval:  cfg.DispatchInterval,
		leaseTTL:  cfg.LeaseTTL,
		Schedules: schedules,
		Runs:      runs,
		Executor:  executor,
		Logger:    logger,
	}
}

// Start reconciles runs left over from a previous process and begins the
// dispatch loop in the background.
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	if err := d.Reconcile(ctx); err != nil {
		d.Logger.Error("startup reconciliation failed", zap.Error(err))
	}

	d.wg.Add(1)
	go d.loop(ctx)
	d.Logger.Info("dispatcher started",
		zap.String("owner", d.owner),
		zap.Duration("interval", d.interval))
}

// Stop cancels the loop and waits for in-flight runs to settle.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.Logger.Info("dispatcher stopped")
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick(ctx, time.Now())
		}
	}
}

// Reconcile fails runs that a previous process left unfinished and frees
// the leases those runs were holding. Without this a crash would leave
// schedules blocked until their lease TTL expires.
func (d *Dispatcher) Reconcile(ctx context.Context) error {
	unfinished, err := d.Runs.ListUnfinished(ctx)
	if err != nil {
		return fmt.Errorf("list unfinished runs: %w", err)
	}

	for i := range unfinished {
		r := &unfinished[i]
		d.Runs.Fail(ctx, r.ID, errors.New("sync interrupted by process restart"))
		if r.ScheduleID != nil {
			if err := d.Schedules.ForceReleaseLease(ctx, *r.ScheduleID); err != nil {
				d.Logger.Error("failed to release stale lease",
					zap.String("schedule_id", r.ScheduleID.Hex()), zap.Error(err))
			}
		}
		d.Logger.Warn("failed interrupted run from previous process",
			zap.String("run_id", r.ID.Hex()))
	}

	return d.Schedules.ReleaseExpiredLeases(ctx, time.Now())
}

// Tick fires every due schedule once. Failures on one schedule never
// block the others.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) {
	due, err := d.Schedules.ListDue(ctx, now)
	if err != nil {
		d.Logger.Error("failed to list due schedules", zap.Error(err))
		return
	}

	for i := range due {
		s := &due[i]
		if _, err := d.fire(ctx, s, run.TriggeredByScheduled, now); err != nil {
			if !errors.Is(err, ErrScheduleLocked) {
				d.Logger.Error("failed to dispatch schedule",
					zap.String("schedule_id", s.ID.Hex()),
					zap.String("name", s.Name),
					zap.Error(err))
			}
			continue
		}
		d.Logger.Info("dispatched schedule",
			zap.String("schedule_id", s.ID.Hex()),
			zap.String("name", s.Name))
	}
}

// TriggerRun fires a schedule immediately, going through the same lease
// and active-run guards as the cron loop. Manual firings do not advance
// the schedule's cron cadence.
func (d *Dispatcher) TriggerRun(ctx context.Context, scheduleID primitive.ObjectID) (string, error) {
	s, err := d.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return "", err
	}
	return d.fire(ctx, s, run.TriggeredByManual, time.Now())
}

func (d *Dispatcher) fire(ctx context.Context, s *schedule.Schedule, trigger run.TriggeredBy, now time.Time) (string, error) {
	acquired, err := d.Schedules.AcquireLease(ctx, s.ID, d.owner, now.Add(d.leaseTTL), now)
	if err != nil {
		return "", fmt.Errorf("acquire lease: %w", err)
	}
	if !acquired {
		return "", ErrScheduleLocked
	}

	// The lease keeps other dispatchers out, but a run started before the
	// previous lease expired may still be active.
	active, err := d.Runs.HasActive(ctx, s.ID)
	if err != nil || active {
		d.releaseLease(ctx, s.ID)
		if err != nil {
			return "", fmt.Errorf("check active runs: %w", err)
		}
		return "", ErrScheduleLocked
	}

	r := &run.Run{
		ScheduleID:       &s.ID,
		CollectionID:     s.CollectionID,
		PluginInstanceID: s.PluginInstanceID,
		SyncType:         s.SyncType,
		Status:           run.StatusPending,
		TriggeredBy:      trigger,
		StartedAt:        now,
	}
	if err := d.Runs.Create(ctx, r); err != nil {
		d.releaseLease(ctx, s.ID)
		return "", fmt.Errorf("create run: %w", err)
	}

	if trigger == run.TriggeredByScheduled {
		d.advanceSchedule(ctx, s, now)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.releaseLease(context.Background(), s.ID)
		d.Executor.Execute(context.Background(), r)
	}()

	return r.ID.Hex(), nil
}

// advanceSchedule computes the next firing aligned to the missed slot, so
// a late tick does not double-fire or drift the cadence.
func (d *Dispatcher) advanceSchedule(ctx context.Context, s *schedule.Schedule, now time.Time) {
	fireTime := now
	if s.NextRunAt != nil {
		fireTime = *s.NextRunAt
	}

	next, err := cronexpr.NextAfter(s.CronExpression, fireTime, now)
	if err != nil {
		d.Logger.Error("failed to compute next run",
			zap.String("schedule_id", s.ID.Hex()),
			zap.String("expression", s.CronExpression),
			zap.Error(err))
		next = now.Add(d.interval)
	}

	if err := d.Schedules.UpdateRunTimes(ctx, s.ID, now, next); err != nil {
		d.Logger.Error("failed to update schedule run times",
			zap.String("schedule_id", s.ID.Hex()), zap.Error(err))
	}
}

func (d *Dispatcher) releaseLease(ctx context.Context, scheduleID primitive.ObjectID) {
	if err := d.Schedules.ReleaseLease(ctx, scheduleID, d.owner); err != nil {
		d.Logger.Error("failed to release lease",
			zap.String("schedule_id", scheduleID.Hex()), zap.Error(err))
	}
}
