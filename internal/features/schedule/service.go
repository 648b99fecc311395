package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-docbridge/internal/features/plugin"
	"go-docbridge/internal/features/run"
	"go-docbridge/pkg/cronexpr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrScheduleBusy is returned when a schedule cannot be deleted because a
// run for it is still pending or in progress.
var ErrScheduleBusy = errors.New("schedule has an active sync run")

// Trigger fires a schedule outside its cron cadence. Implemented by the
// dispatcher so manual runs go through the same lease and active-run
// guards as scheduled ones.
type Trigger interface {
	TriggerRun(ctx context.Context, scheduleID primitive.ObjectID) (string, error)
}

// UpdateScheduleRequest carries the mutable schedule fields. Nil pointers
// leave the stored value untouched.
type UpdateScheduleRequest struct {
	Name             *string `json:"name"`
	CronExpression   *string `json:"cron_expression"`
	Enabled          *bool   `json:"enabled"`
	CollectionID     *string `json:"collection_id"`
	PluginInstanceID *string `json:"plugin_instance_id"`
}

type ScheduleService interface {
	List(ctx context.Context) ([]Schedule, error)
	Get(ctx context.Context, id string) (*Schedule, error)
	Create(ctx context.Context, s *Schedule) error
	Update(ctx context.Context, id string, req UpdateScheduleRequest) (*Schedule, error)
	// Delete refuses to remove a schedule with an active run and returns
	// ErrScheduleBusy in that case.
	Delete(ctx context.Context, id string) error
	// RunNow triggers an immediate run through the dispatcher and returns
	// the run id.
	RunNow(ctx context.Context, id string) (string, error)
	History(ctx context.Context, id string, limit int64) ([]run.Run, error)
	// AllRuns returns the most recent runs across every schedule.
	AllRuns(ctx context.Context, limit int64) ([]run.Run, error)
	Presets() []cronexpr.Preset
	DataSourceInstances(ctx context.Context) ([]plugin.PluginInstance, error)
}

type ScheduleServiceImpl struct {
	Repo    ScheduleRepository
	Runs    run.RunService
	Plugins plugin.PluginService
	Trigger Trigger
	Logger  *zap.Logger
}

func NewScheduleService(
	repo ScheduleRepository,
	runs run.RunService,
	plugins plugin.PluginService,
	trigger Trigger,
	logger *zap.Logger,
) ScheduleService {
	return &ScheduleServiceImpl{
		Repo:    repo,
		Runs:    runs,
		Plugins: plugins,
		Trigger: trigger,
		Logger:  logger,
	}
}

func validateSchedule(s *Schedule) error {
	if s.Name == "" {
		return fmt.Errorf("schedule name is required")
	}

	switch s.SyncType {
	case run.SyncTypeFullCollection:
		if s.CollectionID == nil {
			return fmt.Errorf("full collection sync requires a collection")
		}
		if s.PluginInstanceID != nil {
			return fmt.Errorf("full collection sync cannot target a plugin instance")
		}
	case run.SyncTypeSelective:
		// collection is optional, narrowing the document set
		if s.PluginInstanceID != nil {
			return fmt.Errorf("selective sync cannot target a plugin instance")
		}
	case run.SyncTypeDataSource:
		if s.PluginInstanceID == nil {
			return fmt.Errorf("data source sync requires a plugin instance")
		}
		if s.CollectionID != nil {
			return fmt.Errorf("data source sync cannot target a collection")
		}
	default:
		return fmt.Errorf("invalid sync type %q", s.SyncType)
	}

	if err := cronexpr.Validate(s.CronExpression); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

func decorate(s *Schedule) {
	s.CronDescription = cronexpr.Describe(s.CronExpression)
}

func (s *ScheduleServiceImpl) List(ctx context.Context) ([]Schedule, error) {
	schedules, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		decorate(&schedules[i])
	}
	return schedules, nil
}

func (s *ScheduleServiceImpl) Get(ctx context.Context, id string) (*Schedule, error) {
	schedule, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decorate(schedule)
	return schedule, nil
}

func (s *ScheduleServiceImpl) Create(ctx context.Context, schedule *Schedule) error {
	if err := validateSchedule(schedule); err != nil {
		return err
	}

	next, err := cronexpr.Next(schedule.CronExpression, time.Now())
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	schedule.NextRunAt = &next

	if err := s.Repo.Create(ctx, schedule); err != nil {
		return err
	}
	decorate(schedule)
	return nil
}

func (s *ScheduleServiceImpl) Update(ctx context.Context, id string, req UpdateScheduleRequest) (*Schedule, error) {
	schedule, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := bson.M{}
	if req.Name != nil {
		schedule.Name = *req.Name
		updates["name"] = *req.Name
	}
	if req.Enabled != nil {
		schedule.Enabled = *req.Enabled
		updates["enabled"] = *req.Enabled
	}
	if req.CollectionID != nil {
		if *req.CollectionID == "" {
			schedule.CollectionID = nil
			updates["collection_id"] = nil
		} else {
			oid, err := primitive.ObjectIDFromHex(*req.CollectionID)
			if err != nil {
				return nil, fmt.Errorf("invalid collection id: %w", err)
			}
			schedule.CollectionID = &oid
			updates["collection_id"] = oid
		}
	}
	if req.PluginInstanceID != nil {
		if *req.PluginInstanceID == "" {
			schedule.PluginInstanceID = nil
			updates["plugin_instance_id"] = nil
		} else {
			oid, err := primitive.ObjectIDFromHex(*req.PluginInstanceID)
			if err != nil {
				return nil, fmt.Errorf("invalid plugin instance id: %w", err)
			}
			schedule.PluginInstanceID = &oid
			updates["plugin_instance_id"] = oid
		}
	}
	if req.CronExpression != nil {
		schedule.CronExpression = *req.CronExpression
		updates["cron_expression"] = *req.CronExpression

		next, err := cronexpr.Next(*req.CronExpression, time.Now())
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression: %w", err)
		}
		schedule.NextRunAt = &next
		updates["next_run_at"] = next
	}

	if err := validateSchedule(schedule); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.Repo.Update(ctx, schedule.ID, updates); err != nil {
			return nil, err
		}
	}
	decorate(schedule)
	return schedule, nil
}

func (s *ScheduleServiceImpl) Delete(ctx context.Context, id string) error {
	schedule, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}

	active, err := s.Runs.HasActive(ctx, schedule.ID)
	if err != nil {
		return err
	}
	if active {
		return ErrScheduleBusy
	}
	return s.Repo.Delete(ctx, schedule.ID)
}

func (s *ScheduleServiceImpl) RunNow(ctx context.Context, id string) (string, error) {
	schedule, err := s.Repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Trigger.TriggerRun(ctx, schedule.ID)
}

func (s *ScheduleServiceImpl) History(ctx context.Context, id string, limit int64) ([]run.Run, error) {
	schedule, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Runs.History(ctx, schedule.ID, limit)
}

func (s *ScheduleServiceImpl) AllRuns(ctx context.Context, limit int64) ([]run.Run, error) {
	return s.Runs.Recent(ctx, limit)
}

func (s *ScheduleServiceImpl) Presets() []cronexpr.Preset {
	return cronexpr.Presets()
}

func (s *ScheduleServiceImpl) DataSourceInstances(ctx context.Context) ([]plugin.PluginInstance, error) {
	return s.Plugins.ListImporterInstances(ctx)
}
