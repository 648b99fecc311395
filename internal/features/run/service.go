package run

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RunService is the write path used by the dispatcher and sync executor
// plus the read model polled by external callers. Reads are side-effect
// free; once a run is terminal its snapshot never changes.
type RunService interface {
	Create(ctx context.Context, r *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	Logs(ctx context.Context, id string, level string, document string) (*Run, []LogEntry, error)
	History(ctx context.Context, scheduleID primitive.ObjectID, limit int64) ([]Run, error)
	Recent(ctx context.Context, limit int64) ([]Run, error)
	HasActive(ctx context.Context, scheduleID primitive.ObjectID) (bool, error)
	LatestForCollection(ctx context.Context, collectionID primitive.ObjectID) (*Run, error)
	ListUnfinished(ctx context.Context) ([]Run, error)

	Begin(ctx context.Context, runID primitive.ObjectID)
	Progress(ctx context.Context, runID primitive.ObjectID, c Counters)
	Log(ctx context.Context, runID primitive.ObjectID, level LogLevel, message string, documentID string, details map[string]interface{})
	// Complete and Fail perform the terminal transition. Fail appends a
	// final error-level entry, but only when this call actually performed
	// the transition: a run already terminal keeps its log tail untouched.
	Complete(ctx context.Context, runID primitive.ObjectID)
	Fail(ctx context.Context, runID primitive.ObjectID, cause error)
}

type RunServiceImpl struct {
	Runs   RunRepository
	Logs_  LogRepository
	Logger *zap.Logger
}

func NewRunService(runs RunRepository, logs LogRepository, logger *zap.Logger) RunService {
	return &RunServiceImpl{
		Runs:   runs,
		Logs_:  logs,
		Logger: logger,
	}
}

func (s *RunServiceImpl) Create(ctx context.Context, r *Run) error {
	return s.Runs.Create(ctx, r)
}

func (s *RunServiceImpl) Get(ctx context.Context, id string) (*Run, error) {
	return s.Runs.Get(ctx, id)
}

func validLevel(level string) bool {
	switch LogLevel(level) {
	case "", LevelDebug, LevelInfo, LevelWarning, LevelError:
		return true
	}
	return false
}

// Logs returns a run and its entries in insertion order. The level filter
// is exact-match: level=error returns error entries only, not
// "error and above".
func (s *RunServiceImpl) Logs(ctx context.Context, id string, level string, document string) (*Run, []LogEntry, error) {
	if !validLevel(level) {
		return nil, nil, fmt.Errorf("invalid log level %q", level)
	}

	r, err := s.Runs.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.Logs_.List(ctx, r.ID, LogLevel(level), document)
	if err != nil {
		return nil, nil, err
	}
	return r, entries, nil
}

func (s *RunServiceImpl) History(ctx context.Context, scheduleID primitive.ObjectID, limit int64) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Runs.ListBySchedule(ctx, scheduleID, limit)
}

func (s *RunServiceImpl) Recent(ctx context.Context, limit int64) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Runs.ListRecent(ctx, limit)
}

func (s *RunServiceImpl) HasActive(ctx context.Context, scheduleID primitive.ObjectID) (bool, error) {
	return s.Runs.HasActiveForSchedule(ctx, scheduleID)
}

func (s *RunServiceImpl) LatestForCollection(ctx context.Context, collectionID primitive.ObjectID) (*Run, error) {
	return s.Runs.LatestForCollection(ctx, collectionID)
}

func (s *RunServiceImpl) ListUnfinished(ctx context.Context) ([]Run, error) {
	return s.Runs.ListUnfinished(ctx)
}

func (s *RunServiceImpl) Begin(ctx context.Context, runID primitive.ObjectID) {
	if err := s.Runs.MarkInProgress(ctx, runID); err != nil {
		s.Logger.Error("failed to mark run in progress", zap.String("run_id", runID.Hex()), zap.Error(err))
	}
}

func (s *RunServiceImpl) Progress(ctx context.Context, runID primitive.ObjectID, c Counters) {
	if err := s.Runs.UpdateCounters(ctx, runID, c); err != nil {
		s.Logger.Error("failed to update run counters", zap.String("run_id", runID.Hex()), zap.Error(err))
	}
}

func (s *RunServiceImpl) Log(ctx context.Context, runID primitive.ObjectID, level LogLevel, message string, documentID string, details map[string]interface{}) {
	entry := &LogEntry{
		RunID:              runID,
		Level:              level,
		Message:            message,
		DocumentIdentifier: documentID,
		Details:            details,
	}
	if err := s.Logs_.Append(ctx, entry); err != nil {
		s.Logger.Error("failed to append run log entry", zap.String("run_id", runID.Hex()), zap.Error(err))
	}
}

func (s *RunServiceImpl) Complete(ctx context.Context, runID primitive.ObjectID) {
	if _, err := s.Runs.Finish(ctx, runID, true, ""); err != nil {
		s.Logger.Error("failed to complete run", zap.String("run_id", runID.Hex()), zap.Error(err))
	}
}

func (s *RunServiceImpl) Fail(ctx context.Context, runID primitive.ObjectID, cause error) {
	finished, err := s.Runs.Finish(ctx, runID, false, cause.Error())
	if err != nil {
		s.Logger.Error("failed to mark run failed", zap.String("run_id", runID.Hex()), zap.Error(err))
		return
	}
	if finished {
		s.Log(ctx, runID, LevelError, cause.Error(), "", nil)
	}
}
