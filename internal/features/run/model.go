package run

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SyncType string

const (
	SyncTypeFullCollection SyncType = "full_collection"
	SyncTypeSelective      SyncType = "selective"
	SyncTypeDataSource     SyncType = "data_source"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether a run in this status can never change again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type TriggeredBy string

const (
	TriggeredByScheduled TriggeredBy = "scheduled"
	TriggeredByManual    TriggeredBy = "manual"
	TriggeredByEvent     TriggeredBy = "event"
)

type LogLevel string

const (
	LevelDebug   LogLevel = "debug"
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// Run is one execution attempt of a schedule, or an ad-hoc manual sync.
// ScheduleID is nil for ad-hoc runs. CompletedAt and Success are set
// together, exactly once, by the terminal transition; the record is
// immutable afterwards.
type Run struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ScheduleID       *primitive.ObjectID `json:"schedule_id,omitempty" bson:"schedule_id,omitempty"`
	CollectionID     *primitive.ObjectID `json:"collection_id,omitempty" bson:"collection_id,omitempty"`
	PluginInstanceID *primitive.ObjectID `json:"plugin_instance_id,omitempty" bson:"plugin_instance_id,omitempty"`
	SyncType         SyncType            `json:"sync_type" bson:"sync_type"`
	Status           Status              `json:"status" bson:"status"`
	TriggeredBy      TriggeredBy         `json:"triggered_by" bson:"triggered_by"`
	StartedAt        time.Time           `json:"started_at" bson:"started_at"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Success          bool                `json:"success" bson:"success"`
	TotalDocuments   int                 `json:"total_documents" bson:"total_documents"`
	DocumentsSynced  int                 `json:"documents_synced" bson:"documents_synced"`
	DocumentsCreated int                 `json:"documents_created" bson:"documents_created"`
	DocumentsUpdated int                 `json:"documents_updated" bson:"documents_updated"`
	DocumentsFailed  int                 `json:"documents_failed" bson:"documents_failed"`
	ProgressPercent  int                 `json:"progress_percent" bson:"progress_percent"`
	ErrorMessage     string              `json:"error_message,omitempty" bson:"error_message,omitempty"`
}

// Counters is the progress snapshot the executor writes between batches.
type Counters struct {
	TotalDocuments   int
	DocumentsSynced  int
	DocumentsCreated int
	DocumentsUpdated int
	DocumentsFailed  int
	ProgressPercent  int
}

// LogEntry is one append-only log line belonging to a run. Ordering is
// insertion order; Timestamp is monotonic within a run because a single
// writer owns the run.
type LogEntry struct {
	ID                 primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	RunID              primitive.ObjectID     `json:"run_id" bson:"run_id"`
	Level              LogLevel               `json:"level" bson:"level"`
	Message            string                 `json:"message" bson:"message"`
	DocumentIdentifier string                 `json:"document_identifier,omitempty" bson:"document_identifier,omitempty"`
	Details            map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
	Timestamp          time.Time              `json:"timestamp" bson:"timestamp"`
}
