package models

import (
	"time"
)

// Log is the record shape the async logger sink writes to the "logs"
// collection. These are process-level application logs, distinct from the
// per-run sync log entries owned by the run ledger.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	RunID        string    `bson:"run_id,omitempty" json:"run_id,omitempty"`
	ScheduleID   string    `bson:"schedule_id,omitempty" json:"schedule_id,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
