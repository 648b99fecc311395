package schedule

import (
	"time"

	"go-docbridge/internal/features/run"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Schedule is a recurring sync definition. NextRunAt is computed from the
// cron expression whenever the schedule is saved or fired; the dispatcher
// only looks at schedules whose NextRunAt has passed.
//
// LeaseOwner/LeaseExpiresAt implement dispatch leases: a dispatcher must
// hold the lease before creating a run, so two dispatcher processes never
// fire the same schedule concurrently.
type Schedule struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name             string              `json:"name" bson:"name"`
	SyncType         run.SyncType        `json:"sync_type" bson:"sync_type"`
	CollectionID     *primitive.ObjectID `json:"collection_id,omitempty" bson:"collection_id,omitempty"`
	PluginInstanceID *primitive.ObjectID `json:"plugin_instance_id,omitempty" bson:"plugin_instance_id,omitempty"`
	CronExpression   string              `json:"cron_expression" bson:"cron_expression"`
	CronDescription  string              `json:"cron_description" bson:"-"`
	Enabled          bool                `json:"enabled" bson:"enabled"`
	NextRunAt        *time.Time          `json:"next_run_at,omitempty" bson:"next_run_at,omitempty"`
	LastRunAt        *time.Time          `json:"last_run_at,omitempty" bson:"last_run_at,omitempty"`
	LeaseOwner       string              `json:"-" bson:"lease_owner,omitempty"`
	LeaseExpiresAt   *time.Time          `json:"-" bson:"lease_expires_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" bson:"updated_at"`
}
