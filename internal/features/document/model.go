package document

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type State string

const (
	StateReview   State = "review"
	StateComplete State = "complete"
	StateArchived State = "archived"
)

// Lifecycle event names, matched against postprocessor event triggers.
const (
	EventUploaded = "document_uploaded"
	EventApproved = "document_approved"
	EventRejected = "document_rejected"
	EventArchived = "document_archived"
	EventUpdated  = "document_updated"
)

// Document is the local mirror of a remote document plus the flags the
// sync engine owns (sync_enabled). Identifier is unique across the store.
type Document struct {
	ID               primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Identifier       string                 `json:"identifier" bson:"identifier"`
	CustomIdentifier string                 `json:"custom_identifier,omitempty" bson:"custom_identifier,omitempty"`
	FileName         string                 `json:"file_name,omitempty" bson:"file_name,omitempty"`
	FileURL          string                 `json:"file_url,omitempty" bson:"file_url,omitempty"`
	ReviewURL        string                 `json:"review_url,omitempty" bson:"review_url,omitempty"`
	WorkspaceID      *primitive.ObjectID    `json:"workspace_id,omitempty" bson:"workspace_id,omitempty"`
	CollectionID     *primitive.ObjectID    `json:"collection_id,omitempty" bson:"collection_id,omitempty"`
	State            State                  `json:"state,omitempty" bson:"state,omitempty"`
	IsConfirmed      bool                   `json:"is_confirmed" bson:"is_confirmed"`
	InReview         bool                   `json:"in_review" bson:"in_review"`
	Failed           bool                   `json:"failed" bson:"failed"`
	Ready            bool                   `json:"ready" bson:"ready"`
	Validatable      bool                   `json:"validatable" bson:"validatable"`
	HasChallenges    bool                   `json:"has_challenges" bson:"has_challenges"`
	SyncEnabled      bool                   `json:"sync_enabled" bson:"sync_enabled"`
	CreatedDt        time.Time              `json:"created_dt" bson:"created_dt"`
	UploadedDt       *time.Time             `json:"uploaded_dt,omitempty" bson:"uploaded_dt,omitempty"`
	LastUpdatedDt    *time.Time             `json:"last_updated_dt,omitempty" bson:"last_updated_dt,omitempty"`
	Data             map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	Meta             map[string]interface{} `json:"meta,omitempty" bson:"meta,omitempty"`
	Tags             []string               `json:"tags,omitempty" bson:"tags,omitempty"`
}

// detectEvents compares a document against its previous state and names
// the lifecycle events the save represents. A brand-new document is an
// upload; a save that matches no specific transition is a plain update.
func detectEvents(old *Document, current *Document, created bool) []string {
	if created {
		return []string{EventUploaded}
	}

	var events []string
	if current.IsConfirmed && !old.IsConfirmed {
		events = append(events, EventApproved)
	}
	if current.State == StateArchived && old.State != StateArchived {
		events = append(events, EventArchived)
	}
	if current.Failed && !old.Failed {
		events = append(events, EventRejected)
	}
	if len(events) == 0 {
		events = append(events, EventUpdated)
	}
	return events
}
