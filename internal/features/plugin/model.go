package plugin

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ComponentType string

const (
	ComponentImporter      ComponentType = "importer"
	ComponentPreprocessor  ComponentType = "preprocessor"
	ComponentPostprocessor ComponentType = "postprocessor"
)

func ValidComponentType(t ComponentType) bool {
	switch t {
	case ComponentImporter, ComponentPreprocessor, ComponentPostprocessor:
		return true
	}
	return false
}

// EventType is a document lifecycle transition that fans out to
// subscribed postprocessor instances.
type EventType string

const (
	EventDocumentUploaded EventType = "document_uploaded"
	EventDocumentApproved EventType = "document_approved"
	EventDocumentRejected EventType = "document_rejected"
	EventDocumentArchived EventType = "document_archived"
	EventDocumentUpdated  EventType = "document_updated"
)

func ValidEventType(e EventType) bool {
	switch e {
	case EventDocumentUploaded, EventDocumentApproved, EventDocumentRejected,
		EventDocumentArchived, EventDocumentUpdated:
		return true
	}
	return false
}

type SourceType string

const (
	SourceBuiltin SourceType = "builtin"
	SourceUser    SourceType = "user"
)

// Plugin is an installed plugin package exposing one or more components.
type Plugin struct {
	ID               primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Slug             string                 `json:"slug" bson:"slug"`
	Name             string                 `json:"name" bson:"name"`
	Author           string                 `json:"author,omitempty" bson:"author,omitempty"`
	Version          string                 `json:"version" bson:"version"`
	Description      string                 `json:"description,omitempty" bson:"description,omitempty"`
	Enabled          bool                   `json:"enabled" bson:"enabled"`
	InstalledAt      time.Time              `json:"installed_at" bson:"installed_at"`
	ConfigSchema     ConfigSchema           `json:"config_schema" bson:"config_schema"`
	Config           map[string]interface{} `json:"config" bson:"config"`
	SourceID         *primitive.ObjectID    `json:"source_id,omitempty" bson:"source_id,omitempty"`
	SourcePath       string                 `json:"source_path,omitempty" bson:"source_path,omitempty"`
	InstalledVersion string                 `json:"installed_version,omitempty" bson:"installed_version,omitempty"`
	AvailableVersion string                 `json:"available_version,omitempty" bson:"available_version,omitempty"`
	UpdateAvailable  bool                   `json:"update_available" bson:"update_available"`
	InstalledFromURL string                 `json:"installed_from_url,omitempty" bson:"installed_from_url,omitempty"`
}

// PluginComponent is a typed capability a plugin provides. Instances of a
// component are configured against its ConfigSchema.
type PluginComponent struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PluginID      primitive.ObjectID `json:"plugin_id" bson:"plugin_id"`
	ComponentType ComponentType      `json:"component_type" bson:"component_type"`
	Slug          string             `json:"slug" bson:"slug"`
	Name          string             `json:"name" bson:"name"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	ConfigSchema  ConfigSchema       `json:"config_schema" bson:"config_schema"`
}

// PluginInstance is a configured, priority-ordered deployment of a
// component. ComponentType is denormalized from the component so the
// executor can select candidates without a join.
type PluginInstance struct {
	ID            primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	ComponentID   primitive.ObjectID     `json:"component_id" bson:"component_id"`
	ComponentType ComponentType          `json:"component_type" bson:"component_type"`
	Name          string                 `json:"name" bson:"name"`
	Enabled       bool                   `json:"enabled" bson:"enabled"`
	Priority      int                    `json:"priority" bson:"priority"`
	Config        map[string]interface{} `json:"config" bson:"config"`
	EventTriggers []EventType            `json:"event_triggers,omitempty" bson:"event_triggers,omitempty"`
	CollectionIDs []primitive.ObjectID   `json:"collection_ids,omitempty" bson:"collection_ids,omitempty"`
	CreatedAt     time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" bson:"updated_at"`
}

// TriggersOn reports whether this instance subscribes to the event. An
// empty trigger list means all events, matching the original behavior.
func (i *PluginInstance) TriggersOn(event EventType) bool {
	if len(i.EventTriggers) == 0 {
		return true
	}
	for _, t := range i.EventTriggers {
		if t == event {
			return true
		}
	}
	return false
}

// AppliesToCollection reports whether the instance's collection filter
// admits a document in the given collection. Empty filter means all.
func (i *PluginInstance) AppliesToCollection(collectionID *primitive.ObjectID) bool {
	if len(i.CollectionIDs) == 0 || collectionID == nil {
		return true
	}
	for _, id := range i.CollectionIDs {
		if id == *collectionID {
			return true
		}
	}
	return false
}

// PluginSource is a URL plugins can be discovered from. Fetching transport
// is out of scope; the records back the management UI.
type PluginSource struct {
	ID            primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Slug          string                 `json:"slug" bson:"slug"`
	Name          string                 `json:"name" bson:"name"`
	URL           string                 `json:"url" bson:"url"`
	SourceType    SourceType             `json:"source_type" bson:"source_type"`
	Enabled       bool                   `json:"enabled" bson:"enabled"`
	IsMultiPlugin bool                   `json:"is_multi_plugin" bson:"is_multi_plugin"`
	ManifestData  map[string]interface{} `json:"manifest_data,omitempty" bson:"manifest_data,omitempty"`
	LastCheckedAt *time.Time             `json:"last_checked_at,omitempty" bson:"last_checked_at,omitempty"`
	LastFetchedAt *time.Time             `json:"last_fetched_at,omitempty" bson:"last_fetched_at,omitempty"`
	LatestVersion string                 `json:"latest_version,omitempty" bson:"latest_version,omitempty"`
	ErrorMessage  string                 `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt     time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" bson:"updated_at"`
}

type ExecutionStatus string

const (
	ExecutionStarted ExecutionStatus = "started"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
)

// ExecutionLog records one instance invocation. Fan-out paths write one
// per instance so failures stay independent and auditable.
type ExecutionLog struct {
	ID                 primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	InstanceID         primitive.ObjectID     `json:"instance_id" bson:"instance_id"`
	DocumentIdentifier string                 `json:"document_identifier,omitempty" bson:"document_identifier,omitempty"`
	Status             ExecutionStatus        `json:"status" bson:"status"`
	EventType          EventType              `json:"event_type,omitempty" bson:"event_type,omitempty"`
	StartedAt          time.Time              `json:"started_at" bson:"started_at"`
	CompletedAt        *time.Time             `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	InputData          map[string]interface{} `json:"input_data,omitempty" bson:"input_data,omitempty"`
	OutputData         map[string]interface{} `json:"output_data,omitempty" bson:"output_data,omitempty"`
	ErrorMessage       string                 `json:"error_message,omitempty" bson:"error_message,omitempty"`
}

// Document is the pipeline's view of a local document. The document
// feature maps its own model into this shape before invoking the pipeline
// so the two packages stay decoupled.
type Document struct {
	ID               primitive.ObjectID
	Identifier       string
	CustomIdentifier string
	FileName         string
	CollectionID     *primitive.ObjectID
	State            string
	Data             map[string]interface{}
}

// ImportStats is what an importer run contributes to its sync run.
type ImportStats struct {
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// PreprocessResult carries the modifications a preprocessor requests on
// the document being ingested.
type PreprocessResult struct {
	NewFileName         string
	NewCustomIdentifier string
	Abort               bool
	Message             string
}
