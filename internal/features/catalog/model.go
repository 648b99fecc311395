package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace and Collection are local mirrors of the remote catalog.
// Identifiers come from the remote service and are unique per kind.
type Workspace struct {
	ID                     primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Identifier             string                 `json:"identifier" bson:"identifier"`
	Name                   string                 `json:"name,omitempty" bson:"name,omitempty"`
	OrganizationIdentifier string                 `json:"organization_identifier,omitempty" bson:"organization_identifier,omitempty"`
	Raw                    map[string]interface{} `json:"raw,omitempty" bson:"raw,omitempty"`
	UpdatedAt              time.Time              `json:"updated_at" bson:"updated_at"`
}

type Collection struct {
	ID                  primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Identifier          string                 `json:"identifier" bson:"identifier"`
	Name                string                 `json:"name,omitempty" bson:"name,omitempty"`
	WorkspaceID         primitive.ObjectID     `json:"workspace_id" bson:"workspace_id"`
	WorkspaceIdentifier string                 `json:"workspace_identifier" bson:"workspace_identifier"`
	Raw                 map[string]interface{} `json:"raw,omitempty" bson:"raw,omitempty"`
	UpdatedAt           time.Time              `json:"updated_at" bson:"updated_at"`
}
