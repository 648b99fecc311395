package settings

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Setting is one key/value pair of runtime configuration. Secret values
// are flagged so the API never echoes them back.
type Setting struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Key       string             `json:"key" bson:"key"`
	Value     string             `json:"value" bson:"value"`
	Secret    bool               `json:"secret" bson:"secret"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

const (
	KeyBridgeBaseURL      = "bridge_base_url"
	KeyBridgeAPIKey       = "bridge_api_key"
	KeyBridgeOrganization = "bridge_organization"
)

// SystemConfig is the API view of the system settings. The API key is
// reported as set/unset only.
type SystemConfig struct {
	BridgeBaseURL      string `json:"bridge_base_url"`
	BridgeOrganization string `json:"bridge_organization"`
	BridgeAPIKeySet    bool   `json:"bridge_api_key_set"`
}
