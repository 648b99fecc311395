package plugin

import "fmt"

// FieldKind is the small set of config value kinds a component schema can
// declare. The schema is a flat field list, not a full JSON-Schema engine.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindEnum    FieldKind = "enum"
	KindArray   FieldKind = "array"
	KindObject  FieldKind = "object"
)

type SchemaField struct {
	Name        string      `json:"name" bson:"name"`
	Kind        FieldKind   `json:"kind" bson:"kind"`
	Required    bool        `json:"required" bson:"required"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Enum        []string    `json:"enum,omitempty" bson:"enum,omitempty"`
	Default     interface{} `json:"default,omitempty" bson:"default,omitempty"`
}

type ConfigSchema struct {
	Fields []SchemaField `json:"fields" bson:"fields"`
}

// Validate checks a config payload against the schema and returns one
// message per violation. Unknown keys are tolerated so plugins can carry
// forward config across schema versions.
func (s ConfigSchema) Validate(config map[string]interface{}) []string {
	var errs []string

	for _, f := range s.Fields {
		value, present := config[f.Name]
		if !present || value == nil {
			if f.Required && f.Default == nil {
				errs = append(errs, fmt.Sprintf("field %q is required", f.Name))
			}
			continue
		}

		switch f.Kind {
		case KindString:
			if _, ok := value.(string); !ok {
				errs = append(errs, fmt.Sprintf("field %q must be a string", f.Name))
			}
		case KindNumber:
			if !isNumber(value) {
				errs = append(errs, fmt.Sprintf("field %q must be a number", f.Name))
			}
		case KindBoolean:
			if _, ok := value.(bool); !ok {
				errs = append(errs, fmt.Sprintf("field %q must be a boolean", f.Name))
			}
		case KindEnum:
			str, ok := value.(string)
			if !ok {
				errs = append(errs, fmt.Sprintf("field %q must be a string", f.Name))
				continue
			}
			if !contains(f.Enum, str) {
				errs = append(errs, fmt.Sprintf("field %q must be one of %v", f.Name, f.Enum))
			}
		case KindArray:
			items, ok := toInterfaceSlice(value)
			if !ok {
				errs = append(errs, fmt.Sprintf("field %q must be an array of strings", f.Name))
				continue
			}
			for _, item := range items {
				if _, ok := item.(string); !ok {
					errs = append(errs, fmt.Sprintf("field %q must contain only strings", f.Name))
					break
				}
			}
		case KindObject:
			if _, ok := toStringMap(value); !ok {
				errs = append(errs, fmt.Sprintf("field %q must be an object", f.Name))
			}
		default:
			errs = append(errs, fmt.Sprintf("field %q has unknown kind %q", f.Name, f.Kind))
		}
	}

	return errs
}

// ApplyDefaults returns config with missing fields filled from schema
// defaults. The input map is not mutated.
func (s ConfigSchema) ApplyDefaults(config map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(config))
	for k, v := range config {
		out[k] = v
	}
	for _, f := range s.Fields {
		if _, present := out[f.Name]; !present && f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// toInterfaceSlice accepts both JSON-decoded and bson-decoded array shapes.
func toInterfaceSlice(v interface{}) ([]interface{}, bool) {
	switch items := v.(type) {
	case []interface{}:
		return items, true
	case []string:
		out := make([]interface{}, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func toStringMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}
