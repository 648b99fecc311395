package plugin

import (
	"strings"
	"testing"
)

func TestConfigSchemaValidate(t *testing.T) {
	schema := ConfigSchema{Fields: []SchemaField{
		{Name: "url", Kind: KindString, Required: true},
		{Name: "retries", Kind: KindNumber},
		{Name: "verify_tls", Kind: KindBoolean},
		{Name: "mode", Kind: KindEnum, Enum: []string{"push", "pull"}},
		{Name: "tags", Kind: KindArray},
		{Name: "headers", Kind: KindObject},
		{Name: "region", Kind: KindString, Required: true, Default: "us-east"},
	}}

	tests := []struct {
		name    string
		config  map[string]interface{}
		wantErr string
	}{
		{
			name:   "valid full config",
			config: map[string]interface{}{"url": "https://example.com", "retries": 3, "verify_tls": true, "mode": "push", "tags": []interface{}{"a", "b"}, "headers": map[string]interface{}{"X-Key": "v"}},
		},
		{
			name:    "missing required field",
			config:  map[string]interface{}{},
			wantErr: `field "url" is required`,
		},
		{
			name:   "required field with default is optional",
			config: map[string]interface{}{"url": "https://example.com"},
		},
		{
			name:    "wrong string type",
			config:  map[string]interface{}{"url": 42},
			wantErr: `field "url" must be a string`,
		},
		{
			name:    "wrong number type",
			config:  map[string]interface{}{"url": "x", "retries": "three"},
			wantErr: `field "retries" must be a number`,
		},
		{
			name:   "float number accepted",
			config: map[string]interface{}{"url": "x", "retries": 2.0},
		},
		{
			name:    "enum rejects unknown value",
			config:  map[string]interface{}{"url": "x", "mode": "sync"},
			wantErr: `field "mode" must be one of`,
		},
		{
			name:    "array rejects non-string items",
			config:  map[string]interface{}{"url": "x", "tags": []interface{}{"a", 1}},
			wantErr: `field "tags" must contain only strings`,
		},
		{
			name:   "array accepts string slice",
			config: map[string]interface{}{"url": "x", "tags": []string{"a", "b"}},
		},
		{
			name:    "object rejects scalar",
			config:  map[string]interface{}{"url": "x", "headers": "nope"},
			wantErr: `field "headers" must be an object`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := schema.Validate(tt.config)
			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, errs)
			}
		})
	}
}

func TestConfigSchemaApplyDefaults(t *testing.T) {
	schema := ConfigSchema{Fields: []SchemaField{
		{Name: "prefix", Kind: KindString, Default: "DOC"},
		{Name: "retries", Kind: KindNumber, Default: 3},
	}}

	in := map[string]interface{}{"prefix": "INV"}
	out := schema.ApplyDefaults(in)

	if out["prefix"] != "INV" {
		t.Fatalf("explicit value overwritten: %v", out["prefix"])
	}
	if out["retries"] != 3 {
		t.Fatalf("default not applied: %v", out["retries"])
	}
	if _, ok := in["retries"]; ok {
		t.Fatal("input map was mutated")
	}
}
