package settings

import (
	"context"
	"testing"
	"time"

	"go-docbridge/internal/config"

	"go.uber.org/zap"
)

type memSettingsRepo struct {
	items map[string]*Setting
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{items: map[string]*Setting{}}
}

func (r *memSettingsRepo) Get(_ context.Context, key string) (*Setting, error) {
	s, ok := r.items[key]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *memSettingsRepo) Set(_ context.Context, key string, value string, secret bool) error {
	r.items[key] = &Setting{Key: key, Value: value, Secret: secret, UpdatedAt: time.Now()}
	return nil
}

func newSettingsFixture(cfg *config.Config) (SettingsService, *memSettingsRepo) {
	repo := newMemSettingsRepo()
	return NewSettingsService(repo, cfg, zap.NewNop()), repo
}

func strPtr(s string) *string { return &s }

func TestCredentialsFallBackToEnv(t *testing.T) {
	svc, _ := newSettingsFixture(&config.Config{
		BridgeBaseURL: "https://env.example.com",
		BridgeAPIKey:  "env-key",
	})

	if got := svc.BridgeBaseURL(); got != "https://env.example.com" {
		t.Fatalf("expected env base URL, got %q", got)
	}
	if got := svc.BridgeAPIKey(); got != "env-key" {
		t.Fatalf("expected env API key, got %q", got)
	}
}

func TestStoredValuesWinOverEnv(t *testing.T) {
	svc, _ := newSettingsFixture(&config.Config{
		BridgeBaseURL: "https://env.example.com",
	})

	_, err := svc.UpdateSystemConfig(context.Background(), UpdateSystemConfigRequest{
		BridgeBaseURL: strPtr("https://stored.example.com"),
	})
	if err != nil {
		t.Fatalf("UpdateSystemConfig failed: %v", err)
	}

	if got := svc.BridgeBaseURL(); got != "https://stored.example.com" {
		t.Fatalf("expected stored base URL to win, got %q", got)
	}
}

func TestClearingStoredValueRestoresEnvFallback(t *testing.T) {
	svc, _ := newSettingsFixture(&config.Config{
		BridgeAPIKey: "env-key",
	})

	if _, err := svc.UpdateSystemConfig(context.Background(), UpdateSystemConfigRequest{
		BridgeAPIKey: strPtr("stored-key"),
	}); err != nil {
		t.Fatal(err)
	}
	if got := svc.BridgeAPIKey(); got != "stored-key" {
		t.Fatalf("expected stored key, got %q", got)
	}

	if _, err := svc.UpdateSystemConfig(context.Background(), UpdateSystemConfigRequest{
		BridgeAPIKey: strPtr(""),
	}); err != nil {
		t.Fatal(err)
	}
	if got := svc.BridgeAPIKey(); got != "env-key" {
		t.Fatalf("expected env fallback after clearing, got %q", got)
	}
}

func TestSystemConfigNeverEchoesAPIKey(t *testing.T) {
	svc, repo := newSettingsFixture(&config.Config{})

	cfg, err := svc.UpdateSystemConfig(context.Background(), UpdateSystemConfigRequest{
		BridgeAPIKey: strPtr("super-secret"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.BridgeAPIKeySet {
		t.Fatal("expected bridge_api_key_set to be true")
	}

	stored := repo.items[KeyBridgeAPIKey]
	if stored == nil || !stored.Secret {
		t.Fatal("API key must be stored flagged as secret")
	}
}
