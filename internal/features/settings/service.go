package settings

import (
	"context"
	"sync"

	"go-docbridge/internal/config"

	"go.uber.org/zap"
)

// UpdateSystemConfigRequest carries the editable system settings. Nil
// pointers leave the stored value untouched; an empty string clears it.
type UpdateSystemConfigRequest struct {
	BridgeBaseURL      *string `json:"bridge_base_url"`
	BridgeAPIKey       *string `json:"bridge_api_key"`
	BridgeOrganization *string `json:"bridge_organization"`
}

// SettingsService stores runtime configuration and doubles as the bridge
// credential source: values edited through the API win over the env
// bootstrap values.
type SettingsService interface {
	GetSystemConfig(ctx context.Context) (*SystemConfig, error)
	UpdateSystemConfig(ctx context.Context, req UpdateSystemConfigRequest) (*SystemConfig, error)

	BridgeBaseURL() string
	BridgeAPIKey() string
	BridgeOrganization() string
}

type SettingsServiceImpl struct {
	Repo   SettingsRepository
	Config *config.Config
	Logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

func NewSettingsService(repo SettingsRepository, cfg *config.Config, logger *zap.Logger) SettingsService {
	return &SettingsServiceImpl{
		Repo:   repo,
		Config: cfg,
		Logger: logger,
		cache:  map[string]string{},
	}
}

// lookup returns the stored value for key, falling back to the env value
// when nothing has been saved. Values are cached after the first read;
// writes refresh the cache.
func (s *SettingsServiceImpl) lookup(key string, fallback string) string {
	s.mu.RLock()
	value, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		if value == "" {
			return fallback
		}
		return value
	}

	stored, err := s.Repo.Get(context.Background(), key)
	if err != nil {
		s.Logger.Error("failed to load setting", zap.String("key", key), zap.Error(err))
		return fallback
	}

	value = ""
	if stored != nil {
		value = stored.Value
	}
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	if value == "" {
		return fallback
	}
	return value
}

func (s *SettingsServiceImpl) set(ctx context.Context, key string, value string, secret bool) error {
	if err := s.Repo.Set(ctx, key, value, secret); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
	return nil
}

func (s *SettingsServiceImpl) BridgeBaseURL() string {
	return s.lookup(KeyBridgeBaseURL, s.Config.BridgeBaseURL)
}

func (s *SettingsServiceImpl) BridgeAPIKey() string {
	return s.lookup(KeyBridgeAPIKey, s.Config.BridgeAPIKey)
}

func (s *SettingsServiceImpl) BridgeOrganization() string {
	return s.lookup(KeyBridgeOrganization, s.Config.BridgeOrganization)
}

func (s *SettingsServiceImpl) GetSystemConfig(_ context.Context) (*SystemConfig, error) {
	return &SystemConfig{
		BridgeBaseURL:      s.BridgeBaseURL(),
		BridgeOrganization: s.BridgeOrganization(),
		BridgeAPIKeySet:    s.BridgeAPIKey() != "",
	}, nil
}

func (s *SettingsServiceImpl) UpdateSystemConfig(ctx context.Context, req UpdateSystemConfigRequest) (*SystemConfig, error) {
	if req.BridgeBaseURL != nil {
		if err := s.set(ctx, KeyBridgeBaseURL, *req.BridgeBaseURL, false); err != nil {
			return nil, err
		}
	}
	if req.BridgeAPIKey != nil {
		if err := s.set(ctx, KeyBridgeAPIKey, *req.BridgeAPIKey, true); err != nil {
			return nil, err
		}
	}
	if req.BridgeOrganization != nil {
		if err := s.set(ctx, KeyBridgeOrganization, *req.BridgeOrganization, false); err != nil {
			return nil, err
		}
	}
	return s.GetSystemConfig(ctx)
}
