package plugin

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ImporterLauncher starts an ad-hoc data-source run for an importer
// instance and returns the run id. Implemented by the sync executor and
// injected at wiring time to keep this package free of sync imports.
type ImporterLauncher interface {
	LaunchImporterRun(ctx context.Context, instanceID primitive.ObjectID) (string, error)
}

type PluginService interface {
	ListPlugins(ctx context.Context) ([]Plugin, error)
	GetPlugin(ctx context.Context, id string) (*Plugin, error)
	CreatePlugin(ctx context.Context, p *Plugin) error
	UpdatePlugin(ctx context.Context, id string, updates map[string]interface{}) error
	DeletePlugin(ctx context.Context, id string) error

	ListComponents(ctx context.Context) ([]PluginComponent, error)

	ListInstances(ctx context.Context) ([]PluginInstance, error)
	GetInstance(ctx context.Context, id string) (*PluginInstance, error)
	CreateInstance(ctx context.Context, i *PluginInstance) error
	UpdateInstance(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteInstance(ctx context.Context, id string) error
	RunInstance(ctx context.Context, id string) (string, error)
	ListExecutions(ctx context.Context, id string, limit int64) ([]ExecutionLog, error)
	// ListImporterInstances returns enabled importer instances eligible
	// as data-source schedule targets.
	ListImporterInstances(ctx context.Context) ([]PluginInstance, error)

	ListSources(ctx context.Context) ([]PluginSource, error)
	GetSource(ctx context.Context, id string) (*PluginSource, error)
	CreateSource(ctx context.Context, s *PluginSource) error
	UpdateSource(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteSource(ctx context.Context, id string) error
}

type PluginServiceImpl struct {
	Plugins    PluginRepository
	Components ComponentRepository
	Instances  InstanceRepository
	Sources    SourceRepository
	Executions ExecutionLogRepository
	Launcher   ImporterLauncher
	Logger     *zap.Logger
}

func NewPluginService(
	plugins PluginRepository,
	components ComponentRepository,
	instances InstanceRepository,
	sources SourceRepository,
	executions ExecutionLogRepository,
	launcher ImporterLauncher,
	logger *zap.Logger,
) PluginService {
	return &PluginServiceImpl{
		Plugins:    plugins,
		Components: components,
		Instances:  instances,
		Sources:    sources,
		Executions: executions,
		Launcher:   launcher,
		Logger:     logger,
	}
}

func (s *PluginServiceImpl) ListPlugins(ctx context.Context) ([]Plugin, error) {
	return s.Plugins.List(ctx)
}

func (s *PluginServiceImpl) GetPlugin(ctx context.Context, id string) (*Plugin, error) {
	return s.Plugins.Get(ctx, id)
}

func (s *PluginServiceImpl) CreatePlugin(ctx context.Context, p *Plugin) error {
	if strings.TrimSpace(p.Slug) == "" {
		return fmt.Errorf("plugin slug is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("plugin name is required")
	}

	existing, err := s.Plugins.GetBySlug(ctx, p.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("plugin with slug %q already exists", p.Slug)
	}

	return s.Plugins.Create(ctx, p)
}

func (s *PluginServiceImpl) UpdatePlugin(ctx context.Context, id string, updates map[string]interface{}) error {
	allowed := bson.M{}
	for _, key := range []string{"name", "description", "enabled", "config", "version"} {
		if v, ok := updates[key]; ok {
			allowed[key] = v
		}
	}
	if len(allowed) == 0 {
		return fmt.Errorf("no updatable fields provided")
	}
	return s.Plugins.Update(ctx, id, allowed)
}

// DeletePlugin cascades to the plugin's components and their instances.
func (s *PluginServiceImpl) DeletePlugin(ctx context.Context, id string) error {
	p, err := s.Plugins.Get(ctx, id)
	if err != nil {
		return err
	}

	components, err := s.Components.ListByPlugin(ctx, p.ID)
	if err != nil {
		return err
	}
	componentIDs := make([]primitive.ObjectID, len(components))
	for i, c := range components {
		componentIDs[i] = c.ID
	}

	if err := s.Instances.DeleteByComponents(ctx, componentIDs); err != nil {
		return err
	}
	if err := s.Components.DeleteByPlugin(ctx, p.ID); err != nil {
		return err
	}
	return s.Plugins.Delete(ctx, id)
}

func (s *PluginServiceImpl) ListComponents(ctx context.Context) ([]PluginComponent, error) {
	return s.Components.List(ctx)
}

func (s *PluginServiceImpl) ListInstances(ctx context.Context) ([]PluginInstance, error) {
	return s.Instances.List(ctx)
}

func (s *PluginServiceImpl) GetInstance(ctx context.Context, id string) (*PluginInstance, error) {
	return s.Instances.Get(ctx, id)
}

// CreateInstance validates the config against the component schema before
// anything is persisted. ComponentType is denormalized from the component.
func (s *PluginServiceImpl) CreateInstance(ctx context.Context, i *PluginInstance) error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("instance name is required")
	}

	component, err := s.Components.GetByID(ctx, i.ComponentID)
	if err != nil {
		return fmt.Errorf("component not found: %w", err)
	}
	i.ComponentType = component.ComponentType

	if len(i.EventTriggers) > 0 && component.ComponentType != ComponentPostprocessor {
		return fmt.Errorf("event triggers are only valid for postprocessor instances")
	}
	for _, e := range i.EventTriggers {
		if !ValidEventType(e) {
			return fmt.Errorf("unknown event trigger %q", e)
		}
	}

	if i.Config == nil {
		i.Config = map[string]interface{}{}
	}
	if errs := component.ConfigSchema.Validate(component.ConfigSchema.ApplyDefaults(i.Config)); len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, ", "))
	}
	if i.Priority == 0 {
		i.Priority = 100
	}

	return s.Instances.Create(ctx, i)
}

func (s *PluginServiceImpl) UpdateInstance(ctx context.Context, id string, updates map[string]interface{}) error {
	instance, err := s.Instances.Get(ctx, id)
	if err != nil {
		return err
	}

	allowed := bson.M{}
	for _, key := range []string{"name", "enabled", "priority", "collection_ids"} {
		if v, ok := updates[key]; ok {
			allowed[key] = v
		}
	}

	if raw, ok := updates["event_triggers"]; ok {
		triggers, err := parseEventTriggers(raw)
		if err != nil {
			return err
		}
		if len(triggers) > 0 && instance.ComponentType != ComponentPostprocessor {
			return fmt.Errorf("event triggers are only valid for postprocessor instances")
		}
		allowed["event_triggers"] = triggers
	}

	if raw, ok := updates["config"]; ok {
		config, isMap := raw.(map[string]interface{})
		if !isMap {
			return fmt.Errorf("config must be an object")
		}
		component, err := s.Components.GetByID(ctx, instance.ComponentID)
		if err != nil {
			return err
		}
		if errs := component.ConfigSchema.Validate(component.ConfigSchema.ApplyDefaults(config)); len(errs) > 0 {
			return fmt.Errorf("invalid config: %s", strings.Join(errs, ", "))
		}
		allowed["config"] = config
	}

	if len(allowed) == 0 {
		return fmt.Errorf("no updatable fields provided")
	}
	return s.Instances.Update(ctx, id, allowed)
}

func (s *PluginServiceImpl) DeleteInstance(ctx context.Context, id string) error {
	return s.Instances.Delete(ctx, id)
}

// RunInstance starts an ad-hoc run for an importer instance and returns
// the run id the caller can poll.
func (s *PluginServiceImpl) RunInstance(ctx context.Context, id string) (string, error) {
	instance, err := s.Instances.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if instance.ComponentType != ComponentImporter {
		return "", fmt.Errorf("only importer instances can be run directly")
	}
	if !instance.Enabled {
		return "", fmt.Errorf("instance %s is disabled", instance.Name)
	}
	return s.Launcher.LaunchImporterRun(ctx, instance.ID)
}

func (s *PluginServiceImpl) ListExecutions(ctx context.Context, id string, limit int64) ([]ExecutionLog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return s.Executions.ListByInstance(ctx, oid, limit)
}

func (s *PluginServiceImpl) ListImporterInstances(ctx context.Context) ([]PluginInstance, error) {
	return s.Instances.ListEnabledByType(ctx, ComponentImporter)
}

func (s *PluginServiceImpl) ListSources(ctx context.Context) ([]PluginSource, error) {
	return s.Sources.List(ctx)
}

func (s *PluginServiceImpl) GetSource(ctx context.Context, id string) (*PluginSource, error) {
	return s.Sources.Get(ctx, id)
}

func (s *PluginServiceImpl) CreateSource(ctx context.Context, src *PluginSource) error {
	if strings.TrimSpace(src.Slug) == "" {
		return fmt.Errorf("source slug is required")
	}
	if strings.TrimSpace(src.URL) == "" {
		return fmt.Errorf("source url is required")
	}
	if src.SourceType == "" {
		src.SourceType = SourceUser
	}

	existing, err := s.Sources.GetBySlug(ctx, src.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("source with slug %q already exists", src.Slug)
	}

	return s.Sources.Create(ctx, src)
}

func (s *PluginServiceImpl) UpdateSource(ctx context.Context, id string, updates map[string]interface{}) error {
	allowed := bson.M{}
	for _, key := range []string{"name", "url", "enabled"} {
		if v, ok := updates[key]; ok {
			allowed[key] = v
		}
	}
	if len(allowed) == 0 {
		return fmt.Errorf("no updatable fields provided")
	}
	return s.Sources.Update(ctx, id, allowed)
}

func (s *PluginServiceImpl) DeleteSource(ctx context.Context, id string) error {
	src, err := s.Sources.Get(ctx, id)
	if err != nil {
		return err
	}
	if src.SourceType == SourceBuiltin {
		return fmt.Errorf("builtin sources cannot be deleted")
	}
	return s.Sources.Delete(ctx, id)
}

func parseEventTriggers(raw interface{}) ([]EventType, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("event_triggers must be an array")
	}
	triggers := make([]EventType, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("event_triggers must contain only strings")
		}
		e := EventType(str)
		if !ValidEventType(e) {
			return nil, fmt.Errorf("unknown event trigger %q", str)
		}
		triggers = append(triggers, e)
	}
	return triggers, nil
}
