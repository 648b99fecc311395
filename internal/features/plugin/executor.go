package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrIngestionAborted signals that a preprocessor asked for the document
// to be dropped. Callers skip the document; the run itself continues.
var ErrIngestionAborted = errors.New("document ingestion aborted by preprocessor")

// Executor resolves instances to their registered handlers and invokes
// them, writing one ExecutionLog per invocation.
type Executor struct {
	Plugins    PluginRepository
	Components ComponentRepository
	Instances  InstanceRepository
	Executions ExecutionLogRepository
	Registry   *Registry
	Logger     *zap.Logger
}

func NewExecutor(
	plugins PluginRepository,
	components ComponentRepository,
	instances InstanceRepository,
	executions ExecutionLogRepository,
	registry *Registry,
	logger *zap.Logger,
) *Executor {
	return &Executor{
		Plugins:    plugins,
		Components: components,
		Instances:  instances,
		Executions: executions,
		Registry:   registry,
		Logger:     logger,
	}
}

// resolution ties an instance to its component, owning plugin, and full
// handler slug for one invocation.
type resolution struct {
	component *PluginComponent
	plugin    *Plugin
	fullSlug  string
}

func (e *Executor) resolve(ctx context.Context, instance *PluginInstance) (*resolution, error) {
	component, err := e.Components.GetByID(ctx, instance.ComponentID)
	if err != nil {
		return nil, fmt.Errorf("load component for instance %s: %w", instance.Name, err)
	}

	plug, err := e.Plugins.GetByID(ctx, component.PluginID)
	if err != nil {
		return nil, fmt.Errorf("load plugin for component %s: %w", component.Slug, err)
	}
	if !plug.Enabled {
		return nil, fmt.Errorf("plugin %s is disabled", plug.Slug)
	}

	return &resolution{
		component: component,
		plugin:    plug,
		fullSlug:  plug.Slug + "." + component.Slug,
	}, nil
}

// checkConfig re-validates the instance config against the component
// schema at invocation time, so a schema change after save cannot run an
// instance with a payload it no longer accepts.
func (e *Executor) checkConfig(res *resolution, instance *PluginInstance) (map[string]interface{}, error) {
	config := res.component.ConfigSchema.ApplyDefaults(instance.Config)
	if errs := res.component.ConfigSchema.Validate(config); len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors: %s", strings.Join(errs, ", "))
	}
	return config, nil
}

// RunImporter invokes the single importer instance a data-source sync
// names and returns what it imported.
func (e *Executor) RunImporter(ctx context.Context, instanceID primitive.ObjectID) (ImportStats, error) {
	instance, err := e.Instances.GetByID(ctx, instanceID)
	if err != nil {
		return ImportStats{}, fmt.Errorf("load plugin instance: %w", err)
	}
	if instance.ComponentType != ComponentImporter {
		return ImportStats{}, fmt.Errorf("instance %s is not an importer", instance.Name)
	}
	if !instance.Enabled {
		return ImportStats{}, fmt.Errorf("importer %s is disabled", instance.Name)
	}

	res, err := e.resolve(ctx, instance)
	if err != nil {
		return ImportStats{}, err
	}

	execLog := &ExecutionLog{
		InstanceID: instance.ID,
		Status:     ExecutionStarted,
		InputData:  map[string]interface{}{"config": instance.Config},
	}
	if err := e.Executions.Create(ctx, execLog); err != nil {
		e.Logger.Error("failed to create plugin execution log", zap.Error(err))
	}

	config, err := e.checkConfig(res, instance)
	if err != nil {
		e.finishExecution(ctx, execLog.ID, ExecutionFailed, nil, err.Error())
		return ImportStats{}, err
	}

	fn, ok := e.Registry.Importer(res.fullSlug)
	if !ok {
		err := fmt.Errorf("importer handler not registered: %s", res.fullSlug)
		e.finishExecution(ctx, execLog.ID, ExecutionFailed, nil, err.Error())
		return ImportStats{}, err
	}

	stats, err := fn(ctx, config)
	if err != nil {
		e.finishExecution(ctx, execLog.ID, ExecutionFailed, nil, err.Error())
		return stats, err
	}

	e.finishExecution(ctx, execLog.ID, ExecutionSuccess, map[string]interface{}{
		"synced":  stats.Synced,
		"created": stats.Created,
		"updated": stats.Updated,
		"failed":  stats.Failed,
	}, "")

	e.Logger.Info("importer completed",
		zap.String("instance", instance.Name),
		zap.Int("synced", stats.Synced),
	)
	return stats, nil
}

// RunPreprocessors runs every enabled preprocessor over a document being
// ingested, in (priority, id) order, applying requested modifications.
// The first failure or abort stops the chain: preprocessor output feeds
// later steps, so ingestion cannot proceed past a broken one.
func (e *Executor) RunPreprocessors(ctx context.Context, doc *Document) error {
	instances, err := e.Instances.ListEnabledByType(ctx, ComponentPreprocessor)
	if err != nil {
		return fmt.Errorf("list preprocessors: %w", err)
	}
	sortInstances(instances)

	for idx := range instances {
		instance := &instances[idx]
		if !instance.AppliesToCollection(doc.CollectionID) {
			continue
		}

		result, err := e.runPreprocessor(ctx, instance, doc)
		if err != nil {
			return fmt.Errorf("preprocessor %s: %w", instance.Name, err)
		}

		if result.NewFileName != "" {
			doc.FileName = result.NewFileName
		}
		if result.NewCustomIdentifier != "" {
			doc.CustomIdentifier = result.NewCustomIdentifier
		}
		if result.Abort {
			e.Logger.Info("preprocessor requested abort",
				zap.String("instance", instance.Name),
				zap.String("document", doc.Identifier),
			)
			return ErrIngestionAborted
		}
	}
	return nil
}

func (e *Executor) runPreprocessor(ctx context.Context, instance *PluginInstance, doc *Document) (PreprocessResult, error) {
	res, err := e.resolve(ctx, instance)
	if err != nil {
		return PreprocessResult{}, err
	}

	execLog := &ExecutionLog{
		InstanceID:         instance.ID,
		DocumentIdentifier: doc.Identifier,
		Status:             ExecutionStarted,
		InputData: map[string]interface{}{
			"document_identifier": doc.Identifier,
			"file_name":           doc.FileName,
			"custom_identifier":   doc.CustomIdentifier,
		},
	}
	if err := e.Executions.Create(ctx, execLog); err != nil {
		e.Logger.Error("failed to create plugin execution log", zap.Error(err))
	}

	config, err := e.checkConfig(res, instance)
	if err != nil {
		e.finishExecution(ctx, execLog.ID, ExecutionFailed, nil, err.Error())
		return PreprocessResult{}, err
	}

	fn, ok := e.Registry.Preprocessor(res.fullSlug)
	if !ok {
		err := fmt.Errorf("preprocessor handler not registered: %s", res.fullSlug)
		e.finishExecution(ctx, execLog.ID, ExecutionFailed, nil, err.Error())
		return PreprocessResult{}, err
	}

	result, err := fn(ctx, config, doc)
	if err != nil {
		e.finishExecution(ctx, execLog.ID, ExecutionFailed, nil, err.Error())
		return PreprocessResult{}, err
	}

	e.finishExecution(ctx, execLog.ID, ExecutionSuccess, map[string]interface{}{
		"new_file_name":         result.NewFileName,
		"new_custom_identifier": result.NewCustomIdentifier,
		"abort":                 result.Abort,
		"message":               result.Message,
	}, "")
	return result, nil
}

// HandleDocumentEvent fans a lifecycle event out to every enabled
// postprocessor subscribed to it, in (priority, id) order. Failures are
// independent: each instance records its own outcome and the chain
// continues past a failing one.
func (e *Executor) HandleDocumentEvent(ctx context.Context, doc *Document, event EventType) {
	instances, err := e.Instances.ListEnabledByType(ctx, ComponentPostprocessor)
	if err != nil {
		e.Logger.Error("failed to list postprocessors",
			zap.String("event", string(event)),
			zap.Error(err),
		)
		return
	}
	sortInstances(instances)

	for idx := range instances {
		instance := &instances[idx]
		if !instance.TriggersOn(event) || !instance.AppliesToCollection(doc.CollectionID) {
			continue
		}

		if err := e.runPostprocessor(ctx, instance, doc, event); err != nil {
			e.Logger.Error("postprocessor failed",
				zap.String("instance", instance.Name),
				zap.String("event", string(event)),
				zap.String("document", doc.Identifier),
				zap.Error(err),
			)
		}
	}
}

func (e *Executor) runPostprocessor(ctx context.Context, instance *PluginInstance, doc *Document, event EventType) error {
	res, err := e.resolve(ctx, instance)
	if err != nil {
		return err
	}

	execLog := &ExecutionLog{
		InstanceID:         instance.ID,
		DocumentIdentifier: doc.Identifier,
		EventType:          event,
		Status:             ExecutionStarted,
		InputData: map[string]interface{}{
			"document_identifier": doc.Identifier,
			"event":               string(event),
		},
	}
	if err := e.Executions.Create(ctx, execLog); err != nil {
		e.Logger.Error("failed to create plugin execution log", zap.Error(err))
	}

	config, err := e.checkConfig(res, instance)
	if err != nil {
		e.finishExecution(ctx, execLog.ID, ExecutionFailed, nil, err.Error())
		return err
	}

	fn, ok := e.Registry.Postprocessor(res.fullSlug)
	if !ok {
		err := fmt.Errorf("postprocessor handler not registered: %s", res.fullSlug)
		e.finishExecution(ctx, execLog.ID, ExecutionFailed, nil, err.Error())
		return err
	}

	if err := fn(ctx, config, doc, event); err != nil {
		e.finishExecution(ctx, execLog.ID, ExecutionFailed, nil, err.Error())
		return err
	}

	e.finishExecution(ctx, execLog.ID, ExecutionSuccess, nil, "")
	return nil
}

func (e *Executor) finishExecution(ctx context.Context, id primitive.ObjectID, status ExecutionStatus, output map[string]interface{}, errorMessage string) {
	if err := e.Executions.Finish(ctx, id, status, output, errorMessage); err != nil {
		e.Logger.Error("failed to finish plugin execution log", zap.Error(err))
	}
}

// sortInstances orders by priority, ties broken by id hex. Instances can
// be added or disabled between events, so order is computed per
// invocation rather than cached.
func sortInstances(instances []PluginInstance) {
	sort.SliceStable(instances, func(a, b int) bool {
		if instances[a].Priority != instances[b].Priority {
			return instances[a].Priority < instances[b].Priority
		}
		return instances[a].ID.Hex() < instances[b].ID.Hex()
	})
}
