// Command scheduler runs the dispatch loop without the HTTP API. Useful
// for deployments that separate the API from the worker; only one
// scheduler (or API with embedded dispatcher) may run per database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-docbridge/internal/bridge"
	"go-docbridge/internal/config"
	"go-docbridge/internal/database"
	"go-docbridge/internal/features/catalog"
	"go-docbridge/internal/features/dispatch"
	"go-docbridge/internal/features/document"
	"go-docbridge/internal/features/plugin"
	"go-docbridge/internal/features/plugin/contrib"
	"go-docbridge/internal/features/run"
	"go-docbridge/internal/features/schedule"
	"go-docbridge/internal/features/settings"
	"go-docbridge/internal/features/syncer"
	"go-docbridge/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type collectionResolver struct {
	collections catalog.CollectionRepository
}

func (r *collectionResolver) ResolveCollection(ctx context.Context, identifier string) (*primitive.ObjectID, *primitive.ObjectID, error) {
	c, err := r.collections.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, fmt.Errorf("collection %s not found", identifier)
	}
	return &c.ID, &c.WorkspaceID, nil
}

type pipelineAdapter struct {
	executor *plugin.Executor
}

func toPluginDocument(d *document.Document) *plugin.Document {
	return &plugin.Document{
		ID:               d.ID,
		Identifier:       d.Identifier,
		CustomIdentifier: d.CustomIdentifier,
		FileName:         d.FileName,
		CollectionID:     d.CollectionID,
		State:            string(d.State),
		Data:             d.Data,
	}
}

func (a *pipelineAdapter) Preprocess(ctx context.Context, doc *document.Document) error {
	pd := toPluginDocument(doc)
	if err := a.executor.RunPreprocessors(ctx, pd); err != nil {
		if errors.Is(err, plugin.ErrIngestionAborted) {
			return document.ErrIngestionAborted
		}
		return err
	}
	doc.FileName = pd.FileName
	doc.CustomIdentifier = pd.CustomIdentifier
	return nil
}

func (a *pipelineAdapter) DocumentEvent(ctx context.Context, doc *document.Document, event string) {
	a.executor.HandleDocumentEvent(ctx, toPluginDocument(doc), plugin.EventType(event))
}

func main() {
	interval := flag.Duration("interval", 0, "override the dispatch interval")
	once := flag.Bool("once", false, "run a single dispatch tick and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *interval > 0 {
		cfg.DispatchInterval = *interval
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, disconnect, err := database.Connect(connectCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := disconnect(shutdownCtx); err != nil {
			log.Printf("failed to disconnect: %v", err)
		}
	}()

	zapLogger, err := logger.NewLogger(cfg, db)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	runs := run.NewRunService(run.NewRunRepository(db), run.NewLogRepository(db), zapLogger)
	settingsSvc := settings.NewSettingsService(settings.NewSettingsRepository(db), cfg, zapLogger)
	bridgeClient := bridge.NewHTTPClient(settingsSvc)

	registry := plugin.NewRegistry()
	executor := plugin.NewExecutor(
		plugin.NewPluginRepository(db),
		plugin.NewComponentRepository(db),
		plugin.NewInstanceRepository(db),
		plugin.NewExecutionLogRepository(db),
		registry,
		zapLogger,
	)

	collections := catalog.NewCollectionRepository(db)
	pipeline := &pipelineAdapter{executor: executor}
	documents := document.NewDocumentService(
		document.NewDocumentRepository(db),
		pipeline,
		pipeline,
		&collectionResolver{collections: collections},
		zapLogger,
	)
	contrib.Register(registry, contrib.Deps{
		Ingestor: documents,
		Archiver: documents,
		Logger:   zapLogger,
	})

	executorSyncer := syncer.NewSyncer(runs, documents, collections, bridgeClient, executor, zapLogger)
	dispatcher := dispatch.NewDispatcher(cfg, schedule.NewScheduleRepository(db), runs, executorSyncer, zapLogger)

	if *once {
		if err := dispatcher.Reconcile(ctx); err != nil {
			zapLogger.Error("reconciliation failed", zap.Error(err))
		}
		dispatcher.Tick(ctx, time.Now())
		dispatcher.Stop()
		return
	}

	dispatcher.Start()
	<-ctx.Done()
	dispatcher.Stop()
}
