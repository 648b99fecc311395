package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-docbridge/internal/bridge"
	common_api "go-docbridge/internal/common/api"
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
	"go-docbridge/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// collectionResolver satisfies document.CollectionResolver off the
// collection mirror directly, keeping the document service independent
// of the catalog service.
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

// pipelineAdapter bridges the document feature to the plugin executor,
// translating between the two packages' document views.
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

// RegisterBuiltinPlugins binds the builtin component handlers and seeds
// their records on startup.
func RegisterBuiltinPlugins(
	lc fx.Lifecycle,
	registry *plugin.Registry,
	plugins plugin.PluginRepository,
	components plugin.ComponentRepository,
	sources plugin.SourceRepository,
	documents document.DocumentService,
	zapLogger *zap.Logger,
) {
	contrib.Register(registry, contrib.Deps{
		Ingestor: documents,
		Archiver: documents,
		Logger:   zapLogger,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return contrib.EnsureBuiltins(ctx, plugins, components, sources, zapLogger)
		},
	})
}

// StartDispatcher runs the schedule dispatch loop for the lifetime of
// the app.
func StartDispatcher(lc fx.Lifecycle, d *dispatch.Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Stop()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			run.NewRunRepository,
			run.NewLogRepository,
			schedule.NewScheduleRepository,
			plugin.NewPluginRepository,
			plugin.NewComponentRepository,
			plugin.NewInstanceRepository,
			plugin.NewSourceRepository,
			plugin.NewExecutionLogRepository,
			document.NewDocumentRepository,
			catalog.NewWorkspaceRepository,
			catalog.NewCollectionRepository,
			settings.NewSettingsRepository,

			// Initialize Services
			settings.NewSettingsService,
			bridge.NewHTTPClient,
			run.NewRunService,
			plugin.NewRegistry,
			plugin.NewExecutor,
			document.NewDocumentService,
			syncer.NewSyncer,
			catalog.NewCatalogService,
			plugin.NewPluginService,
			schedule.NewScheduleService,
			dispatch.NewDispatcher,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s settings.SettingsService) bridge.Credentials { return s },
			func(repo catalog.CollectionRepository) document.CollectionResolver {
				return &collectionResolver{collections: repo}
			},
			func(d document.DocumentService) catalog.DocumentCounter { return d },
			func(e *plugin.Executor) *pipelineAdapter { return &pipelineAdapter{executor: e} },
			func(a *pipelineAdapter) document.PreprocessRunner { return a },
			func(a *pipelineAdapter) document.LifecycleNotifier { return a },
			func(e *plugin.Executor) syncer.ImporterRunner { return e },
			func(s *syncer.Syncer) catalog.SyncLauncher { return s },
			func(s *syncer.Syncer) plugin.ImporterLauncher { return s },
			func(d *dispatch.Dispatcher) schedule.Trigger { return d },

			// Initialize Controller
			run.NewRunController,
			run.NewStreamController,
			plugin.NewPluginController,
			catalog.NewCatalogController,
			schedule.NewScheduleController,
			settings.NewSettingsController,

			// Initialize API Routes
			AsRoute(run.NewRunApi),
			AsRoute(plugin.NewPluginApi),
			AsRoute(catalog.NewCatalogApi),
			AsRoute(schedule.NewScheduleApi),
			AsRoute(settings.NewSettingsApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			RegisterBuiltinPlugins,
			StartServer,
			StartDispatcher,
		),
	)

	app.Run()
}
