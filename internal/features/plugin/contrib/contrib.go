// Package contrib ships the builtin plugin: a filesystem importer, a
// custom-identifier preprocessor, and script/webhook/postgres/excel/
// archive postprocessors. EnsureBuiltins seeds their records; Register
// binds their handlers into the runtime registry.
package contrib

import (
	"context"
	"net/http"
	"time"

	"go-docbridge/internal/features/plugin"

	"go.uber.org/zap"
)

const PluginSlug = "builtin"

// Ingestor brings an import payload into the local document store.
// Implemented by the document feature and injected at wiring time.
type Ingestor interface {
	IngestFile(ctx context.Context, fileName string, collectionIdentifier string) (created bool, err error)
}

// Archiver mutates documents on behalf of postprocessors.
type Archiver interface {
	ArchiveDocument(ctx context.Context, identifier string) error
	SetCustomIdentifier(ctx context.Context, identifier string, customID string) error
}

type Deps struct {
	Ingestor   Ingestor
	Archiver   Archiver
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Register binds every builtin handler under its full slug.
func Register(reg *plugin.Registry, deps Deps) {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	reg.RegisterImporter(PluginSlug+".filesystem-importer", filesystemImporter(deps.Ingestor, deps.Logger))
	reg.RegisterPreprocessor(PluginSlug+".custom-id-generator", customIdentifierGenerator())
	reg.RegisterPostprocessor(PluginSlug+".script", scriptPostprocessor())
	reg.RegisterPostprocessor(PluginSlug+".webhook-notifier", webhookNotifier(deps.HTTPClient, deps.Logger))
	reg.RegisterPostprocessor(PluginSlug+".postgres-export", postgresExport(deps.Logger))
	reg.RegisterPostprocessor(PluginSlug+".excel-export", excelExport(deps.Logger))
	reg.RegisterPostprocessor(PluginSlug+".archive-on-approval", archiveOnApproval(deps.Archiver, deps.Logger))
}

// EnsureBuiltins upserts the builtin plugin, its components, and its
// source record so a fresh database exposes them without manual setup.
func EnsureBuiltins(
	ctx context.Context,
	plugins plugin.PluginRepository,
	components plugin.ComponentRepository,
	sources plugin.SourceRepository,
	logger *zap.Logger,
) error {
	src, err := sources.GetBySlug(ctx, PluginSlug)
	if err != nil {
		return err
	}
	if src == nil {
		src = &plugin.PluginSource{
			Slug:       PluginSlug,
			Name:       "Built-in Components",
			URL:        "embedded",
			SourceType: plugin.SourceBuiltin,
			Enabled:    true,
		}
		if err := sources.Create(ctx, src); err != nil {
			return err
		}
	}

	p, err := plugins.GetBySlug(ctx, PluginSlug)
	if err != nil {
		return err
	}
	if p == nil {
		p = &plugin.Plugin{
			Slug:        PluginSlug,
			Name:        "Built-in Components",
			Author:      "go-docbridge",
			Version:     "1.0.0",
			Description: "Importer, preprocessor, and postprocessor components shipped with the service",
			Enabled:     true,
			SourceID:    &src.ID,
		}
		if err := plugins.Create(ctx, p); err != nil {
			return err
		}
	}

	for _, def := range builtinComponents() {
		existing, err := components.GetBySlug(ctx, p.ID, def.Slug)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		def.PluginID = p.ID
		if err := components.Create(ctx, &def); err != nil {
			return err
		}
		logger.Info("registered builtin component", zap.String("slug", def.Slug))
	}

	return nil
}

func builtinComponents() []plugin.PluginComponent {
	return []plugin.PluginComponent{
		{
			ComponentType: plugin.ComponentImporter,
			Slug:          "filesystem-importer",
			Name:          "File System Importer",
			Description:   "Import documents from a local directory",
			ConfigSchema: plugin.ConfigSchema{Fields: []plugin.SchemaField{
				{Name: "directory", Kind: plugin.KindString, Required: true, Description: "Directory path to scan for files"},
				{Name: "file_pattern", Kind: plugin.KindString, Description: "Regex pattern to match files", Default: `.*\.(pdf|png|jpg|jpeg|tiff)$`},
				{Name: "collection_identifier", Kind: plugin.KindString, Required: true, Description: "Target collection identifier"},
				{Name: "delete_after_import", Kind: plugin.KindBoolean, Description: "Delete files after successful import", Default: false},
			}},
		},
		{
			ComponentType: plugin.ComponentPreprocessor,
			Slug:          "custom-id-generator",
			Name:          "Custom Identifier Generator",
			Description:   "Generate custom identifiers based on file name and date",
			ConfigSchema: plugin.ConfigSchema{Fields: []plugin.SchemaField{
				{Name: "prefix", Kind: plugin.KindString, Description: "Prefix for the custom identifier", Default: "DOC"},
				{Name: "include_date", Kind: plugin.KindBoolean, Description: "Include current date in identifier", Default: true},
				{Name: "date_format", Kind: plugin.KindString, Description: "Go time layout for the date part", Default: "20060102"},
			}},
		},
		{
			ComponentType: plugin.ComponentPostprocessor,
			Slug:          "script",
			Name:          "Script",
			Description:   "Run a Tengo script against the document on lifecycle events",
			ConfigSchema: plugin.ConfigSchema{Fields: []plugin.SchemaField{
				{Name: "script", Kind: plugin.KindString, Required: true, Description: "Tengo script source"},
			}},
		},
		{
			ComponentType: plugin.ComponentPostprocessor,
			Slug:          "webhook-notifier",
			Name:          "Webhook Notifier",
			Description:   "Send webhook notifications on document events",
			ConfigSchema: plugin.ConfigSchema{Fields: []plugin.SchemaField{
				{Name: "webhook_url", Kind: plugin.KindString, Required: true, Description: "URL to send webhooks to"},
				{Name: "include_data", Kind: plugin.KindBoolean, Description: "Include document data in payload", Default: false},
				{Name: "secret", Kind: plugin.KindString, Description: "Secret for webhook signature"},
			}},
		},
		{
			ComponentType: plugin.ComponentPostprocessor,
			Slug:          "postgres-export",
			Name:          "Postgres Export",
			Description:   "Upsert document field values into an external Postgres table",
			ConfigSchema: plugin.ConfigSchema{Fields: []plugin.SchemaField{
				{Name: "connection_string", Kind: plugin.KindString, Required: true, Description: "Postgres connection string"},
				{Name: "table", Kind: plugin.KindString, Required: true, Description: "Target table name"},
			}},
		},
		{
			ComponentType: plugin.ComponentPostprocessor,
			Slug:          "excel-export",
			Name:          "Excel Export",
			Description:   "Append document events to an Excel workbook on disk",
			ConfigSchema: plugin.ConfigSchema{Fields: []plugin.SchemaField{
				{Name: "output_path", Kind: plugin.KindString, Required: true, Description: "Path of the .xlsx workbook to write"},
				{Name: "sheet", Kind: plugin.KindString, Description: "Worksheet name", Default: "Documents"},
			}},
		},
		{
			ComponentType: plugin.ComponentPostprocessor,
			Slug:          "archive-on-approval",
			Name:          "Archive on Approval",
			Description:   "Automatically archive documents after they are approved",
			ConfigSchema: plugin.ConfigSchema{Fields: []plugin.SchemaField{
				{Name: "add_archived_prefix", Kind: plugin.KindBoolean, Description: "Prefix custom identifier with ARCHIVED-", Default: true},
			}},
		},
	}
}
