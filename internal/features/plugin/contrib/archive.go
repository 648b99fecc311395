package contrib

import (
	"context"
	"fmt"
	"strings"

	"go-docbridge/internal/features/plugin"

	"go.uber.org/zap"
)

// archiveOnApproval archives a document once it is approved, optionally
// marking its custom identifier. Other events are ignored so the
// instance can be subscribed broadly without harm.
func archiveOnApproval(archiver Archiver, logger *zap.Logger) plugin.PostprocessorFunc {
	return func(ctx context.Context, config map[string]interface{}, doc *plugin.Document, event plugin.EventType) error {
		if event != plugin.EventDocumentApproved {
			return nil
		}

		addPrefix, _ := config["add_archived_prefix"].(bool)

		if addPrefix && doc.CustomIdentifier != "" && !strings.HasPrefix(doc.CustomIdentifier, "ARCHIVED-") {
			if err := archiver.SetCustomIdentifier(ctx, doc.Identifier, "ARCHIVED-"+doc.CustomIdentifier); err != nil {
				return fmt.Errorf("set custom identifier: %w", err)
			}
		}

		if err := archiver.ArchiveDocument(ctx, doc.Identifier); err != nil {
			return fmt.Errorf("archive document: %w", err)
		}

		logger.Info("document archived after approval", zap.String("document", doc.Identifier))
		return nil
	}
}
