package contrib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go-docbridge/internal/features/plugin"

	"go.uber.org/zap"
)

// filesystemImporter scans a directory and ingests matching files into
// the target collection. Imported files are optionally deleted.
func filesystemImporter(ingestor Ingestor, logger *zap.Logger) plugin.ImporterFunc {
	return func(ctx context.Context, config map[string]interface{}) (plugin.ImportStats, error) {
		var stats plugin.ImportStats

		directory, _ := config["directory"].(string)
		pattern, _ := config["file_pattern"].(string)
		collection, _ := config["collection_identifier"].(string)
		deleteAfter, _ := config["delete_after_import"].(bool)

		info, err := os.Stat(directory)
		if err != nil || !info.IsDir() {
			return stats, fmt.Errorf("directory does not exist: %s", directory)
		}

		regex, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return stats, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}

		entries, err := os.ReadDir(directory)
		if err != nil {
			return stats, fmt.Errorf("read directory: %w", err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !regex.MatchString(entry.Name()) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			created, err := ingestor.IngestFile(ctx, entry.Name(), collection)
			if err != nil {
				logger.Error("failed to import file",
					zap.String("file", entry.Name()),
					zap.Error(err),
				)
				stats.Failed++
				continue
			}

			stats.Synced++
			if created {
				stats.Created++
			} else {
				stats.Updated++
			}

			if deleteAfter {
				path := filepath.Join(directory, entry.Name())
				if err := os.Remove(path); err != nil {
					logger.Warn("failed to delete imported file",
						zap.String("path", path),
						zap.Error(err),
					)
				}
			}
		}

		return stats, nil
	}
}
