package contrib

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"go-docbridge/internal/features/plugin"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// postgresExport upserts the document's identity and extracted data into
// an external Postgres table keyed by identifier.
func postgresExport(logger *zap.Logger) plugin.PostprocessorFunc {
	return func(ctx context.Context, config map[string]interface{}, doc *plugin.Document, event plugin.EventType) error {
		connStr, _ := config["connection_string"].(string)
		table, _ := config["table"].(string)

		if !tableNamePattern.MatchString(table) {
			return fmt.Errorf("invalid table name %q", table)
		}

		db, err := sql.Open("postgres", connStr)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping postgres: %w", err)
		}

		data, err := json.Marshal(doc.Data)
		if err != nil {
			return fmt.Errorf("marshal document data: %w", err)
		}

		query := fmt.Sprintf(
			`INSERT INTO %s (identifier, custom_identifier, file_name, state, data)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (identifier) DO UPDATE SET
			   custom_identifier = $2, file_name = $3, state = $4, data = $5`,
			table,
		)

		if _, err := db.ExecContext(ctx, query, doc.Identifier, doc.CustomIdentifier, doc.FileName, doc.State, data); err != nil {
			return fmt.Errorf("upsert into %s: %w", table, err)
		}

		logger.Info("document exported to postgres",
			zap.String("document", doc.Identifier),
			zap.String("table", table),
		)
		return nil
	}
}
