package contrib

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go-docbridge/internal/features/plugin"
)

var identifierSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)

// customIdentifierGenerator assigns a custom identifier built from a
// prefix, the current date, and a sanitized slice of the file name.
// Documents that already carry one are left alone.
func customIdentifierGenerator() plugin.PreprocessorFunc {
	return func(ctx context.Context, config map[string]interface{}, doc *plugin.Document) (plugin.PreprocessResult, error) {
		if doc.CustomIdentifier != "" {
			return plugin.PreprocessResult{Message: "Document already has custom identifier"}, nil
		}

		prefix, _ := config["prefix"].(string)
		includeDate, _ := config["include_date"].(bool)
		dateFormat, _ := config["date_format"].(string)
		if prefix == "" {
			prefix = "DOC"
		}
		if dateFormat == "" {
			dateFormat = "20060102"
		}

		parts := []string{prefix}
		if includeDate {
			parts = append(parts, time.Now().Format(dateFormat))
		}

		if doc.FileName != "" {
			namePart := doc.FileName
			if idx := strings.LastIndex(namePart, "."); idx > 0 {
				namePart = namePart[:idx]
			}
			namePart = identifierSanitizer.ReplaceAllString(namePart, "-")
			if len(namePart) > 20 {
				namePart = namePart[:20]
			}
			parts = append(parts, namePart)
		}

		// identifier suffix keeps the result unique per document
		if len(doc.Identifier) > 8 {
			parts = append(parts, doc.Identifier[len(doc.Identifier)-8:])
		} else {
			parts = append(parts, doc.Identifier)
		}

		customID := strings.ToUpper(strings.Join(parts, "-"))

		return plugin.PreprocessResult{
			NewCustomIdentifier: customID,
			Message:             "Generated custom identifier: " + customID,
		}, nil
	}
}
