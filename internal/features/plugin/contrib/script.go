package contrib

import (
	"context"
	"fmt"

	"go-docbridge/internal/features/plugin"

	"github.com/d5/tengo/v2"
)

// scriptPostprocessor compiles and runs a Tengo script with the document
// and event exposed as globals. Script errors fail this instance only.
func scriptPostprocessor() plugin.PostprocessorFunc {
	return func(ctx context.Context, config map[string]interface{}, doc *plugin.Document, event plugin.EventType) error {
		source, _ := config["script"].(string)
		if source == "" {
			return fmt.Errorf("script is empty")
		}

		script := tengo.NewScript([]byte(source))

		if err := script.Add("event", string(event)); err != nil {
			return fmt.Errorf("failed to bind event: %w", err)
		}
		if err := script.Add("document", map[string]interface{}{
			"identifier":        doc.Identifier,
			"custom_identifier": doc.CustomIdentifier,
			"file_name":         doc.FileName,
			"state":             doc.State,
			"data":              doc.Data,
		}); err != nil {
			return fmt.Errorf("failed to bind document: %w", err)
		}

		compiled, err := script.Compile()
		if err != nil {
			return fmt.Errorf("failed to compile script: %w", err)
		}

		if err := compiled.RunContext(ctx); err != nil {
			return fmt.Errorf("failed to run script: %w", err)
		}
		return nil
	}
}
