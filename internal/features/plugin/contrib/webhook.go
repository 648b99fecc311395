package contrib

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-docbridge/internal/features/plugin"

	"go.uber.org/zap"
)

// webhookNotifier POSTs a JSON payload describing the event. With a
// secret configured the body is signed with HMAC-SHA256.
func webhookNotifier(client *http.Client, logger *zap.Logger) plugin.PostprocessorFunc {
	return func(ctx context.Context, config map[string]interface{}, doc *plugin.Document, event plugin.EventType) error {
		url, _ := config["webhook_url"].(string)
		includeData, _ := config["include_data"].(bool)
		secret, _ := config["secret"].(string)

		document := map[string]interface{}{
			"identifier":        doc.Identifier,
			"custom_identifier": doc.CustomIdentifier,
			"file_name":         doc.FileName,
			"state":             doc.State,
		}
		if includeData && doc.Data != nil {
			document["data"] = doc.Data
		}

		body, err := json.Marshal(map[string]interface{}{
			"event":     string(event),
			"timestamp": time.Now().Format(time.RFC3339),
			"document":  document,
		})
		if err != nil {
			return fmt.Errorf("marshal webhook payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
		if err != nil {
			return fmt.Errorf("create webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "Go-DocBridge-Webhook")
		req.Header.Set("X-DocBridge-Event", string(event))

		if secret != "" {
			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			req.Header.Set("X-DocBridge-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("send webhook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}

		logger.Info("webhook sent",
			zap.String("document", doc.Identifier),
			zap.String("event", string(event)),
			zap.Int("status", resp.StatusCode),
		)
		return nil
	}
}
