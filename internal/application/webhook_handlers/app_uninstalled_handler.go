package webhook_handlers

import (
	"context"
	"encoding/json"

	"doppler-shopify-bridge/internal/application"
	"doppler-shopify-bridge/internal/domain"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler cleans up a shop's integration when the
// merchant uninstalls the app.
type AppUninstalledHandler struct {
	logger zerolog.Logger
	sync   *application.SyncService
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, syncService *application.SyncService) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger: logger,
		sync:   syncService,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle processes an app uninstalled webhook event
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" {
		var shopData map[string]interface{}
		if err := json.Unmarshal(event.Payload, &shopData); err == nil {
			if d, ok := shopData["domain"].(string); ok {
				shopDomain = d
			} else if d, ok := shopData["myshopify_domain"].(string); ok {
				shopDomain = d
			}
		}
	}
	if shopDomain == "" {
		h.logger.Warn().Msg("app/uninstalled webhook without shop domain; skipping")
		return nil
	}

	h.logger.Info().Str("shop", shopDomain).Msg("Processing app/uninstalled webhook")
	return h.sync.Uninstall(ctx, shopDomain)
}
