package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"doppler-shopify-bridge/internal/application"
	"doppler-shopify-bridge/internal/domain"

	"github.com/rs/zerolog"
)

// CustomerHandler forwards customers/create events into the
// incremental synchronization path.
type CustomerHandler struct {
	logger zerolog.Logger
	sync   *application.SyncService
}

// NewCustomerHandler creates a new customer webhook handler
func NewCustomerHandler(logger zerolog.Logger, syncService *application.SyncService) *CustomerHandler {
	return &CustomerHandler{
		logger: logger,
		sync:   syncService,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == "customers/create"
}

// Handle processes a customer webhook event
func (h *CustomerHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if event.Shop == "" {
		h.logger.Warn().Str("topic", event.Topic).Msg("Customer webhook without shop domain; skipping")
		return nil
	}

	var customer domain.Customer
	if err := json.Unmarshal(event.Payload, &customer); err != nil {
		return fmt.Errorf("failed to parse customer webhook payload: %w", err)
	}

	h.logger.Info().
		Str("shop", event.Shop).
		Str("email", customer.Email()).
		Msg("Processing customers/create webhook")

	return h.sync.CustomerCreated(ctx, event.Shop, customer)
}
