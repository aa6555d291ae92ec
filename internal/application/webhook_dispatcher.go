package application

import (
	"context"
	"fmt"

	"doppler-shopify-bridge/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes webhook events for the topics it claims.
type WebhookHandler interface {
	// CanHandle returns true if this handler can process the given topic
	CanHandle(topic string) bool
	// Handle processes a webhook event
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes webhook events to registered handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler to the dispatch chain
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Dispatch routes an event to every handler claiming its topic.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	dispatched := false
	for _, handler := range d.handlers {
		if !handler.CanHandle(event.Topic) {
			continue
		}
		dispatched = true
		if err := handler.Handle(ctx, event); err != nil {
			return fmt.Errorf("webhook handler failed for topic %s: %w", event.Topic, err)
		}
	}

	if !dispatched {
		d.logger.Debug().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("No handler registered for webhook topic")
	}
	return nil
}

// nonPropagating is the error boundary for fire-and-forget webhook
// handlers: Shopify expects a 200 regardless, so failures are logged
// and dropped instead of bubbling up.
type nonPropagating struct {
	inner  WebhookHandler
	logger zerolog.Logger
}

// SwallowErrors wraps a handler so its failures are logged, never
// propagated.
func SwallowErrors(handler WebhookHandler, logger zerolog.Logger) WebhookHandler {
	return &nonPropagating{inner: handler, logger: logger}
}

func (h *nonPropagating) CanHandle(topic string) bool {
	return h.inner.CanHandle(topic)
}

func (h *nonPropagating) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if err := h.inner.Handle(ctx, event); err != nil {
		h.logger.Warn().
			Err(err).
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("Webhook handler failed; dropping error")
	}
	return nil
}
