package ports

import (
	"context"

	"doppler-shopify-bridge/internal/domain"
)

// ShopStore defines the interface for per-shop integration state
// persistence, keyed by shop domain. Failures are returned as
// *domain.StoreError wrapping the cause.
type ShopStore interface {
	// Get returns the shop's integration state, or nil when the shop
	// is unknown.
	Get(ctx context.Context, shopDomain string) (*domain.ShopIntegration, error)

	// Set applies a partial update; only non-nil fields of update are
	// written.
	Set(ctx context.Context, shopDomain string, update domain.ShopUpdate) error

	// Remove deletes the shop's state and its account index entry.
	Remove(ctx context.Context, shopDomain string) error

	// IncrementSynchronizedCount atomically adds one to the shop's
	// synchronized customers counter.
	IncrementSynchronizedCount(ctx context.Context, shopDomain string) error

	// ListShopsForAccount returns the shop domains connected to a
	// Doppler account.
	ListShopsForAccount(ctx context.Context, accountName string) ([]string, error)
}

// WebhookLog defines the interface for the webhook event audit trail.
type WebhookLog interface {
	LogWebhook(ctx context.Context, event *domain.WebhookEvent) error
}
