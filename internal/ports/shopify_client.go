package ports

import (
	"context"

	"doppler-shopify-bridge/internal/domain"
)

// ShopifyClient defines the interface for Shopify Admin API operations
type ShopifyClient interface {
	// CountCustomers returns the total number of customers in the shop.
	CountCustomers(ctx context.Context, shop, accessToken string) (int, error)

	// ListCustomersPage returns one page of customers. Pages are
	// 1-based and bounded by pageSize.
	ListCustomersPage(ctx context.Context, shop, accessToken string, page, pageSize int) ([]domain.Customer, error)

	// CreateWebhook subscribes the given callback address to a topic.
	CreateWebhook(ctx context.Context, shop, accessToken, topic, address string) error

	// CreateScriptTag registers a storefront script tag. Callers treat
	// failures as non-fatal.
	CreateScriptTag(ctx context.Context, shop, accessToken, src string) error
}
