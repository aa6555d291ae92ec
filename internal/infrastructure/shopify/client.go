package shopify

import (
	"context"
	"encoding/json"
	"fmt"

	"doppler-shopify-bridge/internal/domain"
	"doppler-shopify-bridge/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

type client struct {
	app    goshopify.App
	logger zerolog.Logger
}

// NewClient creates a new Shopify Admin API client adapter.
func NewClient(apiKey, apiSecret string, logger zerolog.Logger) ports.ShopifyClient {
	return &client{
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		logger: logger,
	}
}

// createClient is a helper to create a goshopify client
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	cl, err := goshopify.NewClient(c.app, shopDomain, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return cl, nil
}

func (c *client) CountCustomers(ctx context.Context, shop, accessToken string) (int, error) {
	cl, err := c.createClient(shop, accessToken)
	if err != nil {
		return 0, err
	}
	count, err := cl.Customer.Count(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

func (c *client) ListCustomersPage(ctx context.Context, shop, accessToken string, page, pageSize int) ([]domain.Customer, error) {
	cl, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}

	listed, err := cl.Customer.List(ctx, goshopify.ListOptions{Page: page, Limit: pageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to list customers (page %d): %w", page, err)
	}

	customers := make([]domain.Customer, 0, len(listed))
	for i := range listed {
		customer, err := toDomainCustomer(&listed[i])
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

// toDomainCustomer round-trips the typed customer through JSON so that
// nested attributes keep their wire names and stay addressable by
// dotted path.
func toDomainCustomer(customer *goshopify.Customer) (domain.Customer, error) {
	raw, err := json.Marshal(customer)
	if err != nil {
		return nil, fmt.Errorf("failed to encode customer: %w", err)
	}
	var out domain.Customer
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}
	return out, nil
}

func (c *client) CreateWebhook(ctx context.Context, shop, accessToken, topic, address string) error {
	cl, err := c.createClient(shop, accessToken)
	if err != nil {
		return err
	}
	webhook := goshopify.Webhook{
		Topic:   topic,
		Address: address,
		Format:  "json",
	}
	if _, err := cl.Webhook.Create(ctx, webhook); err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	c.logger.Info().
		Str("shop", shop).
		Str("topic", topic).
		Str("address", address).
		Msg("Registered Shopify webhook")
	return nil
}

func (c *client) CreateScriptTag(ctx context.Context, shop, accessToken, src string) error {
	cl, err := c.createClient(shop, accessToken)
	if err != nil {
		return err
	}
	tag := goshopify.ScriptTag{
		Src:          src,
		Event:        "onload",
		DisplayScope: "all",
	}
	if _, err := cl.ScriptTag.Create(ctx, tag); err != nil {
		return fmt.Errorf("failed to create script tag: %w", err)
	}
	return nil
}
