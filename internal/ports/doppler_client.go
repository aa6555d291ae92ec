package ports

import (
	"context"

	"doppler-shopify-bridge/internal/domain"
)

// DopplerClient defines the interface for Doppler REST API operations.
// Failing responses surface as *domain.APIError unless a more specific
// error type is documented on the method.
type DopplerClient interface {
	// CheckCredentials validates an account name / API key pair.
	// 401/403 from Doppler means invalid (false, nil error); 5xx and
	// transport failures are returned as errors.
	CheckCredentials(ctx context.Context, accountName, apiKey string) (bool, error)

	// ListLists returns the account's subscriber lists. One page is
	// enough for the list of lists.
	ListLists(ctx context.Context, accountName, apiKey string) ([]domain.DopplerList, error)

	// CreateList creates a subscriber list and returns its id. A name
	// collision is returned as *domain.DuplicatedListNameError.
	CreateList(ctx context.Context, accountName, apiKey, name string) (string, error)

	// ListFields returns the account's subscriber field schema.
	ListFields(ctx context.Context, accountName, apiKey string) ([]domain.DopplerField, error)

	// ListAllSubscribers returns every subscriber in a list, following
	// pagination until the last page.
	ListAllSubscribers(ctx context.Context, accountName, apiKey, listID string) ([]domain.Subscriber, error)

	// RemoveSubscribersNotIn deletes list subscribers whose email is
	// not present in customers. Best effort: individual delete
	// failures are logged and do not abort the rest.
	RemoveSubscribersNotIn(ctx context.Context, accountName, apiKey, listID string, customers []domain.Customer) error

	// ImportSubscribers submits a bulk import built from the customers
	// under the mapping and returns the Doppler task id. Returns ""
	// without calling Doppler when customers is empty. The callback
	// URL is always registered for completion notification.
	ImportSubscribers(ctx context.Context, accountName, apiKey, listID string, customers []domain.Customer, mapping []domain.FieldMappingEntry, callbackURL string) (string, error)

	// CreateSubscriber upserts a single subscriber, used by the
	// incremental webhook path.
	CreateSubscriber(ctx context.Context, accountName, apiKey, listID string, customer domain.Customer, mapping []domain.FieldMappingEntry) error

	// GetImportTask returns the status of an import task. Diagnostics
	// only; completion is signaled by callback.
	GetImportTask(ctx context.Context, accountName, apiKey, taskID string) (*domain.ImportTask, error)

	// DeleteShopIntegration removes the shop's integration
	// registration on the Doppler side, on uninstall.
	DeleteShopIntegration(ctx context.Context, accountName, apiKey string) error
}
