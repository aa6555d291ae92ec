package application

import (
	"context"
	"fmt"
	"time"

	"doppler-shopify-bridge/internal/domain"
	"doppler-shopify-bridge/internal/infrastructure/metrics"
	"doppler-shopify-bridge/internal/ports"

	"github.com/rs/zerolog"
)

// DefaultCustomerPageSize is the page size used when fetching
// customers from Shopify (the Admin API maximum).
const DefaultCustomerPageSize = 250

// SyncService orchestrates customer synchronization between a shop and
// its Doppler subscriber list: the bulk path, the incremental
// webhook path, the uninstall cleanup and the completion callback.
type SyncService struct {
	store       ports.ShopStore
	shopify     ports.ShopifyClient
	doppler     ports.DopplerClient
	logger      zerolog.Logger
	callbackURL string
	pageSize    int
}

// NewSyncService creates a new synchronization service. callbackURL is
// the absolute URL Doppler notifies when an import task completes; the
// shop domain is appended as a query parameter per run.
func NewSyncService(
	store ports.ShopStore,
	shopifyClient ports.ShopifyClient,
	dopplerClient ports.DopplerClient,
	logger zerolog.Logger,
	callbackURL string,
) *SyncService {
	return &SyncService{
		store:       store,
		shopify:     shopifyClient,
		doppler:     dopplerClient,
		logger:      logger,
		callbackURL: callbackURL,
		pageSize:    DefaultCustomerPageSize,
	}
}

// SynchronizationStatus is the polling view of a shop's sync state.
type SynchronizationStatus struct {
	SynchronizationInProgress  bool   `json:"synchronizationInProgress"`
	LastSynchronizationDate    string `json:"lastSynchronizationDate,omitempty"`
	LastImportTaskID           string `json:"lastImportTaskId,omitempty"`
	SynchronizedCustomersCount int    `json:"synchronizedCustomersCount"`
}

// SynchronizeCustomers runs one full bulk synchronization for a shop:
// mark in progress, fetch every customer page, drop customers without
// an email, reconcile the Doppler list and submit the import. The
// in-progress flag stays true until the Doppler completion callback;
// on failure it is reset and the original error is returned.
func (s *SyncService) SynchronizeCustomers(ctx context.Context, shopDomain string) error {
	metrics.SynchronizationsStarted.Inc()

	inProgress := true
	startedAt := time.Now().UTC().Format(time.RFC3339)
	if err := s.store.Set(ctx, shopDomain, domain.ShopUpdate{
		SynchronizationInProgress: &inProgress,
		LastSynchronizationDate:   &startedAt,
	}); err != nil {
		return err
	}

	if err := s.run(ctx, shopDomain); err != nil {
		metrics.SynchronizationsFailed.Inc()
		s.resetProgress(ctx, shopDomain)
		return err
	}
	return nil
}

func (s *SyncService) run(ctx context.Context, shopDomain string) error {
	integration, err := s.store.Get(ctx, shopDomain)
	if err != nil {
		return err
	}
	if integration == nil || integration.ShopifyAccessToken == "" {
		return fmt.Errorf("shop %s has no stored access token", shopDomain)
	}

	total, err := s.shopify.CountCustomers(ctx, shopDomain, integration.ShopifyAccessToken)
	if err != nil {
		return err
	}

	pages := (total + s.pageSize - 1) / s.pageSize
	customers := make([]domain.Customer, 0, total)
	for page := 1; page <= pages; page++ {
		batch, err := s.shopify.ListCustomersPage(ctx, shopDomain, integration.ShopifyAccessToken, page, s.pageSize)
		if err != nil {
			return err
		}
		customers = append(customers, batch...)
	}

	// Customers without an email cannot become subscribers; they are
	// dropped, not reported.
	withEmail := customers[:0]
	for _, customer := range customers {
		if customer.HasEmail() {
			withEmail = append(withEmail, customer)
		}
	}

	// Re-read credentials and mapping: the fetch above may have run
	// long after the triggering call.
	integration, err = s.store.Get(ctx, shopDomain)
	if err != nil {
		return err
	}
	if integration == nil || integration.DopplerListID == "" {
		return fmt.Errorf("shop %s has no selected Doppler list", shopDomain)
	}

	if err := s.doppler.RemoveSubscribersNotIn(ctx, integration.DopplerAccountName, integration.DopplerAPIKey, integration.DopplerListID, withEmail); err != nil {
		return err
	}

	callback := s.callbackURL + "?shop=" + shopDomain
	taskID, err := s.doppler.ImportSubscribers(ctx, integration.DopplerAccountName, integration.DopplerAPIKey, integration.DopplerListID, withEmail, integration.FieldsMapping, callback)
	if err != nil {
		return err
	}

	count := len(withEmail)
	if err := s.store.Set(ctx, shopDomain, domain.ShopUpdate{
		LastImportTaskID:           &taskID,
		SynchronizedCustomersCount: &count,
	}); err != nil {
		return err
	}

	metrics.SynchronizedCustomers.Add(float64(count))
	s.logger.Info().
		Str("shop", shopDomain).
		Int("customers", count).
		Str("taskId", taskID).
		Msg("Submitted bulk customer synchronization")
	return nil
}

// resetProgress clears the in-progress state after a failed run. It
// runs on a context detached from the failed request so the reset
// write still happens when the request was cancelled mid-flight.
func (s *SyncService) resetProgress(ctx context.Context, shopDomain string) {
	inProgress := false
	cleared := ""
	if err := s.store.Set(context.WithoutCancel(ctx), shopDomain, domain.ShopUpdate{
		SynchronizationInProgress: &inProgress,
		LastSynchronizationDate:   &cleared,
	}); err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to reset synchronization state")
	}
}

// HandleImportCompleted flips the in-progress flag off. Driven by the
// Doppler callback, never by polling.
func (s *SyncService) HandleImportCompleted(ctx context.Context, shopDomain string) error {
	metrics.SynchronizationsCompleted.Inc()

	inProgress := false
	if err := s.store.Set(ctx, shopDomain, domain.ShopUpdate{SynchronizationInProgress: &inProgress}); err != nil {
		return err
	}

	s.logger.Info().Str("shop", shopDomain).Msg("Import task completed")
	return nil
}

// Status returns the shop's synchronization state. An unknown shop or
// an absent flag reads as not in progress.
func (s *SyncService) Status(ctx context.Context, shopDomain string) (*SynchronizationStatus, error) {
	integration, err := s.store.Get(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return &SynchronizationStatus{}, nil
	}
	return &SynchronizationStatus{
		SynchronizationInProgress:  integration.SynchronizationInProgress,
		LastSynchronizationDate:    integration.LastSynchronizationDate,
		LastImportTaskID:           integration.LastImportTaskID,
		SynchronizedCustomersCount: integration.SynchronizedCustomersCount,
	}, nil
}

// ImportTaskStatus queries Doppler for the state of the shop's last
// submitted import task. Diagnostics only: completion is driven by the
// callback, never by this lookup. Returns nil when the shop has no
// submitted task.
func (s *SyncService) ImportTaskStatus(ctx context.Context, shopDomain string) (*domain.ImportTask, error) {
	integration, err := s.store.Get(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if integration == nil || integration.LastImportTaskID == "" {
		return nil, nil
	}
	return s.doppler.GetImportTask(ctx, integration.DopplerAccountName, integration.DopplerAPIKey, integration.LastImportTaskID)
}

// CustomerCreated is the incremental path behind the customers/create
// webhook: upsert one subscriber and bump the synchronized counter.
// A shop without an integration, list or mapping is a silent no-op.
func (s *SyncService) CustomerCreated(ctx context.Context, shopDomain string, customer domain.Customer) error {
	integration, err := s.store.Get(ctx, shopDomain)
	if err != nil {
		return err
	}
	if integration == nil || integration.DopplerListID == "" || len(integration.FieldsMapping) == 0 {
		return nil
	}
	if !customer.HasEmail() {
		return nil
	}

	if err := s.doppler.CreateSubscriber(ctx, integration.DopplerAccountName, integration.DopplerAPIKey, integration.DopplerListID, customer, integration.FieldsMapping); err != nil {
		return err
	}

	if err := s.store.IncrementSynchronizedCount(ctx, shopDomain); err != nil {
		return err
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Str("email", customer.Email()).
		Msg("Synchronized new customer")
	return nil
}

// Uninstall removes the shop's stored state and deregisters the
// integration on the Doppler side. The two actions are independent
// best-efforts: failure of one does not prevent the other, and neither
// escalates.
func (s *SyncService) Uninstall(ctx context.Context, shopDomain string) error {
	integration, err := s.store.Get(ctx, shopDomain)
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to load shop state during uninstall")
		integration = nil
	}

	if err := s.store.Remove(ctx, shopDomain); err != nil {
		s.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to remove shop state during uninstall")
	}

	if integration != nil && integration.DopplerAccountName != "" {
		if err := s.doppler.DeleteShopIntegration(ctx, integration.DopplerAccountName, integration.DopplerAPIKey); err != nil {
			s.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to deregister Doppler integration during uninstall")
		}
	}

	s.logger.Info().Str("shop", shopDomain).Msg("Uninstall cleanup finished")
	return nil
}
