package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doppler-shopify-bridge/internal/domain"
	"doppler-shopify-bridge/internal/fields"
	"doppler-shopify-bridge/internal/ports"

	"github.com/rs/zerolog"
)

// ErrShopNotConnected means an operation needed Doppler credentials
// but the shop never completed the connect step.
var ErrShopNotConnected = errors.New("shop is not connected to Doppler")

// AccountService handles the merchant-facing setup steps: connecting a
// Doppler account, choosing a list, and declaring the field mapping.
type AccountService struct {
	store   ports.ShopStore
	doppler ports.DopplerClient
	shopify ports.ShopifyClient
	logger  zerolog.Logger
	appURL  string
}

// NewAccountService creates a new account service
func NewAccountService(
	store ports.ShopStore,
	dopplerClient ports.DopplerClient,
	shopifyClient ports.ShopifyClient,
	logger zerolog.Logger,
	appURL string,
) *AccountService {
	return &AccountService{
		store:   store,
		doppler: dopplerClient,
		shopify: shopifyClient,
		logger:  logger,
		appURL:  appURL,
	}
}

func (s *AccountService) integration(ctx context.Context, shopDomain string) (*domain.ShopIntegration, error) {
	integration, err := s.store.Get(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if integration == nil || integration.DopplerAccountName == "" {
		return nil, ErrShopNotConnected
	}
	return integration, nil
}

// ConnectAccount validates the merchant's Doppler credentials and, on
// success, stores them against the shop. Rejected credentials surface
// as *domain.InvalidCredentialsError.
func (s *AccountService) ConnectAccount(ctx context.Context, shopDomain, accountName, apiKey string) error {
	ok, err := s.doppler.CheckCredentials(ctx, accountName, apiKey)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.InvalidCredentialsError{AccountName: accountName}
	}

	connectedOn := time.Now().UTC()
	if err := s.store.Set(ctx, shopDomain, domain.ShopUpdate{
		DopplerAccountName: &accountName,
		DopplerAPIKey:      &apiKey,
		ConnectedOnDate:    &connectedOn,
	}); err != nil {
		return err
	}

	shops, err := s.store.ListShopsForAccount(ctx, accountName)
	if err != nil {
		s.logger.Warn().Err(err).Str("account", accountName).Msg("Failed to list shops for account")
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Str("account", accountName).
		Int("accountShops", len(shops)).
		Msg("Connected Doppler account")
	return nil
}

// Lists returns the subscriber lists in the shop's Doppler account.
func (s *AccountService) Lists(ctx context.Context, shopDomain string) ([]domain.DopplerList, error) {
	integration, err := s.integration(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	return s.doppler.ListLists(ctx, integration.DopplerAccountName, integration.DopplerAPIKey)
}

// CreateList creates a new subscriber list. A name collision surfaces
// as *domain.DuplicatedListNameError, not a generic failure.
func (s *AccountService) CreateList(ctx context.Context, shopDomain, name string) (string, error) {
	integration, err := s.integration(ctx, shopDomain)
	if err != nil {
		return "", err
	}
	return s.doppler.CreateList(ctx, integration.DopplerAccountName, integration.DopplerAPIKey, name)
}

// SelectList records the merchant's target list. CreateDefaultList
// finds or creates the default list by name.
func (s *AccountService) SelectList(ctx context.Context, shopDomain string, selection domain.ListSelection) (*domain.DopplerList, error) {
	integration, err := s.integration(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	var selected domain.DopplerList
	if selection.IsCreateDefault() {
		selected, err = s.findOrCreateDefaultList(ctx, integration)
		if err != nil {
			return nil, err
		}
	} else {
		lists, err := s.doppler.ListLists(ctx, integration.DopplerAccountName, integration.DopplerAPIKey)
		if err != nil {
			return nil, err
		}
		found := false
		for _, list := range lists {
			if list.ID == selection.ListID() {
				selected = list
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("doppler list %s not found in account %s", selection.ListID(), integration.DopplerAccountName)
		}
	}

	if err := s.store.Set(ctx, shopDomain, domain.ShopUpdate{
		DopplerListID:   &selected.ID,
		DopplerListName: &selected.Name,
	}); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Str("listId", selected.ID).
		Str("listName", selected.Name).
		Msg("Selected Doppler list")
	return &selected, nil
}

func (s *AccountService) findOrCreateDefaultList(ctx context.Context, integration *domain.ShopIntegration) (domain.DopplerList, error) {
	lists, err := s.doppler.ListLists(ctx, integration.DopplerAccountName, integration.DopplerAPIKey)
	if err != nil {
		return domain.DopplerList{}, err
	}
	for _, list := range lists {
		if list.Name == domain.DefaultListName {
			return list, nil
		}
	}

	listID, err := s.doppler.CreateList(ctx, integration.DopplerAccountName, integration.DopplerAPIKey, domain.DefaultListName)
	if err != nil {
		// Someone created it between the listing and the create.
		var duplicated *domain.DuplicatedListNameError
		if errors.As(err, &duplicated) {
			lists, listErr := s.doppler.ListLists(ctx, integration.DopplerAccountName, integration.DopplerAPIKey)
			if listErr != nil {
				return domain.DopplerList{}, listErr
			}
			for _, list := range lists {
				if list.Name == domain.DefaultListName {
					return list, nil
				}
			}
		}
		return domain.DopplerList{}, err
	}
	return domain.DopplerList{ID: listID, Name: domain.DefaultListName}, nil
}

// MappingFields is what the mapping screen needs: the static Shopify
// catalog side by side with the account's live Doppler schema.
type MappingFields struct {
	ShopifyFields []fields.ShopifyField `json:"shopifyFields"`
	DopplerFields []domain.DopplerField `json:"dopplerFields"`
}

// FieldsForMapping returns both field sets for the mapping screen.
func (s *AccountService) FieldsForMapping(ctx context.Context, shopDomain string) (*MappingFields, error) {
	integration, err := s.integration(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	dopplerFields, err := s.doppler.ListFields(ctx, integration.DopplerAccountName, integration.DopplerAPIKey)
	if err != nil {
		return nil, err
	}

	return &MappingFields{
		ShopifyFields: fields.Catalog(),
		DopplerFields: dopplerFields,
	}, nil
}

// SetFieldsMapping validates the requested pairs against the catalog
// and the live Doppler schema, then persists them.
func (s *AccountService) SetFieldsMapping(ctx context.Context, shopDomain string, pairs []domain.FieldMappingEntry) ([]domain.ResolvedMappingEntry, error) {
	integration, err := s.integration(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	dopplerFields, err := s.doppler.ListFields(ctx, integration.DopplerAccountName, integration.DopplerAPIKey)
	if err != nil {
		return nil, err
	}

	resolved, err := fields.ResolveMapping(dopplerFields, pairs)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, shopDomain, domain.ShopUpdate{FieldsMapping: pairs}); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Int("entries", len(resolved)).
		Msg("Updated fields mapping")
	return resolved, nil
}

// SetupShop stores the shop's access token and registers the webhooks
// and the uninstall script tag. The script tag is fire and forget.
func (s *AccountService) SetupShop(ctx context.Context, shopDomain, accessToken string) error {
	if err := s.store.Set(ctx, shopDomain, domain.ShopUpdate{ShopifyAccessToken: &accessToken}); err != nil {
		return err
	}

	webhookURL := s.appURL + "/webhooks/shopify"
	for _, topic := range []string{"customers/create", "app/uninstalled"} {
		if err := s.shopify.CreateWebhook(ctx, shopDomain, accessToken, topic, webhookURL); err != nil {
			return err
		}
	}

	if err := s.shopify.CreateScriptTag(ctx, shopDomain, accessToken, s.appURL+"/static/uninstall.js"); err != nil {
		s.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to register uninstall script tag")
	}
	return nil
}
