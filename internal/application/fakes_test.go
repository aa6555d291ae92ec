package application

import (
	"context"
	"fmt"

	"doppler-shopify-bridge/internal/domain"
)

// fakeShopStore is an in-memory ports.ShopStore for service tests.
type fakeShopStore struct {
	shops      map[string]*domain.ShopIntegration
	getErr     error
	setErr     error
	removeErr  error
	removed    []string
	increments int
}

func newFakeShopStore() *fakeShopStore {
	return &fakeShopStore{shops: make(map[string]*domain.ShopIntegration)}
}

func (s *fakeShopStore) Get(ctx context.Context, shopDomain string) (*domain.ShopIntegration, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	integration, ok := s.shops[shopDomain]
	if !ok {
		return nil, nil
	}
	copied := *integration
	return &copied, nil
}

func (s *fakeShopStore) Set(ctx context.Context, shopDomain string, update domain.ShopUpdate) error {
	if s.setErr != nil {
		return s.setErr
	}
	integration, ok := s.shops[shopDomain]
	if !ok {
		integration = &domain.ShopIntegration{ShopDomain: shopDomain}
		s.shops[shopDomain] = integration
	}
	if update.ShopifyAccessToken != nil {
		integration.ShopifyAccessToken = *update.ShopifyAccessToken
	}
	if update.DopplerAccountName != nil {
		integration.DopplerAccountName = *update.DopplerAccountName
	}
	if update.DopplerAPIKey != nil {
		integration.DopplerAPIKey = *update.DopplerAPIKey
	}
	if update.DopplerListID != nil {
		integration.DopplerListID = *update.DopplerListID
	}
	if update.DopplerListName != nil {
		integration.DopplerListName = *update.DopplerListName
	}
	if update.FieldsMapping != nil {
		integration.FieldsMapping = update.FieldsMapping
	}
	if update.SynchronizationInProgress != nil {
		integration.SynchronizationInProgress = *update.SynchronizationInProgress
	}
	if update.LastSynchronizationDate != nil {
		integration.LastSynchronizationDate = *update.LastSynchronizationDate
	}
	if update.LastImportTaskID != nil {
		integration.LastImportTaskID = *update.LastImportTaskID
	}
	if update.SynchronizedCustomersCount != nil {
		integration.SynchronizedCustomersCount = *update.SynchronizedCustomersCount
	}
	if update.ConnectedOnDate != nil {
		integration.ConnectedOnDate = *update.ConnectedOnDate
	}
	return nil
}

func (s *fakeShopStore) Remove(ctx context.Context, shopDomain string) error {
	s.removed = append(s.removed, shopDomain)
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.shops, shopDomain)
	return nil
}

func (s *fakeShopStore) IncrementSynchronizedCount(ctx context.Context, shopDomain string) error {
	s.increments++
	if integration, ok := s.shops[shopDomain]; ok {
		integration.SynchronizedCustomersCount++
	}
	return nil
}

func (s *fakeShopStore) ListShopsForAccount(ctx context.Context, accountName string) ([]string, error) {
	var shops []string
	for shopDomain, integration := range s.shops {
		if integration.DopplerAccountName == accountName {
			shops = append(shops, shopDomain)
		}
	}
	return shops, nil
}

// fakeShopifyClient serves a fixed customer set page by page.
type fakeShopifyClient struct {
	customers      []domain.Customer
	countErr       error
	listErr        error
	pagesRequested []int
	webhooks       []string
	scriptTags     []string
	webhookErr     error
	scriptTagErr   error
}

func (c *fakeShopifyClient) CountCustomers(ctx context.Context, shop, accessToken string) (int, error) {
	if c.countErr != nil {
		return 0, c.countErr
	}
	return len(c.customers), nil
}

func (c *fakeShopifyClient) ListCustomersPage(ctx context.Context, shop, accessToken string, page, pageSize int) ([]domain.Customer, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	c.pagesRequested = append(c.pagesRequested, page)
	start := (page - 1) * pageSize
	if start >= len(c.customers) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(c.customers) {
		end = len(c.customers)
	}
	return c.customers[start:end], nil
}

func (c *fakeShopifyClient) CreateWebhook(ctx context.Context, shop, accessToken, topic, address string) error {
	if c.webhookErr != nil {
		return c.webhookErr
	}
	c.webhooks = append(c.webhooks, topic)
	return nil
}

func (c *fakeShopifyClient) CreateScriptTag(ctx context.Context, shop, accessToken, src string) error {
	if c.scriptTagErr != nil {
		return c.scriptTagErr
	}
	c.scriptTags = append(c.scriptTags, src)
	return nil
}

type importCall struct {
	listID    string
	customers []domain.Customer
	callback  string
}

// fakeDopplerClient records calls and returns canned responses.
type fakeDopplerClient struct {
	credentialsOK      bool
	credentialsErr     error
	lists              []domain.DopplerList
	listListsErr       error
	createListID       string
	createListErr      error
	fields             []domain.DopplerField
	removeCalls        []string
	removeErr          error
	importCalls        []importCall
	importTaskID       string
	importErr          error
	createdSubscribers []domain.Customer
	createErr          error
	deletedIntegration bool
	deleteErr          error
}

func (c *fakeDopplerClient) CheckCredentials(ctx context.Context, accountName, apiKey string) (bool, error) {
	return c.credentialsOK, c.credentialsErr
}

func (c *fakeDopplerClient) ListLists(ctx context.Context, accountName, apiKey string) ([]domain.DopplerList, error) {
	return c.lists, c.listListsErr
}

func (c *fakeDopplerClient) CreateList(ctx context.Context, accountName, apiKey, name string) (string, error) {
	if c.createListErr != nil {
		return "", c.createListErr
	}
	c.lists = append(c.lists, domain.DopplerList{ID: c.createListID, Name: name})
	return c.createListID, nil
}

func (c *fakeDopplerClient) ListFields(ctx context.Context, accountName, apiKey string) ([]domain.DopplerField, error) {
	return c.fields, nil
}

func (c *fakeDopplerClient) ListAllSubscribers(ctx context.Context, accountName, apiKey, listID string) ([]domain.Subscriber, error) {
	return nil, nil
}

func (c *fakeDopplerClient) RemoveSubscribersNotIn(ctx context.Context, accountName, apiKey, listID string, customers []domain.Customer) error {
	c.removeCalls = append(c.removeCalls, listID)
	return c.removeErr
}

func (c *fakeDopplerClient) ImportSubscribers(ctx context.Context, accountName, apiKey, listID string, customers []domain.Customer, mapping []domain.FieldMappingEntry, callbackURL string) (string, error) {
	if c.importErr != nil {
		return "", c.importErr
	}
	c.importCalls = append(c.importCalls, importCall{listID: listID, customers: customers, callback: callbackURL})
	return c.importTaskID, nil
}

func (c *fakeDopplerClient) CreateSubscriber(ctx context.Context, accountName, apiKey, listID string, customer domain.Customer, mapping []domain.FieldMappingEntry) error {
	if c.createErr != nil {
		return c.createErr
	}
	c.createdSubscribers = append(c.createdSubscribers, customer)
	return nil
}

func (c *fakeDopplerClient) GetImportTask(ctx context.Context, accountName, apiKey, taskID string) (*domain.ImportTask, error) {
	return &domain.ImportTask{ID: taskID, Status: "completed"}, nil
}

func (c *fakeDopplerClient) DeleteShopIntegration(ctx context.Context, accountName, apiKey string) error {
	c.deletedIntegration = true
	return c.deleteErr
}

func generateCustomers(withEmail, withoutEmail int) []domain.Customer {
	customers := make([]domain.Customer, 0, withEmail+withoutEmail)
	for i := 0; i < withEmail; i++ {
		customers = append(customers, domain.Customer{
			"email":      fmt.Sprintf("customer%d@example.com", i),
			"first_name": fmt.Sprintf("Customer %d", i),
		})
	}
	for i := 0; i < withoutEmail; i++ {
		customers = append(customers, domain.Customer{
			"first_name": fmt.Sprintf("Emailless %d", i),
		})
	}
	return customers
}
