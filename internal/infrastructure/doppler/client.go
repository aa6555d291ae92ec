package doppler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"doppler-shopify-bridge/internal/domain"
	"doppler-shopify-bridge/internal/fields"
	"doppler-shopify-bridge/internal/ports"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production Doppler REST API endpoint.
const DefaultBaseURL = "https://restapi.fromdoppler.com"

const (
	listsPageSize       = 200
	subscribersPageSize = 100

	// errorCodeDuplicatedName is Doppler's code for a list name collision.
	errorCodeDuplicatedName = 2
)

type client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Doppler REST API client adapter. An empty
// baseURL selects the production endpoint.
func NewClient(baseURL string, logger zerolog.Logger) ports.DopplerClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// errorBody is the error envelope Doppler returns on failing responses.
type errorBody struct {
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	ErrorCode int    `json:"errorCode"`
	Status    int    `json:"status"`
}

func (c *client) do(ctx context.Context, method, path, apiKey string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doppler request failed: %w", err)
	}
	return resp, nil
}

// apiError reads a failing response into a *domain.APIError. The
// message is built from the body's title and detail, falling back to
// "Unexpected error" when neither is present.
func apiError(resp *http.Response) *domain.APIError {
	var body errorBody
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &body)

	message := body.Title
	if body.Detail != "" {
		if message != "" {
			message += ": "
		}
		message += body.Detail
	}
	if message == "" {
		message = "Unexpected error"
	}

	return &domain.APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  body.ErrorCode,
		Message:    message,
	}
}

func decode(resp *http.Response, out interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode doppler response: %w", err)
	}
	return nil
}

func (c *client) CheckCredentials(ctx context.Context, accountName, apiKey string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountName), apiKey, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, nil
	case resp.StatusCode >= 400:
		return false, apiError(resp)
	}
	return true, nil
}

func (c *client) ListLists(ctx context.Context, accountName, apiKey string) ([]domain.DopplerList, error) {
	path := fmt.Sprintf("/accounts/%s/lists?page=1&per_page=%d", url.PathEscape(accountName), listsPageSize)
	resp, err := c.do(ctx, http.MethodGet, path, apiKey, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apiError(resp)
	}

	var page struct {
		Items []struct {
			ListID json.Number `json:"listId"`
			Name   string      `json:"name"`
		} `json:"items"`
	}
	if err := decode(resp, &page); err != nil {
		return nil, err
	}

	lists := make([]domain.DopplerList, 0, len(page.Items))
	for _, item := range page.Items {
		lists = append(lists, domain.DopplerList{ID: item.ListID.String(), Name: item.Name})
	}
	return lists, nil
}

func (c *client) CreateList(ctx context.Context, accountName, apiKey, name string) (string, error) {
	path := "/accounts/" + url.PathEscape(accountName) + "/lists"
	resp, err := c.do(ctx, http.MethodPost, path, apiKey, map[string]string{"name": name})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := apiError(resp)
		if apiErr.StatusCode == http.StatusBadRequest && apiErr.ErrorCode == errorCodeDuplicatedName {
			return "", &domain.DuplicatedListNameError{Name: name}
		}
		return "", apiErr
	}

	var created struct {
		CreatedResourceID json.Number `json:"createdResourceId"`
	}
	if err := decode(resp, &created); err != nil {
		return "", err
	}
	return created.CreatedResourceID.String(), nil
}

func (c *client) ListFields(ctx context.Context, accountName, apiKey string) ([]domain.DopplerField, error) {
	resp, err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountName)+"/fields", apiKey, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apiError(resp)
	}

	var page struct {
		Items []domain.DopplerField `json:"items"`
	}
	if err := decode(resp, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *client) ListAllSubscribers(ctx context.Context, accountName, apiKey, listID string) ([]domain.Subscriber, error) {
	var subscribers []domain.Subscriber

	for page := 1; ; page++ {
		path := fmt.Sprintf("/accounts/%s/lists/%s/subscribers?page=%d&per_page=%d",
			url.PathEscape(accountName), url.PathEscape(listID), page, subscribersPageSize)
		resp, err := c.do(ctx, http.MethodGet, path, apiKey, nil)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 400 {
			apiErr := apiError(resp)
			resp.Body.Close()
			return nil, apiErr
		}

		var body struct {
			Items       []domain.Subscriber `json:"items"`
			CurrentPage int                 `json:"currentPage"`
			PagesCount  int                 `json:"pagesCount"`
		}
		err = decode(resp, &body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		subscribers = append(subscribers, body.Items...)
		if body.CurrentPage >= body.PagesCount || len(body.Items) == 0 {
			break
		}
	}

	return subscribers, nil
}

func (c *client) RemoveSubscribersNotIn(ctx context.Context, accountName, apiKey, listID string, customers []domain.Customer) error {
	subscribers, err := c.ListAllSubscribers(ctx, accountName, apiKey, listID)
	if err != nil {
		return err
	}

	current := make(map[string]bool, len(customers))
	for _, customer := range customers {
		current[customer.Email()] = true
	}

	for _, subscriber := range subscribers {
		if current[subscriber.Email] {
			continue
		}
		path := fmt.Sprintf("/accounts/%s/lists/%s/subscribers/%s",
			url.PathEscape(accountName), url.PathEscape(listID), url.PathEscape(subscriber.Email))
		resp, err := c.do(ctx, http.MethodDelete, path, apiKey, nil)
		if err != nil {
			c.logger.Warn().Err(err).Str("email", subscriber.Email).Msg("Failed to remove stale subscriber")
			continue
		}
		if resp.StatusCode >= 400 {
			c.logger.Warn().
				Int("status", resp.StatusCode).
				Str("email", subscriber.Email).
				Msg("Doppler rejected stale subscriber removal")
		}
		resp.Body.Close()
	}

	return nil
}

func (c *client) ImportSubscribers(ctx context.Context, accountName, apiKey, listID string, customers []domain.Customer, mapping []domain.FieldMappingEntry, callbackURL string) (string, error) {
	if len(customers) == 0 {
		return "", nil
	}

	items := make([]domain.Subscriber, 0, len(customers))
	for _, customer := range customers {
		items = append(items, domain.Subscriber{
			Email:  customer.Email(),
			Fields: fields.BuildSubscriberFields(customer, mapping),
		})
	}

	fieldNames := make([]string, 0, len(mapping))
	for _, entry := range mapping {
		fieldNames = append(fieldNames, entry.DopplerField)
	}

	body := map[string]interface{}{
		"items":                   items,
		"fields":                  fieldNames,
		"callback":                callbackURL,
		"enableEmailNotification": true,
	}

	path := fmt.Sprintf("/accounts/%s/lists/%s/subscribers/import", url.PathEscape(accountName), url.PathEscape(listID))
	resp, err := c.do(ctx, http.MethodPost, path, apiKey, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", apiError(resp)
	}

	var created struct {
		CreatedResourceID json.Number `json:"createdResourceId"`
	}
	if err := decode(resp, &created); err != nil {
		return "", err
	}

	c.logger.Info().
		Str("account", accountName).
		Str("listId", listID).
		Int("subscribers", len(items)).
		Str("taskId", created.CreatedResourceID.String()).
		Msg("Submitted subscriber import")

	return created.CreatedResourceID.String(), nil
}

func (c *client) CreateSubscriber(ctx context.Context, accountName, apiKey, listID string, customer domain.Customer, mapping []domain.FieldMappingEntry) error {
	subscriber := domain.Subscriber{
		Email:  customer.Email(),
		Fields: fields.BuildSubscriberFields(customer, mapping),
	}

	path := fmt.Sprintf("/accounts/%s/lists/%s/subscribers", url.PathEscape(accountName), url.PathEscape(listID))
	resp, err := c.do(ctx, http.MethodPost, path, apiKey, subscriber)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	return nil
}

func (c *client) GetImportTask(ctx context.Context, accountName, apiKey, taskID string) (*domain.ImportTask, error) {
	path := fmt.Sprintf("/accounts/%s/tasks/%s", url.PathEscape(accountName), url.PathEscape(taskID))
	resp, err := c.do(ctx, http.MethodGet, path, apiKey, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apiError(resp)
	}

	var task domain.ImportTask
	if err := decode(resp, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *client) DeleteShopIntegration(ctx context.Context, accountName, apiKey string) error {
	path := "/accounts/" + url.PathEscape(accountName) + "/integrations/shopify"
	resp, err := c.do(ctx, http.MethodDelete, path, apiKey, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return apiError(resp)
	}
	return nil
}
