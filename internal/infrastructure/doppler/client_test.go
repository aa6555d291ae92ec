package doppler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"doppler-shopify-bridge/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCredentials(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       bool
		wantErr    bool
	}{
		{"valid account", http.StatusOK, true, false},
		{"unauthorized means invalid", http.StatusUnauthorized, false, false},
		{"forbidden means invalid", http.StatusForbidden, false, false},
		{"server error is a hard failure", http.StatusInternalServerError, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "token some-key", r.Header.Get("Authorization"))
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := NewClient(server.URL, zerolog.Nop())
			ok, err := client.CheckCredentials(context.Background(), "acct", "some-key")

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCheckCredentialsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening any more

	client := NewClient(server.URL, zerolog.Nop())
	_, err := client.CheckCredentials(context.Background(), "acct", "key")
	require.Error(t, err)
}

func TestCreateListDuplicatedName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"title":     "Duplicated list name",
			"errorCode": 2,
			"status":    400,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	_, err := client.CreateList(context.Background(), "acct", "key", "Shopify Contacto")

	var duplicated *domain.DuplicatedListNameError
	require.ErrorAs(t, err, &duplicated)
	assert.Equal(t, "Shopify Contacto", duplicated.Name)
}

func TestCreateList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/accounts/acct/lists", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "New List", body["name"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"createdResourceId": 1462401})
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	listID, err := client.CreateList(context.Background(), "acct", "key", "New List")
	require.NoError(t, err)
	assert.Equal(t, "1462401", listID)
}

func TestAPIErrorMessage(t *testing.T) {
	t.Run("title and detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"title":  "Validation error",
				"detail": "name is too long",
				"status": 400,
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, zerolog.Nop())
		_, err := client.ListFields(context.Background(), "acct", "key")

		var apiErr *domain.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Contains(t, apiErr.Message, "Validation error")
		assert.Contains(t, apiErr.Message, "name is too long")
	})

	t.Run("empty body falls back", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, zerolog.Nop())
		_, err := client.ListFields(context.Background(), "acct", "key")

		var apiErr *domain.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Unexpected error", apiErr.Message)
	})
}

func TestListLists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "200", r.URL.Query().Get("per_page"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"listId": 1, "name": "Main"},
				{"listId": 2, "name": "Shopify Contacto"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	lists, err := client.ListLists(context.Background(), "acct", "key")
	require.NoError(t, err)
	require.Equal(t, []domain.DopplerList{
		{ID: "1", Name: "Main"},
		{ID: "2", Name: "Shopify Contacto"},
	}, lists)
}

func TestListAllSubscribersFollowsPagination(t *testing.T) {
	var pagesRequested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pagesRequested = append(pagesRequested, page)

		items := []map[string]interface{}{
			{"email": fmt.Sprintf("page%s-a@example.com", page)},
			{"email": fmt.Sprintf("page%s-b@example.com", page)},
		}
		current := 1
		fmt.Sscanf(page, "%d", &current)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items":       items,
			"currentPage": current,
			"pagesCount":  3,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	subscribers, err := client.ListAllSubscribers(context.Background(), "acct", "key", "77")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, pagesRequested)
	assert.Len(t, subscribers, 6)
	assert.Equal(t, "page3-b@example.com", subscribers[5].Email)
}

func TestRemoveSubscribersNotIn(t *testing.T) {
	var mu sync.Mutex
	var deleted []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			mu.Lock()
			deleted = append(deleted, r.URL.Path)
			mu.Unlock()
			if len(deleted) == 1 {
				// First deletion fails; the rest must still run.
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"email": "keep@example.com"},
				{"email": "stale1@example.com"},
				{"email": "stale2@example.com"},
			},
			"currentPage": 1,
			"pagesCount":  1,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	err := client.RemoveSubscribersNotIn(context.Background(), "acct", "key", "77", []domain.Customer{
		{"email": "keep@example.com"},
	})
	require.NoError(t, err)

	require.Len(t, deleted, 2)
	assert.Contains(t, deleted[0], "stale1@example.com")
	assert.Contains(t, deleted[1], "stale2@example.com")
}

func TestImportSubscribersShortCircuitsOnEmptyInput(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	taskID, err := client.ImportSubscribers(context.Background(), "acct", "key", "77", nil, nil, "http://app/callback")
	require.NoError(t, err)
	assert.Empty(t, taskID)
	assert.Zero(t, requests)
}

func TestImportSubscribers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acct/lists/77/subscribers/import", r.URL.Path)

		var body struct {
			Items []struct {
				Email  string `json:"email"`
				Fields []struct {
					Name  string      `json:"name"`
					Value interface{} `json:"value"`
				} `json:"fields"`
			} `json:"items"`
			Fields                  []string `json:"fields"`
			Callback                string   `json:"callback"`
			EnableEmailNotification bool     `json:"enableEmailNotification"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		require.Len(t, body.Items, 2)
		assert.Equal(t, "jonsnow@example.com", body.Items[0].Email)
		require.Len(t, body.Items[0].Fields, 1)
		assert.Equal(t, "FIRSTNAME", body.Items[0].Fields[0].Name)
		assert.Equal(t, "Jon", body.Items[0].Fields[0].Value)
		// Second customer has no first_name: the field is omitted.
		assert.Empty(t, body.Items[1].Fields)

		assert.Equal(t, []string{"FIRSTNAME"}, body.Fields)
		assert.Equal(t, "http://app/callback?shop=test.myshopify.com", body.Callback)
		assert.True(t, body.EnableEmailNotification)

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]interface{}{"createdResourceId": 991})
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	taskID, err := client.ImportSubscribers(context.Background(), "acct", "key", "77",
		[]domain.Customer{
			{"email": "jonsnow@example.com", "first_name": "Jon"},
			{"email": "sam@example.com"},
		},
		[]domain.FieldMappingEntry{{ShopifyPath: "first_name", DopplerField: "FIRSTNAME"}},
		"http://app/callback?shop=test.myshopify.com",
	)
	require.NoError(t, err)
	assert.Equal(t, "991", taskID)
}

func TestCreateSubscriber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acct/lists/77/subscribers", r.URL.Path)

		var subscriber domain.Subscriber
		require.NoError(t, json.NewDecoder(r.Body).Decode(&subscriber))
		assert.Equal(t, "jonsnow@example.com", subscriber.Email)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	err := client.CreateSubscriber(context.Background(), "acct", "key", "77",
		domain.Customer{"email": "jonsnow@example.com", "first_name": "Jon"},
		[]domain.FieldMappingEntry{{ShopifyPath: "first_name", DopplerField: "FIRSTNAME"}},
	)
	require.NoError(t, err)
}

func TestGetImportTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acct/tasks/task-9", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"taskId":           "task-9",
			"taskStatus":       "completed",
			"subscribersCount": 12,
			"processedCount":   12,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	task, err := client.GetImportTask(context.Background(), "acct", "key", "task-9")
	require.NoError(t, err)
	assert.Equal(t, "completed", task.Status)
	assert.Equal(t, 12, task.ProcessedCount)
}
