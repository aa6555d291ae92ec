package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"doppler-shopify-bridge/internal/domain"
	"doppler-shopify-bridge/internal/ports"

	"github.com/redis/go-redis/v9"
)

// Hash field names inside a shop key.
const (
	fieldAccessToken       = "shopify_access_token"
	fieldAccountName       = "doppler_account_name"
	fieldAPIKey            = "doppler_api_key"
	fieldListID            = "doppler_list_id"
	fieldListName          = "doppler_list_name"
	fieldFieldsMapping     = "fields_mapping"
	fieldSyncInProgress    = "synchronization_in_progress"
	fieldLastSyncDate      = "last_synchronization_date"
	fieldLastImportTaskID  = "last_import_task_id"
	fieldSynchronizedCount = "synchronized_customers_count"
	fieldConnectedOn       = "connected_on_date"
)

// RedisShopStore implements ShopStore using one Redis hash per shop
// domain plus one set per Doppler account as the reverse index.
type RedisShopStore struct {
	client *redis.Client
}

// NewRedisShopStore creates a new Redis-backed shop store
func NewRedisShopStore(client *redis.Client) ports.ShopStore {
	return &RedisShopStore{client: client}
}

func shopKey(shopDomain string) string {
	return "shop:" + shopDomain
}

func accountKey(accountName string) string {
	return "doppler-account:" + accountName
}

// Get retrieves a shop's integration state, or nil when unknown.
func (s *RedisShopStore) Get(ctx context.Context, shopDomain string) (*domain.ShopIntegration, error) {
	values, err := s.client.HGetAll(ctx, shopKey(shopDomain)).Result()
	if err != nil {
		return nil, &domain.StoreError{ShopDomain: shopDomain, Err: err}
	}
	if len(values) == 0 {
		return nil, nil
	}

	integration, err := decodeShopIntegration(shopDomain, values)
	if err != nil {
		return nil, &domain.StoreError{ShopDomain: shopDomain, Err: err}
	}
	return integration, nil
}

// Set applies a partial update; only non-nil fields are written. When
// the Doppler account name is part of the update the shop is also added
// to that account's index set.
func (s *RedisShopStore) Set(ctx context.Context, shopDomain string, update domain.ShopUpdate) error {
	values, err := encodeShopUpdate(update)
	if err != nil {
		return &domain.StoreError{ShopDomain: shopDomain, Err: err}
	}
	if len(values) == 0 {
		return nil
	}

	if err := s.client.HSet(ctx, shopKey(shopDomain), values).Err(); err != nil {
		return &domain.StoreError{ShopDomain: shopDomain, Err: err}
	}

	if update.DopplerAccountName != nil && *update.DopplerAccountName != "" {
		if err := s.client.SAdd(ctx, accountKey(*update.DopplerAccountName), shopDomain).Err(); err != nil {
			return &domain.StoreError{ShopDomain: shopDomain, Err: err}
		}
	}
	return nil
}

// Remove deletes the shop's state and drops it from the account index.
func (s *RedisShopStore) Remove(ctx context.Context, shopDomain string) error {
	accountName, err := s.client.HGet(ctx, shopKey(shopDomain), fieldAccountName).Result()
	if err != nil && err != redis.Nil {
		return &domain.StoreError{ShopDomain: shopDomain, Err: err}
	}

	if accountName != "" {
		if err := s.client.SRem(ctx, accountKey(accountName), shopDomain).Err(); err != nil {
			return &domain.StoreError{ShopDomain: shopDomain, Err: err}
		}
	}

	if err := s.client.Del(ctx, shopKey(shopDomain)).Err(); err != nil {
		return &domain.StoreError{ShopDomain: shopDomain, Err: err}
	}
	return nil
}

// IncrementSynchronizedCount atomically bumps the synchronized
// customers counter by one.
func (s *RedisShopStore) IncrementSynchronizedCount(ctx context.Context, shopDomain string) error {
	if err := s.client.HIncrBy(ctx, shopKey(shopDomain), fieldSynchronizedCount, 1).Err(); err != nil {
		return &domain.StoreError{ShopDomain: shopDomain, Err: err}
	}
	return nil
}

// ListShopsForAccount returns the shop domains connected to a Doppler
// account.
func (s *RedisShopStore) ListShopsForAccount(ctx context.Context, accountName string) ([]string, error) {
	shops, err := s.client.SMembers(ctx, accountKey(accountName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list shops for account %s: %w", accountName, err)
	}
	return shops, nil
}

// encodeShopUpdate flattens the non-nil fields of a partial update into
// the hash representation. The fields mapping is stored JSON-encoded.
func encodeShopUpdate(update domain.ShopUpdate) (map[string]interface{}, error) {
	values := make(map[string]interface{})

	if update.ShopifyAccessToken != nil {
		values[fieldAccessToken] = *update.ShopifyAccessToken
	}
	if update.DopplerAccountName != nil {
		values[fieldAccountName] = *update.DopplerAccountName
	}
	if update.DopplerAPIKey != nil {
		values[fieldAPIKey] = *update.DopplerAPIKey
	}
	if update.DopplerListID != nil {
		values[fieldListID] = *update.DopplerListID
	}
	if update.DopplerListName != nil {
		values[fieldListName] = *update.DopplerListName
	}
	if update.FieldsMapping != nil {
		encoded, err := json.Marshal(update.FieldsMapping)
		if err != nil {
			return nil, fmt.Errorf("failed to encode fields mapping: %w", err)
		}
		values[fieldFieldsMapping] = string(encoded)
	}
	if update.SynchronizationInProgress != nil {
		values[fieldSyncInProgress] = strconv.FormatBool(*update.SynchronizationInProgress)
	}
	if update.LastSynchronizationDate != nil {
		values[fieldLastSyncDate] = *update.LastSynchronizationDate
	}
	if update.LastImportTaskID != nil {
		values[fieldLastImportTaskID] = *update.LastImportTaskID
	}
	if update.SynchronizedCustomersCount != nil {
		values[fieldSynchronizedCount] = strconv.Itoa(*update.SynchronizedCustomersCount)
	}
	if update.ConnectedOnDate != nil {
		values[fieldConnectedOn] = update.ConnectedOnDate.UTC().Format(time.RFC3339)
	}

	return values, nil
}

// decodeShopIntegration rebuilds the integration state from the hash.
// Absent fields keep their zero values; in particular an absent
// in-progress flag reads as false.
func decodeShopIntegration(shopDomain string, values map[string]string) (*domain.ShopIntegration, error) {
	integration := &domain.ShopIntegration{
		ShopDomain:              shopDomain,
		ShopifyAccessToken:      values[fieldAccessToken],
		DopplerAccountName:      values[fieldAccountName],
		DopplerAPIKey:           values[fieldAPIKey],
		DopplerListID:           values[fieldListID],
		DopplerListName:         values[fieldListName],
		LastSynchronizationDate: values[fieldLastSyncDate],
		LastImportTaskID:        values[fieldLastImportTaskID],
	}

	if raw := values[fieldFieldsMapping]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &integration.FieldsMapping); err != nil {
			return nil, fmt.Errorf("failed to decode fields mapping: %w", err)
		}
	}
	if raw := values[fieldSyncInProgress]; raw != "" {
		inProgress, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode in-progress flag: %w", err)
		}
		integration.SynchronizationInProgress = inProgress
	}
	if raw := values[fieldSynchronizedCount]; raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode synchronized count: %w", err)
		}
		integration.SynchronizedCustomersCount = count
	}
	if raw := values[fieldConnectedOn]; raw != "" {
		connectedOn, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode connected-on date: %w", err)
		}
		integration.ConnectedOnDate = connectedOn
	}

	return integration, nil
}
