package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"doppler-shopify-bridge/internal/application"
	"doppler-shopify-bridge/internal/application/webhook_handlers"
	"doppler-shopify-bridge/internal/domain"
	dopplerinfra "doppler-shopify-bridge/internal/infrastructure/doppler"
	"doppler-shopify-bridge/internal/infrastructure/metrics"
	"doppler-shopify-bridge/internal/infrastructure/repository"
	shopifyinfra "doppler-shopify-bridge/internal/infrastructure/shopify"
	"doppler-shopify-bridge/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	webhookSecret := os.Getenv("SHOPIFY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		logger.Fatal().Msg("SHOPIFY_WEBHOOK_SECRET environment variable is required")
	}

	// Connect to Redis (shop integration state)
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Connect to MongoDB (webhook audit log)
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	db := mongoClient.Database(os.Getenv("MONGODB_DATABASE"))

	// Initialize infrastructure (implementations)
	shopStore := repository.NewRedisShopStore(redisClient)
	webhookLog := repository.NewMongoWebhookLog(db)
	dopplerClient := dopplerinfra.NewClient(os.Getenv("DOPPLER_API_URL"), logger)
	shopifyClient := shopifyinfra.NewClient(os.Getenv("SHOPIFY_API_KEY"), os.Getenv("SHOPIFY_API_SECRET"), logger)

	// Initialize application services
	syncService := application.NewSyncService(
		shopStore,
		shopifyClient,
		dopplerClient,
		logger,
		appURL+"/hooks/doppler-import-completed",
	)

	accountService := application.NewAccountService(
		shopStore,
		dopplerClient,
		shopifyClient,
		logger,
		appURL,
	)

	// Initialize webhook dispatcher; hook handlers never fail loudly,
	// so each one is wrapped in the non-propagating boundary.
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(application.SwallowErrors(webhook_handlers.NewCustomerHandler(logger, syncService), logger))
	webhookDispatcher.RegisterHandler(application.SwallowErrors(webhook_handlers.NewAppUninstalledHandler(logger, syncService), logger))

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// App API consumed by the embedded admin UI
	r.Post("/api/shop/setup", setupShopHandler(accountService, logger))
	r.Post("/api/doppler/connect", connectHandler(accountService, logger))
	r.Get("/api/doppler/lists", listsHandler(accountService, logger))
	r.Post("/api/doppler/lists", createListHandler(accountService, logger))
	r.Post("/api/doppler/selected-list", selectListHandler(accountService, logger))
	r.Get("/api/fields", fieldsHandler(accountService, logger))
	r.Post("/api/fields-mapping", fieldsMappingHandler(accountService, logger))
	r.Post("/api/synchronize-customers", synchronizeHandler(syncService, logger))
	r.Get("/api/synchronization-status", statusHandler(syncService, logger))
	r.Get("/api/import-task-status", importTaskStatusHandler(syncService, logger))

	// Webhook endpoints
	r.Post("/webhooks/shopify", shopifyWebhookHandler(webhookDispatcher, webhookLog, webhookSecret, logger))
	r.HandleFunc("/hooks/doppler-import-completed", importCompletedHandler(syncService, logger))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting API server")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// writeError translates the error taxonomy into HTTP statuses: invalid
// Doppler credentials map to 401, validation failures to 400, anything
// else to 500.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := http.StatusInternalServerError

	var invalidCreds *domain.InvalidCredentialsError
	var duplicatedList *domain.DuplicatedListNameError
	var unknownDoppler *domain.UnknownDopplerFieldError
	var unknownShopify *domain.UnknownShopifyFieldError
	var typeMismatch *domain.TypeMismatchError
	var duplicateMapping *domain.DuplicateMappingError

	switch {
	case errors.As(err, &invalidCreds):
		status = http.StatusUnauthorized
	case errors.As(err, &duplicatedList),
		errors.As(err, &unknownDoppler),
		errors.As(err, &unknownShopify),
		errors.As(err, &typeMismatch),
		errors.As(err, &duplicateMapping),
		errors.Is(err, application.ErrShopNotConnected):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func shopParam(r *http.Request) string {
	return r.URL.Query().Get("shop")
}

// setupShopHandler stores the access token obtained upstream by the
// OAuth layer and registers the shop's webhooks and script tag.
func setupShopHandler(accountService *application.AccountService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Shop        string `json:"shop"`
			AccessToken string `json:"accessToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Shop == "" || body.AccessToken == "" {
			http.Error(w, "shop and accessToken are required", http.StatusBadRequest)
			return
		}

		if err := accountService.SetupShop(r.Context(), body.Shop, body.AccessToken); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, map[string]bool{"installed": true})
	}
}

// connectHandler validates and stores the merchant's Doppler credentials
func connectHandler(accountService *application.AccountService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Shop        string `json:"shop"`
			AccountName string `json:"accountName"`
			APIKey      string `json:"apiKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Shop == "" || body.AccountName == "" || body.APIKey == "" {
			http.Error(w, "shop, accountName and apiKey are required", http.StatusBadRequest)
			return
		}

		if err := accountService.ConnectAccount(r.Context(), body.Shop, body.AccountName, body.APIKey); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, map[string]bool{"connected": true})
	}
}

// listsHandler returns the shop's Doppler subscriber lists
func listsHandler(accountService *application.AccountService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := shopParam(r)
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		lists, err := accountService.Lists(r.Context(), shop)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, map[string]interface{}{"items": lists})
	}
}

// createListHandler creates a new Doppler subscriber list
func createListHandler(accountService *application.AccountService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Shop string `json:"shop"`
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Shop == "" || body.Name == "" {
			http.Error(w, "shop and name are required", http.StatusBadRequest)
			return
		}

		listID, err := accountService.CreateList(r.Context(), body.Shop, body.Name)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, map[string]string{"listId": listID, "name": body.Name})
	}
}

// selectListHandler records the merchant's target list; an absent
// listId means "create the default list for me".
func selectListHandler(accountService *application.AccountService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Shop   string `json:"shop"`
			ListID string `json:"listId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Shop == "" {
			http.Error(w, "shop is required", http.StatusBadRequest)
			return
		}

		selection := domain.CreateDefaultList()
		if body.ListID != "" {
			selection = domain.ExistingList(body.ListID)
		}

		selected, err := accountService.SelectList(r.Context(), body.Shop, selection)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, selected)
	}
}

// fieldsHandler returns the Shopify catalog and Doppler field schema
func fieldsHandler(accountService *application.AccountService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := shopParam(r)
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		mappingFields, err := accountService.FieldsForMapping(r.Context(), shop)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, mappingFields)
	}
}

// fieldsMappingHandler validates and stores the field mapping
func fieldsMappingHandler(accountService *application.AccountService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Shop          string                     `json:"shop"`
			FieldsMapping []domain.FieldMappingEntry `json:"fieldsMapping"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Shop == "" {
			http.Error(w, "shop and fieldsMapping are required", http.StatusBadRequest)
			return
		}

		resolved, err := accountService.SetFieldsMapping(r.Context(), body.Shop, body.FieldsMapping)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, map[string]interface{}{"fieldsMapping": resolved})
	}
}

// synchronizeHandler accepts a bulk synchronization request and runs
// it in the background; the status endpoint is the polling side.
func synchronizeHandler(syncService *application.SyncService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Shop string `json:"shop"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Shop == "" {
			http.Error(w, "shop is required", http.StatusBadRequest)
			return
		}

		go func(shop string) {
			if err := syncService.SynchronizeCustomers(context.Background(), shop); err != nil {
				logger.Error().Err(err).Str("shop", shop).Msg("Customer synchronization failed")
			}
		}(body.Shop)

		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]bool{"accepted": true})
	}
}

// statusHandler returns the shop's synchronization status
func statusHandler(syncService *application.SyncService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := shopParam(r)
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		status, err := syncService.Status(r.Context(), shop)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, status)
	}
}

// importTaskStatusHandler looks up the shop's last Doppler import task.
// Diagnostics only; the UI polls /api/synchronization-status instead.
func importTaskStatusHandler(syncService *application.SyncService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := shopParam(r)
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		task, err := syncService.ImportTaskStatus(r.Context(), shop)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if task == nil {
			http.Error(w, "no import task submitted for shop", http.StatusNotFound)
			return
		}
		writeJSON(w, task)
	}
}

// shopifyWebhookHandler verifies, logs and dispatches Shopify webhooks.
// Handlers are wrapped in the non-propagating boundary, so this always
// answers 200 once the signature checks out.
func shopifyWebhookHandler(
	dispatcher *application.WebhookDispatcher,
	webhookLog ports.WebhookLog,
	webhookSecret string,
	logger zerolog.Logger,
) http.HandlerFunc {
	verifier := shopifyinfra.NewWebhookVerifier(webhookSecret)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if err := verifier.Verify(payload, r.Header.Get("X-Shopify-Hmac-SHA256")); err != nil {
			logger.Warn().Err(err).Str("topic", topic).Msg("Webhook signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		shop := r.Header.Get("X-Shopify-Shop-Domain")
		if shop == "" {
			var webhookData map[string]interface{}
			if err := json.Unmarshal(payload, &webhookData); err == nil {
				if d, ok := webhookData["domain"].(string); ok {
					shop = d
				} else if d, ok := webhookData["myshopify_domain"].(string); ok {
					shop = d
				}
			}
		}

		event := &domain.WebhookEvent{
			Topic:    topic,
			Shop:     shop,
			Payload:  payload,
			Verified: true,
		}

		metrics.WebhookEvents.WithLabelValues(topic).Inc()

		if err := webhookLog.LogWebhook(ctx, event); err != nil {
			logger.Error().Err(err).Msg("Failed to log webhook event")
			// Continue processing even if logging fails
		}

		if err := dispatcher.Dispatch(ctx, event); err != nil {
			logger.Error().Err(err).Str("topic", topic).Msg("Failed to dispatch webhook event")
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"received": "true"})
	}
}

// importCompletedHandler is the Doppler-originated callback flipping
// the in-progress flag off.
func importCompletedHandler(syncService *application.SyncService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := shopParam(r)
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		if err := syncService.HandleImportCompleted(r.Context(), shop); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, map[string]bool{"received": true})
	}
}
