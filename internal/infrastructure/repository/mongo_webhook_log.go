package repository

import (
	"context"
	"fmt"
	"time"

	"doppler-shopify-bridge/internal/domain"
	"doppler-shopify-bridge/internal/infrastructure/repository/entity"
	"doppler-shopify-bridge/internal/ports"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoWebhookLog implements WebhookLog using MongoDB
type MongoWebhookLog struct {
	collection *mongo.Collection
}

// NewMongoWebhookLog creates a new MongoDB webhook log
func NewMongoWebhookLog(db *mongo.Database) ports.WebhookLog {
	return &MongoWebhookLog{
		collection: db.Collection("webhook_events"),
	}
}

// LogWebhook records a received webhook event
func (r *MongoWebhookLog) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	doc := entity.MongoWebhookDocFromDomain(event)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}

	return nil
}
