package entity

import (
	"time"

	"doppler-shopify-bridge/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoWebhookDoc represents a received webhook event in MongoDB
type MongoWebhookDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Topic     string             `bson:"topic"`
	Shop      string             `bson:"shop"`
	Payload   string             `bson:"payload"`
	Verified  bool               `bson:"verified"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// MongoWebhookDocFromDomain converts a domain event to a MongoDB document
func MongoWebhookDocFromDomain(event *domain.WebhookEvent) *MongoWebhookDoc {
	return &MongoWebhookDoc{
		Topic:    event.Topic,
		Shop:     event.Shop,
		Payload:  string(event.Payload),
		Verified: event.Verified,
	}
}

// ToDomain converts the MongoDB document to a domain event
func (d *MongoWebhookDoc) ToDomain() *domain.WebhookEvent {
	return &domain.WebhookEvent{
		Topic:    d.Topic,
		Shop:     d.Shop,
		Payload:  []byte(d.Payload),
		Verified: d.Verified,
	}
}
