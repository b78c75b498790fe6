package schedulerRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the booking and calendar lock indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	bookingIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// overlap checks
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "status", Value: 1}, {Key: "scheduledAt", Value: 1}},
			Options: options.Index().SetName("provider_status_scheduled_idx"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "scheduledAt", Value: -1}},
			Options: options.Index().SetName("user_scheduled_idx"),
		},
	}
	if _, err := db.Collection("bookings").Indexes().CreateMany(ctx, bookingIdx); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	calendarIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "providerId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_provider"),
	}
	if _, err := db.Collection("provider_calendars").Indexes().CreateOne(ctx, calendarIdx); err != nil {
		return fmt.Errorf("failed to create calendar index: %w", err)
	}
	return nil
}
