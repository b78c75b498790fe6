// FILE: database/repository/timeslot/indexes.go
package timeslotRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the availability_slots collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// primary query pattern
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "dayOfWeek", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index().SetName("provider_day_start_idx"),
		},
	}

	if _, err := db.Collection("availability_slots").Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create availability slot indexes: %w", err)
	}
	return nil
}
