package quotaRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the allocation and usage record indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	allocIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "allocationType", Value: 1}, {Key: "isActive", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("user_type_active_created_idx"),
		},
	}
	if _, err := db.Collection("session_allocations").Indexes().CreateMany(ctx, allocIdx); err != nil {
		return fmt.Errorf("failed to create allocation indexes: %w", err)
	}

	usageIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "sessionAllocationId", Value: 1}},
			Options: options.Index().SetName("allocation_idx"),
		},
	}
	if _, err := db.Collection("session_usage_records").Indexes().CreateMany(ctx, usageIdx); err != nil {
		return fmt.Errorf("failed to create usage record indexes: %w", err)
	}
	return nil
}
