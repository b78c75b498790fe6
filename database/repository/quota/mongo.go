// File: database/repository/quota/mongo.go
package quotaRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellness/database"
	"wellness/models"
	"wellness/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoQuotaRepo struct {
	allocations *mongo.Collection
	usage       *mongo.Collection
}

// NewMongoQuotaRepo constructs a new MongoDB QuotaRepository.
func NewMongoQuotaRepo(db *mongo.Database) QuotaRepository {
	return &mongoQuotaRepo{
		allocations: db.Collection("session_allocations"),
		usage:       db.Collection("session_usage_records"),
	}
}

func notExpired(now time.Time) bson.A {
	return bson.A{
		bson.M{"expiresAt": nil},
		bson.M{"expiresAt": bson.M{"$gt": now}},
	}
}

func (r *mongoQuotaRepo) CreateAllocation(ctx context.Context, alloc *models.SessionAllocation) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	if alloc.ID == "" {
		alloc.ID = uuid.New().String()
	}
	if _, err := r.allocations.InsertOne(ctx, alloc); err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	return nil
}

func (r *mongoQuotaRepo) GetAllocation(ctx context.Context, id string) (*models.SessionAllocation, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var alloc models.SessionAllocation
	err := r.allocations.FindOne(ctx, bson.M{"id": id}).Decode(&alloc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}

func (r *mongoQuotaRepo) ListAllocations(ctx context.Context, userID string, includeInactive bool) ([]models.SessionAllocation, error) {
	filter := bson.M{"userId": userID}
	if !includeInactive {
		filter["isActive"] = true
	}
	return r.findAllocations(ctx, filter)
}

func (r *mongoQuotaRepo) ListDebitable(ctx context.Context, userID string, allocType models.AllocationType, now time.Time) ([]models.SessionAllocation, error) {
	filter := bson.M{
		"userId":         userID,
		"allocationType": allocType,
		"isActive":       true,
		"$or":            notExpired(now),
		"$expr":          bson.M{"$lt": bson.A{"$sessionsUsed", "$sessionsAllocated"}},
	}
	return r.findAllocations(ctx, filter)
}

func (r *mongoQuotaRepo) findAllocations(ctx context.Context, filter bson.M) ([]models.SessionAllocation, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.allocations.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer cursor.Close(ctx)

	allocs := []models.SessionAllocation{}
	if err := cursor.All(ctx, &allocs); err != nil {
		return nil, err
	}
	return allocs, nil
}

func (r *mongoQuotaRepo) TryIncrementUsed(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{
		"id":       id,
		"isActive": true,
		"$or":      notExpired(now),
		"$expr":    bson.M{"$lt": bson.A{"$sessionsUsed", "$sessionsAllocated"}},
	}
	update := bson.M{
		"$inc": bson.M{"sessionsUsed": 1},
		"$set": bson.M{"updatedAt": now},
	}
	res, err := r.allocations.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to debit allocation: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (r *mongoQuotaRepo) DecrementUsed(ctx context.Context, id string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{"id": id, "sessionsUsed": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"sessionsUsed": -1},
		"$set": bson.M{"updatedAt": now},
	}
	res, err := r.allocations.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to credit allocation: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("allocation %s has no sessions in use: %w", id, database.ErrConflict)
	}
	return nil
}

func (r *mongoQuotaRepo) SetAllocated(ctx context.Context, id string, expectedVersion, allocated int, reason string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{
		"id":           id,
		"version":      expectedVersion,
		"sessionsUsed": bson.M{"$lte": allocated},
	}
	update := bson.M{
		"$set": bson.M{
			"sessionsAllocated": allocated,
			"reason":            reason,
			"updatedAt":         now,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.allocations.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to adjust allocation: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("allocation %s (version mismatch or below usage): %w", id, database.ErrConflict)
	}
	return nil
}

func (r *mongoQuotaRepo) Deactivate(ctx context.Context, id, reason string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"isActive": false, "reason": reason, "updatedAt": now},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.allocations.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate allocation: %w", err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *mongoQuotaRepo) CreateUsage(ctx context.Context, rec *models.SessionUsageRecord) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if _, err := r.usage.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

func (r *mongoQuotaRepo) GetUsage(ctx context.Context, id string) (*models.SessionUsageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var rec models.SessionUsageRecord
	err := r.usage.FindOne(ctx, bson.M{"id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *mongoQuotaRepo) DeleteUsage(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	res, err := r.usage.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete usage record: %w", err)
	}
	if res.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *mongoQuotaRepo) RetargetUsage(ctx context.Context, id, bookingID string, sessionDate time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"bookingId": bookingID, "sessionDate": sessionDate}}
	res, err := r.usage.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to retarget usage record: %w", err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}
