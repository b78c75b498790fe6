// File: database/repository/timeslot/mongo.go
package timeslotRepo

import (
	"context"
	"errors"
	"fmt"

	"wellness/database"
	"wellness/models"
	"wellness/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoSlotRepo constructs a new MongoDB SlotRepository.
func NewMongoSlotRepo(db *mongo.Database) SlotRepository {
	return &mongoSlotRepo{coll: db.Collection("availability_slots")}
}

func (r *mongoSlotRepo) CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, slot); err != nil {
		return fmt.Errorf("failed to insert availability slot: %w", err)
	}
	return nil
}

func (r *mongoSlotRepo) UpdateSlot(ctx context.Context, slot *models.AvailabilitySlot, expectedVersion int) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{
		"id":         slot.ID,
		"providerId": slot.ProviderID,
		"version":    expectedVersion,
	}
	update := bson.M{
		"$set": bson.M{
			"dayOfWeek":   slot.DayOfWeek,
			"startTime":   slot.StartTime,
			"endTime":     slot.EndTime,
			"timezone":    slot.Timezone,
			"isAvailable": slot.IsAvailable,
			"updatedAt":   slot.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update availability slot: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("slot %s: %w", slot.ID, database.ErrConflict)
	}
	slot.Version = expectedVersion + 1
	return nil
}

func (r *mongoSlotRepo) GetSlot(ctx context.Context, providerID, slotID string) (*models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var slot models.AvailabilitySlot
	err := r.coll.FindOne(ctx, bson.M{"id": slotID, "providerId": providerID}).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *mongoSlotRepo) ListByProvider(ctx context.Context, providerID string) ([]models.AvailabilitySlot, error) {
	return r.find(ctx, bson.M{"providerId": providerID})
}

func (r *mongoSlotRepo) ListByProviderDay(ctx context.Context, providerID string, dayOfWeek int) ([]models.AvailabilitySlot, error) {
	return r.find(ctx, bson.M{"providerId": providerID, "dayOfWeek": dayOfWeek})
}

func (r *mongoSlotRepo) find(ctx context.Context, filter bson.M) ([]models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "dayOfWeek", Value: 1}, {Key: "startTime", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	slots := []models.AvailabilitySlot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *mongoSlotRepo) DeleteSlot(ctx context.Context, providerID, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": slotID, "providerId": providerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}
