package recurringRepo

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

type mongoRecurringRepo struct {
	coll *mongo.Collection
}

func NewMongoRecurringRepo(db *mongo.Database) RecurringRepository {
	return &mongoRecurringRepo{coll: db.Collection("recurring_booking_templates")}
}

func (r *mongoRecurringRepo) Create(ctx context.Context, tmpl *models.RecurringBookingTemplate) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, tmpl); err != nil {
		return fmt.Errorf("failed to insert recurring template: %w", err)
	}
	return nil
}

func (r *mongoRecurringRepo) GetByID(ctx context.Context, id string) (*models.RecurringBookingTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var tmpl models.RecurringBookingTemplate
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&tmpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *mongoRecurringRepo) ListDue(ctx context.Context, today time.Time) ([]models.RecurringBookingTemplate, error) {
	return r.find(ctx, bson.M{"isActive": true, "nextOccurrenceDate": bson.M{"$lte": today}})
}

func (r *mongoRecurringRepo) ListByUser(ctx context.Context, userID string, includeInactive bool) ([]models.RecurringBookingTemplate, error) {
	filter := bson.M{"userId": userID}
	if !includeInactive {
		filter["isActive"] = true
	}
	return r.find(ctx, filter)
}

func (r *mongoRecurringRepo) find(ctx context.Context, filter bson.M) ([]models.RecurringBookingTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "nextOccurrenceDate", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring templates: %w", err)
	}
	defer cursor.Close(ctx)

	templates := []models.RecurringBookingTemplate{}
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *mongoRecurringRepo) Advance(ctx context.Context, id string, expectedNext time.Time, adv models.TemplateAdvance) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	set := bson.M{
		"nextOccurrenceDate": adv.NextOccurrenceDate,
		"isActive":           adv.IsActive,
		"updatedAt":          adv.UpdatedAt,
	}
	if adv.LastGeneratedDate != nil {
		set["lastGeneratedDate"] = *adv.LastGeneratedDate
	}
	filter := bson.M{"id": id, "isActive": true, "nextOccurrenceDate": expectedNext}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to advance recurring template: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("template %s already advanced: %w", id, database.ErrConflict)
	}
	return nil
}

func (r *mongoRecurringRepo) Deactivate(ctx context.Context, id string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"isActive": false, "updatedAt": now}})
	if err != nil {
		return fmt.Errorf("failed to deactivate recurring template: %w", err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the template indexes used by the dispatcher.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "nextOccurrenceDate", Value: 1}},
			Options: options.Index().SetName("active_next_idx"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("user_idx"),
		},
	}
	if _, err := db.Collection("recurring_booking_templates").Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create recurring template indexes: %w", err)
	}
	return nil
}
