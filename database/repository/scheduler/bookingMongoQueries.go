package schedulerRepo

import (
	"context"
	"fmt"
	"time"

	"wellness/models"
	"wellness/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindOverlappingBookings returns active bookings whose [scheduledAt, endsAt) intersects [start, end).
func (repo *MongoSchedulerRepo) FindOverlappingBookings(ctx context.Context, providerID string, start, end time.Time, excludeBookingID string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{
		"providerId":  providerID,
		"status":      bson.M{"$in": models.StatusStrings(models.ActiveStatuses)},
		"scheduledAt": bson.M{"$lt": end},
		"endsAt":      bson.M{"$gt": start},
	}
	if excludeBookingID != "" {
		filter["id"] = bson.M{"$ne": excludeBookingID}
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}

func bookingFilter(f models.BookingFilter, withStatus bool) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.ProviderID != "" {
		filter["providerId"] = f.ProviderID
	}
	if withStatus && len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": models.StatusStrings(f.Statuses)}
	}
	window := bson.M{}
	if f.From != nil {
		window["$gte"] = *f.From
	}
	if f.To != nil {
		window["$lt"] = *f.To
	}
	if len(window) > 0 {
		filter["scheduledAt"] = window
	}
	return filter
}

func (repo *MongoSchedulerRepo) ListBookings(ctx context.Context, f models.BookingFilter) ([]models.Booking, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bookingFilter(f, true)
	total, err := repo.bookingColl.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "scheduledAt", Value: -1}, {Key: "id", Value: 1}}).
		SetSkip(int64(f.Offset())).
		SetLimit(int64(f.PageSize))
	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (repo *MongoSchedulerRepo) CountByStatus(ctx context.Context, f models.BookingFilter) (map[models.BookingStatus]int, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bookingFilter(f, false)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := repo.bookingColl.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[models.BookingStatus]int, len(rows))
	for _, row := range rows {
		counts[models.BookingStatus(row.Status)] = row.Count
	}
	return counts, nil
}
