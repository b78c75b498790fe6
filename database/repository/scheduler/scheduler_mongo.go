package schedulerRepo

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

// MongoSchedulerRepo implements SchedulerRepository using MongoDB.
type MongoSchedulerRepo struct {
	calendarColl *mongo.Collection
	bookingColl  *mongo.Collection
}

// NewMongoSchedulerRepo constructs a new instance of MongoSchedulerRepo.
func NewMongoSchedulerRepo(db *mongo.Database) SchedulerRepository {
	return &MongoSchedulerRepo{
		calendarColl: db.Collection("provider_calendars"),
		bookingColl:  db.Collection("bookings"),
	}
}

// LockProviderCalendar increments the calendar version. Two transactions touching the same
// provider produce a write conflict, and the driver re-runs the loser from the start.
func (repo *MongoSchedulerRepo) LockProviderCalendar(ctx context.Context, providerID string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"version": 1},
		"$set": bson.M{"updatedAt": now},
	}
	_, err := repo.calendarColl.UpdateOne(ctx, bson.M{"providerId": providerID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to lock provider calendar %s: %w", providerID, err)
	}
	return nil
}

// CreateBooking inserts a new booking document.
func (repo *MongoSchedulerRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if _, err := repo.bookingColl.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (repo *MongoSchedulerRepo) GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctx, bson.M{"id": bookingID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (repo *MongoSchedulerRepo) TransitionStatus(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus, change models.StatusChange) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	set := bson.M{"status": to, "updatedAt": change.UpdatedAt}
	if change.CancelledBy != "" {
		set["cancelledBy"] = change.CancelledBy
	}
	if change.CancellationReason != "" {
		set["cancellationReason"] = change.CancellationReason
	}
	filter := bson.M{"id": bookingID, "status": bson.M{"$in": models.StatusStrings(from)}}
	res, err := repo.bookingColl.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %s is no longer %v: %w", bookingID, from, database.ErrConflict)
	}
	return nil
}

func (repo *MongoSchedulerRepo) DeleteBooking(ctx context.Context, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	res, err := repo.bookingColl.DeleteOne(ctx, bson.M{"id": bookingID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if res.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}
