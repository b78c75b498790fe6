package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellness/database"
	"wellness/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSchedulerRepo implements SchedulerRepository over postgres or sqlite.
type GormSchedulerRepo struct {
	db *gorm.DB
}

func NewGormSchedulerRepo(db *gorm.DB) SchedulerRepository {
	return &GormSchedulerRepo{db: db}
}

// LockProviderCalendar upserts the calendar row, which holds its row lock until the transaction ends.
func (repo *GormSchedulerRepo) LockProviderCalendar(ctx context.Context, providerID string, now time.Time) error {
	cal := models.ProviderCalendar{ProviderID: providerID, Version: 1, UpdatedAt: now}
	err := database.Conn(ctx, repo.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"version":    gorm.Expr("provider_calendars.version + 1"),
			"updated_at": now,
		}),
	}).Create(&cal).Error
	if err != nil {
		return fmt.Errorf("failed to lock provider calendar %s: %w", providerID, err)
	}
	return nil
}

func (repo *GormSchedulerRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if err := database.Conn(ctx, repo.db).Create(booking).Error; err != nil {
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (repo *GormSchedulerRepo) GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	err := database.Conn(ctx, repo.db).Where("id = ?", bookingID).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (repo *GormSchedulerRepo) FindOverlappingBookings(ctx context.Context, providerID string, start, end time.Time, excludeBookingID string) ([]models.Booking, error) {
	q := database.Conn(ctx, repo.db).
		Where("provider_id = ? AND status IN ?", providerID, models.StatusStrings(models.ActiveStatuses)).
		Where("scheduled_at < ? AND ends_at > ?", end, start)
	if excludeBookingID != "" {
		q = q.Where("id <> ?", excludeBookingID)
	}
	var bookings []models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("error fetching overlapping bookings: %w", err)
	}
	return bookings, nil
}

func (repo *GormSchedulerRepo) TransitionStatus(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus, change models.StatusChange) error {
	updates := map[string]interface{}{
		"status":     string(to),
		"updated_at": change.UpdatedAt,
	}
	if change.CancelledBy != "" {
		updates["cancelled_by"] = change.CancelledBy
	}
	if change.CancellationReason != "" {
		updates["cancellation_reason"] = change.CancellationReason
	}
	res := database.Conn(ctx, repo.db).Model(&models.Booking{}).
		Where("id = ? AND status IN ?", bookingID, models.StatusStrings(from)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("booking %s is no longer %v: %w", bookingID, from, database.ErrConflict)
	}
	return nil
}

func (repo *GormSchedulerRepo) DeleteBooking(ctx context.Context, bookingID string) error {
	res := database.Conn(ctx, repo.db).Where("id = ?", bookingID).Delete(&models.Booking{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (repo *GormSchedulerRepo) scoped(ctx context.Context, f models.BookingFilter, withStatus bool) *gorm.DB {
	q := database.Conn(ctx, repo.db).Model(&models.Booking{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.ProviderID != "" {
		q = q.Where("provider_id = ?", f.ProviderID)
	}
	if withStatus && len(f.Statuses) > 0 {
		q = q.Where("status IN ?", models.StatusStrings(f.Statuses))
	}
	if f.From != nil {
		q = q.Where("scheduled_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("scheduled_at < ?", *f.To)
	}
	return q
}

func (repo *GormSchedulerRepo) ListBookings(ctx context.Context, f models.BookingFilter) ([]models.Booking, int64, error) {
	var total int64
	if err := repo.scoped(ctx, f, true).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	bookings := []models.Booking{}
	err := repo.scoped(ctx, f, true).
		Order("scheduled_at DESC, id ASC").
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}

func (repo *GormSchedulerRepo) CountByStatus(ctx context.Context, f models.BookingFilter) (map[models.BookingStatus]int, error) {
	var rows []struct {
		Status string
		Count  int
	}
	err := repo.scoped(ctx, f, false).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}
	counts := make(map[models.BookingStatus]int, len(rows))
	for _, row := range rows {
		counts[models.BookingStatus(row.Status)] = row.Count
	}
	return counts, nil
}
