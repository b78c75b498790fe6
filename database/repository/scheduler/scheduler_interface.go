package schedulerRepo

import (
	"context"
	"time"

	"wellness/models"
)

// SchedulerRepository defines the data access methods used by the booking lifecycle.
type SchedulerRepository interface {
	// LockProviderCalendar bumps the provider's calendar record. Call it first inside a transaction
	// that reads then writes the provider's calendar; concurrent writers serialise on it.
	LockProviderCalendar(ctx context.Context, providerID string, now time.Time) error
	// CreateBooking persists a new booking record.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error)
	// FindOverlappingBookings returns active bookings of the provider intersecting [start, end).
	FindOverlappingBookings(ctx context.Context, providerID string, start, end time.Time, excludeBookingID string) ([]models.Booking, error)
	// TransitionStatus moves a booking to `to` only if its current status is one of `from`.
	// ErrConflict means the booking changed underneath the caller.
	TransitionStatus(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus, change models.StatusChange) error
	DeleteBooking(ctx context.Context, bookingID string) error
	// ListBookings returns one page (newest scheduledAt first) and the total matching count.
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error)
	// CountByStatus counts bookings matching the filter, ignoring its status and paging fields.
	CountByStatus(ctx context.Context, filter models.BookingFilter) (map[models.BookingStatus]int, error)
}
