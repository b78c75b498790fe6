package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellness/database"
	"wellness/models"
	"wellness/services/authz"
	"wellness/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

func subjectOf(b *models.Booking) authz.Subject {
	return authz.Subject{UserID: b.UserID, ProviderID: b.ProviderID}
}

func (m *Manager) load(ctx context.Context, bookingID string) (*models.Booking, error) {
	if bookingID == "" {
		return nil, utils.Validationf("bookingId is required")
	}
	b, err := m.Scheduler.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, database.Classify(err, "booking")
	}
	return b, nil
}

// Cancel releases an active future booking and refunds its quota unit, if it held one.
// Cancelling an already cancelled booking reports CANNOT_CANCEL_TERMINAL and refunds nothing.
func (m *Manager) Cancel(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.CancelBookingResult, error) {
	ctx, span := m.Tracer.Start(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", bookingID))

	b, err := m.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ActionCancel, subjectOf(b)); err != nil {
		return nil, err
	}
	if !b.Status.IsActive() {
		return nil, utils.NewAppError(utils.KindCannotCancelTerminal, fmt.Sprintf("booking is already %s", b.Status), nil)
	}
	now := m.Clock.Now()
	if !b.ScheduledAt.After(now) {
		return nil, utils.NewAppError(utils.KindCannotCancelPast, "booking has already started", nil)
	}

	refunded := false
	err = m.Tx.WithinTx(ctx, func(ctx context.Context) error {
		refunded = false
		err := m.Scheduler.TransitionStatus(ctx, b.ID, models.ActiveStatuses, models.BookingCancelled, models.StatusChange{
			CancelledBy:        actor.ID,
			CancellationReason: reason,
			UpdatedAt:          now,
		})
		if errors.Is(err, database.ErrConflict) {
			return utils.NewAppError(utils.KindCannotCancelTerminal, "booking is no longer active", nil)
		}
		if err != nil {
			return err
		}
		if !b.Funded() {
			return nil
		}
		if err := m.Ledger.Credit(ctx, *b.SessionUsageRecordID); err != nil {
			if utils.KindOf(err) != utils.KindNotFound {
				return err
			}
			m.Logger.Warn("usage record already gone, nothing to refund",
				zap.String("bookingId", b.ID), zap.String("usageRecordId", *b.SessionUsageRecordID))
			return nil
		}
		refunded = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		return nil, database.Classify(err, "booking")
	}

	b.Status = models.BookingCancelled
	b.CancelledBy = actor.ID
	b.CancellationReason = reason
	b.UpdatedAt = now
	m.Logger.Info("booking cancelled",
		zap.String("bookingId", b.ID), zap.String("by", actor.ID), zap.Bool("refunded", refunded))
	m.emit(ctx, models.EventBookingCancelled, b, "")

	return &models.CancelBookingResult{Refunded: refunded}, nil
}

// Reschedule moves an active booking to a new time. The original becomes rescheduled and a new
// booking takes over its usage record, so the user's consumption is unchanged.
func (m *Manager) Reschedule(ctx context.Context, actor models.Actor, bookingID string, req models.RescheduleBookingRequest) (*models.RescheduleBookingResult, error) {
	ctx, span := m.Tracer.Start(ctx, "booking.reschedule")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", bookingID))

	if req.NewScheduledAt.IsZero() {
		return nil, utils.Validationf("newScheduledAt is required")
	}
	if !onMinute(req.NewScheduledAt) {
		return nil, utils.Validationf("newScheduledAt must fall on a whole minute")
	}
	newAt := req.NewScheduledAt.UTC()

	old, err := m.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ActionReschedule, subjectOf(old)); err != nil {
		return nil, err
	}
	if !old.Status.IsActive() {
		return nil, utils.Conflictf("booking is %s and cannot be rescheduled", old.Status)
	}
	if !newAt.After(m.Clock.Now()) {
		return nil, utils.Validationf("newScheduledAt must be in the future")
	}

	var next *models.Booking
	err = m.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := m.Clock.Now()
		if err := m.Scheduler.LockProviderCalendar(ctx, old.ProviderID, now); err != nil {
			return err
		}
		ok, err := m.Availability.IsAvailable(ctx, old.ProviderID, newAt, old.DurationMinutes, old.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errSlotUnavailable
		}

		err = m.Scheduler.TransitionStatus(ctx, old.ID, models.ActiveStatuses, models.BookingRescheduled, models.StatusChange{
			CancelledBy:        actor.ID,
			CancellationReason: req.Reason,
			UpdatedAt:          now,
		})
		if err != nil {
			return err
		}

		nb := *old
		nb.ID = uuid.New().String()
		nb.ScheduledAt = newAt
		nb.EndsAt = newAt.Add(time.Duration(old.DurationMinutes) * time.Minute)
		nb.Status = models.BookingScheduled
		nb.RescheduledFromBookingID = &old.ID
		nb.CancelledBy = ""
		nb.CancellationReason = ""
		nb.CreatedAt = now
		nb.UpdatedAt = now
		if err := m.Scheduler.CreateBooking(ctx, &nb); err != nil {
			return err
		}
		if nb.Funded() {
			if err := m.Ledger.Retarget(ctx, *nb.SessionUsageRecordID, nb.ID, newAt); err != nil {
				return err
			}
		}
		next = &nb
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reschedule failed")
		return nil, database.Classify(err, "booking")
	}

	m.Logger.Info("booking rescheduled",
		zap.String("oldBookingId", old.ID),
		zap.String("newBookingId", next.ID),
		zap.Time("scheduledAt", next.ScheduledAt))
	m.emit(ctx, models.EventBookingRescheduled, next, old.ID)

	return &models.RescheduleBookingResult{OldBookingID: old.ID, NewBooking: next}, nil
}

var statusEvents = map[models.BookingStatus]models.EventType{
	models.BookingConfirmed: models.EventBookingConfirmed,
	models.BookingCompleted: models.EventBookingCompleted,
	models.BookingNoShow:    models.EventBookingNoShow,
}

// UpdateStatus applies a provider-side transition: confirm, complete or no-show. Cancel and
// reschedule have their own operations because they move quota.
func (m *Manager) UpdateStatus(ctx context.Context, actor models.Actor, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	eventType, ok := statusEvents[status]
	if !ok {
		return nil, utils.Validationf("status must be one of confirmed, completed, no_show")
	}
	b, err := m.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ActionUpdateStatus, subjectOf(b)); err != nil {
		return nil, err
	}
	if !models.CanTransition(b.Status, status) {
		return nil, utils.Conflictf("cannot move booking from %s to %s", b.Status, status)
	}

	now := m.Clock.Now()
	err = m.Scheduler.TransitionStatus(ctx, b.ID, []models.BookingStatus{b.Status}, status, models.StatusChange{UpdatedAt: now})
	if err != nil {
		return nil, database.Classify(err, "booking")
	}
	b.Status = status
	b.UpdatedAt = now

	m.Logger.Info("booking status updated", zap.String("bookingId", b.ID), zap.String("status", string(status)))
	m.emit(ctx, eventType, b, "")
	return b, nil
}

func (m *Manager) Confirm(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	return m.UpdateStatus(ctx, actor, bookingID, models.BookingConfirmed)
}

func (m *Manager) Complete(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	return m.UpdateStatus(ctx, actor, bookingID, models.BookingCompleted)
}

func (m *Manager) MarkNoShow(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	return m.UpdateStatus(ctx, actor, bookingID, models.BookingNoShow)
}

// Delete removes a booking outright. A quota unit the booking still holds is returned first,
// whatever its status.
func (m *Manager) Delete(ctx context.Context, actor models.Actor, bookingID string) error {
	b, err := m.load(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor, authz.ActionDeleteBooking, subjectOf(b)); err != nil {
		return err
	}

	err = m.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := m.Scheduler.LockProviderCalendar(ctx, b.ProviderID, m.Clock.Now()); err != nil {
			return err
		}
		// Re-read under the lock: a reschedule may have committed since the first load.
		current, err := m.Scheduler.GetBookingByID(ctx, b.ID)
		if err != nil {
			return err
		}
		if current.Funded() {
			// A rescheduled booking handed its record on; only the owner may return the unit.
			if _, err := m.Ledger.CreditBooking(ctx, *current.SessionUsageRecordID, current.ID); err != nil {
				return err
			}
		}
		b = current
		return m.Scheduler.DeleteBooking(ctx, current.ID)
	})
	if err != nil {
		return database.Classify(err, "booking")
	}

	m.Logger.Warn("booking deleted", zap.String("bookingId", b.ID), zap.String("by", actor.ID))
	m.emit(ctx, models.EventBookingDeleted, b, "")
	return nil
}
