package booking

import (
	"context"
	"time"

	"wellness/database"
	"wellness/models"
	"wellness/services/authz"
	"wellness/services/quota"
	"wellness/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var errSlotUnavailable = utils.NewAppError(utils.KindSlotUnavailable, "the requested time is no longer available", nil)

func onMinute(t time.Time) bool {
	return t.Equal(t.Truncate(time.Minute))
}

// normalize fills defaults and rejects malformed input. It does not check the clock.
func (m *Manager) normalize(req *models.CreateBookingRequest) error {
	if req.UserID == "" {
		return utils.Validationf("userId is required")
	}
	if req.ProviderID == "" {
		return utils.Validationf("providerId is required")
	}
	if req.ScheduledAt.IsZero() {
		return utils.Validationf("scheduledAt is required")
	}
	if !onMinute(req.ScheduledAt) {
		return utils.Validationf("scheduledAt must fall on a whole minute")
	}
	req.ScheduledAt = req.ScheduledAt.UTC()
	if req.DurationMinutes <= 0 {
		return utils.Validationf("durationMinutes must be positive")
	}
	if m.Policy.MaxSessionMinutes > 0 && req.DurationMinutes > m.Policy.MaxSessionMinutes {
		return utils.Validationf("durationMinutes may not exceed %d", m.Policy.MaxSessionMinutes)
	}
	if req.SessionType == "" {
		req.SessionType = models.SessionIndividual
	}
	if !req.SessionType.Valid() {
		return utils.Validationf("unknown session type %q", req.SessionType)
	}
	if req.FundingPreference != nil && !req.FundingPreference.Valid() {
		return utils.Validationf("unknown funding preference %q", *req.FundingPreference)
	}
	return nil
}

// Create books a session for req.UserID (the caller when empty). Quota is consumed when available;
// running out only fails the request when funding is required by the caller or by policy.
func (m *Manager) Create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.CreateBookingResult, error) {
	if req.UserID == "" {
		req.UserID = actor.ID
	}
	if err := m.normalize(&req); err != nil {
		return nil, err
	}
	if !req.ScheduledAt.After(m.Clock.Now()) {
		return nil, utils.Validationf("scheduledAt must be in the future")
	}
	if err := authz.Authorize(actor, authz.ActionCreate, authz.Subject{UserID: req.UserID}); err != nil {
		return nil, err
	}
	return m.create(ctx, ScheduledRequest{CreateBookingRequest: req}, nil)
}

func (m *Manager) CreateScheduled(ctx context.Context, req ScheduledRequest, hook TxHook) (*models.CreateBookingResult, error) {
	if err := m.normalize(&req.CreateBookingRequest); err != nil {
		return nil, err
	}
	return m.create(ctx, req, hook)
}

// quote prices the session before any row is touched.
func (m *Manager) quote(ctx context.Context, req ScheduledRequest) (*models.Rate, error) {
	if req.Rate != nil {
		return req.Rate, nil
	}
	if m.Pricing == nil {
		if m.Policy.PricingMandatory {
			return nil, utils.NewAppError(utils.KindDependency, "pricing is not configured", nil)
		}
		return nil, nil
	}
	rate, err := m.Pricing.Lookup(ctx, req.ProviderID, req.SessionType)
	if err == nil {
		return &rate, nil
	}
	if m.Policy.PricingMandatory || utils.KindOf(err) == utils.KindValidation {
		return nil, err
	}
	m.Logger.Warn("pricing unavailable, booking without a price",
		zap.String("providerId", req.ProviderID), zap.Error(err))
	return nil, nil
}

func (m *Manager) create(ctx context.Context, req ScheduledRequest, hook TxHook) (*models.CreateBookingResult, error) {
	ctx, span := m.Tracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.provider_id", req.ProviderID),
		attribute.String("booking.user_id", req.UserID),
	)

	provider, err := m.Providers.GetByID(ctx, req.ProviderID)
	if err != nil {
		return nil, database.Classify(err, "provider")
	}
	if !provider.IsActive {
		return nil, utils.Validationf("provider %s is not accepting bookings", provider.ID)
	}
	rate, err := m.quote(ctx, req)
	if err != nil {
		return nil, err
	}

	var booking *models.Booking
	err = m.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := m.Clock.Now()
		if err := m.Scheduler.LockProviderCalendar(ctx, req.ProviderID, now); err != nil {
			return err
		}
		ok, err := m.Availability.IsAvailable(ctx, req.ProviderID, req.ScheduledAt, req.DurationMinutes, "")
		if err != nil {
			return err
		}
		if !ok {
			return errSlotUnavailable
		}

		b := &models.Booking{
			ID:              uuid.New().String(),
			UserID:          req.UserID,
			ProviderID:      req.ProviderID,
			ScheduledAt:     req.ScheduledAt,
			EndsAt:          req.ScheduledAt.Add(time.Duration(req.DurationMinutes) * time.Minute),
			DurationMinutes: req.DurationMinutes,
			SessionType:     req.SessionType,
			Status:          models.BookingScheduled,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if req.RecurringTemplateID != "" {
			b.RecurringTemplateID = &req.RecurringTemplateID
		}
		if rate != nil {
			b.PriceCents = rate.PriceFor(req.DurationMinutes)
			b.Currency = rate.Currency
		}

		usage, err := m.Ledger.Debit(ctx, req.UserID, req.FundingPreference, quota.DebitDetails{
			ProviderID:  req.ProviderID,
			BookingID:   b.ID,
			SessionDate: b.ScheduledAt,
			Notes:       req.Notes,
		})
		switch {
		case err == nil:
			b.SessionUsageRecordID = &usage.ID
		case quota.IsNoQuota(err) && !req.RequireFunding && m.Policy.AllowUnfunded:
			m.Logger.Info("no quota left, booking unfunded", zap.String("userId", req.UserID))
		default:
			return err
		}

		if err := m.Scheduler.CreateBooking(ctx, b); err != nil {
			return err
		}
		if hook != nil {
			if err := hook(ctx, b); err != nil {
				return err
			}
		}
		booking = b
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, database.Classify(err, "booking")
	}

	span.SetAttributes(attribute.String("booking.id", booking.ID), attribute.Bool("booking.funded", booking.Funded()))
	m.Logger.Info("booking created",
		zap.String("bookingId", booking.ID),
		zap.String("userId", booking.UserID),
		zap.String("providerId", booking.ProviderID),
		zap.Time("scheduledAt", booking.ScheduledAt),
		zap.Bool("funded", booking.Funded()))
	m.emit(ctx, models.EventBookingCreated, booking, "")

	return &models.CreateBookingResult{Booking: booking, QuotaUsed: booking.Funded()}, nil
}
