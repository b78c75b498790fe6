package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellness/config"
	"wellness/database"
	providerRepo "wellness/database/repository/provider"
	recurringRepo "wellness/database/repository/recurring"
	"wellness/models"
	"wellness/services/authz"
	"wellness/services/booking"
	"wellness/services/pricing"
	"wellness/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Dispatcher materialises due occurrences of recurring templates into bookings.
type Dispatcher struct {
	Templates recurringRepo.RecurringRepository
	Providers providerRepo.ProviderRepository
	Bookings  booking.BookingService
	Pricing   pricing.RateLookup
	Clock     utils.Clock
	Location  *time.Location
	// Defaults applied to templates created without an explicit time or length.
	DefaultTimeOfDay int
	DefaultDuration  int
	Logger           *zap.Logger
	Tracer           trace.Tracer
}

func NewDispatcher(
	templates recurringRepo.RecurringRepository,
	providers providerRepo.ProviderRepository,
	bookings booking.BookingService,
	rates pricing.RateLookup,
	clock utils.Clock,
	cfg config.Config,
) (*Dispatcher, error) {
	loc, err := utils.LoadLocation(cfg.EngineTimezone)
	if err != nil {
		return nil, err
	}
	at, err := utils.ParseClock(cfg.RecurringDefaultAt)
	if err != nil || at >= utils.MinutesPerDay {
		return nil, fmt.Errorf("RECURRING_DEFAULT_TIME: invalid time %q", cfg.RecurringDefaultAt)
	}
	dur := cfg.RecurringDefaultDur
	if dur <= 0 {
		dur = 60
	}
	return &Dispatcher{
		Templates:        templates,
		Providers:        providers,
		Bookings:         bookings,
		Pricing:          rates,
		Clock:            clock,
		Location:         loc,
		DefaultTimeOfDay: at,
		DefaultDuration:  dur,
		Logger:           utils.GetLogger(),
		Tracer:           otel.Tracer("wellness/services/recurring"),
	}, nil
}

// Today is the engine-timezone calendar date of the injected clock.
func (d *Dispatcher) Today() time.Time {
	return utils.DateOf(d.Clock.Now(), d.Location)
}

// DispatchAs runs Dispatch on behalf of an operator.
func (d *Dispatcher) DispatchAs(ctx context.Context, actor models.Actor) (*models.DispatchReport, error) {
	if err := authz.Authorize(actor, authz.ActionDispatch, authz.Subject{}); err != nil {
		return nil, err
	}
	return d.Dispatch(ctx)
}

// Dispatch processes every active template due on or before today. Due templates are re-read on
// each run, so a second run on the same day finds nothing left to do. One template failing is
// reported and never stops the batch.
//
// Occurrences dated before today are never booked. A template whose run was missed rolls forward
// to its first occurrence on or after today, and the occurrences it passed are counted in
// DroppedCount. A one-day outage therefore loses that week's session of a weekly template.
func (d *Dispatcher) Dispatch(ctx context.Context) (*models.DispatchReport, error) {
	ctx, span := d.Tracer.Start(ctx, "recurring.dispatch")
	defer span.End()

	today := d.Today()
	due, err := d.Templates.ListDue(ctx, today)
	if err != nil {
		return nil, utils.NewAppError(utils.KindDependency, "failed to load due templates", err)
	}

	report := &models.DispatchReport{Errors: []string{}}
	for i := range due {
		d.dispatchOne(ctx, &due[i], today, report)
	}

	span.SetAttributes(
		attribute.Int("dispatch.due", len(due)),
		attribute.Int("dispatch.dispatched", report.DispatchedCount),
		attribute.Int("dispatch.dropped", report.DroppedCount),
		attribute.Int("dispatch.errors", len(report.Errors)),
	)
	d.Logger.Info("recurring dispatch finished",
		zap.Time("today", today),
		zap.Int("due", len(due)),
		zap.Int("dispatched", report.DispatchedCount),
		zap.Int("skipped", report.SkippedCount),
		zap.Int("deactivated", report.DeactivatedCount),
		zap.Int("dropped", report.DroppedCount),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (d *Dispatcher) fail(report *models.DispatchReport, tmpl *models.RecurringBookingTemplate, err error) {
	report.Errors = append(report.Errors, fmt.Sprintf("template %s: %v", tmpl.ID, err))
	d.Logger.Warn("recurring template not dispatched", zap.String("templateId", tmpl.ID), zap.Error(err))
}

func pastEnd(tmpl *models.RecurringBookingTemplate, date time.Time) bool {
	return tmpl.EndDate != nil && date.After(*tmpl.EndDate)
}

func (d *Dispatcher) dispatchOne(ctx context.Context, tmpl *models.RecurringBookingTemplate, today time.Time, report *models.DispatchReport) {
	now := d.Clock.Now()
	expected := tmpl.NextOccurrenceDate
	occurrence := expected

	// Missed occurrences are not backfilled.
	dropped := 0
	for occurrence.Before(today) {
		if !pastEnd(tmpl, occurrence) {
			dropped++
		}
		occurrence = NextOccurrence(occurrence, tmpl.Frequency)
	}
	if dropped > 0 {
		report.DroppedCount += dropped
		d.Logger.Warn("missed recurring occurrences dropped",
			zap.String("templateId", tmpl.ID), zap.Time("from", expected), zap.Int("dropped", dropped))
	}
	if pastEnd(tmpl, occurrence) || occurrence.After(today) {
		active := !pastEnd(tmpl, occurrence)
		err := d.Templates.Advance(ctx, tmpl.ID, expected, models.TemplateAdvance{
			NextOccurrenceDate: occurrence,
			LastGeneratedDate:  tmpl.LastGeneratedDate,
			IsActive:           active,
			UpdatedAt:          now,
		})
		if err != nil {
			d.fail(report, tmpl, database.Classify(err, "template"))
			return
		}
		if !active {
			report.DeactivatedCount++
			d.Logger.Info("template reached its end date", zap.String("templateId", tmpl.ID))
			return
		}
		report.SkippedCount++
		d.Logger.Info("stale template rolled forward",
			zap.String("templateId", tmpl.ID), zap.Time("from", expected), zap.Time("to", occurrence))
		return
	}

	// Pricing happens before any row is touched.
	var rate *models.Rate
	if d.Pricing != nil {
		r, err := d.Pricing.Lookup(ctx, tmpl.ProviderID, tmpl.SessionType)
		if err != nil {
			report.SkippedCount++
			d.fail(report, tmpl, utils.NewAppError(utils.KindDependency, "pricing unavailable", err))
			return
		}
		rate = &r
	}

	next := NextOccurrence(occurrence, tmpl.Frequency)
	active := !pastEnd(tmpl, next)
	generated := today
	req := booking.ScheduledRequest{
		CreateBookingRequest: models.CreateBookingRequest{
			UserID:            tmpl.UserID,
			ProviderID:        tmpl.ProviderID,
			ScheduledAt:       utils.AtMinutes(occurrence, tmpl.TimeOfDay, d.Location),
			DurationMinutes:   tmpl.DurationMinutes,
			SessionType:       tmpl.SessionType,
			Notes:             tmpl.Notes,
			FundingPreference: tmpl.FundingPreference,
		},
		RecurringTemplateID: tmpl.ID,
		Rate:                rate,
	}
	res, err := d.Bookings.CreateScheduled(ctx, req, func(ctx context.Context, _ *models.Booking) error {
		err := d.Templates.Advance(ctx, tmpl.ID, expected, models.TemplateAdvance{
			NextOccurrenceDate: next,
			LastGeneratedDate:  &generated,
			IsActive:           active,
			UpdatedAt:          now,
		})
		if errors.Is(err, database.ErrConflict) {
			return utils.Conflictf("template was already advanced by another run")
		}
		return err
	})
	if err != nil {
		d.fail(report, tmpl, err)
		return
	}

	report.DispatchedCount++
	report.BookingIDs = append(report.BookingIDs, res.Booking.ID)
	if !active {
		report.DeactivatedCount++
	}
	d.Logger.Info("recurring booking dispatched",
		zap.String("templateId", tmpl.ID),
		zap.String("bookingId", res.Booking.ID),
		zap.Time("next", next),
		zap.Bool("active", active))
}
