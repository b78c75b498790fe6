package booking

import (
	"context"

	"wellness/config"
	"wellness/database"
	providerRepo "wellness/database/repository/provider"
	schedulerRepo "wellness/database/repository/scheduler"
	"wellness/models"
	"wellness/services/availability"
	"wellness/services/notification"
	"wellness/services/pricing"
	"wellness/services/quota"
	"wellness/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// BookingService is the booking lifecycle exposed to handlers and the recurring dispatcher.
type BookingService interface {
	Create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.CreateBookingResult, error)
	// CreateScheduled is the non-interactive creation path. It skips the future-date rule and runs
	// hook inside the booking's transaction.
	CreateScheduled(ctx context.Context, req ScheduledRequest, hook TxHook) (*models.CreateBookingResult, error)
	Cancel(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.CancelBookingResult, error)
	Reschedule(ctx context.Context, actor models.Actor, bookingID string, req models.RescheduleBookingRequest) (*models.RescheduleBookingResult, error)
	UpdateStatus(ctx context.Context, actor models.Actor, bookingID string, status models.BookingStatus) (*models.Booking, error)
	Delete(ctx context.Context, actor models.Actor, bookingID string) error
	Get(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	List(ctx context.Context, actor models.Actor, filter models.BookingFilter) (*models.BookingListResult, error)
}

// TxHook runs inside the creation transaction after the booking is inserted. An error rolls the
// booking and its debit back.
type TxHook func(ctx context.Context, booking *models.Booking) error

// ScheduledRequest is a booking materialised by the system rather than a caller.
type ScheduledRequest struct {
	models.CreateBookingRequest
	RecurringTemplateID string
	// Rate is the price already quoted by the caller. Nil means look it up.
	Rate *models.Rate
}

// Policy holds the configurable booking rules.
type Policy struct {
	AllowUnfunded     bool
	PricingMandatory  bool
	MaxSessionMinutes int
}

// PolicyFromConfig reads the booking rules from the loaded configuration.
func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{
		AllowUnfunded:     cfg.AllowUnfunded,
		PricingMandatory:  cfg.PricingMandatory,
		MaxSessionMinutes: cfg.MaxSessionMinutes,
	}
}

// Manager implements BookingService. Every calendar write takes the provider calendar lock first
// inside a single transaction, so check-and-reserve cannot interleave.
type Manager struct {
	Scheduler    schedulerRepo.SchedulerRepository
	Providers    providerRepo.ProviderRepository
	Availability availability.Checker
	Ledger       quota.Ledger
	Pricing      pricing.RateLookup
	Events       notification.Emitter
	Tx           database.Transactor
	Clock        utils.Clock
	Policy       Policy
	Logger       *zap.Logger
	Tracer       trace.Tracer
}

func NewManager(
	scheduler schedulerRepo.SchedulerRepository,
	providers providerRepo.ProviderRepository,
	checker availability.Checker,
	ledger quota.Ledger,
	rates pricing.RateLookup,
	events notification.Emitter,
	tx database.Transactor,
	clock utils.Clock,
	policy Policy,
) *Manager {
	return &Manager{
		Scheduler:    scheduler,
		Providers:    providers,
		Availability: checker,
		Ledger:       ledger,
		Pricing:      rates,
		Events:       events,
		Tx:           tx,
		Clock:        clock,
		Policy:       policy,
		Logger:       utils.GetLogger(),
		Tracer:       otel.Tracer("wellness/services/booking"),
	}
}

func (m *Manager) emit(ctx context.Context, eventType models.EventType, booking *models.Booking, relatedID string) {
	if m.Events == nil {
		return
	}
	m.Events.Emit(ctx, notification.NewEvent(eventType, booking, relatedID, m.Clock.Now()))
}

