package notification

import (
	"context"
	"sync"
	"time"

	"wellness/models"
	"wellness/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Emitter publishes booking lifecycle events. Delivery is fire-and-forget: Emit never fails the
// operation that produced the event.
type Emitter interface {
	Emit(ctx context.Context, event models.BookingEvent)
}

// NewEvent fills in the id and de-duplicates recipients.
func NewEvent(eventType models.EventType, booking *models.Booking, relatedID string, occurredAt time.Time) models.BookingEvent {
	recipients := []string{booking.UserID}
	if booking.ProviderID != booking.UserID {
		recipients = append(recipients, booking.ProviderID)
	}
	return models.BookingEvent{
		ID:               uuid.New().String(),
		Type:             eventType,
		BookingID:        booking.ID,
		RelatedBookingID: relatedID,
		RecipientIDs:     recipients,
		OccurredAt:       occurredAt.UTC(),
	}
}

// LogEmitter writes events to the structured log. Used when no queue is configured.
type LogEmitter struct {
	Logger *zap.Logger
}

func NewLogEmitter() *LogEmitter {
	return &LogEmitter{Logger: utils.GetLogger()}
}

func (e *LogEmitter) Emit(_ context.Context, event models.BookingEvent) {
	e.Logger.Info("booking event",
		zap.String("eventId", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("bookingId", event.BookingID),
		zap.String("relatedBookingId", event.RelatedBookingID),
		zap.Strings("recipients", event.RecipientIDs),
		zap.Time("occurredAt", event.OccurredAt))
}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []models.BookingEvent
}

func (r *Recorder) Emit(_ context.Context, event models.BookingEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *Recorder) Events() []models.BookingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.BookingEvent(nil), r.events...)
}

// OfType returns recorded events of one type, oldest first.
func (r *Recorder) OfType(t models.EventType) []models.BookingEvent {
	var out []models.BookingEvent
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
