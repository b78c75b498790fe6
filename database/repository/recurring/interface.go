package recurringRepo

import (
	"context"
	"time"

	"wellness/models"
)

// RecurringRepository stores recurring booking templates.
type RecurringRepository interface {
	Create(ctx context.Context, tmpl *models.RecurringBookingTemplate) error
	GetByID(ctx context.Context, id string) (*models.RecurringBookingTemplate, error)
	// ListDue returns active templates whose next occurrence is on or before today.
	ListDue(ctx context.Context, today time.Time) ([]models.RecurringBookingTemplate, error)
	ListByUser(ctx context.Context, userID string, includeInactive bool) ([]models.RecurringBookingTemplate, error)
	// Advance writes the new schedule state only if nextOccurrenceDate still equals expectedNext.
	// ErrConflict means another run already advanced the template.
	Advance(ctx context.Context, id string, expectedNext time.Time, adv models.TemplateAdvance) error
	Deactivate(ctx context.Context, id string, now time.Time) error
}
