// File: database/repository/timeslot/interface.go
package timeslotRepo

import (
	"context"

	"wellness/models"
)

// SlotRepository stores weekly provider availability windows.
type SlotRepository interface {
	CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error
	// UpdateSlot replaces the slot if its stored version still equals expectedVersion.
	UpdateSlot(ctx context.Context, slot *models.AvailabilitySlot, expectedVersion int) error
	GetSlot(ctx context.Context, providerID, slotID string) (*models.AvailabilitySlot, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.AvailabilitySlot, error)
	ListByProviderDay(ctx context.Context, providerID string, dayOfWeek int) ([]models.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, providerID, slotID string) error
}
