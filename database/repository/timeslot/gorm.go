package timeslotRepo

import (
	"context"
	"errors"
	"fmt"

	"wellness/database"
	"wellness/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormSlotRepo struct {
	db *gorm.DB
}

// NewGormSlotRepo constructs a SlotRepository over postgres or sqlite.
func NewGormSlotRepo(db *gorm.DB) SlotRepository {
	return &gormSlotRepo{db: db}
}

func (r *gormSlotRepo) CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	if err := database.Conn(ctx, r.db).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to insert availability slot: %w", err)
	}
	return nil
}

func (r *gormSlotRepo) UpdateSlot(ctx context.Context, slot *models.AvailabilitySlot, expectedVersion int) error {
	res := database.Conn(ctx, r.db).Model(&models.AvailabilitySlot{}).
		Where("id = ? AND provider_id = ? AND version = ?", slot.ID, slot.ProviderID, expectedVersion).
		Updates(map[string]interface{}{
			"day_of_week":  slot.DayOfWeek,
			"start_time":   slot.StartTime,
			"end_time":     slot.EndTime,
			"timezone":     slot.Timezone,
			"is_available": slot.IsAvailable,
			"updated_at":   slot.UpdatedAt,
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update availability slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("slot %s: %w", slot.ID, database.ErrConflict)
	}
	slot.Version = expectedVersion + 1
	return nil
}

func (r *gormSlotRepo) GetSlot(ctx context.Context, providerID, slotID string) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	err := database.Conn(ctx, r.db).Where("id = ? AND provider_id = ?", slotID, providerID).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *gormSlotRepo) ListByProvider(ctx context.Context, providerID string) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	err := database.Conn(ctx, r.db).Where("provider_id = ?", providerID).
		Order("day_of_week ASC, start_time ASC").Find(&slots).Error
	return slots, err
}

func (r *gormSlotRepo) ListByProviderDay(ctx context.Context, providerID string, dayOfWeek int) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	err := database.Conn(ctx, r.db).Where("provider_id = ? AND day_of_week = ?", providerID, dayOfWeek).
		Order("start_time ASC").Find(&slots).Error
	return slots, err
}

func (r *gormSlotRepo) DeleteSlot(ctx context.Context, providerID, slotID string) error {
	res := database.Conn(ctx, r.db).Where("id = ? AND provider_id = ?", slotID, providerID).Delete(&models.AvailabilitySlot{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}
