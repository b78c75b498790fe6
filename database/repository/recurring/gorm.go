package recurringRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellness/database"
	"wellness/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormRecurringRepo struct {
	db *gorm.DB
}

func NewGormRecurringRepo(db *gorm.DB) RecurringRepository {
	return &gormRecurringRepo{db: db}
}

func (r *gormRecurringRepo) Create(ctx context.Context, tmpl *models.RecurringBookingTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	if err := database.Conn(ctx, r.db).Create(tmpl).Error; err != nil {
		return fmt.Errorf("failed to insert recurring template: %w", err)
	}
	return nil
}

func (r *gormRecurringRepo) GetByID(ctx context.Context, id string) (*models.RecurringBookingTemplate, error) {
	var tmpl models.RecurringBookingTemplate
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *gormRecurringRepo) ListDue(ctx context.Context, today time.Time) ([]models.RecurringBookingTemplate, error) {
	var templates []models.RecurringBookingTemplate
	err := database.Conn(ctx, r.db).
		Where("is_active = ? AND next_occurrence_date <= ?", true, today).
		Order("next_occurrence_date ASC, id ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due templates: %w", err)
	}
	return templates, nil
}

func (r *gormRecurringRepo) ListByUser(ctx context.Context, userID string, includeInactive bool) ([]models.RecurringBookingTemplate, error) {
	q := database.Conn(ctx, r.db).Where("user_id = ?", userID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var templates []models.RecurringBookingTemplate
	if err := q.Order("next_occurrence_date ASC, id ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list recurring templates: %w", err)
	}
	return templates, nil
}

func (r *gormRecurringRepo) Advance(ctx context.Context, id string, expectedNext time.Time, adv models.TemplateAdvance) error {
	updates := map[string]interface{}{
		"next_occurrence_date": adv.NextOccurrenceDate,
		"is_active":            adv.IsActive,
		"updated_at":           adv.UpdatedAt,
	}
	if adv.LastGeneratedDate != nil {
		updates["last_generated_date"] = *adv.LastGeneratedDate
	}
	res := database.Conn(ctx, r.db).Model(&models.RecurringBookingTemplate{}).
		Where("id = ? AND is_active = ? AND next_occurrence_date = ?", id, true, expectedNext).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to advance recurring template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("template %s already advanced: %w", id, database.ErrConflict)
	}
	return nil
}

func (r *gormRecurringRepo) Deactivate(ctx context.Context, id string, now time.Time) error {
	res := database.Conn(ctx, r.db).Model(&models.RecurringBookingTemplate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate recurring template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}
