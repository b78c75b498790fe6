package quotaRepo

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

type gormQuotaRepo struct {
	db *gorm.DB
}

// NewGormQuotaRepo constructs a QuotaRepository over postgres or sqlite.
func NewGormQuotaRepo(db *gorm.DB) QuotaRepository {
	return &gormQuotaRepo{db: db}
}

func (r *gormQuotaRepo) CreateAllocation(ctx context.Context, alloc *models.SessionAllocation) error {
	if alloc.ID == "" {
		alloc.ID = uuid.New().String()
	}
	if err := database.Conn(ctx, r.db).Create(alloc).Error; err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	return nil
}

func (r *gormQuotaRepo) GetAllocation(ctx context.Context, id string) (*models.SessionAllocation, error) {
	var alloc models.SessionAllocation
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&alloc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}

func (r *gormQuotaRepo) ListAllocations(ctx context.Context, userID string, includeInactive bool) ([]models.SessionAllocation, error) {
	q := database.Conn(ctx, r.db).Where("user_id = ?", userID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var allocs []models.SessionAllocation
	if err := q.Order("created_at ASC, id ASC").Find(&allocs).Error; err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return allocs, nil
}

func (r *gormQuotaRepo) ListDebitable(ctx context.Context, userID string, allocType models.AllocationType, now time.Time) ([]models.SessionAllocation, error) {
	var allocs []models.SessionAllocation
	err := database.Conn(ctx, r.db).
		Where("user_id = ? AND allocation_type = ? AND is_active = ?", userID, string(allocType), true).
		Where("sessions_used < sessions_allocated").
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Order("created_at ASC, id ASC").
		Find(&allocs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list debitable allocations: %w", err)
	}
	return allocs, nil
}

func (r *gormQuotaRepo) TryIncrementUsed(ctx context.Context, id string, now time.Time) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&models.SessionAllocation{}).
		Where("id = ? AND is_active = ? AND sessions_used < sessions_allocated", id, true).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Updates(map[string]interface{}{
			"sessions_used": gorm.Expr("sessions_used + 1"),
			"updated_at":    now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to debit allocation: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *gormQuotaRepo) DecrementUsed(ctx context.Context, id string, now time.Time) error {
	res := database.Conn(ctx, r.db).Model(&models.SessionAllocation{}).
		Where("id = ? AND sessions_used > 0", id).
		Updates(map[string]interface{}{
			"sessions_used": gorm.Expr("sessions_used - 1"),
			"updated_at":    now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to credit allocation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("allocation %s has no sessions in use: %w", id, database.ErrConflict)
	}
	return nil
}

func (r *gormQuotaRepo) SetAllocated(ctx context.Context, id string, expectedVersion, allocated int, reason string, now time.Time) error {
	res := database.Conn(ctx, r.db).Model(&models.SessionAllocation{}).
		Where("id = ? AND version = ? AND sessions_used <= ?", id, expectedVersion, allocated).
		Updates(map[string]interface{}{
			"sessions_allocated": allocated,
			"reason":             reason,
			"updated_at":         now,
			"version":            gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to adjust allocation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("allocation %s (version mismatch or below usage): %w", id, database.ErrConflict)
	}
	return nil
}

func (r *gormQuotaRepo) Deactivate(ctx context.Context, id, reason string, now time.Time) error {
	res := database.Conn(ctx, r.db).Model(&models.SessionAllocation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"reason":     reason,
			"updated_at": now,
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate allocation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *gormQuotaRepo) CreateUsage(ctx context.Context, rec *models.SessionUsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if err := database.Conn(ctx, r.db).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

func (r *gormQuotaRepo) GetUsage(ctx context.Context, id string) (*models.SessionUsageRecord, error) {
	var rec models.SessionUsageRecord
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *gormQuotaRepo) DeleteUsage(ctx context.Context, id string) error {
	res := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&models.SessionUsageRecord{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete usage record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *gormQuotaRepo) RetargetUsage(ctx context.Context, id, bookingID string, sessionDate time.Time) error {
	res := database.Conn(ctx, r.db).Model(&models.SessionUsageRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"booking_id": bookingID, "session_date": sessionDate})
	if res.Error != nil {
		return fmt.Errorf("failed to retarget usage record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}
