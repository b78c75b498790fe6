package providerRepo

import (
	"context"
	"errors"
	"fmt"

	"wellness/database"
	"wellness/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormProviderRepo struct {
	db *gorm.DB
}

func NewGormProviderRepo(db *gorm.DB) ProviderRepository {
	return &GormProviderRepo{db: db}
}

func (r *GormProviderRepo) Create(ctx context.Context, provider *models.Provider) error {
	if provider.ID == "" {
		provider.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if _, err := r.getByID(tx, provider.ID); err == nil {
			return fmt.Errorf("provider %s: %w", provider.ID, database.ErrConflict)
		}
		if err := tx.Create(provider).Error; err != nil {
			return fmt.Errorf("failed to insert provider: %w", err)
		}
		cal := models.ProviderCalendar{ProviderID: provider.ID, UpdatedAt: provider.CreatedAt}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cal).Error; err != nil {
			return fmt.Errorf("failed to create provider calendar: %w", err)
		}
		return nil
	})
}

func (r *GormProviderRepo) getByID(db *gorm.DB, id string) (*models.Provider, error) {
	var provider models.Provider
	err := db.Where("id = ?", id).First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching provider with id %s: %w", id, err)
	}
	return &provider, nil
}

func (r *GormProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	return r.getByID(database.Conn(ctx, r.db), id)
}

func (r *GormProviderRepo) GetAll(ctx context.Context, category models.ProviderCategory) ([]models.Provider, error) {
	q := database.Conn(ctx, r.db)
	if category != "" {
		q = q.Where("category = ?", string(category))
	}
	var providers []models.Provider
	if err := q.Order("name ASC").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *GormProviderRepo) SetActive(ctx context.Context, id string, active bool) error {
	res := database.Conn(ctx, r.db).Model(&models.Provider{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}
