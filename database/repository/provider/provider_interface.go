package providerRepo

import (
	"context"

	"wellness/models"
)

// ProviderRepository defines methods for provider directory access.
type ProviderRepository interface {
	// Create inserts a new provider and its calendar lock record.
	Create(ctx context.Context, provider *models.Provider) error
	// GetByID retrieves a provider by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// GetAll retrieves providers, optionally restricted to one category.
	GetAll(ctx context.Context, category models.ProviderCategory) ([]models.Provider, error)
	// SetActive enables or disables a provider for new bookings.
	SetActive(ctx context.Context, id string, active bool) error
}
