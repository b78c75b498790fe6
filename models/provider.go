package models

import "time"

type ProviderCategory string

const (
	CategoryMentalHealth     ProviderCategory = "mental_health"
	CategoryPhysicalWellness ProviderCategory = "physical_wellness"
	CategoryFinancial        ProviderCategory = "financial"
	CategoryLegal            ProviderCategory = "legal"
)

func (c ProviderCategory) Valid() bool {
	switch c {
	case CategoryMentalHealth, CategoryPhysicalWellness, CategoryFinancial, CategoryLegal:
		return true
	}
	return false
}

// Provider is a directory entry for a wellness professional.
type Provider struct {
	ID              string           `bson:"id" json:"id" gorm:"primaryKey;size:64"`
	Name            string           `bson:"name" json:"name" gorm:"not null"`
	Email           string           `bson:"email,omitempty" json:"email,omitempty"`
	Category        ProviderCategory `bson:"category" json:"category" gorm:"size:32;not null"`
	HourlyRateCents *int64           `bson:"hourlyRateCents,omitempty" json:"hourlyRateCents,omitempty"` // overrides the category rate card
	Currency        string           `bson:"currency,omitempty" json:"currency,omitempty" gorm:"size:8"`
	IsActive        bool             `bson:"isActive" json:"isActive"`
	CreatedAt       time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time        `bson:"updatedAt" json:"updatedAt"`
}

func (Provider) TableName() string { return "providers" }

// ProviderCalendar is the per-provider lock record bumped by every calendar write.
type ProviderCalendar struct {
	ProviderID string    `bson:"providerId" json:"providerId" gorm:"primaryKey;size:64"`
	Version    int64     `bson:"version" json:"version" gorm:"not null;default:0"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (ProviderCalendar) TableName() string { return "provider_calendars" }

// RegisterProviderRequest is the admin payload for adding a provider to the directory.
type RegisterProviderRequest struct {
	ID              string           `json:"id,omitempty"`
	Name            string           `json:"name" binding:"required"`
	Email           string           `json:"email,omitempty"`
	Category        ProviderCategory `json:"category" binding:"required"`
	HourlyRateCents *int64           `json:"hourlyRateCents,omitempty"`
	Currency        string           `json:"currency,omitempty"`
}
