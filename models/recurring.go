package models

import "time"

type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	return f == FrequencyWeekly || f == FrequencyBiweekly || f == FrequencyMonthly
}

// RecurringBookingTemplate generates one booking per occurrence.
// NextOccurrenceDate is a calendar date stored at UTC midnight.
type RecurringBookingTemplate struct {
	ID                 string          `bson:"id" json:"id" gorm:"primaryKey;size:64"`
	UserID             string          `bson:"userId" json:"userId" gorm:"size:64;index;not null"`
	ProviderID         string          `bson:"providerId" json:"providerId" gorm:"size:64;not null"`
	Frequency          Frequency       `bson:"frequency" json:"frequency" gorm:"size:16;not null"`
	NextOccurrenceDate time.Time       `bson:"nextOccurrenceDate" json:"nextOccurrenceDate" gorm:"index:idx_templates_due,priority:2;not null"`
	LastGeneratedDate  *time.Time      `bson:"lastGeneratedDate,omitempty" json:"lastGeneratedDate,omitempty"`
	EndDate            *time.Time      `bson:"endDate,omitempty" json:"endDate,omitempty"`
	IsActive           bool            `bson:"isActive" json:"isActive" gorm:"index:idx_templates_due,priority:1;not null"`
	TimeOfDay          int             `bson:"timeOfDay" json:"timeOfDay"` // minutes from midnight, engine timezone
	DurationMinutes    int             `bson:"durationMinutes" json:"durationMinutes"`
	SessionType        SessionType     `bson:"sessionType" json:"sessionType" gorm:"size:32"`
	FundingPreference  *AllocationType `bson:"fundingPreference,omitempty" json:"fundingPreference,omitempty" gorm:"size:16"`
	Notes              string          `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt          time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time       `bson:"updatedAt" json:"updatedAt"`
}

func (RecurringBookingTemplate) TableName() string { return "recurring_booking_templates" }

// TemplateAdvance is the state written when a template moves past an occurrence.
type TemplateAdvance struct {
	NextOccurrenceDate time.Time
	LastGeneratedDate  *time.Time
	IsActive           bool
	UpdatedAt          time.Time
}

// CreateTemplateRequest is the payload for registering a recurring schedule.
type CreateTemplateRequest struct {
	UserID            string          `json:"userId"`
	ProviderID        string          `json:"providerId" binding:"required"`
	Frequency         Frequency       `json:"frequency" binding:"required"`
	StartDate         string          `json:"startDate" binding:"required"` // YYYY-MM-DD
	EndDate           string          `json:"endDate,omitempty"`
	TimeOfDay         string          `json:"timeOfDay,omitempty"` // HH:MM
	DurationMinutes   int             `json:"durationMinutes,omitempty"`
	SessionType       SessionType     `json:"sessionType,omitempty"`
	FundingPreference *AllocationType `json:"fundingPreference,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}
