package models

import "time"

// AvailabilitySlot is a recurring weekly window in which a provider accepts bookings.
type AvailabilitySlot struct {
	ID          string    `bson:"id" json:"id" gorm:"primaryKey;size:64"`
	ProviderID  string    `bson:"providerId" json:"providerId" gorm:"size:64;index:idx_slots_provider_day,priority:1;not null"`
	DayOfWeek   int       `bson:"dayOfWeek" json:"dayOfWeek" gorm:"index:idx_slots_provider_day,priority:2"` // 0 = Sunday
	StartTime   int       `bson:"startTime" json:"startTime"`                                                // minutes from midnight (e.g., 540 for 9:00 AM)
	EndTime     int       `bson:"endTime" json:"endTime"`                                                    // minutes from midnight, at most 1440
	Timezone    string    `bson:"timezone" json:"timezone" gorm:"size:64"`
	IsAvailable bool      `bson:"isAvailable" json:"isAvailable"`
	Version     int       `bson:"version" json:"version"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (AvailabilitySlot) TableName() string { return "availability_slots" }

// Overlaps reports whether two slot ranges on the same day share any minute.
func (s *AvailabilitySlot) Overlaps(other *AvailabilitySlot) bool {
	return s.DayOfWeek == other.DayOfWeek && s.StartTime < other.EndTime && other.StartTime < s.EndTime
}

// Contains reports whether [start, end) minutes fit entirely inside the slot.
func (s *AvailabilitySlot) Contains(start, end int) bool {
	return s.StartTime <= start && end <= s.EndTime
}

// SlotInput is the payload for creating or replacing an availability slot.
type SlotInput struct {
	ID          string `json:"id,omitempty"` // empty creates a new slot
	DayOfWeek   int    `json:"dayOfWeek"`
	StartTime   string `json:"startTime" binding:"required"` // HH:MM
	EndTime     string `json:"endTime" binding:"required"`   // HH:MM, "24:00" allowed
	Timezone    string `json:"timezone,omitempty"`
	IsAvailable *bool  `json:"isAvailable,omitempty"`
}

// AvailabilityResponse answers a point availability query.
type AvailabilityResponse struct {
	ProviderID      string    `json:"providerId"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"durationMinutes"`
	Available       bool      `json:"available"`
}
