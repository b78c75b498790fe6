package models

import "time"

type BookingStatus string

const (
	BookingScheduled   BookingStatus = "scheduled"
	BookingConfirmed   BookingStatus = "confirmed"
	BookingCompleted   BookingStatus = "completed"
	BookingCancelled   BookingStatus = "cancelled"
	BookingRescheduled BookingStatus = "rescheduled"
	BookingNoShow      BookingStatus = "no_show"
)

// ActiveStatuses are the statuses that occupy a provider's calendar and can still be cancelled or rescheduled.
var ActiveStatuses = []BookingStatus{BookingScheduled, BookingConfirmed}

// AllStatuses lists every booking status, in lifecycle order.
var AllStatuses = []BookingStatus{
	BookingScheduled,
	BookingConfirmed,
	BookingCompleted,
	BookingCancelled,
	BookingRescheduled,
	BookingNoShow,
}

// IsActive reports whether the status still occupies the provider's calendar.
func (s BookingStatus) IsActive() bool {
	return s == BookingScheduled || s == BookingConfirmed
}

// IsTerminal reports whether no further lifecycle transition is permitted.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingRescheduled, BookingNoShow:
		return true
	}
	return false
}

func (s BookingStatus) Valid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// CanTransition encodes the booking state machine.
func CanTransition(from, to BookingStatus) bool {
	switch from {
	case BookingScheduled:
		return to == BookingConfirmed || to == BookingCancelled || to == BookingRescheduled || to == BookingNoShow
	case BookingConfirmed:
		return to == BookingCompleted || to == BookingCancelled || to == BookingRescheduled || to == BookingNoShow
	}
	return false
}

// StatusStrings converts statuses for store queries.
func StatusStrings(statuses []BookingStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

type SessionType string

const (
	SessionIndividual SessionType = "individual"
	SessionGroup      SessionType = "group"
	SessionEmergency  SessionType = "emergency"
)

func (t SessionType) Valid() bool {
	return t == SessionIndividual || t == SessionGroup || t == SessionEmergency
}

// Booking represents a single scheduled appointment between an employee and a provider.
type Booking struct {
	ID                       string        `bson:"id" json:"id" gorm:"primaryKey;size:64"`
	UserID                   string        `bson:"userId" json:"userId" gorm:"size:64;index;not null"`
	ProviderID               string        `bson:"providerId" json:"providerId" gorm:"size:64;index:idx_bookings_provider_window,priority:1;not null"`
	SessionUsageRecordID     *string       `bson:"sessionUsageRecordId,omitempty" json:"sessionUsageRecordId,omitempty" gorm:"size:64"` // nil when booked unfunded
	ScheduledAt              time.Time     `bson:"scheduledAt" json:"scheduledAt" gorm:"index:idx_bookings_provider_window,priority:2;not null"`
	EndsAt                   time.Time     `bson:"endsAt" json:"endsAt" gorm:"not null"` // scheduledAt + durationMinutes
	DurationMinutes          int           `bson:"durationMinutes" json:"durationMinutes" gorm:"not null"`
	SessionType              SessionType   `bson:"sessionType" json:"sessionType" gorm:"size:32;not null"`
	Status                   BookingStatus `bson:"status" json:"status" gorm:"size:32;index;not null"`
	RescheduledFromBookingID *string       `bson:"rescheduledFromBookingId,omitempty" json:"rescheduledFromBookingId,omitempty" gorm:"size:64"`
	RecurringTemplateID      *string       `bson:"recurringTemplateId,omitempty" json:"recurringTemplateId,omitempty" gorm:"size:64;index"`
	PriceCents               int64         `bson:"priceCents" json:"priceCents"`
	Currency                 string        `bson:"currency,omitempty" json:"currency,omitempty" gorm:"size:8"`
	Notes                    string        `bson:"notes,omitempty" json:"notes,omitempty"`
	CancelledBy              string        `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty" gorm:"size:64"`
	CancellationReason       string        `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	CreatedAt                time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt                time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (Booking) TableName() string { return "bookings" }

// Funded reports whether a quota unit backs this booking.
func (b *Booking) Funded() bool {
	return b.SessionUsageRecordID != nil && *b.SessionUsageRecordID != ""
}

// StatusChange carries the audit fields written alongside a status transition.
type StatusChange struct {
	CancelledBy        string
	CancellationReason string
	UpdatedAt          time.Time
}

// BookingFilter narrows booking listings. Either UserID or ProviderID is normally set.
type BookingFilter struct {
	UserID     string
	ProviderID string
	Statuses   []BookingStatus
	From       *time.Time // scheduledAt >= From
	To         *time.Time // scheduledAt < To
	Page       int
	PageSize   int
}

// Offset returns the number of rows to skip for the filter's page (1-based).
func (f BookingFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
