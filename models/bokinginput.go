package models

import "time"

// CreateBookingRequest is the input to interactive booking creation.
type CreateBookingRequest struct {
	UserID            string          `json:"userId"` // defaults to the caller
	ProviderID        string          `json:"providerId" binding:"required"`
	ScheduledAt       time.Time       `json:"scheduledAt" binding:"required"`
	DurationMinutes   int             `json:"durationMinutes"`
	SessionType       SessionType     `json:"sessionType"`
	Notes             string          `json:"notes,omitempty"`
	FundingPreference *AllocationType `json:"fundingPreference,omitempty"`
	RequireFunding    bool            `json:"requireFunding,omitempty"`
}

type CreateBookingResult struct {
	Booking   *Booking `json:"booking"`
	QuotaUsed bool     `json:"quotaUsed"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

type CancelBookingResult struct {
	Refunded bool `json:"refunded"`
}

type RescheduleBookingRequest struct {
	NewScheduledAt time.Time `json:"newScheduledAt" binding:"required"`
	Reason         string    `json:"reason,omitempty"`
}

type RescheduleBookingResult struct {
	OldBookingID string   `json:"oldBookingId"`
	NewBooking   *Booking `json:"newBooking"`
}

type StatusUpdateRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}

// BookingListResult is a page of bookings plus per-status counts over the whole filter.
type BookingListResult struct {
	Bookings []Booking             `json:"bookings"`
	Counts   map[BookingStatus]int `json:"counts"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"pageSize"`
	Total    int64                 `json:"total"`
}
