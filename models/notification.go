package models

import "time"

type EventType string

const (
	EventBookingCreated     EventType = "booking.created"
	EventBookingCancelled   EventType = "booking.cancelled"
	EventBookingRescheduled EventType = "booking.rescheduled"
	EventBookingConfirmed   EventType = "booking.confirmed"
	EventBookingCompleted   EventType = "booking.completed"
	EventBookingNoShow      EventType = "booking.no_show"
	EventBookingDeleted     EventType = "booking.deleted"
)

// BookingEvent is a fire-and-forget lifecycle notification. Content and delivery belong to the consumer.
type BookingEvent struct {
	ID               string    `json:"id"`
	Type             EventType `json:"type"`
	BookingID        string    `json:"bookingId"`
	RelatedBookingID string    `json:"relatedBookingId,omitempty"` // the replaced booking on reschedule
	RecipientIDs     []string  `json:"recipientIds"`
	OccurredAt       time.Time `json:"occurredAt"`
}
