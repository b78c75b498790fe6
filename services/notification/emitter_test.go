package notification

import (
	"context"
	"testing"
	"time"

	"wellness/models"
)

func TestNewEvent(t *testing.T) {
	at := time.Date(2026, 3, 2, 11, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	b := &models.Booking{ID: "b2", UserID: "u1", ProviderID: "P"}

	e := NewEvent(models.EventBookingRescheduled, b, "b1", at)
	if e.ID == "" || e.BookingID != "b2" || e.RelatedBookingID != "b1" {
		t.Errorf("event = %+v", e)
	}
	if len(e.RecipientIDs) != 2 || e.RecipientIDs[0] != "u1" || e.RecipientIDs[1] != "P" {
		t.Errorf("recipients = %v, want [u1 P]", e.RecipientIDs)
	}
	if e.OccurredAt.Location() != time.UTC || !e.OccurredAt.Equal(at) {
		t.Errorf("occurredAt = %v, want %v in UTC", e.OccurredAt, at)
	}

	self := NewEvent(models.EventBookingCreated, &models.Booking{ID: "b3", UserID: "x", ProviderID: "x"}, "", at)
	if len(self.RecipientIDs) != 1 {
		t.Errorf("recipients = %v, want a single entry", self.RecipientIDs)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	b := &models.Booking{ID: "b1", UserID: "u1", ProviderID: "P"}
	now := time.Now()
	r.Emit(context.Background(), NewEvent(models.EventBookingCreated, b, "", now))
	r.Emit(context.Background(), NewEvent(models.EventBookingCancelled, b, "", now))
	r.Emit(context.Background(), NewEvent(models.EventBookingCreated, b, "", now))

	if got := len(r.Events()); got != 3 {
		t.Fatalf("events = %d, want 3", got)
	}
	if got := len(r.OfType(models.EventBookingCreated)); got != 2 {
		t.Errorf("created events = %d, want 2", got)
	}
}
