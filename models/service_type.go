package models

// Rate is the price of one session as quoted by the pricing collaborator.
type Rate struct {
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

// DispatchReport summarises one recurring dispatch run.
type DispatchReport struct {
	DispatchedCount  int      `json:"dispatchedCount"`
	SkippedCount     int      `json:"skippedCount"`
	DeactivatedCount int      `json:"deactivatedCount"`
	DroppedCount     int      `json:"droppedCount"` // past occurrences rolled over without a booking
	BookingIDs       []string `json:"bookingIds,omitempty"`
	Errors           []string `json:"errors"`
}

// PriceFor scales an hourly rate to a session of the given length, rounded to the nearest cent.
func (r Rate) PriceFor(minutes int) int64 {
	return (r.AmountCents*int64(minutes) + 30) / 60
}
