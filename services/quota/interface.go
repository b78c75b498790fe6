package quota

import (
	"context"
	"time"

	"wellness/models"
)

// Ledger tracks how many sessions each user may consume from which funding pool.
type Ledger interface {
	GetBalance(ctx context.Context, userID string) (models.Balance, error)
	// Debit consumes one unit. With a preference only that pool is considered.
	Debit(ctx context.Context, userID string, preferred *models.AllocationType, details DebitDetails) (*models.SessionUsageRecord, error)
	// Credit returns the unit held by a usage record and deletes the record.
	Credit(ctx context.Context, usageRecordID string) error
	// CreditBooking credits the record only while it still belongs to bookingID. It reports whether
	// a unit was returned; a missing or handed-on record is not an error.
	CreditBooking(ctx context.Context, usageRecordID, bookingID string) (bool, error)
	AdjustAllocation(ctx context.Context, req models.AdjustAllocationRequest) (*models.SessionAllocation, models.Balance, error)
	ListAllocations(ctx context.Context, userID string, includeInactive bool) ([]models.SessionAllocation, error)
	DeactivateAllocation(ctx context.Context, allocationID, reason string) (*models.SessionAllocation, error)
	// Retarget moves a usage record to the booking that now holds the unit.
	Retarget(ctx context.Context, usageRecordID, bookingID string, sessionDate time.Time) error
}

// DebitDetails describes the session a unit is consumed for.
type DebitDetails struct {
	ProviderID  string
	BookingID   string
	SessionDate time.Time
	Notes       string
}
