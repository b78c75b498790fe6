// File: database/repository/quota/interface.go
package quotaRepo

import (
	"context"
	"time"

	"wellness/models"
)

// QuotaRepository persists allocations and the usage records that consume them.
type QuotaRepository interface {
	CreateAllocation(ctx context.Context, alloc *models.SessionAllocation) error
	GetAllocation(ctx context.Context, id string) (*models.SessionAllocation, error)
	// ListAllocations returns the user's allocations, oldest first.
	ListAllocations(ctx context.Context, userID string, includeInactive bool) ([]models.SessionAllocation, error)
	// ListDebitable returns active, unexpired allocations of one pool with remaining balance, oldest first.
	ListDebitable(ctx context.Context, userID string, allocType models.AllocationType, now time.Time) ([]models.SessionAllocation, error)
	// TryIncrementUsed consumes one unit if the allocation is still debitable. false means the race was lost.
	TryIncrementUsed(ctx context.Context, id string, now time.Time) (bool, error)
	// DecrementUsed returns one unit. ErrConflict when nothing is in use.
	DecrementUsed(ctx context.Context, id string, now time.Time) error
	// SetAllocated changes the grant if the version matches and it stays >= sessionsUsed.
	SetAllocated(ctx context.Context, id string, expectedVersion, allocated int, reason string, now time.Time) error
	Deactivate(ctx context.Context, id, reason string, now time.Time) error

	CreateUsage(ctx context.Context, rec *models.SessionUsageRecord) error
	GetUsage(ctx context.Context, id string) (*models.SessionUsageRecord, error)
	DeleteUsage(ctx context.Context, id string) error
	// RetargetUsage moves a usage record to the booking that now holds it.
	RetargetUsage(ctx context.Context, id, bookingID string, sessionDate time.Time) error
}
