package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellness/database"
	quotaRepo "wellness/database/repository/quota"
	"wellness/models"
	"wellness/utils"

	"go.uber.org/zap"
)

// DefaultLedger implements Ledger on top of a QuotaRepository.
type DefaultLedger struct {
	Repo     quotaRepo.QuotaRepository
	Tx       database.Transactor
	Clock    utils.Clock
	Priority []models.AllocationType
	Logger   *zap.Logger
}

// NewLedger builds a ledger. priority lists pool names in debit order; unknown names are ignored
// and an empty list falls back to company, personal, bonus.
func NewLedger(repo quotaRepo.QuotaRepository, tx database.Transactor, clock utils.Clock, priority []string) *DefaultLedger {
	return &DefaultLedger{
		Repo:     repo,
		Tx:       tx,
		Clock:    clock,
		Priority: ParsePriority(priority),
		Logger:   utils.GetLogger(),
	}
}

func ParsePriority(names []string) []models.AllocationType {
	var order []models.AllocationType
	seen := map[models.AllocationType]bool{}
	for _, n := range names {
		t := models.AllocationType(n)
		if t.Valid() && !seen[t] {
			order = append(order, t)
			seen[t] = true
		}
	}
	if len(order) == 0 {
		return append([]models.AllocationType(nil), models.AllocationTypes...)
	}
	return order
}

func (l *DefaultLedger) GetBalance(ctx context.Context, userID string) (models.Balance, error) {
	balance := models.Balance{UserID: userID}
	if userID == "" {
		return balance, utils.Validationf("userId is required")
	}
	allocs, err := l.Repo.ListAllocations(ctx, userID, false)
	if err != nil {
		return balance, fmt.Errorf("failed to load allocations: %w", err)
	}
	now := l.Clock.Now()
	for i := range allocs {
		if allocs[i].Usable(now) {
			balance.Add(allocs[i].AllocationType, allocs[i].Remaining())
		}
	}
	return balance, nil
}

func (l *DefaultLedger) Debit(ctx context.Context, userID string, preferred *models.AllocationType, details DebitDetails) (*models.SessionUsageRecord, error) {
	pools := l.Priority
	if preferred != nil {
		if !preferred.Valid() {
			return nil, utils.Validationf("unknown funding pool %q", *preferred)
		}
		pools = []models.AllocationType{*preferred}
	}

	var record *models.SessionUsageRecord
	err := l.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := l.Clock.Now()
		for _, pool := range pools {
			candidates, err := l.Repo.ListDebitable(ctx, userID, pool, now)
			if err != nil {
				return err
			}
			for _, alloc := range candidates {
				ok, err := l.Repo.TryIncrementUsed(ctx, alloc.ID, now)
				if err != nil {
					return err
				}
				if !ok {
					// lost the last unit to a concurrent debit
					continue
				}
				rec := &models.SessionUsageRecord{
					SessionAllocationID: alloc.ID,
					UserID:              userID,
					ProviderID:          details.ProviderID,
					BookingID:           details.BookingID,
					SessionDate:         details.SessionDate.UTC(),
					Notes:               details.Notes,
					CreatedAt:           now,
				}
				if err := l.Repo.CreateUsage(ctx, rec); err != nil {
					return err
				}
				record = rec
				return nil
			}
		}
		return utils.NewAppError(utils.KindNoQuota, "no remaining sessions in the requested funding pools", nil)
	})
	if err != nil {
		return nil, database.Classify(err, "allocation")
	}
	l.Logger.Debug("session debited",
		zap.String("userId", userID),
		zap.String("allocationId", record.SessionAllocationID),
		zap.String("usageRecordId", record.ID))
	return record, nil
}

func (l *DefaultLedger) Credit(ctx context.Context, usageRecordID string) error {
	err := l.Tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := l.Repo.GetUsage(ctx, usageRecordID)
		if err != nil {
			return err
		}
		if err := l.Repo.DeleteUsage(ctx, rec.ID); err != nil {
			return err
		}
		return l.Repo.DecrementUsed(ctx, rec.SessionAllocationID, l.Clock.Now())
	})
	if err != nil {
		return database.Classify(err, "usage record")
	}
	l.Logger.Debug("session credited", zap.String("usageRecordId", usageRecordID))
	return nil
}

func (l *DefaultLedger) CreditBooking(ctx context.Context, usageRecordID, bookingID string) (bool, error) {
	credited := false
	err := l.Tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := l.Repo.GetUsage(ctx, usageRecordID)
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if rec.BookingID != bookingID {
			return nil
		}
		if err := l.Repo.DeleteUsage(ctx, rec.ID); err != nil {
			return err
		}
		credited = true
		return l.Repo.DecrementUsed(ctx, rec.SessionAllocationID, l.Clock.Now())
	})
	if err != nil {
		return false, database.Classify(err, "usage record")
	}
	if credited {
		l.Logger.Debug("session credited", zap.String("usageRecordId", usageRecordID), zap.String("bookingId", bookingID))
	}
	return credited, nil
}

func (l *DefaultLedger) Retarget(ctx context.Context, usageRecordID, bookingID string, sessionDate time.Time) error {
	return database.Classify(l.Repo.RetargetUsage(ctx, usageRecordID, bookingID, sessionDate.UTC()), "usage record")
}

func (l *DefaultLedger) AdjustAllocation(ctx context.Context, req models.AdjustAllocationRequest) (*models.SessionAllocation, models.Balance, error) {
	if req.UserID == "" {
		return nil, models.Balance{}, utils.Validationf("userId is required")
	}
	if !req.AllocationType.Valid() {
		return nil, models.Balance{}, utils.Validationf("unknown allocation type %q", req.AllocationType)
	}
	if !req.Operation.Valid() {
		return nil, models.Balance{}, utils.Validationf("unknown operation %q", req.Operation)
	}
	if req.Amount < 0 {
		return nil, models.Balance{}, utils.Validationf("amount must not be negative")
	}

	var result *models.SessionAllocation
	err := l.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := l.Clock.Now()
		target, err := l.newestActive(ctx, req.UserID, req.AllocationType)
		if err != nil {
			return err
		}

		if target == nil {
			if req.Operation == models.AdjustSubtract {
				return utils.NotFoundf("no active %s allocation for user %s", req.AllocationType, req.UserID)
			}
			alloc := &models.SessionAllocation{
				UserID:            req.UserID,
				AllocationType:    req.AllocationType,
				SessionsAllocated: req.Amount,
				ExpiresAt:         req.ExpiresAt,
				IsActive:          true,
				Reason:            req.Reason,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := l.Repo.CreateAllocation(ctx, alloc); err != nil {
				return err
			}
			result = alloc
			return nil
		}

		allocated := target.SessionsAllocated
		switch req.Operation {
		case models.AdjustAdd:
			allocated += req.Amount
		case models.AdjustSubtract:
			allocated -= req.Amount
			if allocated < target.SessionsUsed {
				allocated = target.SessionsUsed
			}
		case models.AdjustSet:
			if req.Amount < target.SessionsUsed {
				return utils.NewAppError(utils.KindNoQuota,
					fmt.Sprintf("cannot set allocation below the %d sessions already used", target.SessionsUsed), nil)
			}
			allocated = req.Amount
		}

		if err := l.Repo.SetAllocated(ctx, target.ID, target.Version, allocated, req.Reason, now); err != nil {
			return err
		}
		updated, err := l.Repo.GetAllocation(ctx, target.ID)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, models.Balance{}, database.Classify(err, "allocation")
	}

	l.Logger.Info("allocation adjusted",
		zap.String("userId", req.UserID),
		zap.String("allocationId", result.ID),
		zap.String("operation", string(req.Operation)),
		zap.Int("amount", req.Amount),
		zap.Int("sessionsAllocated", result.SessionsAllocated),
		zap.String("reason", req.Reason))

	balance, err := l.GetBalance(ctx, req.UserID)
	if err != nil {
		return result, models.Balance{}, err
	}
	return result, balance, nil
}

// newestActive returns the most recently created active, unexpired allocation of the pool, or nil.
func (l *DefaultLedger) newestActive(ctx context.Context, userID string, t models.AllocationType) (*models.SessionAllocation, error) {
	allocs, err := l.Repo.ListAllocations(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	now := l.Clock.Now()
	for i := len(allocs) - 1; i >= 0; i-- {
		a := allocs[i]
		if a.AllocationType != t || !a.IsActive {
			continue
		}
		if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
			continue
		}
		return &a, nil
	}
	return nil, nil
}

func (l *DefaultLedger) ListAllocations(ctx context.Context, userID string, includeInactive bool) ([]models.SessionAllocation, error) {
	if userID == "" {
		return nil, utils.Validationf("userId is required")
	}
	allocs, err := l.Repo.ListAllocations(ctx, userID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	if allocs == nil {
		allocs = []models.SessionAllocation{}
	}
	return allocs, nil
}

func (l *DefaultLedger) DeactivateAllocation(ctx context.Context, allocationID, reason string) (*models.SessionAllocation, error) {
	if err := l.Repo.Deactivate(ctx, allocationID, reason, l.Clock.Now()); err != nil {
		return nil, database.Classify(err, "allocation")
	}
	alloc, err := l.Repo.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, database.Classify(err, "allocation")
	}
	l.Logger.Info("allocation deactivated", zap.String("allocationId", allocationID), zap.String("reason", reason))
	return alloc, nil
}

// IsNoQuota reports whether err means no funding pool had a unit left.
func IsNoQuota(err error) bool {
	return errors.Is(err, utils.ErrNoQuota)
}
