package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wellness/database"
	"wellness/database/dbtest"
	quotaRepo "wellness/database/repository/quota"
	"wellness/models"
	"wellness/utils"

	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) (*DefaultLedger, *utils.FixedClock) {
	t.Helper()
	db := dbtest.NewDB(t)
	clock := utils.NewFixedClock(t0)
	l := NewLedger(quotaRepo.NewGormQuotaRepo(db), database.NewGormTransactor(db), clock, nil)
	l.Logger = zap.NewNop()
	return l, clock
}

func grant(t *testing.T, l *DefaultLedger, userID string, typ models.AllocationType, n int, expires *time.Time) *models.SessionAllocation {
	t.Helper()
	now := l.Clock.Now()
	alloc := &models.SessionAllocation{
		UserID:            userID,
		AllocationType:    typ,
		SessionsAllocated: n,
		ExpiresAt:         expires,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := l.Repo.CreateAllocation(context.Background(), alloc); err != nil {
		t.Fatalf("create allocation: %v", err)
	}
	return alloc
}

func details() DebitDetails {
	return DebitDetails{ProviderID: "prov-1", SessionDate: t0.Add(48 * time.Hour)}
}

func TestDebitCreditRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	grant(t, l, "u1", models.AllocationCompany, 3, nil)

	rec, err := l.Debit(ctx, "u1", nil, details())
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	bal, _ := l.GetBalance(ctx, "u1")
	if bal.CompanyAvailable != 2 || bal.Total != 2 {
		t.Fatalf("after debit balance = %+v, want 2 company", bal)
	}

	if err := l.Credit(ctx, rec.ID); err != nil {
		t.Fatalf("credit: %v", err)
	}
	bal, _ = l.GetBalance(ctx, "u1")
	if bal.CompanyAvailable != 3 || bal.Total != 3 {
		t.Fatalf("after credit balance = %+v, want 3 company", bal)
	}

	if err := l.Credit(ctx, rec.ID); utils.KindOf(err) != utils.KindNotFound {
		t.Fatalf("second credit err = %v, want NOT_FOUND", err)
	}
	bal, _ = l.GetBalance(ctx, "u1")
	if bal.Total != 3 {
		t.Fatalf("double credit changed balance: %+v", bal)
	}
}

func TestCreditBookingOnlyReturnsOwnedRecord(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	grant(t, l, "u1", models.AllocationCompany, 2, nil)

	d := details()
	d.BookingID = "bk-2"
	rec, err := l.Debit(ctx, "u1", nil, d)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}

	credited, err := l.CreditBooking(ctx, rec.ID, "bk-1")
	if err != nil || credited {
		t.Fatalf("foreign credit = %v, %v; want false, nil", credited, err)
	}
	if bal, _ := l.GetBalance(ctx, "u1"); bal.Total != 1 {
		t.Fatalf("foreign credit changed balance: %+v", bal)
	}

	credited, err = l.CreditBooking(ctx, rec.ID, "bk-2")
	if err != nil || !credited {
		t.Fatalf("owner credit = %v, %v; want true, nil", credited, err)
	}
	if bal, _ := l.GetBalance(ctx, "u1"); bal.Total != 2 {
		t.Fatalf("after owner credit balance = %+v, want 2", bal)
	}

	credited, err = l.CreditBooking(ctx, rec.ID, "bk-2")
	if err != nil || credited {
		t.Fatalf("missing record credit = %v, %v; want false, nil", credited, err)
	}
}

func TestDebitFollowsPriorityOrder(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	company := grant(t, l, "u1", models.AllocationCompany, 1, nil)
	personal := grant(t, l, "u1", models.AllocationPersonal, 1, nil)

	first, err := l.Debit(ctx, "u1", nil, details())
	if err != nil {
		t.Fatalf("first debit: %v", err)
	}
	if first.SessionAllocationID != company.ID {
		t.Errorf("first debit used %s, want company allocation", first.SessionAllocationID)
	}
	second, err := l.Debit(ctx, "u1", nil, details())
	if err != nil {
		t.Fatalf("second debit: %v", err)
	}
	if second.SessionAllocationID != personal.ID {
		t.Errorf("second debit used %s, want personal allocation", second.SessionAllocationID)
	}
	if _, err := l.Debit(ctx, "u1", nil, details()); !IsNoQuota(err) {
		t.Fatalf("third debit err = %v, want NO_QUOTA", err)
	}
}

func TestDebitCustomPriority(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	l.Priority = ParsePriority([]string{"bonus", "bogus", "company"})
	grant(t, l, "u1", models.AllocationCompany, 1, nil)
	bonus := grant(t, l, "u1", models.AllocationBonus, 1, nil)
	personal := grant(t, l, "u1", models.AllocationPersonal, 1, nil)

	rec, err := l.Debit(ctx, "u1", nil, details())
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if rec.SessionAllocationID != bonus.ID {
		t.Fatalf("debit used %s, want bonus", rec.SessionAllocationID)
	}
	l.Debit(ctx, "u1", nil, details())
	if _, err := l.Debit(ctx, "u1", nil, details()); !IsNoQuota(err) {
		t.Fatalf("personal pool is not in the priority list, got %v", err)
	}
	if a, _ := l.Repo.GetAllocation(ctx, personal.ID); a.SessionsUsed != 0 {
		t.Fatalf("personal allocation was debited")
	}
}

func TestDebitPreferredPoolOnly(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	grant(t, l, "u1", models.AllocationPersonal, 2, nil)

	company := models.AllocationCompany
	if _, err := l.Debit(ctx, "u1", &company, details()); !IsNoQuota(err) {
		t.Fatalf("err = %v, want NO_QUOTA when the preferred pool is empty", err)
	}
	personal := models.AllocationPersonal
	if _, err := l.Debit(ctx, "u1", &personal, details()); err != nil {
		t.Fatalf("preferred personal debit: %v", err)
	}
	bogus := models.AllocationType("gift")
	if _, err := l.Debit(ctx, "u1", &bogus, details()); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestDebitOldestAllocationFirst(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLedger(t)
	older := grant(t, l, "u1", models.AllocationCompany, 1, nil)
	clock.Advance(time.Hour)
	grant(t, l, "u1", models.AllocationCompany, 5, nil)

	rec, err := l.Debit(ctx, "u1", nil, details())
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if rec.SessionAllocationID != older.ID {
		t.Fatalf("debit used %s, want the older allocation %s", rec.SessionAllocationID, older.ID)
	}
}

func TestDebitIgnoresExpiredAndInactive(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLedger(t)
	expiry := t0.Add(time.Hour)
	grant(t, l, "u1", models.AllocationCompany, 1, &expiry)
	inactive := grant(t, l, "u1", models.AllocationPersonal, 1, nil)
	if _, err := l.DeactivateAllocation(ctx, inactive.ID, "contract ended"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	clock.Advance(2 * time.Hour)
	bal, err := l.GetBalance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Total != 0 {
		t.Fatalf("balance = %+v, want zero", bal)
	}
	if _, err := l.Debit(ctx, "u1", nil, details()); !IsNoQuota(err) {
		t.Fatalf("err = %v, want NO_QUOTA", err)
	}
}

func TestDeactivatedAllocationCanStillBeCredited(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	alloc := grant(t, l, "u1", models.AllocationCompany, 2, nil)
	rec, err := l.Debit(ctx, "u1", nil, details())
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if _, err := l.DeactivateAllocation(ctx, alloc.ID, "policy change"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := l.Credit(ctx, rec.ID); err != nil {
		t.Fatalf("credit after deactivation: %v", err)
	}
	got, _ := l.Repo.GetAllocation(ctx, alloc.ID)
	if got.SessionsUsed != 0 || got.IsActive {
		t.Fatalf("allocation = %+v, want used 0 and inactive", got)
	}
}

func TestConcurrentDebitHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	alloc := grant(t, l, "u1", models.AllocationCompany, 1, nil)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Debit(ctx, "u1", nil, details())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case IsNoQuota(err):
		default:
			t.Errorf("unexpected debit error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	got, _ := l.Repo.GetAllocation(ctx, alloc.ID)
	if got.SessionsUsed != 1 || got.SessionsUsed > got.SessionsAllocated {
		t.Fatalf("allocation used=%d allocated=%d", got.SessionsUsed, got.SessionsAllocated)
	}
}

func TestAdjustAllocation(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	req := models.AdjustAllocationRequest{UserID: "u1", AllocationType: models.AllocationCompany, Operation: models.AdjustSubtract, Amount: 1}
	if _, _, err := l.AdjustAllocation(ctx, req); utils.KindOf(err) != utils.KindNotFound {
		t.Fatalf("subtract with no allocation err = %v, want NOT_FOUND", err)
	}

	req.Operation, req.Amount, req.Reason = models.AdjustAdd, 4, "annual grant"
	alloc, bal, err := l.AdjustAllocation(ctx, req)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if alloc.SessionsAllocated != 4 || bal.CompanyAvailable != 4 {
		t.Fatalf("after add alloc=%d balance=%+v", alloc.SessionsAllocated, bal)
	}

	for i := 0; i < 3; i++ {
		if _, err := l.Debit(ctx, "u1", nil, details()); err != nil {
			t.Fatalf("debit %d: %v", i, err)
		}
	}

	req.Operation, req.Amount = models.AdjustSubtract, 10
	alloc, bal, err = l.AdjustAllocation(ctx, req)
	if err != nil {
		t.Fatalf("subtract: %v", err)
	}
	if alloc.SessionsAllocated != 3 || bal.Total != 0 {
		t.Fatalf("subtract should floor at used: alloc=%+v balance=%+v", alloc, bal)
	}

	req.Operation, req.Amount = models.AdjustSet, 2
	if _, _, err := l.AdjustAllocation(ctx, req); !IsNoQuota(err) {
		t.Fatalf("set below used err = %v, want NO_QUOTA", err)
	}

	req.Operation, req.Amount = models.AdjustSet, 6
	alloc, bal, err = l.AdjustAllocation(ctx, req)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if alloc.SessionsAllocated != 6 || bal.CompanyAvailable != 3 {
		t.Fatalf("after set alloc=%+v balance=%+v", alloc, bal)
	}
	if alloc.Version != 2 {
		t.Errorf("version = %d, want 2 after two successful adjustments", alloc.Version)
	}

	req.Amount = -1
	if _, _, err := l.AdjustAllocation(ctx, req); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("negative amount err = %v, want VALIDATION_ERROR", err)
	}
}

func TestAllocationInvariantHoldsUnderMixedOperations(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	alloc := grant(t, l, "u1", models.AllocationCompany, 3, nil)

	var held []string
	for step := 0; step < 20; step++ {
		if step%3 == 2 && len(held) > 0 {
			if err := l.Credit(ctx, held[0]); err != nil {
				t.Fatalf("credit: %v", err)
			}
			held = held[1:]
		} else {
			rec, err := l.Debit(ctx, "u1", nil, details())
			if err != nil && !errors.Is(err, utils.ErrNoQuota) {
				t.Fatalf("debit: %v", err)
			}
			if rec != nil {
				held = append(held, rec.ID)
			}
		}
		got, _ := l.Repo.GetAllocation(ctx, alloc.ID)
		if got.SessionsUsed < 0 || got.SessionsUsed > got.SessionsAllocated {
			t.Fatalf("step %d: used=%d allocated=%d", step, got.SessionsUsed, got.SessionsAllocated)
		}
		if got.SessionsUsed != len(held) {
			t.Fatalf("step %d: used=%d but %d usage records held", step, got.SessionsUsed, len(held))
		}
	}
}
