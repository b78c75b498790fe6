package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wellness/database"
	"wellness/database/dbtest"
	providerRepo "wellness/database/repository/provider"
	quotaRepo "wellness/database/repository/quota"
	schedulerRepo "wellness/database/repository/scheduler"
	timeslotRepo "wellness/database/repository/timeslot"
	"wellness/models"
	"wellness/services/availability"
	"wellness/services/notification"
	"wellness/services/pricing"
	"wellness/services/quota"
	"wellness/utils"

	"go.uber.org/zap"
)

// 2026-03-02 is a Monday; the clock starts at 08:00 that day.
var (
	monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	now0   = monday.Add(8 * time.Hour)
)

var (
	admin    = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	employee = models.Actor{ID: "u1", Role: models.RoleEmployee}
	other    = models.Actor{ID: "u2", Role: models.RoleEmployee}
	provider = models.Actor{ID: "P", Role: models.RoleProvider}
)

type fixture struct {
	m      *Manager
	quota  quotaRepo.QuotaRepository
	clock  *utils.FixedClock
	events *notification.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.NewDB(t)
	tx := database.NewGormTransactor(db)
	clock := utils.NewFixedClock(now0)
	slots := timeslotRepo.NewGormSlotRepo(db)
	sched := schedulerRepo.NewGormSchedulerRepo(db)
	providers := providerRepo.NewGormProviderRepo(db)
	qrepo := quotaRepo.NewGormQuotaRepo(db)

	checker := availability.NewChecker(slots, sched, providers, tx, clock, "UTC")
	checker.Logger = zap.NewNop()
	ledger := quota.NewLedger(qrepo, tx, clock, nil)
	ledger.Logger = zap.NewNop()
	rates := pricing.NewRateLookup(providers, nil)
	rates.Logger = zap.NewNop()
	events := &notification.Recorder{}

	m := NewManager(sched, providers, checker, ledger, rates, events, tx, clock,
		Policy{AllowUnfunded: true, MaxSessionMinutes: 240})
	m.Logger = zap.NewNop()

	ctx := context.Background()
	if err := providers.Create(ctx, &models.Provider{ID: "P", Name: "Dr. P", Category: models.CategoryMentalHealth, IsActive: true}); err != nil {
		t.Fatalf("create provider: %v", err)
	}
	// Weekdays 09:00-17:00.
	for day := time.Monday; day <= time.Friday; day++ {
		if _, err := checker.UpsertSlot(ctx, admin, "P", models.SlotInput{DayOfWeek: int(day), StartTime: "09:00", EndTime: "17:00"}); err != nil {
			t.Fatalf("upsert slot: %v", err)
		}
	}
	return &fixture{m: m, quota: qrepo, clock: clock, events: events}
}

func (f *fixture) grant(t *testing.T, userID string, n int) *models.SessionAllocation {
	t.Helper()
	alloc := &models.SessionAllocation{
		UserID:            userID,
		AllocationType:    models.AllocationCompany,
		SessionsAllocated: n,
		IsActive:          true,
		CreatedAt:         now0,
		UpdatedAt:         now0,
	}
	if err := f.quota.CreateAllocation(context.Background(), alloc); err != nil {
		t.Fatalf("create allocation: %v", err)
	}
	return alloc
}

func (f *fixture) used(t *testing.T, allocationID string) int {
	t.Helper()
	alloc, err := f.quota.GetAllocation(context.Background(), allocationID)
	if err != nil {
		t.Fatalf("get allocation: %v", err)
	}
	return alloc.SessionsUsed
}

func (f *fixture) book(t *testing.T, actor models.Actor, at time.Time) *models.CreateBookingResult {
	t.Helper()
	res, err := f.m.Create(context.Background(), actor, models.CreateBookingRequest{
		ProviderID:      "P",
		ScheduledAt:     at,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("create booking at %s: %v", at.Format(time.RFC3339), err)
	}
	return res
}

func TestCreateFundedThenUnfunded(t *testing.T) {
	f := newFixture(t)
	alloc := f.grant(t, "u1", 1)

	first := f.book(t, employee, now0.Add(1*time.Hour))
	if !first.QuotaUsed || !first.Booking.Funded() {
		t.Fatalf("first booking should be funded: %+v", first)
	}
	if first.Booking.Status != models.BookingScheduled {
		t.Errorf("status = %s, want scheduled", first.Booking.Status)
	}
	if first.Booking.PriceCents != 12000 || first.Booking.Currency != pricing.DefaultCurrency {
		t.Errorf("price = %d %s", first.Booking.PriceCents, first.Booking.Currency)
	}
	if got := f.used(t, alloc.ID); got != 1 {
		t.Fatalf("sessionsUsed = %d, want 1", got)
	}

	second := f.book(t, employee, now0.Add(2*time.Hour))
	if second.QuotaUsed || second.Booking.SessionUsageRecordID != nil {
		t.Fatalf("second booking should be unfunded: %+v", second)
	}
	if got := f.used(t, alloc.ID); got != 1 {
		t.Errorf("sessionsUsed = %d after unfunded booking, want 1", got)
	}

	created := f.events.OfType(models.EventBookingCreated)
	if len(created) != 2 {
		t.Fatalf("created events = %d, want 2", len(created))
	}
	if r := created[0].RecipientIDs; len(r) != 2 || r[0] != "u1" || r[1] != "P" {
		t.Errorf("recipients = %v, want [u1 P]", r)
	}
}

func TestCreateRequiringFundingFailsWithoutQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.m.Create(ctx, employee, models.CreateBookingRequest{
		ProviderID: "P", ScheduledAt: now0.Add(time.Hour), DurationMinutes: 60, RequireFunding: true,
	})
	if !errors.Is(err, utils.ErrNoQuota) {
		t.Fatalf("err = %v, want NO_QUOTA", err)
	}

	f.m.Policy.AllowUnfunded = false
	_, err = f.m.Create(ctx, employee, models.CreateBookingRequest{
		ProviderID: "P", ScheduledAt: now0.Add(time.Hour), DurationMinutes: 60,
	})
	if !errors.Is(err, utils.ErrNoQuota) {
		t.Fatalf("policy forbids unfunded: err = %v, want NO_QUOTA", err)
	}

	list, err := f.m.List(ctx, admin, models.BookingFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Total != 0 {
		t.Errorf("rejected bookings were persisted: %d", list.Total)
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		name string
		req  models.CreateBookingRequest
	}{
		{"past", models.CreateBookingRequest{ProviderID: "P", ScheduledAt: now0.Add(-time.Hour), DurationMinutes: 60}},
		{"now", models.CreateBookingRequest{ProviderID: "P", ScheduledAt: now0, DurationMinutes: 60}},
		{"sub-minute", models.CreateBookingRequest{ProviderID: "P", ScheduledAt: monday.Add(10*time.Hour + 45*time.Second), DurationMinutes: 60}},
		{"zero duration", models.CreateBookingRequest{ProviderID: "P", ScheduledAt: now0.Add(time.Hour)}},
		{"too long", models.CreateBookingRequest{ProviderID: "P", ScheduledAt: now0.Add(time.Hour), DurationMinutes: 300}},
		{"session type", models.CreateBookingRequest{ProviderID: "P", ScheduledAt: now0.Add(time.Hour), DurationMinutes: 60, SessionType: "couples"}},
		{"no provider", models.CreateBookingRequest{ScheduledAt: now0.Add(time.Hour), DurationMinutes: 60}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.m.Create(ctx, employee, tc.req); utils.KindOf(err) != utils.KindValidation {
				t.Errorf("err = %v, want VALIDATION_ERROR", err)
			}
		})
	}

	_, err := f.m.Create(ctx, employee, models.CreateBookingRequest{ProviderID: "nobody", ScheduledAt: now0.Add(time.Hour), DurationMinutes: 60})
	if utils.KindOf(err) != utils.KindNotFound {
		t.Errorf("unknown provider: err = %v, want NOT_FOUND", err)
	}
	_, err = f.m.Create(ctx, employee, models.CreateBookingRequest{UserID: "u2", ProviderID: "P", ScheduledAt: now0.Add(time.Hour), DurationMinutes: 60})
	if !errors.Is(err, utils.ErrAuthorizationDenied) {
		t.Errorf("booking for someone else: err = %v, want AUTHORIZATION_DENIED", err)
	}
	if len(f.events.Events()) != 0 {
		t.Errorf("rejected requests emitted events")
	}
}

func TestCreateOutsideAvailability(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.Create(context.Background(), employee, models.CreateBookingRequest{
		ProviderID: "P", ScheduledAt: monday.Add(16*time.Hour + 30*time.Minute), DurationMinutes: 60,
	})
	if !errors.Is(err, utils.ErrSlotUnavailable) {
		t.Fatalf("err = %v, want SLOT_UNAVAILABLE", err)
	}
}

func TestCancelRefundsOnceThenTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alloc := f.grant(t, "u1", 2)
	b := f.book(t, employee, now0.Add(72*time.Hour+time.Hour)).Booking

	res, err := f.m.Cancel(ctx, employee, b.ID, "conflict at work")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !res.Refunded {
		t.Error("funded booking was not refunded")
	}
	if got := f.used(t, alloc.ID); got != 0 {
		t.Errorf("sessionsUsed = %d after refund, want 0", got)
	}
	if _, err := f.quota.GetUsage(ctx, *b.SessionUsageRecordID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("usage record survived refund: %v", err)
	}

	got, err := f.m.Get(ctx, employee, b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.BookingCancelled || got.CancelledBy != "u1" || got.CancellationReason != "conflict at work" {
		t.Errorf("cancelled booking = %+v", got)
	}

	_, err = f.m.Cancel(ctx, employee, b.ID, "")
	if !errors.Is(err, utils.ErrCannotCancelTerminal) {
		t.Fatalf("second cancel: err = %v, want CANNOT_CANCEL_TERMINAL", err)
	}
	if got := f.used(t, alloc.ID); got != 0 {
		t.Errorf("second cancel changed sessionsUsed to %d", got)
	}
	if n := len(f.events.OfType(models.EventBookingCancelled)); n != 1 {
		t.Errorf("cancelled events = %d, want 1", n)
	}
}

func TestCancelRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, employee, now0.Add(2*time.Hour)).Booking

	if _, err := f.m.Cancel(ctx, other, b.ID, ""); !errors.Is(err, utils.ErrAuthorizationDenied) {
		t.Errorf("stranger cancel: err = %v, want AUTHORIZATION_DENIED", err)
	}
	if _, err := f.m.Cancel(ctx, employee, "missing", ""); utils.KindOf(err) != utils.KindNotFound {
		t.Errorf("missing booking: err = %v, want NOT_FOUND", err)
	}

	f.clock.Advance(3 * time.Hour)
	if _, err := f.m.Cancel(ctx, employee, b.ID, ""); !errors.Is(err, utils.ErrCannotCancelPast) {
		t.Errorf("past cancel: err = %v, want CANNOT_CANCEL_PAST", err)
	}

	f.clock.Set(now0)
	res, err := f.m.Cancel(ctx, provider, b.ID, "provider ill")
	if err != nil {
		t.Fatalf("provider cancel: %v", err)
	}
	if res.Refunded {
		t.Error("unfunded booking reported a refund")
	}
}

func TestRescheduleIntoOccupiedWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// Monday 10:00 and Tuesday 10:00 of the following week.
	b := f.book(t, employee, monday.Add(7*24*time.Hour+10*time.Hour)).Booking
	f.book(t, other, monday.Add(8*24*time.Hour+10*time.Hour))

	_, err := f.m.Reschedule(ctx, employee, b.ID, models.RescheduleBookingRequest{NewScheduledAt: monday.Add(8*24*time.Hour + 10*time.Hour)})
	if !errors.Is(err, utils.ErrSlotUnavailable) {
		t.Fatalf("err = %v, want SLOT_UNAVAILABLE", err)
	}

	got, err := f.m.Get(ctx, employee, b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.BookingScheduled || !got.ScheduledAt.Equal(b.ScheduledAt) {
		t.Errorf("original booking changed: %+v", got)
	}
	if n := len(f.events.OfType(models.EventBookingRescheduled)); n != 0 {
		t.Errorf("rescheduled events = %d, want 0", n)
	}
}

func TestRescheduleRejectsSubMinuteTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, employee, monday.Add(7*24*time.Hour+10*time.Hour)).Booking

	_, err := f.m.Reschedule(ctx, employee, b.ID, models.RescheduleBookingRequest{NewScheduledAt: monday.Add(7*24*time.Hour + 11*time.Hour + 30*time.Second)})
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
	got, err := f.m.Get(ctx, employee, b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.BookingScheduled {
		t.Errorf("status = %s, want scheduled", got.Status)
	}
}

func TestRescheduleConservesQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alloc := f.grant(t, "u1", 1)
	old := f.book(t, employee, now0.Add(2*time.Hour)).Booking

	newAt := now0.Add(3 * time.Hour)
	res, err := f.m.Reschedule(ctx, employee, old.ID, models.RescheduleBookingRequest{NewScheduledAt: newAt, Reason: "dentist"})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	nb := res.NewBooking
	if res.OldBookingID != old.ID || nb.RescheduledFromBookingID == nil || *nb.RescheduledFromBookingID != old.ID {
		t.Errorf("new booking does not link back: %+v", res)
	}
	if nb.Status != models.BookingScheduled || !nb.ScheduledAt.Equal(newAt) {
		t.Errorf("new booking = %+v", nb)
	}
	if nb.SessionUsageRecordID == nil || *nb.SessionUsageRecordID != *old.SessionUsageRecordID {
		t.Fatalf("usage record not carried forward")
	}
	if got := f.used(t, alloc.ID); got != 1 {
		t.Errorf("sessionsUsed = %d after reschedule, want 1", got)
	}

	usage, err := f.quota.GetUsage(ctx, *nb.SessionUsageRecordID)
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if usage.BookingID != nb.ID || !usage.SessionDate.Equal(newAt) {
		t.Errorf("usage record not retargeted: %+v", usage)
	}

	orig, err := f.m.Get(ctx, admin, old.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if orig.Status != models.BookingRescheduled {
		t.Errorf("original status = %s, want rescheduled", orig.Status)
	}

	// Moving within its own window only excludes itself.
	if _, err := f.m.Reschedule(ctx, employee, nb.ID, models.RescheduleBookingRequest{NewScheduledAt: newAt.Add(30 * time.Minute)}); err != nil {
		t.Fatalf("overlapping self reschedule: %v", err)
	}
	if _, err := f.m.Reschedule(ctx, employee, old.ID, models.RescheduleBookingRequest{NewScheduledAt: newAt.Add(2 * time.Hour)}); !errors.Is(err, utils.ErrConflict) {
		t.Errorf("rescheduling a terminal booking: err = %v, want CONFLICT", err)
	}

	ev := f.events.OfType(models.EventBookingRescheduled)
	if len(ev) != 2 || ev[0].BookingID != nb.ID || ev[0].RelatedBookingID != old.ID {
		t.Errorf("rescheduled events = %+v", ev)
	}
}

func TestConcurrentCreatesNeverDoubleBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	base := now0.Add(2 * time.Hour)

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := models.Actor{ID: "u" + string(rune('a'+i)), Role: models.RoleEmployee}
			_, errs[i] = f.m.Create(ctx, actor, models.CreateBookingRequest{
				ProviderID:      "P",
				ScheduledAt:     base.Add(time.Duration(i*10) * time.Minute),
				DurationMinutes: 60,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, utils.ErrSlotUnavailable):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d overlapping bookings succeeded, want 1", wins)
	}

	list, err := f.m.List(ctx, admin, models.BookingFilter{ProviderID: "P", Statuses: models.ActiveStatuses})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i := range list.Bookings {
		for j := i + 1; j < len(list.Bookings); j++ {
			a, b := list.Bookings[i], list.Bookings[j]
			if a.ScheduledAt.Before(b.EndsAt) && b.ScheduledAt.Before(a.EndsAt) {
				t.Errorf("bookings %s and %s overlap", a.ID, b.ID)
			}
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, employee, now0.Add(2*time.Hour)).Booking

	if _, err := f.m.Confirm(ctx, employee, b.ID); !errors.Is(err, utils.ErrAuthorizationDenied) {
		t.Errorf("employee confirm: err = %v, want AUTHORIZATION_DENIED", err)
	}
	if _, err := f.m.Complete(ctx, provider, b.ID); !errors.Is(err, utils.ErrConflict) {
		t.Errorf("complete before confirm: err = %v, want CONFLICT", err)
	}
	if _, err := f.m.UpdateStatus(ctx, provider, b.ID, models.BookingCancelled); utils.KindOf(err) != utils.KindValidation {
		t.Errorf("cancel through status update: err = %v, want VALIDATION_ERROR", err)
	}

	got, err := f.m.Confirm(ctx, provider, b.ID)
	if err != nil || got.Status != models.BookingConfirmed {
		t.Fatalf("Confirm: %v %+v", err, got)
	}
	got, err = f.m.Complete(ctx, provider, b.ID)
	if err != nil || got.Status != models.BookingCompleted {
		t.Fatalf("Complete: %v %+v", err, got)
	}
	if _, err := f.m.MarkNoShow(ctx, provider, b.ID); !errors.Is(err, utils.ErrConflict) {
		t.Errorf("no-show after completion: err = %v, want CONFLICT", err)
	}

	for _, typ := range []models.EventType{models.EventBookingConfirmed, models.EventBookingCompleted} {
		if n := len(f.events.OfType(typ)); n != 1 {
			t.Errorf("%s events = %d, want 1", typ, n)
		}
	}
}

func TestDeleteCreditsQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alloc := f.grant(t, "u1", 1)
	b := f.book(t, employee, now0.Add(2*time.Hour)).Booking

	if err := f.m.Delete(ctx, employee, b.ID); !errors.Is(err, utils.ErrAuthorizationDenied) {
		t.Fatalf("employee delete: err = %v, want AUTHORIZATION_DENIED", err)
	}
	if err := f.m.Delete(ctx, admin, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := f.used(t, alloc.ID); got != 0 {
		t.Errorf("sessionsUsed = %d after delete, want 0", got)
	}
	if _, err := f.m.Get(ctx, admin, b.ID); utils.KindOf(err) != utils.KindNotFound {
		t.Errorf("deleted booking still readable: %v", err)
	}

	// The superseded half of a reschedule no longer holds the quota.
	b2 := f.book(t, employee, now0.Add(3*time.Hour)).Booking
	if _, err := f.m.Reschedule(ctx, employee, b2.ID, models.RescheduleBookingRequest{NewScheduledAt: now0.Add(5 * time.Hour)}); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if err := f.m.Delete(ctx, admin, b2.ID); err != nil {
		t.Fatalf("Delete rescheduled: %v", err)
	}
	if got := f.used(t, alloc.ID); got != 1 {
		t.Errorf("sessionsUsed = %d after deleting the superseded booking, want 1", got)
	}
}

func TestDeleteCompletedBookingReturnsItsUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alloc := f.grant(t, "u1", 1)
	b := f.book(t, employee, now0.Add(2*time.Hour)).Booking

	if _, err := f.m.Confirm(ctx, provider, b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := f.m.Complete(ctx, provider, b.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := f.m.Delete(ctx, admin, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := f.used(t, alloc.ID); got != 0 {
		t.Errorf("sessionsUsed = %d after deleting a completed booking, want 0", got)
	}
	if _, err := f.quota.GetUsage(ctx, *b.SessionUsageRecordID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("usage record after delete: err = %v, want not found", err)
	}
}

// staleBookings serves an old copy of one booking, as a read that raced a reschedule would.
type staleBookings struct {
	schedulerRepo.SchedulerRepository
	snapshot models.Booking
}

func (s *staleBookings) GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	if bookingID == s.snapshot.ID {
		b := s.snapshot
		return &b, nil
	}
	return s.SchedulerRepository.GetBookingByID(ctx, bookingID)
}

func TestDeleteAfterConcurrentRescheduleKeepsSuccessorFunded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alloc := f.grant(t, "u1", 1)
	b := f.book(t, employee, now0.Add(2*time.Hour)).Booking
	snapshot := *b

	moved, err := f.m.Reschedule(ctx, employee, b.ID, models.RescheduleBookingRequest{NewScheduledAt: now0.Add(4 * time.Hour)})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	live := f.m.Scheduler
	f.m.Scheduler = &staleBookings{SchedulerRepository: live, snapshot: snapshot}
	if err := f.m.Delete(ctx, admin, b.ID); err != nil {
		t.Fatalf("Delete with stale read: %v", err)
	}
	f.m.Scheduler = live

	successor, err := f.m.Get(ctx, admin, moved.NewBooking.ID)
	if err != nil {
		t.Fatalf("Get successor: %v", err)
	}
	if successor.Status != models.BookingScheduled || !successor.Funded() {
		t.Fatalf("successor = %+v, want scheduled and funded", successor)
	}
	if got := f.used(t, alloc.ID); got != 1 {
		t.Errorf("sessionsUsed = %d, want 1", got)
	}
	rec, err := f.quota.GetUsage(ctx, *successor.SessionUsageRecordID)
	if err != nil {
		t.Fatalf("successor usage record: %v", err)
	}
	if rec.BookingID != successor.ID {
		t.Errorf("usage record bookingId = %s, want %s", rec.BookingID, successor.ID)
	}
}

func TestListScopesAndCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.book(t, employee, now0.Add(1*time.Hour)).Booking
	f.book(t, employee, now0.Add(2*time.Hour))
	f.book(t, other, now0.Add(3*time.Hour))
	if _, err := f.m.Cancel(ctx, employee, a.ID, ""); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	mine, err := f.m.List(ctx, employee, models.BookingFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if mine.Total != 2 || mine.Counts[models.BookingCancelled] != 1 || mine.Counts[models.BookingScheduled] != 1 {
		t.Errorf("employee listing = total %d counts %v", mine.Total, mine.Counts)
	}
	if _, err := f.m.List(ctx, employee, models.BookingFilter{UserID: "u2"}); !errors.Is(err, utils.ErrAuthorizationDenied) {
		t.Errorf("listing someone else's bookings: err = %v, want AUTHORIZATION_DENIED", err)
	}

	calendar, err := f.m.List(ctx, provider, models.BookingFilter{Statuses: []models.BookingStatus{models.BookingScheduled}, PageSize: 1})
	if err != nil {
		t.Fatalf("provider List: %v", err)
	}
	if calendar.Total != 2 || len(calendar.Bookings) != 1 || calendar.PageSize != 1 {
		t.Errorf("provider listing = total %d len %d", calendar.Total, len(calendar.Bookings))
	}
	if calendar.Counts[models.BookingCancelled] != 1 {
		t.Errorf("counts ignore the status filter: %v", calendar.Counts)
	}

	capped, err := f.m.List(ctx, admin, models.BookingFilter{PageSize: 10000})
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if capped.PageSize != utils.MaxPageSize || capped.Total != 3 {
		t.Errorf("admin listing = pageSize %d total %d", capped.PageSize, capped.Total)
	}
}

func TestCreateScheduledHookRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alloc := f.grant(t, "u1", 1)
	boom := errors.New("template moved")

	req := ScheduledRequest{
		CreateBookingRequest: models.CreateBookingRequest{UserID: "u1", ProviderID: "P", ScheduledAt: now0.Add(time.Hour), DurationMinutes: 60},
		RecurringTemplateID:  "tmpl-1",
	}
	if _, err := f.m.CreateScheduled(ctx, req, func(context.Context, *models.Booking) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want hook error", err)
	}
	if got := f.used(t, alloc.ID); got != 0 {
		t.Errorf("debit survived rollback: sessionsUsed = %d", got)
	}

	// Today's occurrence may already have started.
	req.ScheduledAt = monday.Add(9 * time.Hour)
	f.clock.Set(monday.Add(9*time.Hour + 15*time.Minute))
	res, err := f.m.CreateScheduled(ctx, req, nil)
	if err != nil {
		t.Fatalf("CreateScheduled: %v", err)
	}
	if res.Booking.RecurringTemplateID == nil || *res.Booking.RecurringTemplateID != "tmpl-1" || !res.QuotaUsed {
		t.Errorf("scheduled booking = %+v", res.Booking)
	}
}

type failingRates struct{}

func (failingRates) Lookup(context.Context, string, models.SessionType) (models.Rate, error) {
	return models.Rate{}, utils.NewAppError(utils.KindDependency, "rate service down", nil)
}

func TestPricingPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.m.Pricing = failingRates{}

	res, err := f.m.Create(ctx, employee, models.CreateBookingRequest{ProviderID: "P", ScheduledAt: now0.Add(time.Hour), DurationMinutes: 60})
	if err != nil {
		t.Fatalf("optional pricing: %v", err)
	}
	if res.Booking.PriceCents != 0 {
		t.Errorf("price = %d without a quote", res.Booking.PriceCents)
	}

	f.m.Policy.PricingMandatory = true
	_, err = f.m.Create(ctx, employee, models.CreateBookingRequest{ProviderID: "P", ScheduledAt: now0.Add(2 * time.Hour), DurationMinutes: 60})
	if !errors.Is(err, utils.ErrDependency) {
		t.Errorf("mandatory pricing: err = %v, want DEPENDENCY_UNAVAILABLE", err)
	}
}
