package availability

import (
	"context"
	"fmt"
	"time"

	"wellness/database"
	providerRepo "wellness/database/repository/provider"
	schedulerRepo "wellness/database/repository/scheduler"
	timeslotRepo "wellness/database/repository/timeslot"
	"wellness/models"
	"wellness/services/authz"
	"wellness/utils"

	"go.uber.org/zap"
)

// Checker decides whether a provider can take a booking at a given time.
type Checker interface {
	IsAvailable(ctx context.Context, providerID string, start time.Time, durationMinutes int, excludeBookingID string) (bool, error)
	UpsertSlot(ctx context.Context, actor models.Actor, providerID string, in models.SlotInput) (*models.AvailabilitySlot, error)
	ListSlots(ctx context.Context, providerID string) ([]models.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, actor models.Actor, providerID, slotID string) error
}

// DefaultChecker matches requests against weekly slots and existing bookings.
type DefaultChecker struct {
	Slots           timeslotRepo.SlotRepository
	Scheduler       schedulerRepo.SchedulerRepository
	Providers       providerRepo.ProviderRepository
	Tx              database.Transactor
	Clock           utils.Clock
	DefaultTimezone string
	Logger          *zap.Logger
}

func NewChecker(
	slots timeslotRepo.SlotRepository,
	scheduler schedulerRepo.SchedulerRepository,
	providers providerRepo.ProviderRepository,
	tx database.Transactor,
	clock utils.Clock,
	defaultTimezone string,
) *DefaultChecker {
	return &DefaultChecker{
		Slots:           slots,
		Scheduler:       scheduler,
		Providers:       providers,
		Tx:              tx,
		Clock:           clock,
		DefaultTimezone: defaultTimezone,
		Logger:          utils.GetLogger(),
	}
}

// IsAvailable reports whether [start, start+duration) lies inside one available slot, in the
// slot's timezone, and does not overlap an active booking other than excludeBookingID.
// Called with a transaction context, the overlap read joins that transaction.
func (c *DefaultChecker) IsAvailable(ctx context.Context, providerID string, start time.Time, durationMinutes int, excludeBookingID string) (bool, error) {
	if durationMinutes <= 0 {
		return false, utils.Validationf("durationMinutes must be positive")
	}

	slots, err := c.Slots.ListByProvider(ctx, providerID)
	if err != nil {
		return false, fmt.Errorf("failed to load availability slots: %w", err)
	}
	inSlot := false
	for i := range slots {
		ok, err := c.slotCovers(&slots[i], start, durationMinutes)
		if err != nil {
			return false, err
		}
		if ok {
			inSlot = true
			break
		}
	}
	if !inSlot {
		return false, nil
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	overlapping, err := c.Scheduler.FindOverlappingBookings(ctx, providerID, start.UTC(), end.UTC(), excludeBookingID)
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	return len(overlapping) == 0, nil
}

// slotCovers converts the window to the slot's local wall clock. A window that ends after local
// midnight never fits, except when it ends exactly at 24:00.
func (c *DefaultChecker) slotCovers(slot *models.AvailabilitySlot, start time.Time, durationMinutes int) (bool, error) {
	if !slot.IsAvailable {
		return false, nil
	}
	tz := slot.Timezone
	if tz == "" {
		tz = c.DefaultTimezone
	}
	loc, err := utils.LoadLocation(tz)
	if err != nil {
		return false, err
	}

	local := start.In(loc)
	if int(local.Weekday()) != slot.DayOfWeek {
		return false, nil
	}
	startMin := local.Hour()*60 + local.Minute()
	localEnd := local.Add(time.Duration(durationMinutes) * time.Minute).In(loc)

	endMin := localEnd.Hour()*60 + localEnd.Minute()
	if localEnd.YearDay() != local.YearDay() || localEnd.Year() != local.Year() {
		if endMin != 0 || localEnd.Sub(local) > 24*time.Hour {
			return false, nil
		}
		endMin = utils.MinutesPerDay
	}
	if endMin <= startMin {
		return false, nil
	}
	return slot.Contains(startMin, endMin), nil
}

func (c *DefaultChecker) UpsertSlot(ctx context.Context, actor models.Actor, providerID string, in models.SlotInput) (*models.AvailabilitySlot, error) {
	if err := authz.Authorize(actor, authz.ActionManageAvailability, authz.Subject{ProviderID: providerID}); err != nil {
		return nil, err
	}
	slot, err := c.validateSlot(providerID, in)
	if err != nil {
		return nil, err
	}
	if _, err := c.Providers.GetByID(ctx, providerID); err != nil {
		return nil, database.Classify(err, "provider")
	}

	err = c.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := c.Clock.Now()
		if err := c.Scheduler.LockProviderCalendar(ctx, providerID, now); err != nil {
			return err
		}

		sameDay, err := c.Slots.ListByProviderDay(ctx, providerID, slot.DayOfWeek)
		if err != nil {
			return err
		}
		for i := range sameDay {
			if sameDay[i].ID != slot.ID && sameDay[i].Overlaps(slot) {
				return utils.Conflictf("slot %s-%s overlaps existing slot %s-%s",
					utils.FormatClock(slot.StartTime), utils.FormatClock(slot.EndTime),
					utils.FormatClock(sameDay[i].StartTime), utils.FormatClock(sameDay[i].EndTime))
			}
		}

		slot.UpdatedAt = now
		if slot.ID == "" {
			slot.CreatedAt = now
			return c.Slots.CreateSlot(ctx, slot)
		}
		existing, err := c.Slots.GetSlot(ctx, providerID, slot.ID)
		if err != nil {
			return err
		}
		slot.CreatedAt = existing.CreatedAt
		return c.Slots.UpdateSlot(ctx, slot, existing.Version)
	})
	if err != nil {
		return nil, database.Classify(err, "availability slot")
	}

	c.Logger.Info("availability slot saved",
		zap.String("providerId", providerID),
		zap.String("slotId", slot.ID),
		zap.Int("dayOfWeek", slot.DayOfWeek),
		zap.Int("start", slot.StartTime),
		zap.Int("end", slot.EndTime))
	return slot, nil
}

func (c *DefaultChecker) validateSlot(providerID string, in models.SlotInput) (*models.AvailabilitySlot, error) {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return nil, utils.Validationf("dayOfWeek must be between 0 (Sunday) and 6")
	}
	start, err := utils.ParseClock(in.StartTime)
	if err != nil {
		return nil, utils.Validationf("startTime: %v", err)
	}
	end, err := utils.ParseClock(in.EndTime)
	if err != nil {
		return nil, utils.Validationf("endTime: %v", err)
	}
	if start >= utils.MinutesPerDay || start >= end {
		return nil, utils.Validationf("startTime must be before endTime")
	}
	tz := in.Timezone
	if tz == "" {
		tz = c.DefaultTimezone
	}
	if _, err := utils.LoadLocation(tz); err != nil {
		return nil, utils.Validationf("%v", err)
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	return &models.AvailabilitySlot{
		ID:          in.ID,
		ProviderID:  providerID,
		DayOfWeek:   in.DayOfWeek,
		StartTime:   start,
		EndTime:     end,
		Timezone:    tz,
		IsAvailable: available,
	}, nil
}

func (c *DefaultChecker) ListSlots(ctx context.Context, providerID string) ([]models.AvailabilitySlot, error) {
	slots, err := c.Slots.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability slots: %w", err)
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	return slots, nil
}

func (c *DefaultChecker) DeleteSlot(ctx context.Context, actor models.Actor, providerID, slotID string) error {
	if err := authz.Authorize(actor, authz.ActionManageAvailability, authz.Subject{ProviderID: providerID}); err != nil {
		return err
	}
	if err := c.Slots.DeleteSlot(ctx, providerID, slotID); err != nil {
		return database.Classify(err, "availability slot")
	}
	c.Logger.Info("availability slot deleted", zap.String("providerId", providerID), zap.String("slotId", slotID))
	return nil
}
