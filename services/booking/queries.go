package booking

import (
	"context"

	"wellness/models"
	"wellness/services/authz"
	"wellness/utils"
)

func (m *Manager) Get(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := m.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ActionViewBookings, subjectOf(b)); err != nil {
		return nil, err
	}
	return b, nil
}

// List returns one page of bookings plus counts by status over the whole filter. Callers without
// the any scope are narrowed to their own (employee) or assigned (provider) bookings.
func (m *Manager) List(ctx context.Context, actor models.Actor, filter models.BookingFilter) (*models.BookingListResult, error) {
	if filter.UserID == "" && filter.ProviderID == "" {
		switch authz.ScopeFor(actor.Role, authz.ActionViewBookings) {
		case authz.ScopeOwn:
			filter.UserID = actor.ID
		case authz.ScopeAssigned:
			filter.ProviderID = actor.ID
		}
	}
	if err := authz.Authorize(actor, authz.ActionViewBookings, authz.Subject{UserID: filter.UserID, ProviderID: filter.ProviderID}); err != nil {
		return nil, err
	}
	// A provider filtering by user still only sees their own calendar.
	if authz.ScopeFor(actor.Role, authz.ActionViewBookings) == authz.ScopeAssigned {
		filter.ProviderID = actor.ID
	}
	for _, s := range filter.Statuses {
		if !s.Valid() {
			return nil, utils.Validationf("unknown status %q", s)
		}
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, utils.Validationf("from must be before to")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = utils.DefaultPageSize
	}
	if filter.PageSize > utils.MaxPageSize {
		filter.PageSize = utils.MaxPageSize
	}

	bookings, total, err := m.Scheduler.ListBookings(ctx, filter)
	if err != nil {
		return nil, utils.NewAppError(utils.KindInternal, "failed to list bookings", err)
	}
	counts, err := m.Scheduler.CountByStatus(ctx, filter)
	if err != nil {
		return nil, utils.NewAppError(utils.KindInternal, "failed to count bookings", err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return &models.BookingListResult{
		Bookings: bookings,
		Counts:   counts,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	}, nil
}
