// Package authz holds the role/action table every mutating operation consults.
package authz

import (
	"wellness/models"
	"wellness/utils"
)

type Action string

const (
	ActionCreate             Action = "create"
	ActionCancel             Action = "cancel"
	ActionReschedule         Action = "reschedule"
	ActionAdjustQuota        Action = "adjust-quota"
	ActionViewQuota          Action = "view-quota"
	ActionManageAvailability Action = "manage-availability"
	ActionManageRecurring    Action = "manage-recurring"
	ActionManageProviders    Action = "manage-providers"
	ActionDispatch           Action = "dispatch"
	ActionViewBookings       Action = "view-bookings"
	ActionUpdateStatus       Action = "update-status"
	ActionDeleteBooking      Action = "delete-booking"
)

// Scope says which subjects a role may act on.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn        // subject.UserID == actor.ID
	ScopeAssigned   // subject.ProviderID == actor.ID
	ScopeAny
)

// Subject identifies whose data an action touches.
type Subject struct {
	UserID     string
	ProviderID string
}

var table = map[Action]map[models.Role]Scope{
	ActionCreate: {
		models.RoleEmployee: ScopeOwn,
		models.RoleHR:       ScopeAny,
		models.RoleAdmin:    ScopeAny,
	},
	ActionCancel: {
		models.RoleEmployee: ScopeOwn,
		models.RoleProvider: ScopeAssigned,
		models.RoleHR:       ScopeAny,
		models.RoleAdmin:    ScopeAny,
	},
	ActionReschedule: {
		models.RoleEmployee: ScopeOwn,
		models.RoleProvider: ScopeAssigned,
		models.RoleHR:       ScopeAny,
		models.RoleAdmin:    ScopeAny,
	},
	ActionAdjustQuota: {
		models.RoleHR:    ScopeAny,
		models.RoleAdmin: ScopeAny,
	},
	ActionViewQuota: {
		models.RoleEmployee: ScopeOwn,
		models.RoleHR:       ScopeAny,
		models.RoleAdmin:    ScopeAny,
	},
	ActionManageAvailability: {
		models.RoleProvider: ScopeAssigned,
		models.RoleAdmin:    ScopeAny,
	},
	ActionManageRecurring: {
		models.RoleEmployee: ScopeOwn,
		models.RoleHR:       ScopeAny,
		models.RoleAdmin:    ScopeAny,
	},
	ActionManageProviders: {
		models.RoleAdmin: ScopeAny,
	},
	ActionDispatch: {
		models.RoleAdmin: ScopeAny,
	},
	ActionViewBookings: {
		models.RoleEmployee: ScopeOwn,
		models.RoleProvider: ScopeAssigned,
		models.RoleHR:       ScopeAny,
		models.RoleAdmin:    ScopeAny,
	},
	ActionUpdateStatus: {
		models.RoleProvider: ScopeAssigned,
		models.RoleAdmin:    ScopeAny,
	},
	ActionDeleteBooking: {
		models.RoleAdmin: ScopeAny,
	},
}

// ScopeFor returns the scope a role holds for an action.
func ScopeFor(role models.Role, action Action) Scope {
	return table[action][role]
}

// Authorize returns an AUTHORIZATION_DENIED error unless the actor may perform action on subject.
func Authorize(actor models.Actor, action Action, subject Subject) error {
	if actor.ID == "" {
		return utils.Deniedf("%s requires an authenticated caller", action)
	}
	switch ScopeFor(actor.Role, action) {
	case ScopeAny:
		return nil
	case ScopeOwn:
		if subject.UserID != "" && subject.UserID == actor.ID {
			return nil
		}
	case ScopeAssigned:
		if subject.ProviderID != "" && subject.ProviderID == actor.ID {
			return nil
		}
	}
	return utils.Deniedf("role %q may not %s this resource", actor.Role, action)
}
