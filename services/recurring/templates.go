package recurring

import (
	"context"

	"wellness/database"
	"wellness/models"
	"wellness/services/authz"
	"wellness/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateTemplate registers a recurring schedule starting at req.StartDate. The first occurrence
// may be today; it is picked up by the next dispatch run.
func (d *Dispatcher) CreateTemplate(ctx context.Context, actor models.Actor, req models.CreateTemplateRequest) (*models.RecurringBookingTemplate, error) {
	if req.UserID == "" {
		req.UserID = actor.ID
	}
	if err := authz.Authorize(actor, authz.ActionManageRecurring, authz.Subject{UserID: req.UserID}); err != nil {
		return nil, err
	}
	if req.ProviderID == "" {
		return nil, utils.Validationf("providerId is required")
	}
	if !req.Frequency.Valid() {
		return nil, utils.Validationf("frequency must be weekly, biweekly or monthly")
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, utils.Validationf("startDate: %v", err)
	}
	if start.Before(d.Today()) {
		return nil, utils.Validationf("startDate may not be in the past")
	}
	tmpl := &models.RecurringBookingTemplate{
		ID:                 uuid.New().String(),
		UserID:             req.UserID,
		ProviderID:         req.ProviderID,
		Frequency:          req.Frequency,
		NextOccurrenceDate: start,
		IsActive:           true,
		TimeOfDay:          d.DefaultTimeOfDay,
		DurationMinutes:    d.DefaultDuration,
		SessionType:        req.SessionType,
		FundingPreference:  req.FundingPreference,
		Notes:              req.Notes,
	}
	if req.EndDate != "" {
		end, err := utils.ParseDate(req.EndDate)
		if err != nil {
			return nil, utils.Validationf("endDate: %v", err)
		}
		if end.Before(start) {
			return nil, utils.Validationf("endDate is before startDate")
		}
		tmpl.EndDate = &end
	}
	if req.TimeOfDay != "" {
		at, err := utils.ParseClock(req.TimeOfDay)
		if err != nil || at >= utils.MinutesPerDay {
			return nil, utils.Validationf("timeOfDay must be HH:MM")
		}
		tmpl.TimeOfDay = at
	}
	if req.DurationMinutes < 0 {
		return nil, utils.Validationf("durationMinutes must be positive")
	}
	if req.DurationMinutes > 0 {
		tmpl.DurationMinutes = req.DurationMinutes
	}
	if tmpl.SessionType == "" {
		tmpl.SessionType = models.SessionIndividual
	}
	if !tmpl.SessionType.Valid() {
		return nil, utils.Validationf("unknown session type %q", tmpl.SessionType)
	}
	if tmpl.FundingPreference != nil && !tmpl.FundingPreference.Valid() {
		return nil, utils.Validationf("unknown funding preference %q", *tmpl.FundingPreference)
	}
	if _, err := d.Providers.GetByID(ctx, req.ProviderID); err != nil {
		return nil, database.Classify(err, "provider")
	}

	now := d.Clock.Now()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	if err := d.Templates.Create(ctx, tmpl); err != nil {
		return nil, err
	}
	d.Logger.Info("recurring template created",
		zap.String("templateId", tmpl.ID),
		zap.String("userId", tmpl.UserID),
		zap.String("frequency", string(tmpl.Frequency)),
		zap.Time("start", start))
	return tmpl, nil
}

// DeactivateTemplate stops future occurrences. Bookings already generated are kept.
func (d *Dispatcher) DeactivateTemplate(ctx context.Context, actor models.Actor, templateID string) (*models.RecurringBookingTemplate, error) {
	tmpl, err := d.Templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, database.Classify(err, "template")
	}
	if err := authz.Authorize(actor, authz.ActionManageRecurring, authz.Subject{UserID: tmpl.UserID}); err != nil {
		return nil, err
	}
	now := d.Clock.Now()
	if err := d.Templates.Deactivate(ctx, tmpl.ID, now); err != nil {
		return nil, database.Classify(err, "template")
	}
	tmpl.IsActive = false
	tmpl.UpdatedAt = now
	return tmpl, nil
}

func (d *Dispatcher) ListTemplates(ctx context.Context, actor models.Actor, userID string, includeInactive bool) ([]models.RecurringBookingTemplate, error) {
	if userID == "" {
		userID = actor.ID
	}
	if err := authz.Authorize(actor, authz.ActionManageRecurring, authz.Subject{UserID: userID}); err != nil {
		return nil, err
	}
	templates, err := d.Templates.ListByUser(ctx, userID, includeInactive)
	if err != nil {
		return nil, utils.NewAppError(utils.KindInternal, "failed to list templates", err)
	}
	if templates == nil {
		templates = []models.RecurringBookingTemplate{}
	}
	return templates, nil
}
