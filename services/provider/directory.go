package provider

import (
	"context"
	"strings"

	"wellness/database"
	providerRepo "wellness/database/repository/provider"
	"wellness/models"
	"wellness/services/authz"
	"wellness/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProviderService manages the provider directory that bookings, slots and pricing refer to.
type ProviderService interface {
	RegisterProvider(ctx context.Context, actor models.Actor, req models.RegisterProviderRequest) (*models.Provider, error)
	GetProvider(ctx context.Context, id string) (*models.Provider, error)
	ListProviders(ctx context.Context, category models.ProviderCategory) ([]models.Provider, error)
	SetProviderActive(ctx context.Context, actor models.Actor, id string, active bool) (*models.Provider, error)
}

// RateInvalidator drops cached prices after a directory change.
type RateInvalidator interface {
	Invalidate(ctx context.Context, providerID string)
}

type DefaultProviderService struct {
	Repo   providerRepo.ProviderRepository
	Rates  RateInvalidator
	Clock  utils.Clock
	Logger *zap.Logger
}

func NewProviderService(repo providerRepo.ProviderRepository, rates RateInvalidator, clock utils.Clock) *DefaultProviderService {
	return &DefaultProviderService{Repo: repo, Rates: rates, Clock: clock, Logger: utils.GetLogger()}
}

func (s *DefaultProviderService) RegisterProvider(ctx context.Context, actor models.Actor, req models.RegisterProviderRequest) (*models.Provider, error) {
	if err := authz.Authorize(actor, authz.ActionManageProviders, authz.Subject{}); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.Validationf("name is required")
	}
	if !req.Category.Valid() {
		return nil, utils.Validationf("unknown category %q", req.Category)
	}
	if req.HourlyRateCents != nil && *req.HourlyRateCents < 0 {
		return nil, utils.Validationf("hourlyRateCents may not be negative")
	}

	now := s.Clock.Now()
	p := &models.Provider{
		ID:              strings.TrimSpace(req.ID),
		Name:            name,
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Category:        req.Category,
		HourlyRateCents: req.HourlyRateCents,
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, database.Classify(err, "provider")
	}
	s.Logger.Info("provider registered", zap.String("providerId", p.ID), zap.String("category", string(p.Category)))
	return p, nil
}

func (s *DefaultProviderService) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, database.Classify(err, "provider")
	}
	return p, nil
}

func (s *DefaultProviderService) ListProviders(ctx context.Context, category models.ProviderCategory) ([]models.Provider, error) {
	if category != "" && !category.Valid() {
		return nil, utils.Validationf("unknown category %q", category)
	}
	providers, err := s.Repo.GetAll(ctx, category)
	if err != nil {
		return nil, utils.NewAppError(utils.KindInternal, "failed to list providers", err)
	}
	if providers == nil {
		providers = []models.Provider{}
	}
	return providers, nil
}

// SetProviderActive stops or resumes new bookings for a provider. Existing bookings are kept.
func (s *DefaultProviderService) SetProviderActive(ctx context.Context, actor models.Actor, id string, active bool) (*models.Provider, error) {
	if err := authz.Authorize(actor, authz.ActionManageProviders, authz.Subject{}); err != nil {
		return nil, err
	}
	if err := s.Repo.SetActive(ctx, id, active); err != nil {
		return nil, database.Classify(err, "provider")
	}
	if s.Rates != nil {
		s.Rates.Invalidate(ctx, id)
	}
	p, err := s.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("provider availability toggled", zap.String("providerId", id), zap.Bool("active", active))
	return p, nil
}
