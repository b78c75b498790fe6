package pricing

import (
	"context"
	"errors"
	"testing"

	"wellness/database/dbtest"
	providerRepo "wellness/database/repository/provider"
	"wellness/models"
	"wellness/utils"

	"go.uber.org/zap"
)

func newTestLookup(t *testing.T) *DefaultRateLookup {
	t.Helper()
	l := NewRateLookup(providerRepo.NewGormProviderRepo(dbtest.NewDB(t)), nil)
	l.Logger = zap.NewNop()
	return l
}

type brokenDirectory struct {
	providerRepo.ProviderRepository
}

func (brokenDirectory) GetByID(context.Context, string) (*models.Provider, error) {
	return nil, errors.New("connection refused")
}

func TestLookupUsesCategoryRateCard(t *testing.T) {
	ctx := context.Background()
	l := newTestLookup(t)
	if err := l.Providers.Create(ctx, &models.Provider{ID: "P", Name: "Dr. P", Category: models.CategoryMentalHealth, IsActive: true}); err != nil {
		t.Fatalf("create provider: %v", err)
	}

	rate, err := l.Lookup(ctx, "P", models.SessionIndividual)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rate.AmountCents != 12000 || rate.Currency != DefaultCurrency {
		t.Errorf("rate = %+v", rate)
	}

	group, err := l.Lookup(ctx, "P", models.SessionGroup)
	if err != nil {
		t.Fatalf("Lookup group: %v", err)
	}
	if group.AmountCents != 7200 {
		t.Errorf("group rate = %d, want 7200", group.AmountCents)
	}
	if got := group.PriceFor(45); got != 5400 {
		t.Errorf("45 minute group price = %d, want 5400", got)
	}
}

func TestLookupPrefersProviderRate(t *testing.T) {
	ctx := context.Background()
	l := newTestLookup(t)
	own := int64(9000)
	if err := l.Providers.Create(ctx, &models.Provider{ID: "P", Name: "Dr. P", Category: models.CategoryLegal, HourlyRateCents: &own, Currency: "KES", IsActive: true}); err != nil {
		t.Fatalf("create provider: %v", err)
	}

	rate, err := l.Lookup(ctx, "P", models.SessionEmergency)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rate.AmountCents != 13500 || rate.Currency != "KES" {
		t.Errorf("rate = %+v, want 13500 KES", rate)
	}
}

func TestLookupErrors(t *testing.T) {
	ctx := context.Background()
	l := newTestLookup(t)

	if _, err := l.Lookup(ctx, "missing", models.SessionIndividual); utils.KindOf(err) != utils.KindNotFound {
		t.Errorf("unknown provider: got %v, want NOT_FOUND", err)
	}
	if _, err := l.Lookup(ctx, "P", models.SessionType("couples")); utils.KindOf(err) != utils.KindValidation {
		t.Errorf("unknown session type: got %v, want VALIDATION_ERROR", err)
	}

	l.Providers = brokenDirectory{}
	if _, err := l.Lookup(ctx, "P", models.SessionIndividual); !errors.Is(err, utils.ErrDependency) {
		t.Errorf("directory failure: got %v, want DEPENDENCY_UNAVAILABLE", err)
	}
}
