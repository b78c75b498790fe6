package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wellness/config"
	"wellness/database"
	providerRepo "wellness/database/repository/provider"
	"wellness/models"
	"wellness/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RateLookup quotes the hourly rate of a provider for a session type.
type RateLookup interface {
	Lookup(ctx context.Context, providerID string, sessionType models.SessionType) (models.Rate, error)
}

// DefaultCurrency is used when neither the provider nor the rate card names one.
const DefaultCurrency = "USD"

// CategoryRates is the hourly rate card in cents, applied when a provider has no own rate.
var CategoryRates = map[models.ProviderCategory]int64{
	models.CategoryMentalHealth:     12000,
	models.CategoryPhysicalWellness: 8000,
	models.CategoryFinancial:        10000,
	models.CategoryLegal:            15000,
}

// SessionMultipliers are percentages applied on top of the hourly rate.
var SessionMultipliers = map[models.SessionType]int64{
	models.SessionIndividual: 100,
	models.SessionGroup:      60,
	models.SessionEmergency:  150,
}

type DefaultRateLookup struct {
	Providers providerRepo.ProviderRepository
	Cache     *redis.Client
	TTL       time.Duration
	Logger    *zap.Logger
}

// NewRateLookup returns a lookup over the provider directory. cache may be nil.
func NewRateLookup(providers providerRepo.ProviderRepository, cache *redis.Client) *DefaultRateLookup {
	ttl := time.Duration(config.AppConfig.PriceCacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DefaultRateLookup{
		Providers: providers,
		Cache:     cache,
		TTL:       ttl,
		Logger:    utils.GetLogger(),
	}
}

func cacheKey(providerID string, sessionType models.SessionType) string {
	return fmt.Sprintf("%s%s:%s", utils.PriceCachePrefix, providerID, sessionType)
}

func (l *DefaultRateLookup) Lookup(ctx context.Context, providerID string, sessionType models.SessionType) (models.Rate, error) {
	multiplier, ok := SessionMultipliers[sessionType]
	if !ok {
		return models.Rate{}, utils.Validationf("unknown session type %q", sessionType)
	}

	key := cacheKey(providerID, sessionType)
	if l.Cache != nil {
		cached, err := l.Cache.Get(ctx, key).Result()
		if err == nil {
			var rate models.Rate
			if json.Unmarshal([]byte(cached), &rate) == nil {
				return rate, nil
			}
		} else if err != redis.Nil {
			l.Logger.Warn("rate cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	provider, err := l.Providers.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Rate{}, utils.NotFoundf("provider %s not found", providerID)
		}
		return models.Rate{}, utils.NewAppError(utils.KindDependency, "pricing unavailable", err)
	}

	hourly, ok := CategoryRates[provider.Category]
	if provider.HourlyRateCents != nil {
		hourly, ok = *provider.HourlyRateCents, true
	}
	if !ok {
		return models.Rate{}, utils.NewAppError(utils.KindDependency,
			fmt.Sprintf("no rate configured for category %q", provider.Category), nil)
	}
	currency := provider.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	rate := models.Rate{AmountCents: hourly * multiplier / 100, Currency: currency}

	if l.Cache != nil {
		if b, err := json.Marshal(rate); err == nil {
			if err := l.Cache.Set(ctx, key, b, l.TTL).Err(); err != nil {
				l.Logger.Warn("rate cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return rate, nil
}

// Invalidate drops cached rates for a provider after its directory entry changes.
func (l *DefaultRateLookup) Invalidate(ctx context.Context, providerID string) {
	if l.Cache == nil {
		return
	}
	keys := make([]string, 0, len(SessionMultipliers))
	for st := range SessionMultipliers {
		keys = append(keys, cacheKey(providerID, st))
	}
	if err := l.Cache.Del(ctx, keys...).Err(); err != nil {
		l.Logger.Warn("rate cache invalidation failed", zap.String("providerId", providerID), zap.Error(err))
	}
}
