package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/internal/monitoring"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"
	"github.com/wayakart27/ecommerce-sub002/pkg/location"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Location is a delivery address reduced to what shipping prices depend on.
type Location struct {
	State string `json:"state"`
	City  string `json:"city"`
}

// Quote is the resolved shipping cost for one order.
type Quote struct {
	Price                 domain.Kobo `json:"price"`
	Method                string      `json:"method"`
	IsFree                bool        `json:"is_free"`
	DeliveryDays          int         `json:"delivery_days"`
	Currency              string      `json:"currency"`
	Tier                  string      `json:"tier"`
	FreeShippingThreshold domain.Kobo `json:"free_shipping_threshold"`
}

// ShippingCache holds the active configuration between admin writes.
type ShippingCache interface {
	Get(ctx context.Context) (*models.ShippingConfig, bool, error)
	Set(ctx context.Context, cfg *models.ShippingConfig) error
	Invalidate(ctx context.Context) error
}

// ShippingDefaults seed the configuration when it is first read.
type ShippingDefaults struct {
	Price                 domain.Kobo
	DeliveryDays          int
	FreeShippingThreshold domain.Kobo
}

type ShippingService struct {
	log      *zap.Logger
	repo     *repository.ShippingRepository
	cache    ShippingCache
	regions  *location.Table
	defaults ShippingDefaults
}

func NewShippingService(log *zap.Logger, repo *repository.ShippingRepository, cache ShippingCache, regions *location.Table, defaults ShippingDefaults) *ShippingService {
	return &ShippingService{log: log, repo: repo, cache: cache, regions: regions, defaults: defaults}
}

// ResolveShipping applies the override hierarchy to cfg. A matching city
// override suppresses the state tier entirely; its delivery days fall back to
// the global default when unset. A threshold of zero or less disables free
// shipping.
func ResolveShipping(cfg *models.ShippingConfig, loc Location, orderTotal domain.Kobo) Quote {
	q := Quote{
		Price:        cfg.DefaultPrice,
		Method:       domain.ShippingMethodStandard,
		DeliveryDays: cfg.DefaultDeliveryDays,
		Currency:     domain.CurrencyNGN,
		Tier:         domain.TierDefault,
	}
	threshold := cfg.FreeShippingThreshold
	state, city := strings.TrimSpace(loc.State), strings.TrimSpace(loc.City)

	cityMatched := false
	if city != "" {
		for _, cp := range cfg.CityPrices {
			if !strings.EqualFold(cp.State, state) || !strings.EqualFold(cp.City, city) {
				continue
			}
			cityMatched = true
			q.Tier = domain.TierCity
			q.Price = cp.Price
			if cp.FreeShippingThreshold != nil {
				threshold = *cp.FreeShippingThreshold
			}
			if cp.DeliveryDays != nil {
				q.DeliveryDays = *cp.DeliveryDays
			}
			break
		}
	}

	if !cityMatched {
		for _, sp := range cfg.StatePrices {
			if !strings.EqualFold(sp.State, state) {
				continue
			}
			q.Tier = domain.TierState
			q.Price = sp.Price
			if sp.FreeShippingThreshold != nil {
				threshold = *sp.FreeShippingThreshold
			}
			if sp.DeliveryDays != nil {
				q.DeliveryDays = *sp.DeliveryDays
			}
			break
		}
	}

	q.FreeShippingThreshold = threshold
	if threshold > 0 && orderTotal >= threshold {
		q.IsFree = true
		q.Price = 0
		q.Method += domain.ShippingFreeSuffix
	}
	return q
}

// CalculateShipping quotes shipping for an order total against the active
// configuration. It fails with ErrConfigurationMissing rather than assume a
// price when no active configuration exists.
func (s *ShippingService) CalculateShipping(ctx context.Context, loc Location, orderTotal domain.Kobo) (*Quote, error) {
	if orderTotal < 0 {
		return nil, ErrInvalidAmount.New("order total %d is negative", orderTotal)
	}
	if !s.regions.IsValidState(loc.State) {
		return nil, ErrInvalidLocation.New("unknown state %q", loc.State)
	}
	if strings.TrimSpace(loc.City) != "" && !s.regions.IsValidCity(loc.State, loc.City) {
		return nil, ErrInvalidLocation.New("%q is not an LGA of %s", loc.City, loc.State)
	}
	loc.State, loc.City = s.regions.Canonical(loc.State, loc.City)

	cfg, err := s.activeConfig(ctx)
	if err != nil {
		return nil, err
	}
	q := ResolveShipping(cfg, loc, orderTotal)
	monitoring.ShippingQuotes.WithLabelValues(q.Tier, strconv.FormatBool(q.IsFree)).Inc()
	return &q, nil
}

func (s *ShippingService) activeConfig(ctx context.Context) (*models.ShippingConfig, error) {
	cfg, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn("shipping cache read failed", zap.Error(err))
		monitoring.ShippingCacheLookups.WithLabelValues("error").Inc()
	} else if ok {
		monitoring.ShippingCacheLookups.WithLabelValues("hit").Inc()
		return cfg, nil
	} else {
		monitoring.ShippingCacheLookups.WithLabelValues("miss").Inc()
	}

	cfg, err = s.repo.GetActive(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConfigurationMissing.New("no active shipping configuration")
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := s.cache.Set(ctx, cfg); err != nil {
		s.log.Warn("shipping cache write failed", zap.Error(err))
	}
	return cfg, nil
}

// GetConfig returns the shipping configuration, creating it with the
// configured defaults on first use.
func (s *ShippingService) GetConfig(ctx context.Context) (*models.ShippingConfig, error) {
	cfg, err := s.repo.GetOrCreate(ctx, models.ShippingConfig{
		DefaultPrice:          s.defaults.Price,
		DefaultDeliveryDays:   s.defaults.DeliveryDays,
		FreeShippingThreshold: s.defaults.FreeShippingThreshold,
	})
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return cfg, nil
}

// DefaultsInput updates the global fallbacks. A nil IsActive keeps the
// current state.
type DefaultsInput struct {
	DefaultPrice          domain.Kobo `json:"default_price"`
	DefaultDeliveryDays   int         `json:"default_delivery_days"`
	FreeShippingThreshold domain.Kobo `json:"free_shipping_threshold"`
	IsActive              *bool       `json:"is_active"`
}

func (s *ShippingService) UpdateDefaults(ctx context.Context, in DefaultsInput) (*models.ShippingConfig, error) {
	if in.DefaultPrice < 0 || in.FreeShippingThreshold < 0 {
		return nil, ErrInvalidAmount.New("prices and thresholds must not be negative")
	}
	if in.DefaultDeliveryDays < 1 {
		return nil, ErrInvalidAmount.New("default delivery days must be at least 1")
	}
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	active := cfg.IsActive
	if in.IsActive != nil {
		active = *in.IsActive
	}
	if err := s.repo.UpdateDefaults(ctx, cfg.ID, in.DefaultPrice, in.DefaultDeliveryDays, in.FreeShippingThreshold, active); err != nil {
		return nil, Error.Wrap(err)
	}
	return s.afterWrite(ctx)
}

// Override is a state or city level price override.
type Override struct {
	State                 string       `json:"state"`
	City                  string       `json:"city"`
	Price                 domain.Kobo  `json:"price"`
	DeliveryDays          *int         `json:"delivery_days"`
	FreeShippingThreshold *domain.Kobo `json:"free_shipping_threshold"`
}

func validateOverride(o Override) error {
	if o.Price < 0 {
		return ErrInvalidAmount.New("price %d is negative", o.Price)
	}
	if o.FreeShippingThreshold != nil && *o.FreeShippingThreshold < 0 {
		return ErrInvalidAmount.New("free shipping threshold %d is negative", *o.FreeShippingThreshold)
	}
	if o.DeliveryDays != nil && *o.DeliveryDays < 1 {
		return ErrInvalidAmount.New("delivery days must be at least 1")
	}
	return nil
}

// UpsertStatePrice adds the state override or replaces the existing one for
// the same state.
func (s *ShippingService) UpsertStatePrice(ctx context.Context, o Override) (*models.ShippingConfig, error) {
	if !s.regions.IsValidState(o.State) {
		return nil, ErrInvalidLocation.New("unknown state %q", o.State)
	}
	if err := validateOverride(o); err != nil {
		return nil, err
	}
	state, _ := s.regions.Canonical(o.State, "")
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	err = s.repo.UpsertStatePrice(ctx, &models.StateShippingPrice{
		ConfigID:              cfg.ID,
		State:                 state,
		Price:                 o.Price,
		DeliveryDays:          o.DeliveryDays,
		FreeShippingThreshold: o.FreeShippingThreshold,
	})
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s.afterWrite(ctx)
}

func (s *ShippingService) RemoveStatePrice(ctx context.Context, state string) (*models.ShippingConfig, error) {
	if !s.regions.IsValidState(state) {
		return nil, ErrInvalidLocation.New("unknown state %q", state)
	}
	state, _ = s.regions.Canonical(state, "")
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.DeleteStatePrice(ctx, cfg.ID, state)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if !ok {
		return nil, ErrNotFound.New("no shipping override for %s", state)
	}
	return s.afterWrite(ctx)
}

// UpsertCityPrice adds the city override or replaces the existing one for
// the same state and city.
func (s *ShippingService) UpsertCityPrice(ctx context.Context, o Override) (*models.ShippingConfig, error) {
	if !s.regions.IsValidCity(o.State, o.City) {
		return nil, ErrInvalidLocation.New("%q is not an LGA of %q", o.City, o.State)
	}
	if err := validateOverride(o); err != nil {
		return nil, err
	}
	state, city := s.regions.Canonical(o.State, o.City)
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	err = s.repo.UpsertCityPrice(ctx, &models.CityShippingPrice{
		ConfigID:              cfg.ID,
		State:                 state,
		City:                  city,
		Price:                 o.Price,
		DeliveryDays:          o.DeliveryDays,
		FreeShippingThreshold: o.FreeShippingThreshold,
	})
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s.afterWrite(ctx)
}

func (s *ShippingService) RemoveCityPrice(ctx context.Context, state, city string) (*models.ShippingConfig, error) {
	if !s.regions.IsValidCity(state, city) {
		return nil, ErrInvalidLocation.New("%q is not an LGA of %q", city, state)
	}
	state, city = s.regions.Canonical(state, city)
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.DeleteCityPrice(ctx, cfg.ID, state, city)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if !ok {
		return nil, ErrNotFound.New("no shipping override for %s, %s", city, state)
	}
	return s.afterWrite(ctx)
}

// afterWrite drops the cached configuration and returns the stored one.
func (s *ShippingService) afterWrite(ctx context.Context) (*models.ShippingConfig, error) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("shipping cache invalidation failed; stale quotes until ttl", zap.Error(err))
	}
	return s.GetConfig(ctx)
}
