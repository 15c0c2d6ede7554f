package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// ReferralSettings reads the admin-editable referral settings, falling back
// to the configured defaults when a setting is absent or malformed.
type ReferralSettings struct {
	log              *zap.Logger
	repo             *repository.SettingRepository
	defaultRate      decimal.Decimal
	defaultMinPayout domain.Kobo
}

func NewReferralSettings(log *zap.Logger, repo *repository.SettingRepository, defaultRate decimal.Decimal, defaultMinPayout domain.Kobo) *ReferralSettings {
	return &ReferralSettings{log: log, repo: repo, defaultRate: defaultRate, defaultMinPayout: defaultMinPayout}
}

// Seed stores the configured defaults for settings not saved yet.
func (s *ReferralSettings) Seed(ctx context.Context) error {
	return s.repo.SeedDefaults(ctx, map[string]string{
		domain.SettingReferralCommissionRate: s.defaultRate.String(),
		domain.SettingDefaultMinPayout:       strconv.FormatInt(int64(s.defaultMinPayout), 10),
	})
}

// CommissionRate is the share of an order total credited to the referrer.
func (s *ReferralSettings) CommissionRate(ctx context.Context) decimal.Decimal {
	raw, err := s.repo.Get(ctx, domain.SettingReferralCommissionRate)
	if err != nil {
		return s.defaultRate
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		s.log.Warn("ignoring invalid setting", zap.String("key", domain.SettingReferralCommissionRate), zap.String("value", raw))
		return s.defaultRate
	}
	return rate
}

// MinPayout is the minimum for programs without their own.
func (s *ReferralSettings) MinPayout(ctx context.Context) domain.Kobo {
	raw, err := s.repo.Get(ctx, domain.SettingDefaultMinPayout)
	if err != nil {
		return s.defaultMinPayout
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		s.log.Warn("ignoring invalid setting", zap.String("key", domain.SettingDefaultMinPayout), zap.String("value", raw))
		return s.defaultMinPayout
	}
	return domain.Kobo(v)
}

// ErrInvalidSetting is returned for unknown keys or malformed values.
var ErrInvalidSetting = errs.Class("invalid setting")

// All returns every stored setting.
func (s *ReferralSettings) All(ctx context.Context) ([]models.SystemSetting, error) {
	list, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return list, nil
}

// Update validates and stores one referral setting.
func (s *ReferralSettings) Update(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case domain.SettingReferralCommissionRate:
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return ErrInvalidSetting.New("%s: %q is not a number", key, value)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return ErrInvalidSetting.New("%s must be between 0 and 1", key)
		}
		value = rate.String()
	case domain.SettingDefaultMinPayout:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil || v <= 0 {
			return ErrInvalidSetting.New("%s must be a positive amount in kobo", key)
		}
	default:
		return ErrInvalidSetting.New("unknown setting %q", key)
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		return Error.Wrap(err)
	}
	s.log.Info("setting updated", zap.String("key", key), zap.String("value", value))
	return nil
}
