package repository

import (
	"context"
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShippingRepository struct {
	db *gorm.DB
}

func NewShippingRepository(db *gorm.DB) *ShippingRepository {
	return &ShippingRepository{db: db}
}

func (r *ShippingRepository) withOverrides(q *gorm.DB) *gorm.DB {
	return q.
		Preload("StatePrices", func(db *gorm.DB) *gorm.DB { return db.Order("state") }).
		Preload("CityPrices", func(db *gorm.DB) *gorm.DB { return db.Order("state, city") })
}

// GetActive returns the active configuration with its overrides, or
// gorm.ErrRecordNotFound.
func (r *ShippingRepository) GetActive(ctx context.Context) (*models.ShippingConfig, error) {
	var c models.ShippingConfig
	err := r.withOverrides(r.db.WithContext(ctx)).
		Where(&models.ShippingConfig{Key: domain.ShippingConfigKey, IsActive: true}).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreate returns the singleton configuration, inserting defaults first
// when no row exists. The returned row may be inactive.
func (r *ShippingRepository) GetOrCreate(ctx context.Context, defaults models.ShippingConfig) (*models.ShippingConfig, error) {
	defaults.ID = 0
	defaults.Key = domain.ShippingConfigKey
	defaults.IsActive = true
	defaults.StatePrices = nil
	defaults.CityPrices = nil
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error; err != nil {
		return nil, err
	}
	var c models.ShippingConfig
	err := r.withOverrides(r.db.WithContext(ctx)).
		Where(&models.ShippingConfig{Key: domain.ShippingConfigKey}).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateDefaults writes the global fallbacks of configuration id.
func (r *ShippingRepository) UpdateDefaults(ctx context.Context, id uint, price domain.Kobo, days int, threshold domain.Kobo, active bool) error {
	return r.db.WithContext(ctx).Model(&models.ShippingConfig{}).Where("id = ?", id).Updates(map[string]interface{}{
		"default_price":           price,
		"default_delivery_days":   days,
		"free_shipping_threshold": threshold,
		"is_active":               active,
		"updated_at":              time.Now(),
	}).Error
}

// UpsertStatePrice inserts the override or replaces the one with the same
// (config, state) key.
func (r *ShippingRepository) UpsertStatePrice(ctx context.Context, p *models.StateShippingPrice) error {
	p.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_id"}, {Name: "state"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "delivery_days", "free_shipping_threshold", "updated_at"}),
	}).Create(p).Error
}

func (r *ShippingRepository) DeleteStatePrice(ctx context.Context, configID uint, state string) (bool, error) {
	res := r.db.WithContext(ctx).Where("config_id = ? AND state = ?", configID, state).Delete(&models.StateShippingPrice{})
	return res.RowsAffected > 0, res.Error
}

// UpsertCityPrice inserts the override or replaces the one with the same
// (config, state, city) key.
func (r *ShippingRepository) UpsertCityPrice(ctx context.Context, p *models.CityShippingPrice) error {
	p.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_id"}, {Name: "state"}, {Name: "city"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "delivery_days", "free_shipping_threshold", "updated_at"}),
	}).Create(p).Error
}

func (r *ShippingRepository) DeleteCityPrice(ctx context.Context, configID uint, state, city string) (bool, error) {
	res := r.db.WithContext(ctx).Where("config_id = ? AND state = ? AND city = ?", configID, state, city).Delete(&models.CityShippingPrice{})
	return res.RowsAffected > 0, res.Error
}
