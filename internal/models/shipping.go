package models

import (
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
)

// ShippingConfig is the singleton shipping configuration. Only rows with
// IsActive are consulted at checkout.
type ShippingConfig struct {
	ID                    uint        `gorm:"primaryKey" json:"id"`
	Key                   string      `gorm:"uniqueIndex;size:32;not null" json:"-"`
	DefaultPrice          domain.Kobo `gorm:"not null" json:"default_price"`
	DefaultDeliveryDays   int         `gorm:"not null" json:"default_delivery_days"`
	FreeShippingThreshold domain.Kobo `gorm:"not null;default:0" json:"free_shipping_threshold"`
	IsActive              bool        `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`

	StatePrices []StateShippingPrice `gorm:"foreignKey:ConfigID" json:"state_prices"`
	CityPrices  []CityShippingPrice  `gorm:"foreignKey:ConfigID" json:"city_prices"`
}

func (ShippingConfig) TableName() string { return "shipping_configs" }

// StateShippingPrice overrides the defaults for a whole state.
type StateShippingPrice struct {
	ID                    uint         `gorm:"primaryKey" json:"id"`
	ConfigID              uint         `gorm:"not null;uniqueIndex:idx_state_price_key" json:"-"`
	State                 string       `gorm:"size:64;not null;uniqueIndex:idx_state_price_key" json:"state"`
	Price                 domain.Kobo  `gorm:"not null" json:"price"`
	DeliveryDays          *int         `json:"delivery_days,omitempty"`
	FreeShippingThreshold *domain.Kobo `json:"free_shipping_threshold,omitempty"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

func (StateShippingPrice) TableName() string { return "shipping_state_prices" }

// CityShippingPrice overrides the defaults for one LGA of a state.
type CityShippingPrice struct {
	ID                    uint         `gorm:"primaryKey" json:"id"`
	ConfigID              uint         `gorm:"not null;uniqueIndex:idx_city_price_key" json:"-"`
	State                 string       `gorm:"size:64;not null;uniqueIndex:idx_city_price_key" json:"state"`
	City                  string       `gorm:"size:64;not null;uniqueIndex:idx_city_price_key" json:"city"`
	Price                 domain.Kobo  `gorm:"not null" json:"price"`
	DeliveryDays          *int         `json:"delivery_days,omitempty"`
	FreeShippingThreshold *domain.Kobo `json:"free_shipping_threshold,omitempty"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

func (CityShippingPrice) TableName() string { return "shipping_city_prices" }
