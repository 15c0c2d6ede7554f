package models

import (
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"

	"gorm.io/gorm"
)

// User is the storefront's read model of an account. Identity and sessions
// live with the external identity provider; this row carries what the
// referral and notification code needs.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:128" json:"name"`
	Email        string         `gorm:"index;size:255" json:"email"`
	Role         string         `gorm:"size:20;not null;default:'CUSTOMER';index" json:"role"` // CUSTOMER | ADMIN
	ReferredByID *uint          `gorm:"index" json:"referred_by_id,omitempty"`
	FCMToken     string         `gorm:"size:512" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }
