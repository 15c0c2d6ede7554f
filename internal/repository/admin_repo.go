package repository

import (
	"context"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers          int64       `json:"total_users"`
	ReferredUsers       int64       `json:"referred_users"`
	ReferralPrograms    int64       `json:"referral_programs"`
	PendingReferrals    int64       `json:"pending_referrals"`
	PendingAmount       domain.Kobo `json:"pending_amount"`
	AvailableEarnings   domain.Kobo `json:"available_earnings"`
	TotalPaidOut        domain.Kobo `json:"total_paid_out"`
	InFlightPayouts     int64       `json:"in_flight_payouts"`
	FailedPayouts       int64       `json:"failed_payouts"`
	ShippingOverrides   int64       `json:"shipping_overrides"`
	UnverifiedBankUsers int64       `json:"unverified_bank_users"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var s DashboardStats
	var sums struct {
		Pending   int64
		Available int64
		Paid      int64
	}
	var cityOverrides int64
	steps := []func() error{
		func() error { return db.Model(&models.User{}).Count(&s.TotalUsers).Error },
		func() error {
			return db.Model(&models.User{}).Where("referred_by_id IS NOT NULL").Count(&s.ReferredUsers).Error
		},
		func() error { return db.Model(&models.ReferralProgram{}).Count(&s.ReferralPrograms).Error },
		func() error {
			return db.Model(&models.ReferralProgram{}).Where("bank_verified = ?", false).Count(&s.UnverifiedBankUsers).Error
		},
		func() error { return db.Model(&models.PendingReferral{}).Count(&s.PendingReferrals).Error },
		func() error {
			return db.Model(&models.PendingReferral{}).Select("COALESCE(SUM(amount), 0)").Scan(&sums.Pending).Error
		},
		func() error {
			return db.Model(&models.ReferralProgram{}).
				Select("COALESCE(SUM(referral_earnings), 0)").Scan(&sums.Available).Error
		},
		func() error {
			return db.Model(&models.ReferralProgram{}).Select("COALESCE(SUM(total_earned), 0)").Scan(&sums.Paid).Error
		},
		func() error {
			return db.Model(&models.CompletedReferral{}).
				Where("is_paid = ? AND payout_reference <> ''", false).
				Distinct("payout_reference").Count(&s.InFlightPayouts).Error
		},
		func() error {
			return db.Model(&models.PayoutRecord{}).
				Where("status IN ?", []string{domain.PayoutStatusFailed, domain.PayoutStatusReversed}).
				Count(&s.FailedPayouts).Error
		},
		func() error { return db.Model(&models.StateShippingPrice{}).Count(&s.ShippingOverrides).Error },
		func() error { return db.Model(&models.CityShippingPrice{}).Count(&cityOverrides).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	s.PendingAmount = domain.Kobo(sums.Pending)
	s.AvailableEarnings = domain.Kobo(sums.Available)
	s.TotalPaidOut = domain.Kobo(sums.Paid)
	s.ShippingOverrides += cityOverrides
	return &s, nil
}

// ListUsers returns users with search and pagination.
func (r *AdminRepository) ListUsers(ctx context.Context, search string, page, limit int) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		q = q.Where("name LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}

// PayoutRow is a payout record with the user it was paid to.
type PayoutRow struct {
	models.PayoutRecord
	UserID uint `json:"user_id"`
}

// ListPayouts returns payout records with optional status filter, newest first.
func (r *AdminRepository) ListPayouts(ctx context.Context, status string, page, limit int) ([]PayoutRow, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.PayoutRecord{})
		if status != "" {
			q = q.Where("payout_records.status = ?", status)
		}
		return q
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []PayoutRow
	err := base().Select("payout_records.*, referral_programs.user_id AS user_id").
		Joins("JOIN referral_programs ON referral_programs.id = payout_records.program_id").
		Order("payout_records.date DESC, payout_records.id DESC").
		Limit(limit).Offset((page - 1) * limit).
		Scan(&list).Error
	return list, total, err
}
