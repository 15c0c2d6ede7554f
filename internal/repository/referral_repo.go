package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository persists referral ledgers. Methods called on the
// repository passed to Transaction run inside that transaction.
type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Transaction runs fn with a repository bound to a single database
// transaction. The transaction commits when fn returns nil and rolls back
// otherwise.
func (r *ReferralRepository) Transaction(ctx context.Context, fn func(tx *ReferralRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ReferralRepository{db: tx})
	})
}

// generateReferralCode returns an 8-character uppercase hex referral code.
func generateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// GetOrCreateProgram returns the user's referral program, creating one with a
// fresh unique code if it doesn't exist yet.
func (r *ReferralRepository) GetOrCreateProgram(ctx context.Context, userID uint) (*models.ReferralProgram, error) {
	var p models.ReferralProgram
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err == nil {
		return &p, nil
	}
	for i := 0; i < 10; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		p = models.ReferralProgram{UserID: userID, ReferralCode: code}
		res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return &p, nil
		}
		// Either another request created the program or the code collided.
		var existing models.ReferralProgram
		if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; err == nil {
			return &existing, nil
		}
	}
	return nil, fmt.Errorf("failed to generate a unique referral code after retries")
}

// GetProgramByCode returns the program owning code.
func (r *ReferralRepository) GetProgramByCode(ctx context.Context, code string) (*models.ReferralProgram, error) {
	var p models.ReferralProgram
	err := r.db.WithContext(ctx).Where("referral_code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetLedger loads the program and all of its entries without locking.
func (r *ReferralRepository) GetLedger(ctx context.Context, userID uint) (*models.ReferralProgram, error) {
	return r.loadLedger(r.db.WithContext(ctx), userID)
}

// LockLedger loads the program with its row locked for the rest of the
// transaction, then its entries.
func (r *ReferralRepository) LockLedger(ctx context.Context, userID uint) (*models.ReferralProgram, error) {
	return r.loadLedger(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *ReferralRepository) loadLedger(q *gorm.DB, userID uint) (*models.ReferralProgram, error) {
	var p models.ReferralProgram
	if err := q.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	db := r.db.WithContext(q.Statement.Context)
	if err := db.Where("program_id = ?", p.ID).Order("id").Find(&p.PendingReferrals).Error; err != nil {
		return nil, err
	}
	if err := db.Where("program_id = ?", p.ID).Order("id").Find(&p.CompletedReferrals).Error; err != nil {
		return nil, err
	}
	if err := db.Where("program_id = ?", p.ID).Order("id").Find(&p.PayoutHistory).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// HasOrderReferral reports whether orderID already produced a referral entry
// in the program, pending or decided.
func (r *ReferralRepository) HasOrderReferral(ctx context.Context, programID, orderID uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.PendingReferral{}).
		Where("program_id = ? AND order_id = ?", programID, orderID).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.CompletedReferral{}).
		Where("program_id = ? AND order_id = ?", programID, orderID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ReferralRepository) CreatePending(ctx context.Context, p *models.PendingReferral) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// DeletePending removes a pending entry and reports whether it existed.
func (r *ReferralRepository) DeletePending(ctx context.Context, programID, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND program_id = ?", id, programID).Delete(&models.PendingReferral{})
	return res.RowsAffected == 1, res.Error
}

func (r *ReferralRepository) CreateCompleted(ctx context.Context, c *models.CompletedReferral) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// SaveBalances writes the program's balance columns as computed by the caller.
func (r *ReferralRepository) SaveBalances(ctx context.Context, p *models.ReferralProgram) error {
	return r.db.WithContext(ctx).Model(&models.ReferralProgram{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"referral_earnings": p.ReferralEarnings,
		"total_earned":      p.TotalEarned,
		"updated_at":        time.Now(),
	}).Error
}

// SaveBankDetails overwrites the program's bank columns.
func (r *ReferralRepository) SaveBankDetails(ctx context.Context, programID uint, b models.BankDetails) error {
	return r.db.WithContext(ctx).Model(&models.ReferralProgram{}).Where("id = ?", programID).Updates(map[string]interface{}{
		"bank_account_name":            b.AccountName,
		"bank_account_number":          b.AccountNumber,
		"bank_bank_code":               b.BankCode,
		"bank_verified":                b.Verified,
		"bank_paystack_recipient_code": b.PaystackRecipientCode,
		"bank_verified_at":             b.VerifiedAt,
		"updated_at":                   time.Now(),
	}).Error
}

// ClaimReferrals stamps reference on the given payable referrals and returns
// how many rows it stamped. Rows already paid or claimed are left alone.
func (r *ReferralRepository) ClaimReferrals(ctx context.Context, programID uint, ids []uint, reference string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.CompletedReferral{}).
		Where("program_id = ? AND id IN ? AND is_paid = ? AND payout_reference = ?", programID, ids, false, "").
		Update("payout_reference", reference)
	return res.RowsAffected, res.Error
}

// ReleaseClaim clears an unpaid claim.
func (r *ReferralRepository) ReleaseClaim(ctx context.Context, reference string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.CompletedReferral{}).
		Where("payout_reference = ? AND is_paid = ?", reference, false).
		Update("payout_reference", "")
	return res.RowsAffected, res.Error
}

// ClaimedReferrals returns the unpaid referrals held by reference.
func (r *ReferralRepository) ClaimedReferrals(ctx context.Context, reference string) ([]models.CompletedReferral, error) {
	var list []models.CompletedReferral
	err := r.db.WithContext(ctx).
		Where("payout_reference = ? AND is_paid = ?", reference, false).
		Order("id").Find(&list).Error
	return list, err
}

// MarkPaid flags exactly the claimed ids as paid and returns how many rows
// changed.
func (r *ReferralRepository) MarkPaid(ctx context.Context, ids []uint, reference string, paidAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.CompletedReferral{}).
		Where("id IN ? AND payout_reference = ? AND is_paid = ?", ids, reference, false).
		Updates(map[string]interface{}{"is_paid": true, "paid_at": paidAt})
	return res.RowsAffected, res.Error
}

func (r *ReferralRepository) CreatePayout(ctx context.Context, p *models.PayoutRecord) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetPayoutByReference returns the payout record for a transfer reference.
func (r *ReferralRepository) GetPayoutByReference(ctx context.Context, reference string) (*models.PayoutRecord, error) {
	var p models.PayoutRecord
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePayoutStatus records a later status reported by the gateway.
func (r *ReferralRepository) UpdatePayoutStatus(ctx context.Context, id uint, status string, processedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PayoutRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "processed_at": processedAt}).Error
}

// GetProgramByID returns the program without its entries.
func (r *ReferralRepository) GetProgramByID(ctx context.Context, id uint) (*models.ReferralProgram, error) {
	var p models.ReferralProgram
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// InFlightClaim summarises referrals held by one unsettled payout.
type InFlightClaim struct {
	ProgramID     uint        `json:"program_id"`
	UserID        uint        `json:"user_id"`
	Reference     string      `json:"reference"`
	Amount        domain.Kobo `json:"amount"`
	ReferralCount int         `json:"referral_count"`
}

// ListInFlight returns every claim that has not been settled or released.
func (r *ReferralRepository) ListInFlight(ctx context.Context) ([]InFlightClaim, error) {
	var list []InFlightClaim
	err := r.db.WithContext(ctx).Table("completed_referrals AS c").
		Select("c.program_id, p.user_id, c.payout_reference AS reference, SUM(c.amount) AS amount, COUNT(*) AS referral_count").
		Joins("JOIN referral_programs p ON p.id = c.program_id").
		Where("c.payout_reference <> ? AND c.is_paid = ?", "", false).
		Group("c.program_id, p.user_id, c.payout_reference").
		Order("c.payout_reference").
		Scan(&list).Error
	return list, err
}

// PendingReview is a pending referral with the referrer it belongs to.
type PendingReview struct {
	models.PendingReferral
	ReferrerID uint `json:"referrer_id"`
}

// ListPending returns pending referrals oldest first, with referees preloaded.
func (r *ReferralRepository) ListPending(ctx context.Context, limit, offset int) ([]PendingReview, error) {
	var pending []models.PendingReferral
	err := r.db.WithContext(ctx).Preload("Referee").Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).Find(&pending).Error
	if err != nil {
		return nil, err
	}
	programIDs := make([]uint, 0, len(pending))
	for _, p := range pending {
		programIDs = append(programIDs, p.ProgramID)
	}
	owners := make(map[uint]uint, len(programIDs))
	if len(programIDs) > 0 {
		var programs []models.ReferralProgram
		if err := r.db.WithContext(ctx).Select("id, user_id").Where("id IN ?", programIDs).Find(&programs).Error; err != nil {
			return nil, err
		}
		for _, p := range programs {
			owners[p.ID] = p.UserID
		}
	}
	out := make([]PendingReview, 0, len(pending))
	for _, p := range pending {
		out = append(out, PendingReview{PendingReferral: p, ReferrerID: owners[p.ProgramID]})
	}
	return out, nil
}
