package models

import (
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
)

// ReferralProgram is a user's referral ledger. It is the aggregate root for
// the pending, completed and payout rows below and is only mutated inside a
// transaction that holds its row lock.
type ReferralProgram struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	UserID           uint         `gorm:"uniqueIndex;not null" json:"user_id"`
	ReferralCode     string       `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	ReferralEarnings domain.Kobo  `gorm:"not null;default:0" json:"referral_earnings"` // available, approved and unpaid
	TotalEarned      domain.Kobo  `gorm:"not null;default:0" json:"total_earned"`      // lifetime amount paid out
	MinPayoutAmount  *domain.Kobo `json:"min_payout_amount,omitempty"`
	BankDetails      BankDetails  `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`

	PendingReferrals   []PendingReferral   `gorm:"foreignKey:ProgramID" json:"pending_referrals"`
	CompletedReferrals []CompletedReferral `gorm:"foreignKey:ProgramID" json:"completed_referrals"`
	PayoutHistory      []PayoutRecord      `gorm:"foreignKey:ProgramID" json:"payout_history"`
}

func (ReferralProgram) TableName() string { return "referral_programs" }

// BankDetails is where payouts go. Verified is only set after the gateway
// resolved the account and issued a recipient code.
type BankDetails struct {
	AccountName           string     `gorm:"size:128" json:"account_name"`
	AccountNumber         string     `gorm:"size:20" json:"account_number"`
	BankCode              string     `gorm:"size:10" json:"bank_code"`
	Verified              bool       `gorm:"not null;default:false" json:"verified"`
	PaystackRecipientCode string     `gorm:"size:64" json:"-"`
	VerifiedAt            *time.Time `json:"verified_at,omitempty"`
}

// PendingReferral awaits an admin decision.
type PendingReferral struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ProgramID uint        `gorm:"not null;uniqueIndex:idx_pending_order" json:"-"`
	RefereeID uint        `gorm:"not null;index" json:"referee_id"`
	OrderID   uint        `gorm:"not null;uniqueIndex:idx_pending_order" json:"order_id"`
	Amount    domain.Kobo `gorm:"not null" json:"amount"`
	Status    string      `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt time.Time   `json:"created_at"`

	Referee *User `gorm:"foreignKey:RefereeID" json:"referee,omitempty"`
}

func (PendingReferral) TableName() string { return "pending_referrals" }

// CompletedReferral is a decided referral. PayoutReference is set while a
// payout holding this row is in flight and kept once it is paid.
type CompletedReferral struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	ProgramID       uint        `gorm:"not null;index" json:"-"`
	RefereeID       uint        `gorm:"not null;index" json:"referee_id"`
	OrderID         uint        `gorm:"not null;index" json:"order_id"`
	Amount          domain.Kobo `gorm:"not null" json:"amount"`
	Date            time.Time   `gorm:"not null" json:"date"`
	Status          string      `gorm:"size:20;not null" json:"status"` // completed | failed
	IsPaid          bool        `gorm:"not null;default:false;index" json:"is_paid"`
	PayoutReference string      `gorm:"size:64;not null;default:'';index" json:"payout_reference,omitempty"`
	PaidAt          *time.Time  `json:"paid_at,omitempty"`

	Referee *User `gorm:"foreignKey:RefereeID" json:"referee,omitempty"`
}

func (CompletedReferral) TableName() string { return "completed_referrals" }

// Payable reports whether the referral can be included in a new payout.
func (r *CompletedReferral) Payable() bool {
	return r.Status == domain.ReferralStatusCompleted && !r.IsPaid && r.PayoutReference == ""
}

// InFlight reports whether the referral is held by a payout whose outcome is
// not settled yet.
func (r *CompletedReferral) InFlight() bool {
	return r.Status == domain.ReferralStatusCompleted && !r.IsPaid && r.PayoutReference != ""
}

// PayoutRecord is one entry of the append-only payout audit log.
type PayoutRecord struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	ProgramID     uint        `gorm:"not null;index" json:"-"`
	Amount        domain.Kobo `gorm:"not null" json:"amount"`
	Date          time.Time   `gorm:"not null" json:"date"`
	Status        string      `gorm:"size:20;not null" json:"status"`
	Reference     string      `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	TransferCode  string      `gorm:"size:64" json:"transfer_code"`
	ReferralCount int         `gorm:"not null" json:"referral_count"`
	ProcessedAt   *time.Time  `json:"processed_at"`
}

func (PayoutRecord) TableName() string { return "payout_records" }

// MinPayout returns the program's payout minimum, or fallback when unset.
func (p *ReferralProgram) MinPayout(fallback domain.Kobo) domain.Kobo {
	if p.MinPayoutAmount != nil && *p.MinPayoutAmount > 0 {
		return *p.MinPayoutAmount
	}
	return fallback
}

// Payable returns the completed referrals a new payout may include.
func (p *ReferralProgram) Payable() []CompletedReferral {
	var out []CompletedReferral
	for _, r := range p.CompletedReferrals {
		if r.Payable() {
			out = append(out, r)
		}
	}
	return out
}

// InFlight returns the completed referrals held by unsettled payouts.
func (p *ReferralProgram) InFlight() []CompletedReferral {
	var out []CompletedReferral
	for _, r := range p.CompletedReferrals {
		if r.InFlight() {
			out = append(out, r)
		}
	}
	return out
}

// SumAmounts totals the referral amounts.
func SumAmounts(refs []CompletedReferral) domain.Kobo {
	var total domain.Kobo
	for _, r := range refs {
		total += r.Amount
	}
	return total
}

// ReferralIDs returns the ids of refs in order.
func ReferralIDs(refs []CompletedReferral) []uint {
	ids := make([]uint, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids
}
