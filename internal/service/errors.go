package service

import (
	"errors"
	"fmt"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"

	"github.com/zeebo/errs"
)

var (
	// ErrNotFound is returned when a user, referral entry or configuration
	// row does not exist.
	ErrNotFound        = errs.Class("not found")
	ErrInvalidAmount   = errs.Class("invalid amount")
	ErrInvalidLocation = errs.Class("invalid location")
	ErrInvalidDecision = errs.Class("invalid decision")
	ErrInvalidReferral = errs.Class("invalid referral code")
	ErrAlreadyReferred = errs.Class("already referred")

	// ErrConfigurationMissing blocks checkout when no active shipping
	// configuration exists.
	ErrConfigurationMissing = errs.Class("shipping configuration missing")

	ErrInvalidBankDetails = errs.Class("invalid bank details")
	// ErrBankVerification wraps failures to verify bank details with the
	// gateway.
	ErrBankVerification = errs.Class("bank verification")

	// ErrTransferFailed means the gateway refused the transfer and the
	// ledger is untouched.
	ErrTransferFailed = errs.Class("transfer failed")
	// ErrTransferStatusUnknown means the transfer may or may not have gone
	// through. The referrals stay claimed until the gateway reports back.
	ErrTransferStatusUnknown = errs.Class("transfer status unknown")
	// ErrTransferPending means the gateway accepted the transfer but has not
	// completed it. The referrals stay claimed until the gateway reports back.
	ErrTransferPending = errs.Class("transfer pending")
	// ErrPersistenceFailure means the transfer went through but the ledger
	// could not record it.
	ErrPersistenceFailure = errs.Class("persistence failure")

	// Error is the class for unexpected storage failures.
	Error = errs.Class("service")
)

// Payout refusal reasons.
const (
	RefusalBankNotVerified    = "bank_not_verified"
	RefusalNoUnpaidReferrals  = "no_unpaid_referrals"
	RefusalBelowMinimumPayout = "below_minimum_payout"
)

// PayoutRefusal is an expected negative payout outcome. It carries the
// amounts the account page needs to explain it.
type PayoutRefusal struct {
	Reason         string      `json:"reason"`
	TotalAmount    domain.Kobo `json:"total_amount"`
	MinimumAmount  domain.Kobo `json:"minimum_amount"`
	RequiredAmount domain.Kobo `json:"required_amount"`
	Balance        domain.Kobo `json:"balance"`
}

func (r *PayoutRefusal) Error() string {
	switch r.Reason {
	case RefusalBankNotVerified:
		return "bank details are not verified"
	case RefusalNoUnpaidReferrals:
		return "no unpaid referrals to pay out"
	case RefusalBelowMinimumPayout:
		return fmt.Sprintf("unpaid earnings %s are below the minimum payout %s; %s more required",
			r.TotalAmount, r.MinimumAmount, r.RequiredAmount)
	}
	return "payout refused: " + r.Reason
}

// AsRefusal extracts a PayoutRefusal from err.
func AsRefusal(err error) (*PayoutRefusal, bool) {
	var r *PayoutRefusal
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
