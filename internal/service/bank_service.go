package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"
	"github.com/wayakart27/ecommerce-sub002/pkg/payment"

	"go.uber.org/zap"
)

// BankDetailsInput is the payout account a user submits.
type BankDetailsInput struct {
	AccountNumber string `json:"account_number" binding:"required"`
	BankCode      string `json:"bank_code" binding:"required"`
}

// BankService verifies payout accounts with the gateway.
type BankService struct {
	log       *zap.Logger
	referrals *repository.ReferralRepository
	audit     *repository.AuditLogRepository
	banks     payment.BankResolver
}

func NewBankService(log *zap.Logger, referrals *repository.ReferralRepository, audit *repository.AuditLogRepository, banks payment.BankResolver) *BankService {
	return &BankService{log: log, referrals: referrals, audit: audit, banks: banks}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SaveBankDetails resolves the account holder, registers the account as a
// transfer recipient and stores it as verified. Stored details are marked
// unverified before the gateway is called, so a failed verification never
// leaves an old recipient attached to new account details.
func (s *BankService) SaveBankDetails(ctx context.Context, userID uint, in BankDetailsInput) (*models.BankDetails, error) {
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.BankCode = strings.TrimSpace(in.BankCode)
	if len(in.AccountNumber) != 10 || !isDigits(in.AccountNumber) {
		return nil, ErrInvalidBankDetails.New("account number must be 10 digits")
	}
	if !isDigits(in.BankCode) {
		return nil, ErrInvalidBankDetails.New("bank code must be numeric")
	}

	program, err := s.referrals.GetOrCreateProgram(ctx, userID)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	details := models.BankDetails{AccountNumber: in.AccountNumber, BankCode: in.BankCode}
	if err := s.referrals.SaveBankDetails(ctx, program.ID, details); err != nil {
		return nil, Error.Wrap(err)
	}

	account, err := s.banks.ResolveAccount(ctx, in.AccountNumber, in.BankCode)
	if err != nil {
		s.log.Info("bank account resolution failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, ErrBankVerification.Wrap(err)
	}
	code, err := s.banks.CreateRecipient(ctx, payment.RecipientRequest{
		Name:          account.AccountName,
		AccountNumber: in.AccountNumber,
		BankCode:      in.BankCode,
	})
	if err != nil {
		s.log.Warn("transfer recipient creation failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, ErrBankVerification.Wrap(err)
	}

	now := time.Now()
	details.AccountName = account.AccountName
	details.Verified = true
	details.PaystackRecipientCode = code
	details.VerifiedAt = &now
	if err := s.referrals.SaveBankDetails(ctx, program.ID, details); err != nil {
		return nil, Error.Wrap(err)
	}

	if s.audit != nil {
		err := s.audit.Create(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     domain.AuditBankVerified,
			Resource:   "referral_program",
			ResourceID: fmt.Sprint(program.ID),
			Metadata:   fmt.Sprintf(`{"bank_code":%q,"account_last4":%q}`, in.BankCode, in.AccountNumber[6:]),
		})
		if err != nil {
			s.log.Warn("audit log write failed", zap.Error(err))
		}
	}
	return &details, nil
}
