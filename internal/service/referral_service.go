package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/internal/monitoring"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Decision is an admin verdict on a pending referral.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// ReferralService owns the referral ledger: accrual of pending referrals
// and the admin decision that moves them to completed.
type ReferralService struct {
	log       *zap.Logger
	referrals *repository.ReferralRepository
	users     *repository.UserRepository
	settings  *ReferralSettings
	audit     *repository.AuditLogRepository
	notifier  Notifier
}

func NewReferralService(
	log *zap.Logger,
	referrals *repository.ReferralRepository,
	users *repository.UserRepository,
	settings *ReferralSettings,
	audit *repository.AuditLogRepository,
	notifier Notifier,
) *ReferralService {
	return &ReferralService{
		log:       log,
		referrals: referrals,
		users:     users,
		settings:  settings,
		audit:     audit,
		notifier:  notifier,
	}
}

// ApproveOrRejectReferral moves one pending referral to the completed list in
// a single transaction. Approval credits the available balance; total earned
// only changes when money is paid out.
func (s *ReferralService) ApproveOrRejectReferral(ctx context.Context, actorID, userID, referralID uint, decision Decision) (*models.CompletedReferral, error) {
	if !decision.Valid() {
		return nil, ErrInvalidDecision.New("%q", decision)
	}

	var completed *models.CompletedReferral
	err := s.referrals.Transaction(ctx, func(tx *repository.ReferralRepository) error {
		program, err := tx.LockLedger(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound.New("referral program for user %d", userID)
		}
		if err != nil {
			return Error.Wrap(err)
		}

		var pending *models.PendingReferral
		for i := range program.PendingReferrals {
			if program.PendingReferrals[i].ID == referralID {
				pending = &program.PendingReferrals[i]
				break
			}
		}
		if pending == nil {
			return ErrNotFound.New("pending referral %d for user %d", referralID, userID)
		}
		if pending.Amount < 0 {
			return ErrInvalidAmount.New("referral %d has negative amount %d", referralID, pending.Amount)
		}

		removed, err := tx.DeletePending(ctx, program.ID, pending.ID)
		if err != nil {
			return Error.Wrap(err)
		}
		if !removed {
			return ErrNotFound.New("pending referral %d for user %d", referralID, userID)
		}

		status := domain.ReferralStatusFailed
		if decision == DecisionApprove {
			status = domain.ReferralStatusCompleted
		}
		completed = &models.CompletedReferral{
			ProgramID: program.ID,
			RefereeID: pending.RefereeID,
			OrderID:   pending.OrderID,
			Amount:    pending.Amount,
			Date:      time.Now(),
			Status:    status,
			IsPaid:    false,
		}
		if err := tx.CreateCompleted(ctx, completed); err != nil {
			return Error.Wrap(err)
		}

		if decision == DecisionApprove {
			program.ReferralEarnings += pending.Amount
			if err := tx.SaveBalances(ctx, program); err != nil {
				return Error.Wrap(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.ReferralDecisions.WithLabelValues(string(decision)).Inc()
	action := domain.AuditReferralRejected
	if decision == DecisionApprove {
		action = domain.AuditReferralApproved
	}
	s.recordAudit(ctx, &userID, actorID, action, "completed_referral", fmt.Sprint(completed.ID),
		fmt.Sprintf(`{"pending_id":%d,"amount":%d}`, referralID, completed.Amount))
	if s.notifier != nil {
		if err := s.notifier.NotifyReferralDecision(ctx, userID, decision == DecisionApprove, completed.Amount); err != nil {
			s.log.Warn("referral decision notification failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return completed, nil
}

// EnsureProgram returns the user's referral program, creating it with a new
// code on first use.
func (s *ReferralService) EnsureProgram(ctx context.Context, userID uint) (*models.ReferralProgram, error) {
	program, err := s.referrals.GetOrCreateProgram(ctx, userID)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return program, nil
}

// ApplyReferralCode attributes userID to the owner of code. A user can be
// attributed once and never to themselves.
func (s *ReferralService) ApplyReferralCode(ctx context.Context, userID uint, code string) (*models.ReferralProgram, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound.New("user %d", userID)
		}
		return nil, Error.Wrap(err)
	}
	program, err := s.referrals.GetProgramByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidReferral.New("%q does not exist", code)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if program.UserID == userID {
		return nil, ErrInvalidReferral.New("cannot use your own referral code")
	}
	ok, err := s.users.SetReferredBy(ctx, userID, program.UserID)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if !ok {
		return nil, ErrAlreadyReferred.New("user %d already has a referrer", userID)
	}
	return program, nil
}

// RecordOrderReferral appends a pending commission to the referrer of
// refereeID for a paid order. It returns nil when the customer has no
// referrer or the order was already recorded.
func (s *ReferralService) RecordOrderReferral(ctx context.Context, refereeID, orderID uint, orderTotal domain.Kobo) (*models.PendingReferral, error) {
	if orderTotal < 0 {
		return nil, ErrInvalidAmount.New("order total %d is negative", orderTotal)
	}
	referee, err := s.users.GetByID(ctx, refereeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.New("user %d", refereeID)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if referee.ReferredByID == nil {
		return nil, nil
	}
	referrerID := *referee.ReferredByID

	amount := orderTotal.ApplyRate(s.settings.CommissionRate(ctx))
	if amount <= 0 {
		return nil, nil
	}

	program, err := s.referrals.GetOrCreateProgram(ctx, referrerID)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	var pending *models.PendingReferral
	err = s.referrals.Transaction(ctx, func(tx *repository.ReferralRepository) error {
		if _, err := tx.LockLedger(ctx, referrerID); err != nil {
			return Error.Wrap(err)
		}
		exists, err := tx.HasOrderReferral(ctx, program.ID, orderID)
		if err != nil {
			return Error.Wrap(err)
		}
		if exists {
			return nil
		}
		pending = &models.PendingReferral{
			ProgramID: program.ID,
			RefereeID: refereeID,
			OrderID:   orderID,
			Amount:    amount,
			Status:    domain.PendingStatusPending,
		}
		return Error.Wrap(tx.CreatePending(ctx, pending))
	})
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, nil
	}

	s.log.Info("referral recorded",
		zap.Uint("referrer_id", referrerID),
		zap.Uint("referee_id", refereeID),
		zap.Uint("order_id", orderID),
		zap.Int64("amount_kobo", int64(amount)))
	if s.notifier != nil {
		if err := s.notifier.NotifyReferralEarned(ctx, referrerID, amount, orderID); err != nil {
			s.log.Warn("referral notification failed", zap.Uint("user_id", referrerID), zap.Error(err))
		}
	}
	return pending, nil
}

// Summary is the account page view of a referral program.
type Summary struct {
	ReferralCode       string                     `json:"referral_code"`
	ReferralEarnings   domain.Kobo                `json:"referral_earnings"`
	TotalEarned        domain.Kobo                `json:"total_earned"`
	MinPayoutAmount    domain.Kobo                `json:"min_payout_amount"`
	InFlightAmount     domain.Kobo                `json:"in_flight_amount"`
	BankDetails        models.BankDetails         `json:"bank_details"`
	PendingReferrals   []models.PendingReferral   `json:"pending_referrals"`
	CompletedReferrals []models.CompletedReferral `json:"completed_referrals"`
	PayoutHistory      []models.PayoutRecord      `json:"payout_history"`
}

func (s *ReferralService) Summary(ctx context.Context, userID uint) (*Summary, error) {
	if _, err := s.EnsureProgram(ctx, userID); err != nil {
		return nil, err
	}
	program, err := s.referrals.GetLedger(ctx, userID)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return &Summary{
		ReferralCode:       program.ReferralCode,
		ReferralEarnings:   program.ReferralEarnings,
		TotalEarned:        program.TotalEarned,
		MinPayoutAmount:    program.MinPayout(s.settings.MinPayout(ctx)),
		InFlightAmount:     models.SumAmounts(program.InFlight()),
		BankDetails:        program.BankDetails,
		PendingReferrals:   program.PendingReferrals,
		CompletedReferrals: program.CompletedReferrals,
		PayoutHistory:      program.PayoutHistory,
	}, nil
}

// ListPending returns the admin review queue, oldest first.
func (s *ReferralService) ListPending(ctx context.Context, limit, offset int) ([]repository.PendingReview, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.referrals.ListPending(ctx, limit, offset)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return list, nil
}

func (s *ReferralService) recordAudit(ctx context.Context, userID *uint, actorID uint, action, resource, resourceID, metadata string) {
	if s.audit == nil {
		return
	}
	var actor *uint
	if actorID != 0 {
		actor = &actorID
	}
	err := s.audit.Create(ctx, &models.AuditLog{
		UserID:     userID,
		ActorID:    actor,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Metadata:   metadata,
	})
	if err != nil {
		s.log.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
