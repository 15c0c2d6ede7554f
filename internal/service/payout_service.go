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
	"github.com/wayakart27/ecommerce-sub002/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const payoutReason = "Referral earnings payout"

// ReconciliationError reports a payout that is not settled when
// ProcessReferralPayout returns. It wraps ErrTransferPending when the gateway
// will report the outcome, ErrTransferStatusUnknown when it may not, or
// ErrPersistenceFailure when the ledger could not record a completed transfer.
type ReconciliationError struct {
	Reference string
	Amount    domain.Kobo
	err       error
}

func (e *ReconciliationError) Error() string { return e.err.Error() }
func (e *ReconciliationError) Unwrap() error { return e.err }

// PayoutService moves available referral earnings to the user's bank account.
//
// A payout runs in three steps. The claim transaction locks the program,
// checks eligibility and stamps the selected referrals with the transfer
// reference so concurrent payouts cannot select them again. The transfer is
// then requested outside any transaction. Only a transfer the gateway reports
// as completed is settled inline: the settle transaction marks the claimed
// referrals paid, moves the amount from the available balance to total earned
// and appends the payout record. Transfers still in progress keep their claim
// until ReconcileTransfer sees the final status.
type PayoutService struct {
	log             *zap.Logger
	referrals       *repository.ReferralRepository
	settings        *ReferralSettings
	audit           *repository.AuditLogRepository
	notifier        Notifier
	transfers       payment.Transferer
	transferTimeout time.Duration
	now             func() time.Time
}

func NewPayoutService(
	log *zap.Logger,
	referrals *repository.ReferralRepository,
	settings *ReferralSettings,
	audit *repository.AuditLogRepository,
	notifier Notifier,
	transfers payment.Transferer,
	transferTimeout time.Duration,
) *PayoutService {
	return &PayoutService{
		log:             log,
		referrals:       referrals,
		settings:        settings,
		audit:           audit,
		notifier:        notifier,
		transfers:       transfers,
		transferTimeout: transferTimeout,
		now:             time.Now,
	}
}

// Eligibility is the read-only payout projection shown on the account page.
type Eligibility struct {
	Eligible       bool        `json:"eligible"`
	Reason         string      `json:"reason,omitempty"`
	TotalAmount    domain.Kobo `json:"total_amount"`
	MinimumAmount  domain.Kobo `json:"minimum_amount"`
	RequiredAmount domain.Kobo `json:"required_amount"`
	Balance        domain.Kobo `json:"balance"`
	InFlightAmount domain.Kobo `json:"in_flight_amount"`
	ReferralCount  int         `json:"referral_count"`
	BankVerified   bool        `json:"bank_verified"`
}

// evaluate selects the referrals a payout would include, or explains why
// there is no payout.
func evaluate(program *models.ReferralProgram, minimum domain.Kobo) ([]models.CompletedReferral, *PayoutRefusal) {
	payable := program.Payable()
	total := models.SumAmounts(payable)
	refusal := &PayoutRefusal{
		TotalAmount:   total,
		MinimumAmount: minimum,
		Balance:       program.ReferralEarnings,
	}
	switch {
	case !program.BankDetails.Verified || program.BankDetails.PaystackRecipientCode == "":
		refusal.Reason = RefusalBankNotVerified
	case len(payable) == 0:
		refusal.Reason = RefusalNoUnpaidReferrals
	case total < minimum:
		refusal.Reason = RefusalBelowMinimumPayout
		refusal.RequiredAmount = minimum - total
	default:
		return payable, nil
	}
	return nil, refusal
}

// CheckPayoutEligibility computes the same checks as ProcessReferralPayout
// without locking, writing or calling the gateway.
func (s *PayoutService) CheckPayoutEligibility(ctx context.Context, userID uint) (*Eligibility, error) {
	program, err := s.referrals.GetLedger(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.New("referral program for user %d", userID)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	minimum := program.MinPayout(s.settings.MinPayout(ctx))
	payable, refusal := evaluate(program, minimum)
	e := &Eligibility{
		Eligible:       refusal == nil,
		TotalAmount:    models.SumAmounts(program.Payable()),
		MinimumAmount:  minimum,
		Balance:        program.ReferralEarnings,
		InFlightAmount: models.SumAmounts(program.InFlight()),
		ReferralCount:  len(payable),
		BankVerified:   program.BankDetails.Verified,
	}
	if refusal != nil {
		e.Reason = refusal.Reason
		e.RequiredAmount = refusal.RequiredAmount
	}
	return e, nil
}

type payoutClaim struct {
	userID        uint
	recipientCode string
	reference     string
	ids           []uint
	amount        domain.Kobo
}

func (c *payoutClaim) fields() []zap.Field {
	return []zap.Field{
		zap.Uint("user_id", c.userID),
		zap.String("reference", c.reference),
		zap.Int64("amount_kobo", int64(c.amount)),
		zap.Uints("referral_ids", c.ids),
	}
}

// ProcessReferralPayout pays out every approved, unpaid referral of userID in
// one transfer. Refusals are returned as *PayoutRefusal before the gateway is
// called. Outcomes that need manual reconciliation are returned as
// *ReconciliationError.
func (s *PayoutService) ProcessReferralPayout(ctx context.Context, userID uint) (*models.PayoutRecord, error) {
	// The transfer and settle steps must not be abandoned halfway when the
	// caller goes away.
	ctx = context.WithoutCancel(ctx)

	claim, err := s.claim(ctx, userID)
	if err != nil {
		if _, ok := AsRefusal(err); ok {
			monitoring.PayoutsTotal.WithLabelValues("refused").Inc()
		}
		return nil, err
	}

	result, err := s.transfer(ctx, claim)
	if err != nil {
		return nil, err
	}

	if result.Status != payment.TransferStatusSuccess {
		monitoring.PayoutsTotal.WithLabelValues("transfer_pending").Inc()
		s.log.Info("transfer accepted, waiting for gateway confirmation",
			append(claim.fields(), zap.String("transfer_code", result.TransferCode), zap.String("status", result.Status))...)
		return nil, &ReconciliationError{
			Reference: claim.reference,
			Amount:    claim.amount,
			err:       ErrTransferPending.New("transfer %s is %s", claim.reference, result.Status),
		}
	}

	record, created, err := s.settle(ctx, claim.userID, claim.reference, claim.amount, result.TransferCode)
	if err != nil {
		monitoring.PayoutsTotal.WithLabelValues("persistence_failure").Inc()
		monitoring.ReconciliationAlerts.WithLabelValues("persistence_failure").Inc()
		s.log.Error("reconciliation required: transfer accepted but ledger commit failed",
			append(claim.fields(), zap.String("transfer_code", result.TransferCode), zap.Error(err))...)
		return nil, &ReconciliationError{
			Reference: claim.reference,
			Amount:    claim.amount,
			err:       ErrPersistenceFailure.Wrap(err),
		}
	}

	monitoring.PayoutsTotal.WithLabelValues("paid").Inc()
	monitoring.PayoutAmountKobo.Add(float64(claim.amount))
	s.log.Info("referral payout settled", append(claim.fields(), zap.String("status", record.Status))...)
	if created {
		s.afterSettle(ctx, claim.userID, record)
	}
	return record, nil
}

// claim checks eligibility under the program lock and stamps the selected
// referrals with a fresh reference.
func (s *PayoutService) claim(ctx context.Context, userID uint) (*payoutClaim, error) {
	minimum := s.settings.MinPayout(ctx)
	var claim *payoutClaim
	err := s.referrals.Transaction(ctx, func(tx *repository.ReferralRepository) error {
		program, err := tx.LockLedger(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound.New("referral program for user %d", userID)
		}
		if err != nil {
			return Error.Wrap(err)
		}
		payable, refusal := evaluate(program, program.MinPayout(minimum))
		if refusal != nil {
			return refusal
		}

		ids := models.ReferralIDs(payable)
		reference := uuid.NewString()
		n, err := tx.ClaimReferrals(ctx, program.ID, ids, reference)
		if err != nil {
			return Error.Wrap(err)
		}
		if n != int64(len(ids)) {
			return Error.New("claimed %d of %d referrals", n, len(ids))
		}
		claim = &payoutClaim{
			userID:        userID,
			recipientCode: program.BankDetails.PaystackRecipientCode,
			reference:     reference,
			ids:           ids,
			amount:        models.SumAmounts(payable),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *PayoutService) transfer(ctx context.Context, claim *payoutClaim) (*payment.TransferResult, error) {
	tctx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.transfers.InitiateTransfer(tctx, payment.TransferRequest{
		RecipientCode: claim.recipientCode,
		AmountKobo:    int64(claim.amount),
		Reason:        payoutReason,
		Reference:     claim.reference,
	})
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		monitoring.TransferLatency.WithLabelValues("accepted").Observe(elapsed)
		return result, nil

	case payment.ErrRejected.Has(err):
		monitoring.TransferLatency.WithLabelValues("rejected").Observe(elapsed)
		monitoring.PayoutsTotal.WithLabelValues("transfer_failed").Inc()
		s.log.Warn("transfer rejected, releasing claim", append(claim.fields(), zap.Error(err))...)
		if _, rerr := s.referrals.ReleaseClaim(ctx, claim.reference); rerr != nil {
			monitoring.ReconciliationAlerts.WithLabelValues("release_failed").Inc()
			s.log.Error("reconciliation required: could not release rejected claim",
				append(claim.fields(), zap.Error(rerr))...)
		}
		return nil, ErrTransferFailed.Wrap(err)

	default:
		monitoring.TransferLatency.WithLabelValues("unknown").Observe(elapsed)
		monitoring.PayoutsTotal.WithLabelValues("transfer_unknown").Inc()
		monitoring.ReconciliationAlerts.WithLabelValues("transfer_unknown").Inc()
		s.log.Error("reconciliation required: transfer outcome unknown, referrals stay claimed",
			append(claim.fields(), zap.Error(err))...)
		return nil, &ReconciliationError{
			Reference: claim.reference,
			Amount:    claim.amount,
			err:       ErrTransferStatusUnknown.New("transfer %s: %v", claim.reference, err),
		}
	}
}

// errClaimReleased is returned by settle when the reference no longer holds
// any referrals.
var errClaimReleased = errors.New("claim no longer held")

// settle records a completed transfer of the referrals claimed by reference.
// When reference was already settled it returns the existing record and
// created is false.
func (s *PayoutService) settle(ctx context.Context, userID uint, reference string, amount domain.Kobo, transferCode string) (record *models.PayoutRecord, created bool, err error) {
	err = s.referrals.Transaction(ctx, func(tx *repository.ReferralRepository) error {
		program, err := tx.LockLedger(ctx, userID)
		if err != nil {
			return Error.Wrap(err)
		}
		existing, err := tx.GetPayoutByReference(ctx, reference)
		if err == nil {
			record = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Error.Wrap(err)
		}

		claimed, err := tx.ClaimedReferrals(ctx, reference)
		if err != nil {
			return Error.Wrap(err)
		}
		if len(claimed) == 0 {
			return errClaimReleased
		}
		if sum := models.SumAmounts(claimed); sum != amount {
			return Error.New("claimed referrals total %s, transfer is %s", sum, amount)
		}
		ids := models.ReferralIDs(claimed)

		now := s.now()
		n, err := tx.MarkPaid(ctx, ids, reference, now)
		if err != nil {
			return Error.Wrap(err)
		}
		if n != int64(len(ids)) {
			return Error.New("marked %d of %d claimed referrals paid", n, len(ids))
		}
		if program.ReferralEarnings < amount {
			return Error.New("available balance %s is below payout amount %s", program.ReferralEarnings, amount)
		}
		program.ReferralEarnings -= amount
		program.TotalEarned += amount
		if err := tx.SaveBalances(ctx, program); err != nil {
			return Error.Wrap(err)
		}

		record = &models.PayoutRecord{
			ProgramID:     program.ID,
			Amount:        amount,
			Date:          now,
			Status:        domain.PayoutStatusSuccess,
			Reference:     reference,
			TransferCode:  transferCode,
			ReferralCount: len(ids),
			ProcessedAt:   &now,
		}
		created = true
		return Error.Wrap(tx.CreatePayout(ctx, record))
	})
	if err != nil {
		return nil, false, err
	}
	return record, created, nil
}

func (s *PayoutService) afterSettle(ctx context.Context, userID uint, record *models.PayoutRecord) {
	if s.audit != nil {
		err := s.audit.Create(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     domain.AuditPayoutSettled,
			Resource:   "payout_record",
			ResourceID: record.Reference,
			Metadata:   fmt.Sprintf(`{"amount":%d,"referral_count":%d,"status":%q}`, record.Amount, record.ReferralCount, record.Status),
		})
		if err != nil {
			s.log.Warn("audit log write failed", zap.String("reference", record.Reference), zap.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyPayoutSent(ctx, userID, record.Amount, record.Reference); err != nil {
			s.log.Warn("payout notification failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
}

// Reconciliation outcomes.
const (
	ReconcileSettled        = "settled"
	ReconcileReleased       = "released"
	ReconcileStatusUpdated  = "status_updated"
	ReconcileUnchanged      = "unchanged"
	ReconcileIgnored        = "ignored"
	ReconcileAmountMismatch = "amount_mismatch"
)

// ReconcileTransfer applies a transfer status reported by the gateway. A
// successful transfer settles referrals still claimed by its reference; a
// failed or reversed one releases them. For payouts already settled only the
// record status changes. Replaying an event has no further effect.
func (s *PayoutService) ReconcileTransfer(ctx context.Context, event string, t payment.TransferEvent) (string, error) {
	var status string
	switch event {
	case payment.EventTransferSuccess:
		status = domain.PayoutStatusSuccess
	case payment.EventTransferFailed:
		status = domain.PayoutStatusFailed
	case payment.EventTransferReversed:
		status = domain.PayoutStatusReversed
	default:
		return ReconcileIgnored, nil
	}
	log := s.log.With(zap.String("event", event), zap.String("reference", t.Reference))

	record, err := s.referrals.GetPayoutByReference(ctx, t.Reference)
	switch {
	case err == nil:
		return s.updateSettled(ctx, log, record, status)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", Error.Wrap(err)
	}

	claimed, err := s.referrals.ClaimedReferrals(ctx, t.Reference)
	if err != nil {
		return "", Error.Wrap(err)
	}
	if len(claimed) == 0 {
		log.Info("no claim for transfer reference")
		return ReconcileIgnored, nil
	}
	program, err := s.referrals.GetProgramByID(ctx, claimed[0].ProgramID)
	if err != nil {
		return "", Error.Wrap(err)
	}

	if status != domain.PayoutStatusSuccess {
		return s.release(ctx, log, program.UserID, t.Reference, status)
	}

	amount := models.SumAmounts(claimed)
	if t.Amount != 0 && t.Amount != int64(amount) {
		monitoring.ReconciliationAlerts.WithLabelValues("amount_mismatch").Inc()
		log.Error("reconciliation required: transfer amount does not match claim",
			zap.Uint("user_id", program.UserID), zap.Int64("claim_kobo", int64(amount)), zap.Int64("transfer_kobo", t.Amount))
		return ReconcileAmountMismatch, nil
	}

	rec, created, err := s.settle(ctx, program.UserID, t.Reference, amount, t.TransferCode)
	if errors.Is(err, errClaimReleased) {
		log.Info("claim released before confirmation arrived")
		return ReconcileIgnored, nil
	}
	if err != nil {
		monitoring.ReconciliationAlerts.WithLabelValues("persistence_failure").Inc()
		log.Error("reconciliation required: could not settle confirmed transfer",
			zap.Uint("user_id", program.UserID), zap.Int64("amount_kobo", int64(amount)), zap.Error(err))
		return "", ErrPersistenceFailure.Wrap(err)
	}
	if !created {
		return ReconcileUnchanged, nil
	}
	monitoring.PayoutsTotal.WithLabelValues("paid").Inc()
	monitoring.PayoutAmountKobo.Add(float64(amount))
	log.Info("settled claim from webhook", zap.Uint("user_id", program.UserID), zap.Int64("amount_kobo", int64(amount)))
	s.afterSettle(ctx, program.UserID, rec)
	return ReconcileSettled, nil
}

// updateSettled records a status change for a payout that was already
// settled. Balances are not touched; a settled payout reported as failed or
// reversed raises an alert instead.
func (s *PayoutService) updateSettled(ctx context.Context, log *zap.Logger, record *models.PayoutRecord, status string) (string, error) {
	if record.Status == status {
		return ReconcileUnchanged, nil
	}
	if err := s.referrals.UpdatePayoutStatus(ctx, record.ID, status, s.now()); err != nil {
		return "", Error.Wrap(err)
	}
	if status != domain.PayoutStatusSuccess {
		monitoring.ReconciliationAlerts.WithLabelValues("reversed_after_settle").Inc()
		log.Error("reconciliation required: settled payout reported "+status,
			zap.Uint("program_id", record.ProgramID), zap.Int64("amount_kobo", int64(record.Amount)))
	}
	return ReconcileStatusUpdated, nil
}

// release clears the claim held by reference under the program lock, so it
// cannot interleave with a settle of the same reference.
func (s *PayoutService) release(ctx context.Context, log *zap.Logger, userID uint, reference, status string) (string, error) {
	var (
		settled  *models.PayoutRecord
		released int64
	)
	err := s.referrals.Transaction(ctx, func(tx *repository.ReferralRepository) error {
		if _, err := tx.LockLedger(ctx, userID); err != nil {
			return Error.Wrap(err)
		}
		record, err := tx.GetPayoutByReference(ctx, reference)
		if err == nil {
			settled = record
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Error.Wrap(err)
		}
		released, err = tx.ReleaseClaim(ctx, reference)
		return Error.Wrap(err)
	})
	if err != nil {
		return "", err
	}
	if settled != nil {
		return s.updateSettled(ctx, log, settled, status)
	}
	if released == 0 {
		return ReconcileIgnored, nil
	}
	log.Info("released claim after failed transfer", zap.Uint("user_id", userID), zap.Int64("referrals", released))
	s.recordReleased(ctx, userID, reference, status)
	return ReconcileReleased, nil
}

func (s *PayoutService) recordReleased(ctx context.Context, userID uint, reference, status string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Create(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     domain.AuditPayoutReleased,
		Resource:   "payout_claim",
		ResourceID: reference,
		Metadata:   fmt.Sprintf(`{"status":%q}`, status),
	})
	if err != nil {
		s.log.Warn("audit log write failed", zap.String("reference", reference), zap.Error(err))
	}
}

// ListInFlight returns claims still waiting for a transfer outcome.
func (s *PayoutService) ListInFlight(ctx context.Context) ([]repository.InFlightClaim, error) {
	list, err := s.referrals.ListInFlight(ctx)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return list, nil
}
