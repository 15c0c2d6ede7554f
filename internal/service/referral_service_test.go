package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/internal/service"
)

func TestApproveReferral(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	p := env.seedLedger(t, 1, true)
	pending := env.seedPending(t, p.ID, 1001, 7, 45000)

	completed, err := env.referralService(t).ApproveOrRejectReferral(ctx, 500, 1, pending.ID, service.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, domain.ReferralStatusCompleted, completed.Status)
	assert.Equal(t, domain.Kobo(45000), completed.Amount)
	assert.Equal(t, uint(7), completed.OrderID)
	assert.False(t, completed.IsPaid)

	ledger := env.ledger(t, 1)
	assert.Empty(t, ledger.PendingReferrals)
	require.Len(t, ledger.CompletedReferrals, 1)
	assert.Equal(t, domain.Kobo(45000), ledger.ReferralEarnings)
	assert.Equal(t, domain.Kobo(0), ledger.TotalEarned, "total earned only moves on payout")

	var audit models.AuditLog
	require.NoError(t, env.db.Where("action = ?", domain.AuditReferralApproved).First(&audit).Error)
	require.NotNil(t, audit.ActorID)
	assert.Equal(t, uint(500), *audit.ActorID)
}

func TestRejectReferral(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	p := env.seedLedger(t, 1, true)
	pending := env.seedPending(t, p.ID, 1001, 7, 45000)

	completed, err := env.referralService(t).ApproveOrRejectReferral(ctx, 500, 1, pending.ID, service.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, domain.ReferralStatusFailed, completed.Status)

	ledger := env.ledger(t, 1)
	assert.Empty(t, ledger.PendingReferrals)
	require.Len(t, ledger.CompletedReferrals, 1)
	assert.Equal(t, domain.Kobo(0), ledger.ReferralEarnings)
	assert.Empty(t, ledger.Payable())
}

func TestApproveReferralNegativeAmount(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	p := env.seedLedger(t, 1, true)
	pending := env.seedPending(t, p.ID, 1001, 7, -100)

	_, err := env.referralService(t).ApproveOrRejectReferral(ctx, 500, 1, pending.ID, service.DecisionApprove)
	require.Error(t, err)
	assert.True(t, service.ErrInvalidAmount.Has(err))

	ledger := env.ledger(t, 1)
	require.Len(t, ledger.PendingReferrals, 1)
	assert.Equal(t, domain.Kobo(-100), ledger.PendingReferrals[0].Amount)
	assert.Empty(t, ledger.CompletedReferrals)
	assert.Equal(t, domain.Kobo(0), ledger.ReferralEarnings)
}

func TestApproveReferralNotFound(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	p := env.seedLedger(t, 1, true)
	pending := env.seedPending(t, p.ID, 1001, 7, 45000)
	svc := env.referralService(t)

	_, err := svc.ApproveOrRejectReferral(ctx, 500, 2, pending.ID, service.DecisionApprove)
	assert.True(t, service.ErrNotFound.Has(err), "unknown user")

	_, err = svc.ApproveOrRejectReferral(ctx, 500, 1, pending.ID+10, service.DecisionApprove)
	assert.True(t, service.ErrNotFound.Has(err), "unknown referral")

	_, err = svc.ApproveOrRejectReferral(ctx, 500, 1, pending.ID, service.Decision("maybe"))
	assert.True(t, service.ErrInvalidDecision.Has(err))

	_, err = svc.ApproveOrRejectReferral(ctx, 500, 1, pending.ID, service.DecisionApprove)
	require.NoError(t, err)
	_, err = svc.ApproveOrRejectReferral(ctx, 500, 1, pending.ID, service.DecisionApprove)
	assert.True(t, service.ErrNotFound.Has(err), "a decided referral cannot be decided again")
	assert.Equal(t, domain.Kobo(45000), env.ledger(t, 1).ReferralEarnings)
}

func TestReferralBalanceConservation(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	p := env.seedLedger(t, 1, true)
	referrals := env.referralService(t)
	payouts := env.payoutService(t, &fakeTransferer{}, time.Second)

	var approved domain.Kobo
	decide := func(orderID uint, amount domain.Kobo, d service.Decision) {
		pending := env.seedPending(t, p.ID, 1001, orderID, amount)
		_, err := referrals.ApproveOrRejectReferral(ctx, 500, 1, pending.ID, d)
		require.NoError(t, err)
		if d == service.DecisionApprove {
			approved += amount
		}
	}
	check := func() {
		ledger := env.ledger(t, 1)
		var paid domain.Kobo
		for _, rec := range ledger.PayoutHistory {
			paid += rec.Amount
		}
		assert.Equal(t, approved, ledger.ReferralEarnings+paid)
		assert.Equal(t, paid, ledger.TotalEarned)
		assert.GreaterOrEqual(t, int64(ledger.ReferralEarnings), int64(0))
	}

	decide(1, 300000, service.DecisionApprove)
	decide(2, 150000, service.DecisionReject)
	decide(3, 250000, service.DecisionApprove)
	check()

	before := env.ledger(t, 1)
	record, err := payouts.ProcessReferralPayout(ctx, 1)
	require.NoError(t, err)
	after := env.ledger(t, 1)
	assert.Equal(t, before.ReferralEarnings-record.Amount, after.ReferralEarnings)
	assert.Equal(t, before.TotalEarned+record.Amount, after.TotalEarned)
	check()

	decide(4, 600000, service.DecisionApprove)
	check()
	_, err = payouts.ProcessReferralPayout(ctx, 1)
	require.NoError(t, err)
	check()
	assert.Len(t, env.ledger(t, 1).PayoutHistory, 2)
}

func TestEnsureProgram(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	env.seedUser(t, 1)
	svc := env.referralService(t)

	first, err := svc.EnsureProgram(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first.ReferralCode, 8)

	second, err := svc.EnsureProgram(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ReferralCode, second.ReferralCode)
}

func TestApplyReferralCode(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	referrer := env.seedLedger(t, 1, true)
	env.seedUser(t, 2)
	env.seedUser(t, 3)
	svc := env.referralService(t)

	_, err := svc.ApplyReferralCode(ctx, 1, referrer.ReferralCode)
	assert.True(t, service.ErrInvalidReferral.Has(err), "self referral")

	_, err = svc.ApplyReferralCode(ctx, 2, "NOPE0000")
	assert.True(t, service.ErrInvalidReferral.Has(err))

	program, err := svc.ApplyReferralCode(ctx, 2, " code0001 ")
	require.NoError(t, err)
	assert.Equal(t, uint(1), program.UserID)

	u, err := env.users.GetByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, u.ReferredByID)
	assert.Equal(t, uint(1), *u.ReferredByID)

	_, err = svc.ApplyReferralCode(ctx, 2, referrer.ReferralCode)
	assert.True(t, service.ErrAlreadyReferred.Has(err))

	_, err = svc.ApplyReferralCode(ctx, 404, referrer.ReferralCode)
	assert.True(t, service.ErrNotFound.Has(err))
}

func TestRecordOrderReferral(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	env.seedUser(t, 1)
	env.seedUser(t, 2)
	env.seedUser(t, 3)
	svc := env.referralService(t)

	code, err := svc.EnsureProgram(ctx, 1)
	require.NoError(t, err)
	_, err = svc.ApplyReferralCode(ctx, 2, code.ReferralCode)
	require.NoError(t, err)

	pending, err := svc.RecordOrderReferral(ctx, 2, 77, 1234567)
	require.NoError(t, err)
	require.NotNil(t, pending)
	// 5% of 1,234,567 kobo rounds to 61,728.
	assert.Equal(t, domain.Kobo(61728), pending.Amount)
	assert.Equal(t, uint(2), pending.RefereeID)

	again, err := svc.RecordOrderReferral(ctx, 2, 77, 1234567)
	require.NoError(t, err)
	assert.Nil(t, again, "an order is recorded once")

	none, err := svc.RecordOrderReferral(ctx, 3, 78, 1000000)
	require.NoError(t, err)
	assert.Nil(t, none, "customers without a referrer earn nobody a commission")

	_, err = svc.RecordOrderReferral(ctx, 2, 79, -1)
	assert.True(t, service.ErrInvalidAmount.Has(err))

	require.NoError(t, env.db.Create(&models.SystemSetting{Key: domain.SettingReferralCommissionRate, Value: "0.1"}).Error)
	pending, err = svc.RecordOrderReferral(ctx, 2, 80, 1000000)
	require.NoError(t, err)
	assert.Equal(t, domain.Kobo(100000), pending.Amount)

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, code.ReferralCode, summary.ReferralCode)
	assert.Len(t, summary.PendingReferrals, 2)
	assert.Equal(t, domain.DefaultMinPayout, summary.MinPayoutAmount)

	queue, err := svc.ListPending(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, uint(1), queue[0].ReferrerID)
	require.NotNil(t, queue[0].Referee)
	assert.Equal(t, "user2@example.com", queue[0].Referee.Email)
}
