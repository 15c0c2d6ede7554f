package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/wayakart27/ecommerce-sub002/internal/database/databasetest"
	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"
	"github.com/wayakart27/ecommerce-sub002/internal/service"
	"github.com/wayakart27/ecommerce-sub002/pkg/payment"
)

type ledgerEnv struct {
	db        *gorm.DB
	referrals *repository.ReferralRepository
	users     *repository.UserRepository
	settings  *service.ReferralSettings
	audit     *repository.AuditLogRepository
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()
	db := databasetest.Open(t)
	return &ledgerEnv{
		db:        db,
		referrals: repository.NewReferralRepository(db),
		users:     repository.NewUserRepository(db),
		settings: service.NewReferralSettings(zaptest.NewLogger(t), repository.NewSettingRepository(db),
			decimal.RequireFromString("0.05"), domain.DefaultMinPayout),
		audit: repository.NewAuditLogRepository(db),
	}
}

func (e *ledgerEnv) payoutService(t *testing.T, transfers payment.Transferer, timeout time.Duration) *service.PayoutService {
	return service.NewPayoutService(zaptest.NewLogger(t), e.referrals, e.settings, e.audit, nil, transfers, timeout)
}

func (e *ledgerEnv) referralService(t *testing.T) *service.ReferralService {
	return service.NewReferralService(zaptest.NewLogger(t), e.referrals, e.users, e.settings, e.audit, nil)
}

func (e *ledgerEnv) ledger(t *testing.T, userID uint) *models.ReferralProgram {
	t.Helper()
	p, err := e.referrals.GetLedger(context.Background(), userID)
	require.NoError(t, err)
	return p
}

func (e *ledgerEnv) seedUser(t *testing.T, id uint) *models.User {
	t.Helper()
	u := &models.User{
		ID:    id,
		Name:  fmt.Sprintf("User %d", id),
		Email: fmt.Sprintf("user%d@example.com", id),
		Role:  domain.RoleCustomer,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

// seedLedger creates userID with a referral program holding one approved,
// unpaid referral per amount and a matching available balance.
func (e *ledgerEnv) seedLedger(t *testing.T, userID uint, verified bool, amounts ...domain.Kobo) *models.ReferralProgram {
	t.Helper()
	e.seedUser(t, userID)
	p := &models.ReferralProgram{UserID: userID, ReferralCode: fmt.Sprintf("CODE%04d", userID)}
	if verified {
		now := time.Now()
		p.BankDetails = models.BankDetails{
			AccountName:           "ADAEZE OKAFOR",
			AccountNumber:         "0123456789",
			BankCode:              "058",
			Verified:              true,
			PaystackRecipientCode: "RCP_test",
			VerifiedAt:            &now,
		}
	}
	require.NoError(t, e.db.Create(p).Error)

	referee := e.seedUser(t, userID+1000)
	var total domain.Kobo
	for i, amount := range amounts {
		require.NoError(t, e.db.Create(&models.CompletedReferral{
			ProgramID: p.ID,
			RefereeID: referee.ID,
			OrderID:   uint(i + 1),
			Amount:    amount,
			Date:      time.Now(),
			Status:    domain.ReferralStatusCompleted,
		}).Error)
		total += amount
	}
	require.NoError(t, e.db.Model(&models.ReferralProgram{}).Where("id = ?", p.ID).Update("referral_earnings", total).Error)
	p.ReferralEarnings = total
	return p
}

func (e *ledgerEnv) seedPending(t *testing.T, programID, refereeID, orderID uint, amount domain.Kobo) *models.PendingReferral {
	t.Helper()
	p := &models.PendingReferral{
		ProgramID: programID,
		RefereeID: refereeID,
		OrderID:   orderID,
		Amount:    amount,
		Status:    domain.PendingStatusPending,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

// fakeTransferer records transfer requests. By default every transfer is
// accepted with status success.
type fakeTransferer struct {
	mu    sync.Mutex
	calls []payment.TransferRequest
	fn    func(ctx context.Context, req payment.TransferRequest) (*payment.TransferResult, error)
}

func (f *fakeTransferer) InitiateTransfer(ctx context.Context, req payment.TransferRequest) (*payment.TransferResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &payment.TransferResult{Reference: req.Reference, TransferCode: "TRF_" + req.Reference, Status: "success"}, nil
}

func (f *fakeTransferer) Calls() []payment.TransferRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]payment.TransferRequest(nil), f.calls...)
}
