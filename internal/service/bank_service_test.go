package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wayakart27/ecommerce-sub002/internal/service"
	"github.com/wayakart27/ecommerce-sub002/pkg/payment"
)

type fakeBanks struct {
	resolveErr error
	recipients int
}

func (f *fakeBanks) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*payment.ResolvedAccount, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &payment.ResolvedAccount{AccountNumber: accountNumber, AccountName: "CHINEDU EZE"}, nil
}

func (f *fakeBanks) CreateRecipient(ctx context.Context, req payment.RecipientRequest) (string, error) {
	f.recipients++
	return "RCP_" + req.BankCode + req.AccountNumber, nil
}

func TestSaveBankDetails(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	env.seedUser(t, 1)
	banks := &fakeBanks{}
	svc := service.NewBankService(zaptest.NewLogger(t), env.referrals, env.audit, banks)

	details, err := svc.SaveBankDetails(ctx, 1, service.BankDetailsInput{AccountNumber: " 0123456789", BankCode: "058"})
	require.NoError(t, err)
	assert.True(t, details.Verified)
	assert.Equal(t, "CHINEDU EZE", details.AccountName)
	assert.Equal(t, "RCP_0580123456789", details.PaystackRecipientCode)

	ledger := env.ledger(t, 1)
	assert.True(t, ledger.BankDetails.Verified)
	assert.Equal(t, "0123456789", ledger.BankDetails.AccountNumber)
	assert.NotNil(t, ledger.BankDetails.VerifiedAt)

	// New details that fail verification leave the program unverified.
	banks.resolveErr = payment.Error.New("could not resolve account name")
	_, err = svc.SaveBankDetails(ctx, 1, service.BankDetailsInput{AccountNumber: "9876543210", BankCode: "044"})
	require.Error(t, err)
	assert.True(t, service.ErrBankVerification.Has(err))

	ledger = env.ledger(t, 1)
	assert.False(t, ledger.BankDetails.Verified)
	assert.Empty(t, ledger.BankDetails.PaystackRecipientCode)
	assert.Equal(t, "9876543210", ledger.BankDetails.AccountNumber)
	assert.Equal(t, 1, banks.recipients)
}

func TestSaveBankDetailsValidation(t *testing.T) {
	ctx := context.Background()
	env := newLedgerEnv(t)
	banks := &fakeBanks{}
	svc := service.NewBankService(zaptest.NewLogger(t), env.referrals, env.audit, banks)

	for _, in := range []service.BankDetailsInput{
		{AccountNumber: "12345", BankCode: "058"},
		{AccountNumber: "01234567ab", BankCode: "058"},
		{AccountNumber: "0123456789", BankCode: "GTB"},
	} {
		_, err := svc.SaveBankDetails(ctx, 1, in)
		assert.True(t, service.ErrInvalidBankDetails.Has(err), "%+v", in)
	}
	assert.Zero(t, banks.recipients)
}
