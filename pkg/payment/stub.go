package payment

import (
	"context"
	"strings"
)

// StubProvider accepts every transfer and account. It is wired in development
// when no Paystack secret key is configured.
type StubProvider struct{}

func (StubProvider) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrUnknownOutcome.Wrap(err)
	}
	return &TransferResult{
		Reference:    req.Reference,
		TransferCode: "TRF_stub_" + req.Reference,
		Status:       TransferStatusSuccess,
	}, nil
}

func (StubProvider) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	return &ResolvedAccount{AccountNumber: accountNumber, AccountName: "STUB ACCOUNT"}, nil
}

func (StubProvider) CreateRecipient(ctx context.Context, req RecipientRequest) (string, error) {
	return "RCP_stub_" + strings.ToLower(req.BankCode+req.AccountNumber), nil
}
