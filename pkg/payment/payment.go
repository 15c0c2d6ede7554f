package payment

import (
	"context"

	"github.com/zeebo/errs"
)

var (
	// Error is the class of failures talking to the payment gateway that are
	// not about a transfer outcome (bank lookups, recipient creation).
	Error = errs.Class("paystack")
	// ErrRejected means the gateway refused the transfer; no funds moved.
	ErrRejected = errs.Class("transfer rejected")
	// ErrUnknownOutcome means the request may have reached the gateway but no
	// definitive answer came back (timeout, transport error, 5xx).
	ErrUnknownOutcome = errs.Class("transfer outcome unknown")
)

// TransferRequest asks the gateway to move AmountKobo from the platform balance
// to a saved recipient. Reference doubles as the idempotency key.
type TransferRequest struct {
	RecipientCode string
	AmountKobo    int64
	Reason        string
	Reference     string
}

// TransferResult is the gateway's acknowledgement of an accepted transfer.
type TransferResult struct {
	Reference    string
	TransferCode string
	Status       string
}

// Statuses the gateway reports for an accepted transfer. Only success means
// the money has left the balance.
const (
	TransferStatusSuccess  = "success"
	TransferStatusPending  = "pending"
	TransferStatusReceived = "received"
	TransferStatusQueued   = "queued"
)

// ResolvedAccount is the bank account holder as reported by the gateway.
type ResolvedAccount struct {
	AccountNumber string
	AccountName   string
}

// RecipientRequest describes a NUBAN transfer recipient.
type RecipientRequest struct {
	Name          string
	AccountNumber string
	BankCode      string
}

// Transferer initiates transfers.
type Transferer interface {
	InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// BankResolver verifies bank accounts and registers them as transfer recipients.
type BankResolver interface {
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error)
	CreateRecipient(ctx context.Context, req RecipientRequest) (string, error)
}

// Gateway is everything the payout flow needs from the payment provider.
type Gateway interface {
	Transferer
	BankResolver
}
