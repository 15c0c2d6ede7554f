package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the Paystack API endpoint.
const DefaultBaseURL = "https://api.paystack.co"

// PaystackClient talks to the Paystack transfers and bank APIs.
type PaystackClient struct {
	BaseURL   string
	SecretKey string
	log       *zap.Logger
	client    *http.Client
}

// NewPaystackClient returns a client whose requests are bounded by timeout in
// addition to any deadline on the caller's context.
func NewPaystackClient(log *zap.Logger, baseURL, secretKey string, timeout time.Duration) *PaystackClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &PaystackClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		log:       log,
		client:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type transferBody struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
	Currency  string `json:"currency"`
}

type transferData struct {
	Reference    string `json:"reference"`
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
}

// InitiateTransfer calls POST /transfer. Errors are classed ErrRejected when
// the gateway definitively refused the transfer and ErrUnknownOutcome when it
// cannot be known whether funds moved.
func (p *PaystackClient) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	body, err := json.Marshal(transferBody{
		Source:    "balance",
		Amount:    req.AmountKobo,
		Recipient: req.RecipientCode,
		Reason:    req.Reason,
		Reference: req.Reference,
		Currency:  "NGN",
	})
	if err != nil {
		return nil, ErrRejected.Wrap(err)
	}
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/transfer", bytes.NewReader(body))
	if err != nil {
		return nil, ErrRejected.Wrap(err)
	}
	p.authorize(apiReq)
	apiReq.Header.Set("Content-Type", "application/json")

	p.log.Debug("POST /transfer", zap.String("reference", req.Reference), zap.Int64("amount_kobo", req.AmountKobo))
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, ErrUnknownOutcome.Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrUnknownOutcome.Wrap(err)
	}
	p.log.Debug("transfer response", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, ErrUnknownOutcome.New("gateway returned %d", resp.StatusCode)
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, ErrRejected.New("gateway returned %d", resp.StatusCode)
		}
		return nil, ErrUnknownOutcome.Wrap(err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		return nil, ErrRejected.New("%s", env.Message)
	}
	var data transferData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, ErrUnknownOutcome.Wrap(err)
	}
	switch data.Status {
	case TransferStatusPending, TransferStatusSuccess, TransferStatusReceived, TransferStatusQueued:
	case "otp":
		return nil, ErrRejected.New("transfer %s requires OTP finalization", data.TransferCode)
	default:
		return nil, ErrRejected.New("transfer status %q", data.Status)
	}
	ref := data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return &TransferResult{Reference: ref, TransferCode: data.TransferCode, Status: data.Status}, nil
}

// ResolveAccount calls GET /bank/resolve to confirm the account holder's name.
func (p *PaystackClient) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)
	var data struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
	}
	if err := p.do(ctx, http.MethodGet, "/bank/resolve?"+q.Encode(), nil, &data); err != nil {
		return nil, err
	}
	return &ResolvedAccount{AccountNumber: data.AccountNumber, AccountName: data.AccountName}, nil
}

// CreateRecipient calls POST /transferrecipient and returns the recipient code.
func (p *PaystackClient) CreateRecipient(ctx context.Context, req RecipientRequest) (string, error) {
	body := map[string]string{
		"type":           "nuban",
		"name":           req.Name,
		"account_number": req.AccountNumber,
		"bank_code":      req.BankCode,
		"currency":       "NGN",
	}
	var data struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := p.do(ctx, http.MethodPost, "/transferrecipient", body, &data); err != nil {
		return "", err
	}
	if data.RecipientCode == "" {
		return "", Error.New("empty recipient code")
	}
	return data.RecipientCode, nil
}

func (p *PaystackClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return Error.Wrap(err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, reader)
	if err != nil {
		return Error.Wrap(err)
	}
	p.authorize(req)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Error.New("%s %s: %d: %v", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		return Error.New("%s %s: %d: %s", method, path, resp.StatusCode, env.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return Error.Wrap(fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

func (p *PaystackClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
}
