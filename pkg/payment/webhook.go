package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
)

// SignatureHeader carries the HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// Webhook event names handled by the service.
const (
	EventChargeSuccess    = "charge.success"
	EventTransferSuccess  = "transfer.success"
	EventTransferFailed   = "transfer.failed"
	EventTransferReversed = "transfer.reversed"
)

// VerifySignature reports whether signature is the hex HMAC-SHA512 of body
// keyed with the secret key.
func VerifySignature(secretKey string, body []byte, signature string) bool {
	if secretKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// WebhookEvent is the outer webhook payload.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// TransferEvent is the data of a transfer.* event.
type TransferEvent struct {
	Reference    string `json:"reference"`
	TransferCode string `json:"transfer_code"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
	Reason       string `json:"reason"`
}

// ChargeEvent is the data of a charge.success event. Checkout stores the
// order and customer ids in metadata.
type ChargeEvent struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Metadata  struct {
		OrderID    uint  `json:"order_id"`
		UserID     uint  `json:"user_id"`
		OrderTotal int64 `json:"order_total"`
	} `json:"metadata"`
}

// ParseEvent decodes the outer envelope.
func ParseEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, Error.Wrap(err)
	}
	return &ev, nil
}
