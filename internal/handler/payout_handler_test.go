package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/pkg/payment"
)

func TestPayoutBelowMinimum(t *testing.T) {
	srv := newTestServer(t)
	srv.seedLedger(t, 10, 100000, 200000)

	w := srv.do(t, http.MethodGet, "/me/payout/eligibility", 10, nil)
	require.Equal(t, http.StatusOK, w.Code)
	e := decode(t, w)
	assert.Equal(t, false, e["eligible"])
	assert.Equal(t, "below_minimum_payout", e["reason"])
	assert.EqualValues(t, 200000, e["required_amount"])

	w = srv.do(t, http.MethodPost, "/me/payout", 10, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	refusal := decode(t, w)["refusal"].(map[string]interface{})
	assert.Equal(t, "below_minimum_payout", refusal["reason"])
	assert.EqualValues(t, 300000, refusal["total_amount"])
	assert.EqualValues(t, 500000, refusal["minimum_amount"])
	assert.Equal(t, 0, srv.gateway.calls)
}

func TestPayoutSuccess(t *testing.T) {
	srv := newTestServer(t)
	srv.seedLedger(t, 10, 300000, 250000)

	w := srv.do(t, http.MethodPost, "/me/payout", 10, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "paid", body["status"])
	payout := body["payout"].(map[string]interface{})
	assert.EqualValues(t, 550000, payout["amount"])
	assert.Equal(t, "success", payout["status"])

	summary := decode(t, srv.do(t, http.MethodGet, "/me/referral", 10, nil))
	assert.EqualValues(t, 0, summary["referral_earnings"])
	assert.EqualValues(t, 550000, summary["total_earned"])
	assert.Len(t, summary["payout_history"], 1)

	w = srv.do(t, http.MethodPost, "/me/payout", 10, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "no_unpaid_referrals", decode(t, w)["refusal"].(map[string]interface{})["reason"])
}

func TestPayoutTransferRejected(t *testing.T) {
	srv := newTestServer(t)
	srv.seedLedger(t, 10, 600000)
	srv.gateway.transfer = func(req payment.TransferRequest) (*payment.TransferResult, error) {
		return nil, payment.ErrRejected.New("insufficient balance")
	}

	w := srv.do(t, http.MethodPost, "/me/payout", 10, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	e := decode(t, srv.do(t, http.MethodGet, "/me/payout/eligibility", 10, nil))
	assert.Equal(t, true, e["eligible"])
}

func TestPayoutUnknownOutcomeThenWebhook(t *testing.T) {
	srv := newTestServer(t)
	srv.seedLedger(t, 10, 600000)
	srv.gateway.transfer = func(req payment.TransferRequest) (*payment.TransferResult, error) {
		return nil, payment.ErrUnknownOutcome.New("gateway timeout")
	}

	w := srv.do(t, http.MethodPost, "/me/payout", 10, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "pending_reconciliation", body["status"])
	reference := body["reference"].(string)
	require.NotEmpty(t, reference)

	w = srv.do(t, http.MethodGet, "/admin/payouts/in-flight", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	// The claimed referral cannot be paid twice while the outcome is open.
	w = srv.do(t, http.MethodPost, "/me/payout", 10, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = srv.webhook(t, payment.EventTransferSuccess, payment.TransferEvent{
		Reference: reference, TransferCode: "TRF_late", Amount: 600000, Status: "success",
	}, webhookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "settled", decode(t, w)["outcome"])

	w = srv.webhook(t, payment.EventTransferSuccess, payment.TransferEvent{
		Reference: reference, TransferCode: "TRF_late", Amount: 600000, Status: "success",
	}, webhookSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unchanged", decode(t, w)["outcome"])

	var program models.ReferralProgram
	require.NoError(t, srv.db.Where("user_id = ?", 10).First(&program).Error)
	assert.EqualValues(t, 0, program.ReferralEarnings)
	assert.EqualValues(t, 600000, program.TotalEarned)
}

func TestPayoutPendingTransferThenFailed(t *testing.T) {
	srv := newTestServer(t)
	srv.seedLedger(t, 10, 600000)
	srv.gateway.transfer = func(req payment.TransferRequest) (*payment.TransferResult, error) {
		return &payment.TransferResult{Reference: req.Reference, TransferCode: "TRF_q", Status: payment.TransferStatusPending}, nil
	}

	w := srv.do(t, http.MethodPost, "/me/payout", 10, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "processing", body["status"])
	assert.EqualValues(t, 600000, body["amount"])
	reference := body["reference"].(string)

	summary := decode(t, srv.do(t, http.MethodGet, "/me/referral", 10, nil))
	assert.EqualValues(t, 600000, summary["referral_earnings"])
	assert.EqualValues(t, 0, summary["total_earned"])

	w = srv.webhook(t, payment.EventTransferFailed, payment.TransferEvent{
		Reference: reference, TransferCode: "TRF_q", Amount: 600000, Status: "failed",
	}, webhookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "released", decode(t, w)["outcome"])

	var program models.ReferralProgram
	require.NoError(t, srv.db.Where("user_id = ?", 10).First(&program).Error)
	assert.EqualValues(t, 600000, program.ReferralEarnings)
	assert.EqualValues(t, 0, program.TotalEarned)

	e := decode(t, srv.do(t, http.MethodGet, "/me/payout/eligibility", 10, nil))
	assert.Equal(t, true, e["eligible"])
}

func TestPayoutRefusalWithoutBankDetails(t *testing.T) {
	srv := newTestServer(t)
	srv.seedUser(t, 20, nil)

	w := srv.do(t, http.MethodGet, "/me/referral", 20, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["referral_code"], 8)

	w = srv.do(t, http.MethodPost, "/me/payout", 20, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "bank_not_verified", decode(t, w)["refusal"].(map[string]interface{})["reason"])
}

func TestSaveBankDetails(t *testing.T) {
	srv := newTestServer(t)
	srv.seedUser(t, 30, nil)

	w := srv.do(t, http.MethodPut, "/me/bank-details", 30, map[string]string{"account_number": "12345", "bank_code": "058"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = srv.do(t, http.MethodPut, "/me/bank-details", 30, map[string]string{"account_number": "0123456789"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPut, "/me/bank-details", 30, map[string]string{"account_number": "0123456789", "bank_code": "058"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	details := decode(t, w)["bank_details"].(map[string]interface{})
	assert.Equal(t, true, details["verified"])
	assert.Equal(t, "TUNDE BAKARE", details["account_name"])
	assert.NotContains(t, details, "paystack_recipient_code")
}
