package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/service"
	"github.com/wayakart27/ecommerce-sub002/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// PaymentWebhookHandler receives Paystack events. Paid orders earn the
// referrer a pending commission; transfer events settle or release payouts
// whose outcome was unknown.
type PaymentWebhookHandler struct {
	log       *zap.Logger
	secretKey string
	referrals *service.ReferralService
	payouts   *service.PayoutService
}

func NewPaymentWebhookHandler(log *zap.Logger, secretKey string, referrals *service.ReferralService, payouts *service.PayoutService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{log: log, secretKey: secretKey, referrals: referrals, payouts: payouts}
}

// Handle POST /webhooks/paystack
//
// Returns 200 once an event is handled or deliberately skipped. Storage
// failures return 500 so Paystack retries the delivery.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !payment.VerifySignature(h.secretKey, body, c.GetHeader(payment.SignatureHeader)) {
		h.log.Warn("paystack webhook with bad signature", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	ev, err := payment.ParseEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	log := h.log.With(zap.String("event", ev.Event))

	switch ev.Event {
	case payment.EventChargeSuccess:
		var charge payment.ChargeEvent
		if err := json.Unmarshal(ev.Data, &charge); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charge data"})
			return
		}
		h.handleCharge(c, log, charge)
	case payment.EventTransferSuccess, payment.EventTransferFailed, payment.EventTransferReversed:
		var transfer payment.TransferEvent
		if err := json.Unmarshal(ev.Data, &transfer); err != nil || transfer.Reference == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer data"})
			return
		}
		outcome, err := h.payouts.ReconcileTransfer(c.Request.Context(), ev.Event, transfer)
		if err != nil {
			log.Error("transfer reconciliation failed", zap.String("reference", transfer.Reference), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
			return
		}
		log.Info("transfer event handled", zap.String("reference", transfer.Reference), zap.String("outcome", outcome))
		c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func (h *PaymentWebhookHandler) handleCharge(c *gin.Context, log *zap.Logger, charge payment.ChargeEvent) {
	if charge.Metadata.UserID == 0 || charge.Metadata.OrderID == 0 {
		log.Info("charge without order metadata", zap.String("reference", charge.Reference))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	total := charge.Metadata.OrderTotal
	if total == 0 {
		total = charge.Amount
	}
	pending, err := h.referrals.RecordOrderReferral(c.Request.Context(), charge.Metadata.UserID, charge.Metadata.OrderID, domain.Kobo(total))
	switch {
	case service.ErrNotFound.Has(err), service.ErrInvalidAmount.Has(err):
		log.Warn("charge skipped", zap.String("reference", charge.Reference), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
	case err != nil:
		log.Error("recording referral failed", zap.String("reference", charge.Reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record referral"})
	case pending != nil:
		c.JSON(http.StatusOK, gin.H{"received": true, "referral_id": pending.ID})
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
