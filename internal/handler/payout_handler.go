package handler

import (
	"net/http"

	"github.com/wayakart27/ecommerce-sub002/internal/middleware"
	"github.com/wayakart27/ecommerce-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PayoutHandler struct {
	log     *zap.Logger
	payouts *service.PayoutService
	banks   *service.BankService
}

func NewPayoutHandler(log *zap.Logger, payouts *service.PayoutService, banks *service.BankService) *PayoutHandler {
	return &PayoutHandler{log: log, payouts: payouts, banks: banks}
}

// Eligibility GET /me/payout/eligibility
func (h *PayoutHandler) Eligibility(c *gin.Context) {
	e, err := h.payouts.CheckPayoutEligibility(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// RequestMine pays out the authenticated user's available earnings.
// POST /me/payout
func (h *PayoutHandler) RequestMine(c *gin.Context) {
	h.process(c, middleware.GetUserID(c))
}

// ProcessForUser lets an admin trigger a payout on a user's behalf.
// POST /admin/users/:id/payout
func (h *PayoutHandler) ProcessForUser(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.process(c, userID)
}

func (h *PayoutHandler) process(c *gin.Context, userID uint) {
	record, err := h.payouts.ProcessReferralPayout(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid", "payout": record})
}

// InFlight lists payouts waiting for the gateway to confirm.
// GET /admin/payouts/in-flight
func (h *PayoutHandler) InFlight(c *gin.Context) {
	list, err := h.payouts.ListInFlight(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"in_flight": list, "total": len(list)})
}

// SaveBankDetails verifies the account with the gateway and stores it.
// PUT /me/bank-details
func (h *PayoutHandler) SaveBankDetails(c *gin.Context) {
	var req service.BankDetailsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	details, err := h.banks.SaveBankDetails(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bank_details": details})
}
