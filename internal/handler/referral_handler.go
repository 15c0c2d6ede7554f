package handler

import (
	"net/http"

	"github.com/wayakart27/ecommerce-sub002/internal/middleware"
	"github.com/wayakart27/ecommerce-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReferralHandler struct {
	log       *zap.Logger
	referrals *service.ReferralService
}

func NewReferralHandler(log *zap.Logger, referrals *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{log: log, referrals: referrals}
}

// GetMine returns the authenticated user's referral program, creating it on first visit.
// GET /me/referral
func (h *ReferralHandler) GetMine(c *gin.Context) {
	summary, err := h.referrals.Summary(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ApplyCode links the authenticated user to the owner of a referral code.
// POST /me/referral/code
func (h *ReferralHandler) ApplyCode(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	program, err := h.referrals.ApplyReferralCode(c.Request.Context(), middleware.GetUserID(c), req.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referral_code": program.ReferralCode, "referrer_id": program.UserID})
}

// ListPending is the admin review queue.
// GET /admin/referrals/pending
func (h *ReferralHandler) ListPending(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.referrals.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": list, "total": len(list)})
}

// Decide approves or rejects one pending referral of a user.
// POST /admin/users/:id/referrals/:referral_id/decision
func (h *ReferralHandler) Decide(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	referralID, ok := paramID(c, "referral_id")
	if !ok {
		return
	}
	var req struct {
		Decision service.Decision `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	completed, err := h.referrals.ApproveOrRejectReferral(c.Request.Context(), middleware.GetUserID(c), userID, referralID, req.Decision)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referral": completed})
}
