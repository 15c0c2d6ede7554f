package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/wayakart27/ecommerce-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors to HTTP replies. Unexpected errors are
// logged and reported as 500 without their message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	if refusal, ok := service.AsRefusal(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": refusal.Error(), "refusal": refusal})
		return
	}

	var rec *service.ReconciliationError
	if errors.As(err, &rec) {
		if service.ErrTransferPending.Has(err) {
			c.JSON(http.StatusAccepted, gin.H{
				"status":    "processing",
				"reference": rec.Reference,
				"amount":    rec.Amount,
				"message":   "transfer accepted; earnings are marked paid once the payment gateway confirms it",
			})
			return
		}
		if service.ErrTransferStatusUnknown.Has(err) {
			c.JSON(http.StatusAccepted, gin.H{
				"status":    "pending_reconciliation",
				"reference": rec.Reference,
				"amount":    rec.Amount,
				"message":   "transfer submitted; the final status will be confirmed by the payment gateway",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":    "reconciliation_required",
			"reference": rec.Reference,
			"error":     "payout sent but could not be recorded; support has been alerted",
		})
		return
	}

	switch {
	case service.ErrNotFound.Has(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case service.ErrInvalidAmount.Has(err),
		service.ErrInvalidLocation.Has(err),
		service.ErrInvalidDecision.Has(err),
		service.ErrInvalidReferral.Has(err),
		service.ErrInvalidBankDetails.Has(err),
		service.ErrInvalidSetting.Has(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.ErrAlreadyReferred.Has(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case service.ErrBankVerification.Has(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case service.ErrTransferFailed.Has(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case service.ErrConfigurationMissing.Has(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shipping is not configured"})
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}
