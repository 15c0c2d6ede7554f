package handler

import (
	"net/http"
	"strconv"

	"github.com/wayakart27/ecommerce-sub002/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	log       *zap.Logger
	adminRepo *repository.AdminRepository
	auditRepo *repository.AuditLogRepository
}

func NewAdminHandler(log *zap.Logger, adminRepo *repository.AdminRepository, auditRepo *repository.AuditLogRepository) *AdminHandler {
	return &AdminHandler{log: log, adminRepo: adminRepo, auditRepo: auditRepo}
}

// Dashboard handles GET /admin/dashboard with referral, payout and shipping totals.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats(c.Request.Context())
	if err != nil {
		h.log.Error("dashboard stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.adminRepo.ListUsers(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		h.log.Error("list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

// ListPayouts handles GET /admin/payouts?status=failed.
func (h *AdminHandler) ListPayouts(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.adminRepo.ListPayouts(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		h.log.Error("list payouts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payouts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// AuditTrail handles GET /admin/audit?resource=payout_record&resource_id=PAYOUT_REF.
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	resource, resourceID := c.Query("resource"), c.Query("resource_id")
	if resource == "" || resourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource and resource_id are required"})
		return
	}
	list, err := h.auditRepo.ListByResource(c.Request.Context(), resource, resourceID)
	if err != nil {
		h.log.Error("audit trail", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit trail"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
