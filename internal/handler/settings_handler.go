package handler

import (
	"net/http"

	"github.com/wayakart27/ecommerce-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	log      *zap.Logger
	settings *service.ReferralSettings
}

func NewSettingsHandler(log *zap.Logger, settings *service.ReferralSettings) *SettingsHandler {
	return &SettingsHandler{log: log, settings: settings}
}

// List GET /admin/settings
func (h *SettingsHandler) List(c *gin.Context) {
	list, err := h.settings.All(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": list})
}

// Update PUT /admin/settings/:key
func (h *SettingsHandler) Update(c *gin.Context) {
	var req struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.settings.Update(c.Request.Context(), c.Param("key"), req.Value); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "status": "ok"})
}
