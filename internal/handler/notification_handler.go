package handler

import (
	"net/http"

	"github.com/wayakart27/ecommerce-sub002/internal/middleware"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"
	"github.com/wayakart27/ecommerce-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	log           *zap.Logger
	notifications *service.NotificationService
	users         *repository.UserRepository
}

func NewNotificationHandler(log *zap.Logger, notifications *service.NotificationService, users *repository.UserRepository) *NotificationHandler {
	return &NotificationHandler{log: log, notifications: notifications, users: users}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.notifications.List(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterDevice stores the FCM token push notifications are sent to.
// PUT /me/fcm-token
func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	var req struct {
		Token string `json:"fcm_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.UpdateFCMToken(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
