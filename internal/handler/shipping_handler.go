package handler

import (
	"net/http"
	"strconv"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShippingHandler struct {
	log      *zap.Logger
	shipping *service.ShippingService
}

func NewShippingHandler(log *zap.Logger, shipping *service.ShippingService) *ShippingHandler {
	return &ShippingHandler{log: log, shipping: shipping}
}

// Quote returns the shipping cost for a delivery location and order total.
// GET /shipping/quote?state=Lagos&city=Ikeja&order_total=1500000
func (h *ShippingHandler) Quote(c *gin.Context) {
	total, err := strconv.ParseInt(c.Query("order_total"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_total must be an amount in kobo"})
		return
	}
	loc := service.Location{State: c.Query("state"), City: c.Query("city")}
	quote, err := h.shipping.CalculateShipping(c.Request.Context(), loc, domain.Kobo(total))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetConfig returns the full configuration, creating it with defaults on first use.
// GET /admin/shipping
func (h *ShippingHandler) GetConfig(c *gin.Context) {
	cfg, err := h.shipping.GetConfig(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateDefaults PUT /admin/shipping
func (h *ShippingHandler) UpdateDefaults(c *gin.Context) {
	var req service.DefaultsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg, err := h.shipping.UpdateDefaults(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpsertState PUT /admin/shipping/states
func (h *ShippingHandler) UpsertState(c *gin.Context) {
	var req service.Override
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg, err := h.shipping.UpsertStatePrice(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// RemoveState DELETE /admin/shipping/states/:state
func (h *ShippingHandler) RemoveState(c *gin.Context) {
	cfg, err := h.shipping.RemoveStatePrice(c.Request.Context(), c.Param("state"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpsertCity PUT /admin/shipping/cities
func (h *ShippingHandler) UpsertCity(c *gin.Context) {
	var req service.Override
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg, err := h.shipping.UpsertCityPrice(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// RemoveCity DELETE /admin/shipping/cities/:state/:city
func (h *ShippingHandler) RemoveCity(c *gin.Context) {
	cfg, err := h.shipping.RemoveCityPrice(c.Request.Context(), c.Param("state"), c.Param("city"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
