package handler

import (
	"net/http"

	"github.com/wayakart27/ecommerce-sub002/pkg/location"

	"github.com/gin-gonic/gin"
)

// LocationHandler serves the state and LGA lists used by checkout forms.
type LocationHandler struct {
	regions *location.Table
}

func NewLocationHandler(regions *location.Table) *LocationHandler {
	return &LocationHandler{regions: regions}
}

// States GET /locations/states
func (h *LocationHandler) States(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"states": h.regions.States()})
}

// Cities GET /locations/states/:state/cities
func (h *LocationHandler) Cities(c *gin.Context) {
	state := c.Param("state")
	if !h.regions.IsValidState(state) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown state"})
		return
	}
	canonical, _ := h.regions.Canonical(state, "")
	c.JSON(http.StatusOK, gin.H{"state": canonical, "cities": h.regions.Cities(state)})
}
