package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/middleware"
)

func TestAdminRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", uint(7))
		if role := c.GetHeader("X-Role"); role != "" {
			c.Set("role", role)
		}
	})
	r.GET("/admin", middleware.AdminRequired(zap.New(core)), func(c *gin.Context) { c.Status(http.StatusOK) })

	serve := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if role != "" {
			req.Header.Set("X-Role", role)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve(domain.RoleAdmin))
	assert.Empty(t, logs.All())

	assert.Equal(t, http.StatusForbidden, serve(domain.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, serve(""))

	entries := logs.FilterMessage("admin access denied").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.EqualValues(t, 7, entries[0].ContextMap()["user_id"])
	assert.Equal(t, domain.RoleCustomer, entries[0].ContextMap()["role"])
	assert.Equal(t, "/admin", entries[0].ContextMap()["path"])
}
