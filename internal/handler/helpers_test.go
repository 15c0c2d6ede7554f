package handler_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/wayakart27/ecommerce-sub002/internal/cache"
	"github.com/wayakart27/ecommerce-sub002/internal/database/databasetest"
	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/handler"
	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"
	"github.com/wayakart27/ecommerce-sub002/internal/service"
	"github.com/wayakart27/ecommerce-sub002/pkg/location"
	"github.com/wayakart27/ecommerce-sub002/pkg/payment"
)

const webhookSecret = "sk_test_webhook"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGateway accepts every transfer unless transfer is set.
type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	transfer func(req payment.TransferRequest) (*payment.TransferResult, error)
}

func (g *fakeGateway) InitiateTransfer(ctx context.Context, req payment.TransferRequest) (*payment.TransferResult, error) {
	g.mu.Lock()
	g.calls++
	fn := g.transfer
	g.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &payment.TransferResult{Reference: req.Reference, TransferCode: "TRF_" + req.Reference, Status: "success"}, nil
}

func (g *fakeGateway) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*payment.ResolvedAccount, error) {
	return &payment.ResolvedAccount{AccountNumber: accountNumber, AccountName: "TUNDE BAKARE"}, nil
}

func (g *fakeGateway) CreateRecipient(ctx context.Context, req payment.RecipientRequest) (string, error) {
	return "RCP_" + req.AccountNumber, nil
}

type testServer struct {
	db      *gorm.DB
	engine  *gin.Engine
	gateway *fakeGateway
}

// asUser stands in for token authentication.
func asUser(c *gin.Context) {
	var id uint
	if _, err := fmt.Sscan(c.GetHeader("X-Test-User"), &id); err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Set("user_id", id)
	c.Set("role", c.GetHeader("X-Test-Role"))
	c.Next()
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zaptest.NewLogger(t)
	db := databasetest.Open(t)
	gw := &fakeGateway{}

	users := repository.NewUserRepository(db)
	referrals := repository.NewReferralRepository(db)
	audit := repository.NewAuditLogRepository(db)
	settings := service.NewReferralSettings(log, repository.NewSettingRepository(db), decimal.RequireFromString("0.05"), domain.DefaultMinPayout)
	referralSvc := service.NewReferralService(log, referrals, users, settings, audit, nil)
	payoutSvc := service.NewPayoutService(log, referrals, settings, audit, nil, gw, time.Second)
	bankSvc := service.NewBankService(log, referrals, audit, gw)
	shippingSvc := service.NewShippingService(log, repository.NewShippingRepository(db),
		cache.NewShippingConfigCache(nil, 0), location.Default(),
		service.ShippingDefaults{Price: 150000, DeliveryDays: 5, FreeShippingThreshold: 5000000})

	shippingHandler := handler.NewShippingHandler(log, shippingSvc)
	referralHandler := handler.NewReferralHandler(log, referralSvc)
	payoutHandler := handler.NewPayoutHandler(log, payoutSvc, bankSvc)
	settingsHandler := handler.NewSettingsHandler(log, settings)
	webhookHandler := handler.NewPaymentWebhookHandler(log, webhookSecret, referralSvc, payoutSvc)
	locationHandler := handler.NewLocationHandler(location.Default())
	adminHandler := handler.NewAdminHandler(log, repository.NewAdminRepository(db), audit)

	r := gin.New()
	r.POST("/webhooks/paystack", webhookHandler.Handle)
	r.GET("/shipping/quote", shippingHandler.Quote)
	r.GET("/locations/states", locationHandler.States)
	r.GET("/locations/states/:state/cities", locationHandler.Cities)

	auth := r.Group("", asUser)
	auth.GET("/me/referral", referralHandler.GetMine)
	auth.POST("/me/referral/code", referralHandler.ApplyCode)
	auth.PUT("/me/bank-details", payoutHandler.SaveBankDetails)
	auth.GET("/me/payout/eligibility", payoutHandler.Eligibility)
	auth.POST("/me/payout", payoutHandler.RequestMine)
	auth.GET("/admin/referrals/pending", referralHandler.ListPending)
	auth.POST("/admin/users/:id/referrals/:referral_id/decision", referralHandler.Decide)
	auth.GET("/admin/payouts/in-flight", payoutHandler.InFlight)
	auth.GET("/admin/shipping", shippingHandler.GetConfig)
	auth.PUT("/admin/shipping", shippingHandler.UpdateDefaults)
	auth.PUT("/admin/shipping/states", shippingHandler.UpsertState)
	auth.DELETE("/admin/shipping/states/:state", shippingHandler.RemoveState)
	auth.PUT("/admin/shipping/cities", shippingHandler.UpsertCity)
	auth.DELETE("/admin/shipping/cities/:state/:city", shippingHandler.RemoveCity)
	auth.PUT("/admin/settings/:key", settingsHandler.Update)
	auth.GET("/admin/dashboard", adminHandler.Dashboard)
	auth.GET("/admin/users", adminHandler.ListUsers)
	auth.GET("/admin/payouts", adminHandler.ListPayouts)
	auth.GET("/admin/audit", adminHandler.AuditTrail)

	return &testServer{db: db, engine: r, gateway: gw}
}

func (s *testServer) do(t *testing.T, method, path string, userID uint, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", fmt.Sprint(userID))
		req.Header.Set("X-Test-Role", domain.RoleAdmin)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) webhook(t *testing.T, event string, data interface{}, secret string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(payment.WebhookEvent{Event: event, Data: raw})
	require.NoError(t, err)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set(payment.SignatureHeader, hex.EncodeToString(mac.Sum(nil)))
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) seedUser(t *testing.T, id uint, referredBy *uint) {
	t.Helper()
	require.NoError(t, s.db.Create(&models.User{
		ID:           id,
		Email:        fmt.Sprintf("user%d@example.com", id),
		Role:         domain.RoleCustomer,
		ReferredByID: referredBy,
	}).Error)
}

// seedLedger gives userID a verified program with one approved referral per amount.
func (s *testServer) seedLedger(t *testing.T, userID uint, amounts ...domain.Kobo) *models.ReferralProgram {
	t.Helper()
	s.seedUser(t, userID, nil)
	now := time.Now()
	p := &models.ReferralProgram{
		UserID:       userID,
		ReferralCode: fmt.Sprintf("REF%05d", userID),
		BankDetails: models.BankDetails{
			AccountName:           "TUNDE BAKARE",
			AccountNumber:         "0123456789",
			BankCode:              "058",
			Verified:              true,
			PaystackRecipientCode: "RCP_0123456789",
			VerifiedAt:            &now,
		},
	}
	require.NoError(t, s.db.Create(p).Error)
	var total domain.Kobo
	for i, amount := range amounts {
		require.NoError(t, s.db.Create(&models.CompletedReferral{
			ProgramID: p.ID,
			RefereeID: userID,
			OrderID:   uint(i + 1),
			Amount:    amount,
			Date:      now,
			Status:    domain.ReferralStatusCompleted,
		}).Error)
		total += amount
	}
	require.NoError(t, s.db.Model(p).Update("referral_earnings", total).Error)
	return p
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

