package router

import (
	"context"
	"net/http"
	"time"

	"github.com/wayakart27/ecommerce-sub002/config"
	"github.com/wayakart27/ecommerce-sub002/internal/cache"
	"github.com/wayakart27/ecommerce-sub002/internal/database"
	"github.com/wayakart27/ecommerce-sub002/internal/handler"
	"github.com/wayakart27/ecommerce-sub002/internal/middleware"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"
	"github.com/wayakart27/ecommerce-sub002/internal/service"
	"github.com/wayakart27/ecommerce-sub002/pkg/location"
	"github.com/wayakart27/ecommerce-sub002/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers into the HTTP engine. rdb
// may be nil, which disables the shipping configuration cache. The rate
// limiters run their cleanup until ctx is cancelled.
func Setup(ctx context.Context, cfg *config.Config, log *zap.Logger, db *gorm.DB, rdb *redis.Client, gateway payment.Gateway) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log.Named("http")))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, 10*time.Minute)
	go limiter.Run(ctx)
	r.Use(middleware.RateLimit(limiter))
	payoutLimiter := middleware.NewRateLimiter(cfg.Server.PayoutRateLimit, 1, time.Hour)
	go payoutLimiter.Run(ctx)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	shippingRepo := repository.NewShippingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	regions := location.Default()

	// Services
	fcmSvc := service.NewFCMService(ctx, log.Named("fcm"), cfg.Firebase.ServiceAccountPath)
	notifSvc := service.NewNotificationService(log.Named("notify"), notificationRepo, userRepo, fcmSvc)
	settings := service.NewReferralSettings(log.Named("settings"), settingRepo, cfg.Referral.CommissionRate, cfg.Referral.DefaultMinPayout)
	referralSvc := service.NewReferralService(log.Named("referral"), referralRepo, userRepo, settings, auditRepo, notifSvc)
	payoutSvc := service.NewPayoutService(log.Named("payout"), referralRepo, settings, auditRepo, notifSvc, gateway, cfg.Paystack.TransferTimeout)
	bankSvc := service.NewBankService(log.Named("bank"), referralRepo, auditRepo, gateway)
	shippingSvc := service.NewShippingService(log.Named("shipping"), shippingRepo,
		cache.NewShippingConfigCache(rdb, cfg.Redis.ShippingTTL), regions,
		service.ShippingDefaults{
			Price:                 cfg.Shipping.DefaultPrice,
			DeliveryDays:          cfg.Shipping.DefaultDeliveryDays,
			FreeShippingThreshold: cfg.Shipping.FreeShippingThreshold,
		})

	// Handlers
	shippingHandler := handler.NewShippingHandler(log, shippingSvc)
	locationHandler := handler.NewLocationHandler(regions)
	referralHandler := handler.NewReferralHandler(log, referralSvc)
	payoutHandler := handler.NewPayoutHandler(log, payoutSvc, bankSvc)
	notificationHandler := handler.NewNotificationHandler(log, notifSvc, userRepo)
	settingsHandler := handler.NewSettingsHandler(log, settings)
	adminHandler := handler.NewAdminHandler(log, adminRepo, auditRepo)
	webhookHandler := handler.NewPaymentWebhookHandler(log.Named("webhook"), cfg.Paystack.SecretKey, referralSvc, payoutSvc)

	r.GET("/healthz", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(pingCtx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/webhooks/paystack", webhookHandler.Handle)

	api := r.Group("/api/v1")
	{
		api.GET("/shipping/quote", shippingHandler.Quote)
		api.GET("/locations/states", locationHandler.States)
		api.GET("/locations/states/:state/cities", locationHandler.Cities)
	}

	me := api.Group("/me")
	me.Use(middleware.AuthRequired(&cfg.JWT), middleware.SyncUser(userRepo, log))
	{
		me.GET("/referral", referralHandler.GetMine)
		me.POST("/referral/code", referralHandler.ApplyCode)
		me.PUT("/bank-details", payoutHandler.SaveBankDetails)
		me.GET("/payout/eligibility", payoutHandler.Eligibility)
		me.POST("/payout", middleware.UserRateLimit(payoutLimiter), payoutHandler.RequestMine)
		me.GET("/notifications", notificationHandler.List)
		me.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		me.PUT("/fcm-token", notificationHandler.RegisterDevice)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(&cfg.JWT), middleware.AdminRequired(log.Named("admin")))
	{
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/payouts", adminHandler.ListPayouts)
		admin.GET("/audit", adminHandler.AuditTrail)

		admin.GET("/referrals/pending", referralHandler.ListPending)
		admin.POST("/users/:id/referrals/:referral_id/decision", referralHandler.Decide)
		admin.POST("/users/:id/payout", payoutHandler.ProcessForUser)
		admin.GET("/payouts/in-flight", payoutHandler.InFlight)

		admin.GET("/shipping", shippingHandler.GetConfig)
		admin.PUT("/shipping", shippingHandler.UpdateDefaults)
		admin.PUT("/shipping/states", shippingHandler.UpsertState)
		admin.DELETE("/shipping/states/:state", shippingHandler.RemoveState)
		admin.PUT("/shipping/cities", shippingHandler.UpsertCity)
		admin.DELETE("/shipping/cities/:state/:city", shippingHandler.RemoveCity)

		admin.GET("/settings", settingsHandler.List)
		admin.PUT("/settings/:key", settingsHandler.Update)
	}

	return r
}
