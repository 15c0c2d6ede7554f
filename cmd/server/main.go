package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wayakart27/ecommerce-sub002/config"
	"github.com/wayakart27/ecommerce-sub002/internal/database"
	"github.com/wayakart27/ecommerce-sub002/internal/logging"
	"github.com/wayakart27/ecommerce-sub002/internal/repository"
	"github.com/wayakart27/ecommerce-sub002/internal/router"
	"github.com/wayakart27/ecommerce-sub002/internal/service"
	"github.com/wayakart27/ecommerce-sub002/pkg/payment"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	rootCmd = &cobra.Command{
		Use:   "server",
		Short: "Storefront referral and shipping API",
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Serve the HTTP API",
		RunE:  cmdRun,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database schema and seed default settings",
		RunE:  cmdMigrate,
	}

	skipMigrate bool
)

func init() {
	runCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on start")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and opens the logger and database.
func setup() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg := config.Load()
	log, err := logging.New(cfg.Server.IsProduction(), cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("logger: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database: %w", err)
	}
	return cfg, log, db, nil
}

func migrate(ctx context.Context, cfg *config.Config, log *zap.Logger, db *gorm.DB) error {
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	settings := service.NewReferralSettings(log, repository.NewSettingRepository(db), cfg.Referral.CommissionRate, cfg.Referral.DefaultMinPayout)
	if err := settings.Seed(ctx); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

func cmdMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if err := migrate(cmd.Context(), cfg, log, db); err != nil {
		return err
	}
	log.Info("schema migrated")
	return nil
}

func cmdRun(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !skipMigrate {
		if err := migrate(ctx, cfg, log, db); err != nil {
			return err
		}
	}

	rdb, err := database.ConnectRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, shipping cache disabled", zap.Error(err))
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	var gateway payment.Gateway
	if cfg.Paystack.SecretKey == "" {
		if cfg.Server.IsProduction() {
			return errors.New("PAYSTACK_SECRET_KEY is required in production")
		}
		log.Warn("PAYSTACK_SECRET_KEY not set, using stub payment gateway")
		gateway = payment.StubProvider{}
	} else {
		gateway = payment.NewPaystackClient(log.Named("paystack"), cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.TransferTimeout)
	}

	engine := router.Setup(ctx, cfg, log, db, rdb, gateway)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
