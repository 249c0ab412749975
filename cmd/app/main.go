// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-marketplace/internal/config"
	pg "content-marketplace/internal/infra/db/postgres"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/metrics"
	"content-marketplace/internal/infra/payment"
	red "content-marketplace/internal/infra/redis"
	"content-marketplace/internal/infra/web"
	"content-marketplace/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	transactionRepo := pg.NewTransactionRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)
	productRepo := pg.NewProductRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	grantRepo := pg.NewGrantMarkerRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Gateway ----
	gw := payment.NewPayHubGateway(
		cfg.Gateway.MerchantID,
		cfg.Gateway.SecretKey,
		cfg.Gateway.APIURL,
		cfg.Gateway.NotifyURL,
		cfg.Gateway.ReturnURL,
		cfg.Gateway.Timeout,
	)

	// ---- Use cases ----
	couponUC := usecase.NewCouponUseCase(couponRepo, productRepo, logger)
	entitlementUC := usecase.NewEntitlementUseCase(transactionRepo, productRepo, subRepo, grantRepo, txManager, logger)
	checkoutUC := usecase.NewCheckoutUseCase(transactionRepo, couponUC, entitlementUC, gw, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TTL)
	srv := web.NewServer(checkoutUC, couponUC, entitlementUC, transactionRepo, productRepo, gw, auth, rateLimiter, locker, cfg.Limits.CheckoutPerMinute, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
