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

	"captive-wifi-billing/internal/config"
	pg "captive-wifi-billing/internal/infra/db/postgres"
	"captive-wifi-billing/internal/infra/logging"
	"captive-wifi-billing/internal/infra/metrics"
	mpesa "captive-wifi-billing/internal/infra/payment"
	red "captive-wifi-billing/internal/infra/redis"
	"captive-wifi-billing/internal/infra/router"
	"captive-wifi-billing/internal/infra/sched"
	"captive-wifi-billing/internal/infra/web"
	"captive-wifi-billing/internal/usecase"
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
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	paymentRepo := pg.NewPaymentRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	pendingRepo := red.NewPendingPurchaseRepo(redisClient)

	// ---- Coordination ----
	broker := red.NewConfirmationBroker(redisClient, logger)
	locker := red.NewLocker(redisClient)

	// ---- Adapters ----
	gateway := mpesa.NewDarajaGateway(&cfg.Mpesa, pendingRepo, logger)
	network := router.NewMikrotikController(&cfg.Router, logger)
	defer network.Close()
	revoker := sched.NewAccessRevoker(network, logger)
	defer revoker.Stop()

	// ---- Use cases ----
	purchaseUC := usecase.NewPurchaseUseCase(paymentRepo, planRepo, gateway, broker, locker, cfg.Mpesa.ConfirmTimeout, logger)
	callbackUC := usecase.NewCallbackUseCase(pendingRepo, userRepo, broker, network, revoker, logger)
	planUC := usecase.NewPlanUseCase(planRepo)

	// ---- HTTP server ----
	srv := web.NewServer(purchaseUC, callbackUC, planUC, cfg.Web.JWTSecret, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Web.Port),
		Handler: srv.Routes(),
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
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
