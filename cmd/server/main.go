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

	"sitepilot/internal/config"
	"sitepilot/internal/domain/ports/adapter"
	pg "sitepilot/internal/infra/db/postgres"
	"sitepilot/internal/infra/email"
	"sitepilot/internal/infra/gateway"
	"sitepilot/internal/infra/logging"
	"sitepilot/internal/infra/metrics"
	"sitepilot/internal/infra/notify"
	red "sitepilot/internal/infra/redis"
	"sitepilot/internal/infra/sched"
	"sitepilot/internal/infra/sms"
	"sitepilot/internal/infra/web"
	"sitepilot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop gateway)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis (optional; matcher degrades to row locks without it) ----
	var locker red.Locker = red.NoopLocker{}
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
	}

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	siteRepo := pg.NewWebsiteRepo(pool)
	profileRepo := pg.NewProfileRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Gateway ----
	var gw adapter.PaymentGateway
	if cfg.Runtime.Dev && cfg.Gateway.KeyID == "" {
		gw = gateway.NewNoopGateway()
		logger.Warn().Msg("no gateway credentials; using noop gateway")
	} else {
		gw, err = gateway.NewRazorpayGateway(cfg.Gateway.KeyID, cfg.Gateway.KeySecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("gateway init failed")
		}
	}

	// ---- Notifications ----
	dispatcher := notify.NewDispatcher(cfg.Notify.Workers, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	var messenger adapter.Messenger = sms.NoopSender{}
	if cfg.SMS.BaseURL != "" {
		messenger = sms.NewWhatsAppSender(cfg.SMS)
	}
	mailer := email.NewSMTPMailer(cfg.SMTP)
	notifier := usecase.NewNotifier(mailer, messenger, dispatcher, cfg.Notify.FounderEmail, logger)

	// ---- Use cases ----
	catalog := usecase.NewPlanCatalog(cfg.PlanCatalog())
	matcher := usecase.NewPaymentMatcher(payRepo, cfg.Matcher.Window, logger)
	activator := usecase.NewWebsiteActivator(siteRepo, logger)
	reconcileUC := usecase.NewReconcileUseCase(payRepo, subRepo, profileRepo, tm, matcher, locker, activator, notifier, catalog, logger)
	verifyUC := usecase.NewVerifyUseCase(payRepo, subRepo, logger)
	checkoutUC := usecase.NewCheckoutUseCase(payRepo, subRepo, catalog, gw, cfg.Gateway.CallbackURL, logger)
	billingUC := usecase.NewBillingUseCase(payRepo, subRepo, profileRepo, siteRepo, logger)

	// ---- Background workers ----
	sweeper := sched.NewPendingSweeper(payRepo, cfg.Sweeper.Interval, cfg.Sweeper.StaleAfter, logger)
	go sweeper.Start(ctx)

	refresher := sched.NewMetricsRefresher(subRepo, 0, logger)
	go refresher.Start(ctx)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Session.Secret, cfg.Session.TTL)
	server := web.NewServer(reconcileUC, verifyUC, checkoutUC, billingUC, auth, cfg.Gateway.WebhookSecret, logger)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
