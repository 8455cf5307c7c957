// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"photo-market/internal/application"
	"photo-market/internal/config"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/domain/ports/repository"
	payAdapters "photo-market/internal/infra/adapters/payment"
	tele "photo-market/internal/infra/adapters/telegram"
	"photo-market/internal/infra/api"
	pg "photo-market/internal/infra/db/postgres"
	"photo-market/internal/infra/i18n"
	"photo-market/internal/infra/logging"
	"photo-market/internal/infra/memstore"
	"photo-market/internal/infra/metrics"
	red "photo-market/internal/infra/redis"
	"photo-market/internal/infra/sched"
	"photo-market/internal/infra/storage"
	"photo-market/internal/infra/worker"
	"photo-market/internal/usecase"

	"github.com/rs/zerolog"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

// botRunner is the update source: the real poller or nothing in noop mode.
type botRunner interface {
	adapter.TelegramBotAdapter
	adapter.ChannelPublisher
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, fake payment gateway)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("photo-market stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	logger.Info().Str("version", version).Str("commit", commit).Bool("dev", cfg.Runtime.Dev).Msg("starting photo-market")

	// ---- Postgres ----
	if cfg.Database.AutoMigrate {
		if err := pg.Migrate(cfg.Database.URL, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	tm := pg.NewTxManager(pool)
	var userRepo repository.UserRepository = pg.NewUserRepo(pool)
	adRepo := pg.NewAdRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	settingRepo := pg.NewSettingRepo(pool)

	// ---- Redis (optional) ----
	var (
		redisClient *red.Client
		rateLimiter *red.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
		if cfg.Database.CacheUsers {
			userRepo = pg.NewUserRepoCacheDecorator(userRepo, redisClient, cfg.Redis.TTL, logger)
		}
	}

	var (
		sessions    repository.SessionStore
		locker      repository.SessionLocker
		memSessions *memstore.SessionStore
	)
	if cfg.Bot.SessionStore == "redis" {
		sessions = red.NewSessionStore(redisClient, cfg.Bot.SessionTTL)
		locker = red.NewSessionLocker(redisClient, 30*time.Second)
	} else {
		memSessions = memstore.NewSessionStore(cfg.Bot.SessionTTL)
		sessions = memSessions
		locker = memstore.NewLocker()
	}

	// ---- Object storage (optional) ----
	var objects adapter.ObjectStorage
	if cfg.Storage.SupabaseURL != "" {
		st, err := storage.NewSupabaseStorage(cfg.Storage, logger)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		objects = st
	} else {
		logger.Warn().Msg("storage.supabase_url not set; ad photos will not be stored")
	}

	// ---- Telegram ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "fa")
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	var (
		bot    botRunner
		poller *tele.RealTelegramBotAdapter
	)
	switch cfg.Bot.Mode {
	case "noop":
		bot = tele.NewNoopBotAdapter(logger)
	default:
		poller, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, rateLimiter, tr, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		bot = poller
	}

	// ---- Background publishing ----
	publishPool := worker.NewPool("publish_ad", cfg.Ads.PublishWorkers, logger)
	publishPool.Start(ctx)
	defer publishPool.Stop()

	// ---- Use cases ----
	validator := usecase.NewContentValidator()
	userUC := usecase.NewUserUseCase(userRepo, tm, logger)
	settingUC := usecase.NewSettingUseCase(settingRepo, logger)
	adUC := usecase.NewAdUseCase(adRepo, userRepo, tm, objects, validator, usecase.AdUCOptions{
		InitialStatus: model.AdStatus(cfg.Ads.InitialStatus),
		Publisher:     bot,
		Runner:        publishPool,
	}, logger)
	paymentUC := usecase.NewPaymentUseCase(payRepo, adUC, userUC, settingUC, paymentGateway(cfg, logger), tm, cfg.Payment.ZarinPal.CallbackURL, logger)
	authUC := usecase.NewAuthUseCase(userUC, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, adRepo, payRepo, logger)

	// ---- Bot facade ----
	deps := application.BotDeps{
		Users:      userUC,
		Ads:        adUC,
		Settings:   settingUC,
		Validator:  validator,
		Sessions:   sessions,
		Locker:     locker,
		Messenger:  bot,
		Translator: tr,
		Logger:     logger,

		ImageTimeout: cfg.Bot.ImageTimeout,
	}
	if paymentUC.Enabled() {
		deps.Payments = paymentUC
	}
	if objects != nil {
		deps.Storage = objects
	}
	facade, err := application.NewBotFacade(deps)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	goRun := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("component", name).Msg("component stopped")
			}
		}()
	}

	if poller != nil {
		goRun("telegram", func(ctx context.Context) error { return poller.StartPolling(ctx, facade) })
	}

	// ---- Schedulers ----
	if memSessions != nil {
		goRun("session_sweeper", func(ctx context.Context) error { return memSessions.RunSweeper(ctx, 0, logger) })
	}
	expiry := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, adUC, userUC, settingUC, logger)
	goRun("expiry", expiry.Run)
	if paymentUC.Enabled() {
		reconciler := sched.NewPaymentReconciler(paymentUC, cfg.Scheduler.ReconcileInterval, cfg.Scheduler.PaymentStaleAfter, logger)
		goRun("reconciler", reconciler.Run)
	}

	// ---- HTTP ----
	srv := api.NewServer(api.Deps{
		Auth:           authUC,
		Ads:            adUC,
		Payments:       paymentUC,
		Users:          userUC,
		Settings:       settingUC,
		Stats:          statsUC,
		AdminAPIKey:    cfg.HTTP.AdminAPIKey,
		BotUsername:    cfg.Bot.Username,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Logger:         logger,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if poller != nil {
		poller.StopPolling()
	}
	wg.Wait()
	return nil
}

// paymentGateway returns nil when payments are disabled so that
// PaymentUseCase.Enabled reports false.
func paymentGateway(cfg *config.Config, logger *zerolog.Logger) adapter.PaymentGateway {
	zp := cfg.Payment.ZarinPal
	switch {
	case zp.MerchantID != "":
		gw, err := payAdapters.NewZarinPalGateway(zp.MerchantID, zp.CallbackURL, zp.Sandbox)
		if err != nil {
			logger.Error().Err(err).Msg("zarinpal gateway disabled")
			return nil
		}
		return gw
	case cfg.Runtime.Dev:
		logger.Warn().Msg("dev mode: using the fake payment gateway")
		return payAdapters.NewNoopPaymentGateway(zp.CallbackURL)
	}
	logger.Info().Msg("payment.zarinpal.merchant_id not set; payments disabled")
	return nil
}
