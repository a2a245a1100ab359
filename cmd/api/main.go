package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/miguelserrato/tapiceros-backend/api/routes"
	"github.com/miguelserrato/tapiceros-backend/internal/auth"
	"github.com/miguelserrato/tapiceros-backend/internal/notifications"
	"github.com/miguelserrato/tapiceros-backend/internal/orders"
	"github.com/miguelserrato/tapiceros-backend/internal/payments"
	"github.com/miguelserrato/tapiceros-backend/internal/posts"
	"github.com/miguelserrato/tapiceros-backend/internal/users"
	stripewebhook "github.com/miguelserrato/tapiceros-backend/internal/webhooks/stripe"
	"github.com/miguelserrato/tapiceros-backend/pkg/auth/session"
	"github.com/miguelserrato/tapiceros-backend/pkg/config"
	"github.com/miguelserrato/tapiceros-backend/pkg/db"
	"github.com/miguelserrato/tapiceros-backend/pkg/logger"
	"github.com/miguelserrato/tapiceros-backend/pkg/metrics"
	"github.com/miguelserrato/tapiceros-backend/pkg/migrate"
	"github.com/miguelserrato/tapiceros-backend/pkg/push"
	"github.com/miguelserrato/tapiceros-backend/pkg/redis"
	"github.com/miguelserrato/tapiceros-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	pushClient, err := push.NewClient(context.Background(), cfg.Firebase, logg)
	if err != nil {
		// Push delivery is best effort, the API still serves without it.
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "push client unavailable")
		pushClient = nil
	}

	usersRepo := users.NewRepository(dbClient.DB())
	postsRepo := posts.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	postsService, err := posts.NewService(postsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create posts service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo:        notificationsRepo,
		Push:        pushClient,
		Users:       usersRepo,
		PushTimeout: cfg.Webhook.PushTimeout,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:         paymentsRepo,
		Gateway:      stripeClient,
		Users:        usersRepo,
		Orders:       ordersRepo,
		StripeConfig: cfg.Stripe,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		PaymentsRepo:      paymentsRepo,
		Notifier:          notificationsService,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.EventTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			Sessions:             sessionManager,
			AuthService:          authService,
			UsersService:         usersService,
			PostsService:         postsService,
			OrdersService:        ordersService,
			PaymentsService:      paymentsService,
			NotificationsService: notificationsService,
			StripeClient:         stripeClient,
			StripeWebhookSvc:     webhookService,
			StripeWebhookGuard:   webhookGuard,
			HTTPMetrics:          httpMetrics,
			WebhookMetrics:       webhookMetrics,
			MetricsGatherer:      registry,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
