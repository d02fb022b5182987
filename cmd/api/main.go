package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/storebuddy/storebuddy-backend/api/routes"
	"github.com/storebuddy/storebuddy-backend/internal/auth"
	"github.com/storebuddy/storebuddy-backend/internal/checkout"
	"github.com/storebuddy/storebuddy-backend/internal/classifier"
	"github.com/storebuddy/storebuddy-backend/internal/docstore"
	"github.com/storebuddy/storebuddy-backend/internal/products"
	"github.com/storebuddy/storebuddy-backend/internal/receipts"
	"github.com/storebuddy/storebuddy-backend/internal/sales"
	"github.com/storebuddy/storebuddy-backend/internal/session"
	"github.com/storebuddy/storebuddy-backend/internal/users"
	"github.com/storebuddy/storebuddy-backend/pkg/config"
	"github.com/storebuddy/storebuddy-backend/pkg/db"
	"github.com/storebuddy/storebuddy-backend/pkg/env"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
	"github.com/storebuddy/storebuddy-backend/pkg/metrics"
	"github.com/storebuddy/storebuddy-backend/pkg/migrate"
	"github.com/storebuddy/storebuddy-backend/pkg/pubsub"
	"github.com/storebuddy/storebuddy-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	store, err := docstore.New(dbClient.DB(), docstore.NewNotifier(), logg)
	requireResource(ctx, logg, "docstore", err)

	sessions, err := session.NewManager(store, logg)
	requireResource(ctx, logg, "session manager", err)
	defer sessions.CloseAll()

	receiptTrigger, closeTrigger, err := buildReceiptTrigger(ctx, cfg, logg)
	requireResource(ctx, logg, "receipt trigger", err)
	defer closeTrigger()

	userRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	requireResource(ctx, logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "register service", err)

	productService, err := products.NewService(store)
	requireResource(ctx, logg, "product service", err)

	salesService, err := sales.NewService(store)
	requireResource(ctx, logg, "sales service", err)

	checkoutService, err := checkout.NewService(store, receiptTrigger, logg,
		metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer))
	requireResource(ctx, logg, "checkout service", err)

	adapter, err := buildClassifier(cfg, logg)
	requireResource(ctx, logg, "classifier", err)

	router := routes.NewRouter(routes.RouterParams{
		Config:          cfg,
		Logger:          logg,
		DBPinger:        dbClient,
		Redis:           redisClient,
		Sessions:        sessions,
		AuthService:     authService,
		RegisterService: registerService,
		ProductService:  productService,
		SalesService:    salesService,
		CheckoutService: checkoutService,
		Classifier:      adapter,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(runCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}
}

// buildReceiptTrigger wires the pub/sub publisher when a receipts topic is
// configured and falls back to rendering receipts in-process otherwise.
func buildReceiptTrigger(ctx context.Context, cfg *config.Config, logg *logger.Logger) (receipts.Trigger, func(), error) {
	noop := func() {}

	if !cfg.PubSub.Enabled() {
		renderer, err := receipts.NewRenderer(cfg.Receipts)
		if err != nil {
			return nil, noop, err
		}
		trigger, err := receipts.NewLocalTrigger(renderer, logg)
		if err != nil {
			return nil, noop, err
		}
		return trigger, noop, nil
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return nil, noop, err
	}
	closeClient := func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}

	publisher, err := receipts.NewGCPPublisher(pubsubClient.ReceiptsPublisher())
	if err != nil {
		closeClient()
		return nil, noop, err
	}
	trigger, err := receipts.NewPubSubTrigger(publisher, logg)
	if err != nil {
		closeClient()
		return nil, noop, err
	}
	return trigger, closeClient, nil
}

// buildClassifier returns a nil adapter when no predict service is
// configured; the scan route reports unavailable in that case.
func buildClassifier(cfg *config.Config, logg *logger.Logger) (*classifier.Adapter, error) {
	if cfg.Classifier.BaseURL == "" {
		return nil, nil
	}
	model, err := classifier.NewModelClient(
		cfg.Classifier.BaseURL,
		cfg.Classifier.ModelName,
		classifier.WithTimeout(cfg.Classifier.Timeout),
	)
	if err != nil {
		return nil, err
	}
	return classifier.NewAdapter(model, cfg.Classifier.Threshold, logg,
		metrics.NewClassifierMetrics(prometheus.DefaultRegisterer))
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err != nil {
		logg.Error(ctx, "resource not working: "+resource, err)
		os.Exit(1)
	}
}
