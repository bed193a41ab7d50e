package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/karibu-app/karibu-backend/api/routes"
	"github.com/karibu-app/karibu-backend/internal/auth"
	"github.com/karibu-app/karibu-backend/internal/cart"
	"github.com/karibu-app/karibu-backend/internal/catalog"
	"github.com/karibu-app/karibu-backend/internal/orders"
	"github.com/karibu-app/karibu-backend/internal/partners"
	"github.com/karibu-app/karibu-backend/internal/promos"
	"github.com/karibu-app/karibu-backend/internal/restaurants"
	"github.com/karibu-app/karibu-backend/internal/tracking"
	"github.com/karibu-app/karibu-backend/internal/users"
	"github.com/karibu-app/karibu-backend/pkg/auth/session"
	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/db"
	"github.com/karibu-app/karibu-backend/pkg/logger"
	"github.com/karibu-app/karibu-backend/pkg/metrics"
	"github.com/karibu-app/karibu-backend/pkg/migrate"
	"github.com/karibu-app/karibu-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
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

	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)

	userRepo := users.NewRepository(dbClient.DB())
	restaurantRepo := restaurants.NewRepository(dbClient.DB())
	productRepo := catalog.NewRepository(dbClient.DB())
	promoRepo := promos.NewRepository(dbClient.DB())

	authService, err := auth.NewService(userRepo, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	restaurantService, err := restaurants.NewService(restaurantRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create restaurant service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	promoService, err := promos.NewService(promoRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create promo service", err)
		os.Exit(1)
	}

	partnerService, err := partners.NewService(partners.NewRepository(dbClient.DB()), dbClient, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create partner service", err)
		os.Exit(1)
	}

	publisher, err := tracking.NewPublisher(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create order event publisher", err)
		os.Exit(1)
	}

	streamer, err := tracking.NewStreamer(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create order event streamer", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		restaurantRepo,
		productRepo,
		promoService,
		publisher,
		orderMetrics,
		logg,
		cfg.Orders,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	carts := cart.NewRedisManager(redisClient, cfg.Cart, orderMetrics)

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
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Sessions:    sessionManager,
			Auth:        authService,
			Restaurants: restaurantService,
			Catalog:     catalogService,
			Promos:      promoService,
			Partners:    partnerService,
			Orders:      orderService,
			Carts:       carts,
			Streamer:    streamer,
			Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
