package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rez_app_echo/internal/config"
	"rez_app_echo/internal/handlers"
	"rez_app_echo/internal/middleware"
	"rez_app_echo/internal/services"
	"rez_app_echo/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase
	var verifier services.IdentityVerifier
	authClient, err := services.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		slog.Warn("Firebase initialization failed, auth features will not work until valid credentials are provided", "error", err)
	} else {
		verifier = authClient
	}

	// Initialize Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL not set")
		os.Exit(1)
	}
	db, err := services.InitDB(cfg.DatabaseURL, !cfg.IsProduction() && cfg.LogLevel == "debug")
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := services.AutoMigrate(db); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	if n, err := services.SeedTemplates(db); err != nil {
		slog.Warn("Failed to seed templates", "error", err)
	} else if n > 0 {
		slog.Info("Seeded templates", "count", n)
	}

	// Redis is optional: without it caching and grant locks are disabled
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			slog.Warn("Redis unavailable, caching disabled", "error", err)
			cache = nil
		}
	}
	defer cache.Close()

	if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
		slog.Warn("Stripe keys not fully configured, checkout and webhooks will fail")
	}
	stripeService := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	ledger := services.NewLedger(db, cache)
	pricing := services.NewPricing(services.DefaultPackages, cfg.CreditConversionRate)
	checkout := services.NewCheckoutService(db, stripeService, pricing, services.CheckoutConfig{
		Currency:  cfg.StripeCurrency,
		ReturnURL: cfg.AppURL + "/payment",
	})
	processor := services.NewPaymentEventProcessor(db, ledger, checkout, cache)
	receipts := &tasks.SendCreditReceiptTaskDef{DB: db}
	processor.OnGrant(receipts.Enqueue)
	profiles := services.NewProfileService(db, cache)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.CustomErrorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Metrics())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Static("/images", "web/static/images")

	handlers.RegisterRoutes(e, handlers.Handlers{
		Auth:     handlers.NewAuthHandler(verifier, ledger, cfg),
		Checkout: handlers.NewCheckoutHandler(checkout),
		Webhook:  handlers.NewWebhookHandler(stripeService, processor),
		User:     handlers.NewUserHandler(ledger, profiles),
		Profile:  handlers.NewProfileHandler(profiles),
		Pages:    handlers.NewPageHandler(checkout, ledger, cfg),
	}, verifier, cfg.IsAdminEmail)

	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
