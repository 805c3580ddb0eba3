package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rez_app_echo/internal/config"
	"rez_app_echo/internal/services"
	"rez_app_echo/internal/tasks"
)

const pollInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.NewLogger())

	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL not set")
		os.Exit(1)
	}
	db, err := services.InitDB(cfg.DatabaseURL, false)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		if cache, err = services.NewRedisCache(cfg.RedisURL); err != nil {
			slog.Warn("Redis unavailable, grant locks disabled", "error", err)
		}
	}
	defer cache.Close()

	stripeService := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	ledger := services.NewLedger(db, cache)
	checkout := services.NewCheckoutService(db, stripeService,
		services.NewPricing(services.DefaultPackages, cfg.CreditConversionRate),
		services.CheckoutConfig{Currency: cfg.StripeCurrency, ReturnURL: cfg.AppURL + "/payment"},
	)
	processor := services.NewPaymentEventProcessor(db, ledger, checkout, cache)

	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, tasks.Deps{
		DB: db,
		Mailer: services.NewEmailService(services.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.EmailFrom,
		}),
		Reconciler: processor,
	})
	runner := tasks.NewRunner(db, registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconcile := &tasks.ReconcileCheckoutSessionsTaskDef{}
	if task, err := reconcile.CreateTask(time.Now()); err == nil {
		if created, err := tasks.EnsureRecurring(ctx, db, task); err != nil {
			slog.Error("Failed to schedule reconciliation", "error", err)
		} else if created {
			slog.Info("Scheduled reconciliation task", "rule", *task.RecurringInterval)
		}
	}

	slog.Info("Worker started", "tasks", registry.Names(), "interval", pollInterval)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	process(ctx, runner)
	for {
		select {
		case <-ticker.C:
			process(ctx, runner)
		case <-ctx.Done():
			slog.Info("Shutting down worker")
			return
		}
	}
}

func process(ctx context.Context, runner *tasks.Runner) {
	if _, err := runner.ProcessDue(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Error processing scheduled tasks", "error", err)
	}
}
