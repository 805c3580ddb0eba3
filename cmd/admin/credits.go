package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rez_app_echo/internal/services"
)

func grantCmd() *cobra.Command {
	var (
		credits   int64
		reference string
	)

	cmd := &cobra.Command{
		Use:   "grant <clerk_id>",
		Short: "Add credits to an account",
		Long: `Add credits to an account outside of checkout, e.g. for support refunds.

The reference is recorded like a checkout session ID: granting twice with the
same reference adds the credits only once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			if reference == "" {
				reference = "manual_" + uuid.NewString()
			}

			ledger := services.NewLedger(db, nil)
			user, err := ledger.Grant(cmd.Context(), services.GrantRequest{
				AuthID:    args[0],
				Credits:   credits,
				SessionID: reference,
				Source:    services.GrantSourceAdmin,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Granted %d credits to %s (balance %d, reference %s)\n", credits, user.AuthID, user.Credits, reference)
			return nil
		},
	}

	cmd.Flags().Int64Var(&credits, "credits", 0, "credits to add")
	cmd.Flags().StringVar(&reference, "reference", "", "idempotency reference; generated when empty")
	_ = cmd.MarkFlagRequired("credits")

	return cmd
}

func reconcileCmd() *cobra.Command {
	var (
		hours int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Credit paid checkout sessions that were never credited",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			if cfg.StripeSecretKey == "" {
				return fmt.Errorf("STRIPE_SECRET_KEY is not set")
			}

			stripeService := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
			ledger := services.NewLedger(db, nil)
			checkout := services.NewCheckoutService(db, stripeService,
				services.NewPricing(services.DefaultPackages, cfg.CreditConversionRate),
				services.CheckoutConfig{Currency: cfg.StripeCurrency, ReturnURL: cfg.AppURL + "/payment"},
			)
			processor := services.NewPaymentEventProcessor(db, ledger, checkout, nil)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			report, err := processor.Reconcile(ctx, time.Now().Add(-time.Duration(hours)*time.Hour), limit)
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d granted=%d skipped=%d rejected=%d failed=%d\n",
				report.Checked, report.Granted, report.Skipped, report.Rejected, report.Failed)
			return err
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 48, "look back this many hours")
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum sessions to inspect")

	return cmd
}
