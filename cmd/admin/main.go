package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"rez_app_echo/internal/config"
	"rez_app_echo/internal/services"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "rez-admin",
		Short:        "Operational commands for the Rez backend",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedTemplatesCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(grantCmd())
	rootCmd.AddCommand(reconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDB loads the configuration and connects to the database
func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect DB: %w", err)
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			return services.AutoMigrate(db)
		},
	}
}

func seedTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-templates",
		Short: "Insert the default resume templates that are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			n, err := services.SeedTemplates(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d templates\n", n)
			return nil
		},
	}
}
