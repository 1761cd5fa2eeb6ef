package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remixlab/remix-api/internal/database"
	"github.com/remixlab/remix-api/internal/models"
	"github.com/remixlab/remix-api/pkg/config"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply the database schema for the Remix API.

Runs GORM auto-migration for every model, creating or updating tables
as needed. Safe to run repeatedly.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("verbose", false, "enable verbose database logging")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")

	db, err := database.Initialize(cfg.Database.Path, verbose || cfg.Database.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Migrating database at %s\n", cfg.Database.Path)
	if err := db.DB.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println("Migration complete")
	return nil
}
