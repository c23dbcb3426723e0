package main

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/spf13/cobra"

	"github.com/desaismitha/Shered-sub002/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply or inspect database migrations",
	Long:      "Runs the embedded goose migrations against DATABASE_URL. Defaults to up.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		action := "up"
		if len(args) == 1 {
			action = args[0]
		}

		// goose needs database/sql, not a pgx pool.
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		provider, err := migrations.NewProvider(db)
		if err != nil {
			return fmt.Errorf("create goose provider: %w", err)
		}

		ctx := cmd.Context()
		switch action {
		case "up":
			results, err := provider.Up(ctx)
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			logger.Info("migrations applied", "count", len(results))
		case "down":
			result, err := provider.Down(ctx)
			if err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			if result != nil && result.Source != nil {
				logger.Info("migration rolled back", "version", result.Source.Version)
			}
		case "status":
			statuses, err := provider.Status(ctx)
			if err != nil {
				return fmt.Errorf("migrate status: %w", err)
			}
			for _, s := range statuses {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6d %-8s %s\n", s.Source.Version, s.State, s.Source.Path)
			}
		}
		return nil
	},
}
