package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/anphuc-nienso/internal/app"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
)

var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Check the database is reachable and migrated",
	Args:  cobra.NoArgs,
	RunE:  runDBHealth,
}

func init() {
	rootCmd.AddCommand(dbhealthCmd)
}

func runDBHealth(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	db, err := repository.Open(ctx, app.DatabaseConfig(cfg.Database), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	start := time.Now()
	if err := db.HealthCheck(ctx, 2*time.Second); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "DB health: FAIL (%v)\n", err)
		return err
	}
	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	families, err := repository.NewFamilyRepository(db, logger).Count(ctx)
	if err != nil {
		return err
	}
	members, err := repository.NewMemberRepository(db, logger).Count(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "DB health: OK (%s, %dms)\n", db.Dialect(), time.Since(start).Milliseconds())
	fmt.Fprintf(out, "schema version: %d\n", version)
	fmt.Fprintf(out, "families: %d, members: %d\n", families, members)
	return nil
}
