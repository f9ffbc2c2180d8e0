package main

import (
	"fmt"
	"os/signal"
	"syscall"

	schema "github.com/DanielPopoola/ficmart-checkout/db"
	"github.com/DanielPopoola/ficmart-checkout/internal/config"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence"
	"github.com/DanielPopoola/ficmart-checkout/internal/worker"
	"github.com/spf13/cobra"
)

var janitorCmd = &cobra.Command{
	Use:   "janitor",
	Short: "Delete payment sessions older than the configured TTL",
	RunE:  runJanitor,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres schema",
	RunE:  runMigrate,
}

func init() {
	janitorCmd.Flags().Bool("once", false, "Run a single sweep and exit")
}

func runJanitor(cmd *cobra.Command, args []string) error {
	once, _ := cmd.Flags().GetBool("once")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	janitor := worker.NewSessionJanitor(repo, cfg.Worker.Interval, cfg.Worker.SessionTTL, logger)

	if once {
		deleted, err := janitor.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d payment session(s)\n", deleted)
		return nil
	}

	janitor.Start(ctx)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.StorePostgres {
		return fmt.Errorf("migrate only applies to the postgres store, not %q", cfg.Store.Driver)
	}

	db, err := persistence.Connect(cmd.Context(), &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(cmd.Context(), schema.InitUp); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
	return nil
}
