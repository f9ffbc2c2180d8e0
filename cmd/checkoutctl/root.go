package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	outcomeTimeout time.Duration
	rootCmd        *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "checkoutctl",
		Short: "Drive a checkout payment session from the terminal",
		Long: `checkoutctl stores a payment session handed over by the merchant backend and
walks it through payment initiation, redirects, additional details and one-click
method removal. State is kept in the configured store between invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().DurationVar(&outcomeTimeout, "timeout", 60*time.Second, "How long to wait for the backend")

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(redirectCmd)
	rootCmd.AddCommand(oneClickCmd)
	rootCmd.AddCommand(issuersCmd)
	rootCmd.AddCommand(janitorCmd)
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
