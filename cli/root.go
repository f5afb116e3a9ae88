// Package cli holds the rewards command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	databaseURL  string
	databaseType string
)

var rootCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Referral rewards service",
	Long: `Referral rewards service: signups and referrals, daily and weekly
leaderboards, and idempotent winner selection with balance payouts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Database DSN (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&databaseType, "database-type", "", "postgres or sqlite (overrides DATABASE_TYPE)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
