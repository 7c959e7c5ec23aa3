// Package cli provides the command-line interface for turnstile.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moderatehq/turnstile/internal/config"
	"github.com/moderatehq/turnstile/internal/db"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client
)

// Commands that go through the HTTP API (or none at all) skip the direct
// database connection.
var noDBCommands = map[string]bool{
	"version": true,
	"help":    true,
	"turn":    true,
	"stats":   true,
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "turnstile",
	Short: "Multi-tenant chat turn processor",
	Long: `Turnstile processes chat turns for multi-tenant deployments: it classifies
inbound messages, evaluates per-company block rules, substitutes blocked
content before the model sees it, and shapes replies with per-chat persona
attributes.

Turn submission goes through a running turnstile-server; rule and persona
management talks to the database directly.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noDBCommands[cmd.Name()] {
			return nil
		}

		cfg = config.Load()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.DBURL,
			Namespace: cfg.DBNamespace,
			Database:  cfg.DBDatabase,
			Username:  cfg.DBUser,
			Password:  cfg.DBPass,
			AuthLevel: cfg.DBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, nil)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Failures are printed once, in the error style.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, defaultTheme.errorStyle().Render("Error: "+err.Error()))
	}
	return err
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(turnCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(personaCmd)
	rootCmd.AddCommand(statsCmd)
}
