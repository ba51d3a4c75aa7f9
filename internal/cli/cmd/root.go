package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zfogg/formdesk/internal/cli/client"
	"github.com/zfogg/formdesk/internal/cli/config"
	"github.com/zfogg/formdesk/internal/cli/credentials"
	"github.com/zfogg/formdesk/internal/cli/logger"
	"github.com/zfogg/formdesk/internal/cli/output"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
	asUser     string
)

var rootCmd = &cobra.Command{
	Use:   "formdesk",
	Short: "formdesk CLI - form tasks and results",
	Long: `formdesk is a command-line client for the formdesk server.
Assign forms as tasks, fill them in, review submissions and export
results directly from the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		logger.Init(verbose)

		if cmd.Flags().Changed("output") {
			if !output.ValidFormat(outputFmt) {
				return fmt.Errorf("unknown output format %q", outputFmt)
			}
			config.Set("output.format", outputFmt)
		}

		client.Init()

		if asUser == "" {
			return nil
		}
		creds, err := credentials.Load()
		if err != nil {
			return fmt.Errorf("loading credentials: %w", err)
		}
		if creds == nil || !creds.IsValid() {
			return fmt.Errorf("you must be logged in to use --as-user")
		}
		if !creds.IsAdmin() {
			return fmt.Errorf("only admins can act as another user")
		}
		client.SetImpersonateUser(asUser)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/formdesk/cli/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, json, table")
	rootCmd.PersistentFlags().StringVar(&asUser, "as-user", "", "Email of the account to act as (admins only)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(formsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
