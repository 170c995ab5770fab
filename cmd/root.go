package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command; running the binary without a subcommand
// prints usage.
var rootCmd = &cobra.Command{
	Use:   "triage-api",
	Short: "Backend for the pneumonia triage platform",
	Long: `Backend for the pneumonia triage platform.

Serves authentication, health profiles, radiograph analysis and history
endpoints, delegating image classification to the external model service.`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
