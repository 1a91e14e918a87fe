package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qms-server",
	Short: "Quality management workflow API server",
	Long: `A REST API server for quality management workflows in regulated
manufacturing. It manages CAPA, change control, deviation, and controlled
document records through phase state machines with approval chains and
electronic signatures.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command, exposed for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
