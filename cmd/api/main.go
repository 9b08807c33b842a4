package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dental-funnel",
		Short:         "Consultation lifecycle and reporting service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(statusMapCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
