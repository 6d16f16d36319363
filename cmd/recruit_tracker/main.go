// Package main provides the entry point for the recruitment tracker server and operator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	storeFlag  string
	seedFlag   string
)

var rootCmd = &cobra.Command{
	Use:           "recruit_tracker",
	Short:         "Recruitment pipeline tracker",
	Long:          "Tracks candidates through a job's hiring funnel with role-based visibility, and exposes the tracker over a REST API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Storage backend: memory or postgres (overrides config)")
	rootCmd.PersistentFlags().StringVar(&seedFlag, "seed", "", "YAML roster to load (overrides config)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
