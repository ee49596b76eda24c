// Package cmd provides the command-line interface of tpumem.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "tpumem",
	Short: "tpumem estimates the on-chip buffer behavior of systolic " +
		"accelerators from DRAM traces.",
	Long: `tpumem estimates the on-chip buffer behavior of systolic ` +
		`accelerators from DRAM traces. It prepares per-layer access ` +
		`tables from SCALE-Sim style traces, estimates hit rates, DRAM ` +
		`traffic, and access latency with a reuse-distance model, and ` +
		`reports recorded results.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "INFO",
		"Log level: DEBUG, INFO, NOTICE, WARNING, ERROR, or CRITICAL.")
	rootCmd.PersistentFlags().String("config", "",
		"YAML file with engine and trace settings.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Settings in a .env file of the working directory become
// environment defaults.
func Execute() {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		atexit.Exit(1)
	}

	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadDotEnv loads the file into the environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(path)
}
