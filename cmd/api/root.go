// giving-hand-api is the Giving Hand server: HTTP API, background sweeps,
// maintenance commands and the Telegram assistant.
//
// Usage:
//
//	giving-hand-api serve     [--config=<dir>]
//	giving-hand-api seed      [--config=<dir>]
//	giving-hand-api reconcile [--config=<dir>]
//	giving-hand-api telegram  [--config=<dir>]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"giving-hand-api-server/config"
	"giving-hand-api-server/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configDir string
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "giving-hand-api",
	Short: "Surplus food donation server",
	Long:  "Giving Hand connects food donors with charities, guests and\nreprocessing factories.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if cfg, err = config.LoadConfig(configDir); err != nil {
			return fmt.Errorf("could not load config: %w", err)
		}
		logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./config", "directory holding config.yaml and .env")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(telegramCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
