package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/riclovato/furia-chatbot/internal/bootstrap"
	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/utils/logger"

	"github.com/spf13/cobra"
)

var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "furiactl",
	Short: "furiactl inspects the FURIA schedule scraper and the match store.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "config", "directory holding config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openApp() (*bootstrap.App, error) {
	cfg, err := config.LoadConfigFrom(configDir)
	if err != nil {
		return nil, err
	}
	// CLI output goes to stdout; keep logs on stderr only
	cfg.Log.File = ""
	cfg.Log.Level = "warn"
	if verbose {
		cfg.Log.Level = "debug"
	}
	log := logger.New(cfg.Log)
	log.SetOutput(os.Stderr)
	return bootstrap.New(cfg, log)
}
