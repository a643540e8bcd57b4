// Package main provides the taixiu command line: the HTTP service and a few
// one-shot maintenance commands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/taixiu-ai/internal/config"
	"github.com/yourusername/taixiu-ai/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	envFile    string
	cfg        *config.Config
	appLog     *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file loaded before the configuration")

	rootCmd.AddCommand(serveCmd, predictCmd, historyCmd)
}

var rootCmd = &cobra.Command{
	Use:           "taixiu",
	Short:         "Tài/Xỉu ensemble prediction service",
	Long:          `Fetches the latest game sessions, keeps a rolling history of outcomes and forecasts the next one with a weighted ensemble of ten estimators.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	// A missing .env file is normal outside development
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if cfg.AWS.SecretsEnabled {
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return err
	}

	appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	return nil
}
