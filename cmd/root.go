package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/healthsignals/riskwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "riskwatch",
	Short: "Webhook-triggered risk scoring for community health reports",
	Long:  "Scores incoming health reports on case velocity, demographics, severity, water source, and live weather; persists a risk tier and sends SMS alerts for high-risk villages.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments set the environment directly.
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
