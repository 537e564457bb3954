package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ExoVista/internal/di"
	"ExoVista/pkg/config"
)

var serveFlags struct {
	configPath string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP, websocket and Kafka service",
	Long: `Serve loads the YAML config, applies environment overrides
(EXOVISTA_ENV, EXOVISTA_PORT, EXOVISTA_LOG_LEVEL, KAFKA_BROKERS, REDIS_ADDR,
EXOVISTA_SEED) and runs until SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.configPath, "config", "config/config.yaml", "config file path")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithEnv(serveFlags.configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}
