package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/easycab-sim/central/app"
	"github.com/easycab-sim/central/config"
	"github.com/easycab-sim/central/infra/logger"
)

var (
	cfgPath  string
	broker   string
	authPort int
)

var rootCmd = &cobra.Command{
	Use:   "central",
	Short: "EasyCab central coordinator",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().StringVar(&broker, "broker", "", "message bus address (overrides config)")
	rootCmd.Flags().IntVar(&authPort, "auth-port", 0, "authentication listen port (overrides config)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

// loadConfig reads the file and applies the command-line overrides for
// the two mandatory startup parameters.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	if authPort != 0 {
		cfg.Auth.Port = authPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
