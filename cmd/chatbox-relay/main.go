package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/concord-chat/chatbox/internal/config"
	"github.com/concord-chat/chatbox/internal/server"
)

const configFilename = "chatbox-relay.toml"

var (
	// Flags
	configPath string
	host       string
	port       int
	verbose    bool

	cfg    *server.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatbox-relay",
	Short: "Websocket relay for chatbox clients",
	Long: `chatbox-relay fans chat lines out to the members of each channel.
It keeps no history: a line reaches whoever is in the channel when it is said.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		zc := zap.NewProductionConfig()
		if verbose || cfg.Debug {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default ./"+configFilename+" if present)")
	rootCmd.Flags().StringVar(&host, "host", "", "Host to bind to (overrides config)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to bind to (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the relay config over the defaults and applies the flags
func loadConfig() (*server.Config, error) {
	c := server.DefaultConfig()

	path := configPath
	if path == "" {
		path = config.Find([]string{configFilename})
	}
	if path != "" {
		if err := config.LoadTOML(path, c); err != nil {
			return nil, err
		}
	}

	// Apply command line overrides
	if host != "" {
		c.Host = host
	}
	if port != 0 {
		c.Port = port
	}
	return c, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("relay error: %w", err)
	}
	return nil
}
