package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/concord-chat/chatbox/internal/client"
	"github.com/concord-chat/chatbox/internal/config"
)

var (
	// Flags
	configPath string
	relayAddr  string
	nickname   string
	themeName  string
	channels   []string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatbox",
	Short: "Terminal chat client",
	Long: `chatbox is a terminal chat client. It connects to a chatbox relay,
groups consecutive lines by speaker and highlights links and mentions of
your nickname.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var used string
		var err error
		cfg, used, err = config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err = newLogger(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if used != "" {
			logger.Info("Loaded config", zap.String("path", used))
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
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.Flags().StringVarP(&relayAddr, "relay", "r", "", "Relay address (overrides config)")
	rootCmd.Flags().StringVarP(&nickname, "nick", "n", "", "Nickname (overrides config and last session)")
	rootCmd.Flags().StringVarP(&themeName, "theme", "t", "", "Theme name (overrides config)")
	rootCmd.Flags().StringSliceVar(&channels, "channel", nil, "Channel to join, repeatable")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging (needs log_file)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger logs to path. The terminal belongs to the UI, so without a log
// file nothing is logged.
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func run(cmd *cobra.Command, args []string) error {
	if relayAddr != "" {
		cfg.Relay.Address = relayAddr
	}

	var state *config.Manager
	last := &config.State{}
	if dir, err := config.DefaultDir(); err == nil {
		if state, err = config.NewManager(dir); err != nil {
			logger.Warn("State disabled", zap.Error(err))
		} else if last, err = state.Load(); err != nil {
			logger.Warn("Ignoring unreadable state", zap.Error(err))
			last = &config.State{}
		}
	}

	// Flags win, then the last session, then the config file
	nick := lo.CoalesceOrEmpty(nickname, last.Nickname, cfg.Nickname)
	theme := lo.CoalesceOrEmpty(themeName, last.Theme, cfg.Theme)
	joined := lo.Union(channels, last.Channels, cfg.Channels)
	active := last.Active
	if len(channels) > 0 {
		active = channels[0]
	}

	reconnect := client.DefaultReconnectPolicy()
	reconnect.MaxAttempts = cfg.Relay.ReconnectAttempts

	conn := client.NewConnection(cfg.Relay.Address, logger.Named("connection"))
	app, err := client.NewApp(client.Options{
		Nickname:  nick,
		Channels:  joined,
		Active:    active,
		Keywords:  cfg.Highlight.Keywords,
		Theme:     theme,
		ThemesDir: cfg.ThemesDir,
		Relay:     conn,
		RelayAddr: cfg.Relay.Address,
		Reconnect: reconnect,
		State:     state,
		Logger:    logger.Named("app"),
	})
	if err != nil {
		// The app runs with defaults; say what was ignored before the UI takes over
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	client.Bridge(conn, p.Send, logger.Named("bridge"))

	logger.Info("Starting", zap.String("relay", cfg.Relay.Address), zap.String("nick", nick))
	_, runErr := p.Run()
	// Send no longer blocks once Run has returned, so the reader can finish
	closeErr := conn.Close()
	if runErr != nil {
		return fmt.Errorf("error running program: %w", runErr)
	}
	return closeErr
}
