package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mcoot/savebridge/internal/factory"
	"github.com/mcoot/savebridge/internal/services/savemanager"
)

var (
	cfg     *Config
	bridge  *factory.Client
	display *savemanager.TextDisplay
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()
	bridge = nil
	display = savemanager.NewTextDisplay()

	rootCmd := &cobra.Command{
		Use:   "savebridge",
		Short: "Keep player save data in sync with a savecloud service",
		Long: `savebridge drives the save manager from the command line.

Gold and hearts are kept in a local database and synced to a named slot on a
savecloud service. When signed out, the local default record is used instead.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadFile(explicitSettings(cmd.Flags())); err != nil {
				return err
			}
			// Load token from file if not provided via flag/env
			return cfg.LoadToken()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if bridge == nil {
				return nil
			}
			return bridge.Manager.Close()
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: SAVEBRIDGE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: SAVEBRIDGE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: SAVEBRIDGE_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "TOML config file (env: SAVEBRIDGE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&cfg.LocalStorage, "local-storage", cfg.LocalStorage, "Local storage: sqlite, memory, none (env: SAVEBRIDGE_LOCAL_STORAGE)")
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (env: SAVEBRIDGE_DB)")
	rootCmd.PersistentFlags().StringVar(&cfg.SlotName, "slot", cfg.SlotName, "Save slot name (env: SAVEBRIDGE_SLOT)")
	rootCmd.PersistentFlags().StringVar(&cfg.Offline, "offline", cfg.Offline, "Signed out behaviour: local, fail (env: SAVEBRIDGE_OFFLINE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newSaveCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// getBridge wires the save manager on first use so commands that never touch
// local data do not open the database
func getBridge(cmd *cobra.Command) (*factory.Client, error) {
	if bridge != nil {
		return bridge, nil
	}

	offline, err := savemanager.ParseOfflineBackend(cfg.Offline)
	if err != nil {
		return nil, err
	}

	client, err := factory.NewClient(cmd.Context(), factory.ClientConfig{
		ServerURL:        cfg.ServerURL,
		Token:            cfg.Token,
		LocalStorageType: cfg.LocalStorage,
		SQLitePath:       cfg.DBPath,
		Manager: savemanager.Config{
			SlotName: cfg.SlotName,
			Offline:  offline,
		},
		Display: display,
		Logger:  newLogger(cmd.ErrOrStderr()),
	})
	if err != nil {
		return nil, err
	}

	bridge = client
	return bridge, nil
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelError
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// explicitSettings reports which settings came from a flag or the environment
func explicitSettings(flags *pflag.FlagSet) map[string]bool {
	explicit := make(map[string]bool)
	flags.Visit(func(f *pflag.Flag) {
		explicit[f.Name] = true
	})
	for flag, key := range envKeys {
		if os.Getenv(key) != "" {
			explicit[flag] = true
		}
	}
	return explicit
}

func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}
