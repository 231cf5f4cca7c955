package cli

import (
	"log/slog"

	"simple-ledger-go/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configFile string
	logLevel   string
	v          *viper.Viper
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ledger",
		Short: "A minimal proof-of-work ledger node and client",
		Long: `ledger runs nodes that keep an append-only chain of transaction blocks
and agree on it by adopting the longest valid chain among their peers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			v, err = config.NewViper(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				v.Set(config.KEY_LOG_LEVEL, logLevel)
			}
			return setupLogger(v.GetString(config.KEY_LOG_LEVEL))
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./ledger.yaml or $HOME/.ledger/ledger.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(nodeCmd())
	root.AddCommand(chainCmd(), mineCmd(), sendCmd(), registerCmd(), resolveCmd(), statusCmd())
	root.AddCommand(snapshotCmd(), verifyCmd())
	return root
}

func setupLogger(level string) error {
	parsed, err := config.ParseLogLevel(level)
	if err != nil {
		return err
	}
	logger := pterm.DefaultLogger.WithLevel(ptermLevel(parsed))
	slog.SetDefault(slog.New(pterm.NewSlogHandler(logger)))
	return nil
}

func ptermLevel(level slog.Level) pterm.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return pterm.LogLevelDebug
	case level <= slog.LevelInfo:
		return pterm.LogLevelInfo
	case level <= slog.LevelWarn:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}

// bindFlags lets flags given on the command line override config keys.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func Run() error {
	return newRootCmd().Execute()
}
