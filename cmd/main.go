// Command hangman serves the history quiz and ships its companion tools.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okian/hangman/internal/config"
	"github.com/okian/hangman/pkg/logger"
)

const releaseVersion = "1.0.0"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	envFile   string
	logLevel  string
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("hangman: " + err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // stop already ran
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "hangman",
		Short:         "A hangman quiz on Vietnamese history with a shared leaderboard.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return flags.setup()
		},
	}

	pf := cmd.PersistentFlags()
	pf.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before configuration")
	pf.StringVar(&flags.logLevel, "log-level", "", "override log level: debug, info, warn, error (env: HANGMAN_LOG_LEVEL)")
	pf.StringVar(&flags.logFormat, "log-format", "", "override log format: text or json (env: HANGMAN_LOG_FORMAT)")

	cmd.AddCommand(
		newServeCmd(flags),
		newPlayCmd(),
		newWordsCmd(),
		newSimulateCmd(),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("hangman v{{.Version}}\n")
	return cmd
}

// setup loads the dotenv file and initializes logging from env and flags.
func (f *rootFlags) setup() error {
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return err
	}
	format := f.logFormat
	if format == "" {
		format = os.Getenv("HANGMAN_LOG_FORMAT")
	}
	if err := logger.Init(logger.WithFormat(format)); err != nil {
		return err
	}
	level := f.logLevel
	if level == "" {
		level = os.Getenv("HANGMAN_LOG_LEVEL")
	}
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(context.Background(), "invalid log level; falling back to info",
			logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}
