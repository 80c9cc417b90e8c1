package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"agendacal/internal/assistant"
	"agendacal/internal/config"
	appLog "agendacal/internal/log"
)

var version = "0.1.0-dev"

// Persistent flag values.
var (
	flagConfigPath string
	flagLogLevel   string
	flagTimezone   string
)

// app is what every command needs after the config is loaded.
type app struct {
	cfg      *config.Config
	settings config.Settings
	interp   *assistant.Interpreter
}

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agendacal",
		Short: "Spanish natural-language calendar assistant",
		Long: `agendacal understands short Spanish requests such as
"agenda una cita mañana a las 3pm con el dentista en zona 10" or
"qué tareas tengo para mañana?" and creates or lists calendar events.

Without a subcommand it starts the interactive chat.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runChat,
	}

	root.PersistentFlags().StringVar(&flagConfigPath, "config", "./agendacal.yaml", "Path to config file (created with defaults if missing)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, error (overrides config)")
	root.PersistentFlags().StringVar(&flagTimezone, "tz", "", "IANA time zone (overrides config)")

	root.AddCommand(
		newChatCmd(),
		newParseCmd(),
		newAgendaCmd(),
		newServeCmd(),
		newDigestCmd(),
	)
	return root
}

// loadApp reads the config, applies flag overrides and builds the
// interpreter.
func loadApp() (*app, error) {
	conf, err := config.Load(flagConfigPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flagConfigPath)
		return nil, err
	}

	// CLI flags override the config file when provided.
	if flagTimezone != "" {
		conf.Timezone = flagTimezone
	}
	if flagLogLevel != "" {
		conf.LogLevel = flagLogLevel
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	settings, err := conf.Settings()
	if err != nil {
		return nil, err
	}

	appLog.Debug("effective config",
		"config_path", flagConfigPath,
		"timezone", conf.Timezone,
		"default_duration_minutes", settings.DefaultDurationMinutes,
		"backend", conf.Calendar.Backend,
		"subscriptions", len(conf.Calendar.Subscriptions),
		"listen", conf.Listen,
		"digest_cron", conf.DigestCron,
		"notify", conf.Notify.Recipient != "",
	)

	return &app{cfg: conf, settings: settings, interp: assistant.New(settings)}, nil
}

func fail(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	return err
}
