package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"

	"chat-console/api"
	"chat-console/channel"
	"chat-console/internal"
	"chat-console/notify"
	"chat-console/runtime/workers"
	"chat-console/session"
)

type flags struct {
	serverURL string
	wsURL     string
	username  string
	logLevel  string
	debugPort int
}

func main() {
	var f flags
	root := &cobra.Command{
		Use:   "chat",
		Short: "Terminal client for the chat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&f.serverURL, "server", "", "HTTP base URL of the chat server (overrides SERVER_URL)")
	root.Flags().StringVar(&f.wsURL, "ws", "", "Websocket URL of the event channel (overrides WEBSOCKET_URL)")
	root.Flags().StringVar(&f.username, "user", "", "Username to connect as (overrides CHAT_USERNAME)")
	root.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	root.Flags().IntVar(&f.debugPort, "debug-port", 0, "Port of the state inspector, 0 disables it")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the client lifecycle.
// Errors bubble back here so deferred cleanups always execute.
func run(f flags) error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	applyFlags(&config, f)
	if err := config.Validate(); err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. REST client & notifications
	client := api.NewClient(config.ServerURL, log)
	alerts := notify.NewManager(terminalNotifier{}, terminalFocus{}, log)
	alerts.SetPermission(notify.PermissionGranted)

	// 3. Event channel & session controller. The resync hook is bound
	// late because each needs the other.
	var controller *session.Controller
	events := channel.NewClient(config.WebsocketURL, config.Username, log,
		channel.WithResync(func(ctx context.Context) error {
			return controller.Resync(ctx)
		}))

	var opts []session.Option
	if config.TypingTimeout > 0 {
		opts = append(opts, session.WithTypingTimeout(config.TypingTimeout))
	}
	controller = session.NewController(config.Username, events, client, alerts, log, opts...)
	events.AddSinks(controller)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. State inspector
	internal.StartDebugServer(controller, config.DebugPort)

	// 6. Supervised workers: channel read loop + console
	console := NewConsole(controller, log)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(events, console)

	log.Info("Connecting", "server", config.ServerURL, "user", config.Username)
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}

func applyFlags(config *internal.Config, f flags) {
	if f.serverURL != "" {
		config.ServerURL = f.serverURL
	}
	if f.wsURL != "" {
		config.WebsocketURL = f.wsURL
	}
	if f.username != "" {
		config.Username = f.username
	}
	if f.logLevel != "" {
		config.LogLevel = f.logLevel
	}
	if f.debugPort != 0 {
		config.DebugPort = f.debugPort
	}
}
