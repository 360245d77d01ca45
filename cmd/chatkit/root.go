package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/go-chatkit/internal/adapters/clients"
	"github.com/jsamuelsen/go-chatkit/internal/app"
	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
	"github.com/jsamuelsen/go-chatkit/internal/platform/config"
	"github.com/jsamuelsen/go-chatkit/internal/platform/logging"
	"github.com/jsamuelsen/go-chatkit/internal/platform/telemetry"
)

// cli holds state shared by every command of one invocation.
type cli struct {
	// Flags.
	profile  string
	configs  []string
	logLevel string

	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.Provider
	client    *chatkit.Client

	stderr io.Writer
}

// newRootCommand builds the command tree. Logs are written to stderr.
func newRootCommand(stderr io.Writer) *cobra.Command {
	c := &cli{stderr: stderr}

	root := &cobra.Command{
		Use:           "chatkit",
		Short:         "Command-line client for a ChatKit instance",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.teardown(cmd)
		},
	}

	defaultProfile := os.Getenv("APP_ENVIRONMENT")
	if defaultProfile == "" {
		defaultProfile = "local"
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.profile, "profile", defaultProfile, "config profile loaded from configs/<profile>.yaml")
	flags.StringArrayVar(&c.configs, "config", nil, "extra config file; may be repeated, later files win")
	flags.StringVar(&c.logLevel, "log-level", "", "override log.level (trace, debug, info, warn, error)")

	root.AddCommand(
		c.urlCommand(),
		c.tokenCommand(),
		c.rawCommand(),
		c.usersCommand(),
		c.roomsCommand(),
		c.messagesCommand(),
		c.cursorsCommand(),
		c.pingCommand(),
	)

	return root
}

// setup loads configuration and initializes logging, telemetry and the client
// core before any command runs.
func (c *cli) setup(cmd *cobra.Command) error {
	if skipSetup(cmd) {
		return nil
	}

	cfg, err := config.Load(c.profile, c.configs...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.cfg = cfg

	c.logger = logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, c.stderr)
	logging.SetDefault(c.logger)

	ctx := cmd.Context()

	c.telemetry, err = telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	transport, err := clients.New(&clients.Config{
		ServiceName:     cfg.App.Name,
		Timeout:         cfg.Client.Timeout,
		UserAgent:       cfg.Client.UserAgent,
		MaxResponseSize: cfg.Client.MaxResponseSize,
		Transport:       cfg.Client.Transport,
		Logger:          c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}

	c.client, err = chatkit.New(transport, cfg.Instance.Locator, chatkit.WithLogger(c.logger))
	if err != nil {
		return fmt.Errorf("resolving instance: %w", err)
	}

	correlationID := uuid.NewString()
	ctx = clients.ContextWithCorrelationID(ctx, correlationID)
	ctx = logging.WithContext(ctx, c.logger)
	ctx = logging.WithCorrelationID(ctx, correlationID)
	ctx = logging.WithInstance(ctx, c.client.Locator().InstanceID)
	cmd.SetContext(ctx)

	logging.FromContext(ctx).Debug("configuration loaded",
		slog.String("profile", c.profile),
		slog.String("cluster", c.client.Locator().Cluster),
		slog.Bool("telemetry", c.telemetry.Enabled()),
	)

	return nil
}

func (c *cli) teardown(cmd *cobra.Command) error {
	if c.telemetry == nil {
		return nil
	}

	if err := c.telemetry.Shutdown(cmd.Context()); err != nil {
		c.logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	return nil
}

// skipSetup reports whether cmd runs without configuration.
func skipSetup(cmd *cobra.Command) bool {
	if cmd.Name() == "help" {
		return true
	}

	return cmd.HasParent() && cmd.Parent().Name() == "completion"
}

// tokens builds a token issuer; it fails when no API key is configured.
func (c *cli) tokens() (*app.TokenIssuer, error) {
	return app.NewTokenIssuer(
		c.client.Locator().InstanceID,
		c.cfg.Instance.APIKey,
		app.WithTokenTTL(c.cfg.Instance.TokenTTL),
	)
}

// chatKit builds the application service.
func (c *cli) chatKit() (*app.ChatKit, error) {
	tokens, err := c.tokens()
	if err != nil {
		return nil, err
	}

	return app.NewChatKit(app.ChatKitConfig{
		Client:        c.client,
		Tokens:        tokens,
		DeleteWorkers: c.cfg.Instance.DeleteWorkers,
		Logger:        c.logger,
	}), nil
}

// printJSON writes v to the command's stdout as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
