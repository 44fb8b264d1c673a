package main

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/server"
)

type serveOptions struct {
	port            string
	host            string
	dev             bool
	logLevel        string
	layout          string
	shutdownTimeout time.Duration
	idleInterval    time.Duration
}

func newServeCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			srv, err := server.NewServer(cfg)
			if err != nil {
				return err
			}
			defer srv.Close()

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return srv.Run(ctx) })
			g.Go(func() error { return srv.RunIdleLoop(ctx, opts.idleInterval) })
			return g.Wait()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.port, "port", "", "Admin API port (overrides PORT)")
	flags.StringVar(&opts.host, "host", "", "Admin API host (overrides HOST)")
	flags.BoolVar(&opts.dev, "dev", false, "Development mode: colored console logs at debug level")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	flags.StringVar(&opts.layout, "layout", "", "YAML or TOML file listing stacks to create at boot")
	flags.DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 0, "Window each stack gets to go quiescent on exit")
	flags.DurationVar(&opts.idleInterval, "idle-interval", 0, "Schedule an idle pass on every stack at this interval (0 disables)")
	return cmd
}

// apply overlays flags the user set onto the environment configuration.
func (o serveOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = o.port
	}
	if flags.Changed("host") {
		cfg.Server.Host = o.host
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = o.dev
		if o.dev && !flags.Changed("log-level") {
			cfg.Logging.Level = "debug"
		}
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("layout") {
		cfg.Supervisor.Layout = o.layout
	}
	if flags.Changed("shutdown-timeout") {
		cfg.Supervisor.ShutdownTimeout = o.shutdownTimeout
	}
}
