package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/api"
	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/telemetry"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string // listen address
	uiDir    string // static UI directory served at /
	origin   string // allowed CORS origin
	redisURL string // publish frames to this Redis when set
	channel  string // Redis pub/sub channel
	noCache  bool   // bypass the render cache
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:     envOr(envAddr, api.DefaultAddr),
		redisURL: envOr(envRedisURL, ""),
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API used by the graph viewer.

Documents are compiled with POST /api/v1/check, telemetry batches are split
with POST /api/v1/samples and the current graph is served by GET /api/v1/graph.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address (env "+envAddr+")")
	cmd.Flags().StringVar(&opts.uiDir, "ui-dir", "", "serve a static UI from this directory")
	cmd.Flags().StringVar(&opts.origin, "allow-origin", "*", "allowed CORS origin")
	cmd.Flags().StringVar(&opts.redisURL, "redis", opts.redisURL, "publish frames to this Redis URL (env "+envRedisURL+")")
	cmd.Flags().StringVar(&opts.channel, "channel", telemetry.DefaultChannel, "Redis pub/sub channel")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	if opts.uiDir != "" && !api.UIDirExists(opts.uiDir) {
		return fmt.Errorf("ui directory not found: %s", opts.uiDir)
	}

	runner, err := c.newRunner(opts.noCache, cache.NewScopedKeyer(nil, "serve:"))
	if err != nil {
		return err
	}
	defer runner.Close()

	publisher := telemetry.NopPublisher()
	var subscriber telemetry.Subscriber
	if opts.redisURL != "" {
		p, err := telemetry.NewRedisPublisher(telemetry.RedisOptions{URL: opts.redisURL, Channel: opts.channel}, logger)
		if err != nil {
			return err
		}
		logger.Info("publishing frames", "channel", p.Channel())
		publisher = p
		subscriber = p
	}
	defer publisher.Close()

	srv := api.New(api.Options{
		Runner:        runner,
		Publisher:     publisher,
		Subscriber:    subscriber,
		Logger:        logger,
		UIDir:         opts.uiDir,
		AllowedOrigin: opts.origin,
	})

	printInfo("Serving the API")
	printKeyValue("address", opts.addr)
	if opts.uiDir != "" {
		printKeyValue("ui", opts.uiDir)
	}
	if opts.redisURL != "" {
		printKeyValue("channel", opts.channel)
	}
	err = srv.ListenAndServe(ctx, opts.addr)
	if stderrors.Is(err, context.Canceled) {
		logger.Info("server stopped")
		return nil
	}
	return err
}
