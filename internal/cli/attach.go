package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/debugger"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/session"
	"github.com/matzehuels/flowscope/pkg/telemetry"
)

const (
	defaultRetries    = 5
	defaultRetryDelay = 500 * time.Millisecond
	runtimeSource     = "runtime"
)

// attachOpts holds the command-line flags for the attach command.
type attachOpts struct {
	ratio    float64 // QPS sampling ratio
	tui      bool    // show the live dashboard instead of log lines
	redisURL string  // publish frames to this Redis when set
	channel  string  // Redis pub/sub channel
	retries  int     // dial attempts
}

// attachCommand creates the attach command, which follows a running pipeline.
func (c *CLI) attachCommand() *cobra.Command {
	opts := attachOpts{
		ratio:    1,
		redisURL: envOr(envRedisURL, ""),
		retries:  defaultRetries,
	}

	cmd := &cobra.Command{
		Use:   "attach [host:port]",
		Short: "Follow live telemetry from a running pipeline",
		Long: `Connect to a running pipeline's debugger endpoint, compile the document
it reports and map its QPS samples onto the compiled graph.

Frames are logged, shown in a dashboard with --tui, and published to Redis
when --redis (or ` + envRedisURL + `) is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateTarget(args[0]); err != nil {
				return err
			}
			return c.runAttach(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().Float64Var(&opts.ratio, "ratio", opts.ratio, "QPS sampling ratio (2 samples twice per second)")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show a live dashboard")
	cmd.Flags().StringVar(&opts.redisURL, "redis", opts.redisURL, "publish frames to this Redis URL")
	cmd.Flags().StringVar(&opts.channel, "channel", telemetry.DefaultChannel, "Redis pub/sub channel")
	cmd.Flags().IntVar(&opts.retries, "retries", opts.retries, "connection attempts")

	return cmd
}

// attachEvent is a debugger callback forwarded to the attach loop.
type attachEvent struct {
	init       *debugger.Initialized
	batch      *telemetry.Batch
	terminated bool
	closed     bool
	err        error
}

// attacher owns the state of one attach run.
type attacher struct {
	target    string
	logger    *log.Logger
	runner    *pipeline.Runner
	sessions  *session.Manager
	publisher telemetry.Publisher
	program   *tea.Program
	ratio     float64
	client    *debugger.Client
	qps       int64
	events    chan attachEvent
	done      chan struct{} // closed when loop returns
}

func (c *CLI) runAttach(ctx context.Context, target string, opts attachOpts) error {
	logger := loggerFromContext(ctx)

	publisher := telemetry.NopPublisher()
	if opts.redisURL != "" {
		p, err := telemetry.NewRedisPublisher(telemetry.RedisOptions{URL: opts.redisURL, Channel: opts.channel}, logger)
		if err != nil {
			return err
		}
		logger.Info("publishing frames", "channel", p.Channel())
		publisher = p
	}
	defer publisher.Close()

	a := &attacher{
		target:    target,
		logger:    logger,
		runner:    pipeline.NewRunner(nil, nil, logger),
		sessions:  session.NewManager(),
		publisher: publisher,
		ratio:     opts.ratio,
		qps:       -1,
		events:    make(chan attachEvent, 64),
		done:      make(chan struct{}),
	}

	if err := a.dial(ctx, opts.retries); err != nil {
		return err
	}
	defer a.client.Close()

	if !opts.tui {
		return a.loop(ctx)
	}

	a.program = tea.NewProgram(NewTelemetryModel(target), tea.WithContext(ctx))
	loopErr := make(chan error, 1)
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		a.program.Send(statusMsg("connected"))
		err := a.loop(loopCtx)
		a.program.Send(closedMsg{err: err})
		loopErr <- err
	}()

	final, err := a.program.Run()
	cancel()
	if err != nil && ctx.Err() == nil {
		return err
	}
	if m, ok := final.(TelemetryModel); ok && m.Err != nil {
		return m.Err
	}
	return <-loopErr
}

// handlers forwards debugger callbacks to the loop. Once the loop has
// returned or ctx is done, events are dropped so the client's read goroutine
// can exit.
func (a *attacher) handlers(ctx context.Context) debugger.Handlers {
	return debugger.Handlers{
		Initialized: func(e debugger.Initialized) {
			a.send(ctx, attachEvent{init: &e})
		},
		Terminated: func() {
			a.send(ctx, attachEvent{terminated: true})
		},
		Closed: func(err error) {
			a.send(ctx, attachEvent{closed: true, err: err})
		},
	}
}

func (a *attacher) send(ctx context.Context, ev attachEvent) bool {
	select {
	case a.events <- ev:
		return true
	case <-a.done:
	case <-ctx.Done():
	}
	return false
}

// dial connects to the runtime, retrying network failures with backoff.
func (a *attacher) dial(ctx context.Context, retries int) error {
	handlers := a.handlers(ctx)

	spinner := newSpinnerWithContext(ctx, "Connecting to "+a.target+"...")
	spinner.Start()
	err := cache.RetryWithBackoff(ctx, retries, defaultRetryDelay, func(attempt int) error {
		if attempt > 1 {
			spinner.SetMessage(fmt.Sprintf("Connecting to %s (attempt %d/%d)...", a.target, attempt, retries))
		}
		client, err := debugger.Dial(ctx, a.target, handlers, debugger.Options{Logger: a.logger})
		if err != nil {
			a.logger.Debug("dial failed", "target", a.target, "error", err)
			if errors.Is(err, errors.ErrCodeNetwork) {
				return cache.Retryable(err)
			}
			return err
		}
		a.client = client
		return nil
	})
	if err != nil {
		spinner.StopWithError("Could not connect to " + a.target)
		return err
	}
	spinner.StopWithSuccess("Connected to " + a.target)
	return nil
}

// loop handles debugger events until the connection closes or ctx ends.
func (a *attacher) loop(ctx context.Context) error {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-a.events:
			switch {
			case ev.init != nil:
				a.initialize(ctx, *ev.init)
			case ev.batch != nil:
				a.sample(ctx, *ev.batch)
			case ev.terminated:
				a.status("pipeline terminated")
			case ev.closed:
				if ev.err != nil {
					a.logger.Error("connection lost", "target", a.target, "error", ev.err)
				}
				return ev.err
			}
		}
	}
}

// initialize compiles the reported document and starts sampling. A document
// that fails to compile keeps the previous session.
func (a *attacher) initialize(ctx context.Context, e debugger.Initialized) {
	res, err := a.runner.Check(ctx, pipeline.CheckOptions{Source: runtimeSource, Data: []byte(e.Document)})
	if err != nil {
		a.logger.Warn("runtime document does not compile", "code", errors.GetCode(err), "error", errors.UserMessage(err))
	} else {
		sess := a.sessions.Start(runtimeSource, a.target, res.Program)
		a.logger.Info("session started", "id", sess.ID, "nodes", res.Stats.Nodes(), "edges", res.Stats.Edges)
		a.status("attached")
	}

	if !e.Supports(debugger.FeatureQPS) {
		a.logger.Warn("runtime does not support QPS sampling", "features", e.Features)
		return
	}
	if a.qps >= 0 {
		return
	}
	seq, err := a.client.StartQPS(a.ratio, func(b telemetry.Batch) {
		select {
		case a.events <- attachEvent{batch: &b}:
		default:
			a.logger.Debug("dropping sample batch", "graph", b.Graph)
		}
	})
	if err != nil {
		a.logger.Error("start QPS", "error", err)
		return
	}
	a.qps = seq
	a.logger.Debug("QPS started", "seq", seq, "ratio", a.ratio)
}

// sample splits a batch against the current session and fans it out.
func (a *attacher) sample(ctx context.Context, b telemetry.Batch) {
	frame, err := a.sessions.Apply(ctx, b)
	if err != nil {
		a.logger.Debug("skipping batch", "error", err)
		return
	}
	if err := a.publisher.Publish(ctx, frame); err != nil {
		a.logger.Warn("publish frame", "error", err)
	}
	if a.program != nil {
		a.program.Send(frameMsg(frame))
		return
	}
	a.logger.Info("qps", "graph", frame.Graph, "ports", len(frame.Ports), "blocked", frame.Blocked)
	for _, p := range frame.Ports {
		a.logger.Debug(p.Descp, "series", p.ID, "size", p.Data.Size, "qps", p.Data.QPS)
	}
}

func (a *attacher) status(s string) {
	if a.program != nil {
		a.program.Send(statusMsg(s))
		return
	}
	a.logger.Info(s, "target", a.target)
}
