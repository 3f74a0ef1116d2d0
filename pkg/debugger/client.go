package debugger

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/observability"
	"github.com/matzehuels/flowscope/pkg/telemetry"
)

// ErrClosed is returned when sending on a closed connection.
var ErrClosed = errors.New(errors.ErrCodeSessionClosed, "debugger connection closed")

const writeTimeout = 5 * time.Second

// ResponseFunc receives the responses sent on one sequence id.
type ResponseFunc func(*Message)

// Handlers receive runtime events. Every handler is optional and runs on the
// client's read goroutine; handlers must not block.
type Handlers struct {
	Initialized func(Initialized)
	Terminated  func()
	// Closed runs once when the connection ends. err is nil after Close.
	Closed func(err error)
}

// Options configures a Client.
type Options struct {
	Logger *log.Logger
	Dialer *websocket.Dialer
}

// Client is a connection to the runtime's debugging endpoint.
type Client struct {
	target   string
	conn     *websocket.Conn
	handlers Handlers
	logger   *log.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	seq      int64
	registry map[int64][]ResponseFunc
	sentAt   map[int64]time.Time
	closing  bool

	done chan struct{}
	err  error
}

// URL returns the websocket URL of a "host:port" target.
func URL(target string) string {
	u := url.URL{Scheme: "ws", Host: target, Path: Path}
	return u.String()
}

// Dial connects to the runtime at target ("host:port") and starts reading.
func Dial(ctx context.Context, target string, h Handlers, opts Options) (*Client, error) {
	if err := errors.ValidateTarget(target); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, URL(target), nil)
	if err != nil {
		observability.Debugger().OnError(ctx, target, err)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect %s", target)
	}

	c := &Client{
		target:   target,
		conn:     conn,
		handlers: h,
		logger:   logger,
		registry: make(map[int64][]ResponseFunc),
		sentAt:   make(map[int64]time.Time),
		done:     make(chan struct{}),
	}
	logger.Debug("debugger connected", "target", target)
	go c.readLoop()
	return c, nil
}

// Target returns the "host:port" the client is connected to.
func (c *Client) Target() string { return c.target }

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the error that ended the connection, or nil after Close.
// It is only meaningful once Done is closed.
func (c *Client) Err() error {
	<-c.done
	return c.err
}

// Send sends a request. A negative seq allocates a fresh sequence id;
// otherwise the request reuses seq, and cb is added to the callbacks already
// registered for it. It returns the sequence id used.
func (c *Client) Send(msg Message, seq int64, cb ResponseFunc) (int64, error) {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	if seq < 0 {
		seq = c.seq
		c.seq++
	}
	if cb != nil {
		c.registry[seq] = append(c.registry[seq], cb)
	} else if _, ok := c.registry[seq]; !ok {
		c.registry[seq] = nil
	}
	c.sentAt[seq] = time.Now()
	c.mu.Unlock()

	msg.Ty = TypeRequest
	msg.SeqID = seq
	if err := c.write(msg); err != nil {
		return seq, err
	}
	observability.Debugger().OnRequest(context.Background(), msg.Feature, msg.Command, seq)
	return seq, nil
}

// StartQPS starts the QPS feature. ratio scales the sampling interval
// (1 samples every second, 2 every half second); non-positive means 1.
// fn receives every sample batch until StopQPS.
func (c *Client) StartQPS(ratio float64, fn func(telemetry.Batch)) (int64, error) {
	if ratio <= 0 {
		ratio = 1
	}
	return c.Send(Message{Feature: FeatureQPS, Command: CommandStart, Ratio: ratio}, -1, func(m *Message) {
		if fn != nil && m.Success {
			fn(m.Batch())
		}
	})
}

// StopQPS stops the QPS stream started with seq and drops its callbacks.
func (c *Client) StopQPS(seq int64) error {
	_, err := c.Send(Message{Feature: FeatureQPS, Command: CommandStop}, seq, nil)
	c.forget(seq)
	return err
}

// Pending returns the number of sequence ids with registered callbacks.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.registry)
}

// Close closes the connection and waits for the read loop to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		<-c.done
		return nil
	}
	c.closing = true
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) write(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeProtocol, err, "encode request")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		observability.Debugger().OnError(context.Background(), c.target, err)
		return errors.Wrap(errors.ErrCodeNetwork, err, "send %s %s", msg.Feature, msg.Command)
	}
	return nil
}

func (c *Client) forget(seq int64) {
	c.mu.Lock()
	delete(c.registry, seq)
	delete(c.sentAt, seq)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	var err error
	defer func() {
		c.mu.Lock()
		closing := c.closing
		c.closing = true
		c.mu.Unlock()

		if closing || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			err = nil
		} else {
			observability.Debugger().OnError(context.Background(), c.target, err)
			err = errors.Wrap(errors.ErrCodeNetwork, err, "read from %s", c.target)
		}
		c.err = err
		_ = c.conn.Close()
		close(c.done)
		if c.handlers.Closed != nil {
			c.handlers.Closed(err)
		}
	}()

	for {
		var data []byte
		_, data, err = c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if jerr := json.Unmarshal(data, &msg); jerr != nil {
			c.logger.Warn("dropping malformed message", "target", c.target, "error", jerr)
			continue
		}
		c.dispatch(&msg)
	}
}

func (c *Client) dispatch(msg *Message) {
	switch msg.Ty {
	case TypeEvent:
		observability.Debugger().OnEvent(context.Background(), msg.Event)
		switch msg.Event {
		case EventStop:
			c.forget(msg.SeqID)
		case EventInitialized:
			if c.handlers.Initialized != nil {
				c.handlers.Initialized(Initialized{Document: msg.Graph, Features: msg.Features})
			}
		case EventTerminated:
			if c.handlers.Terminated != nil {
				c.handlers.Terminated()
			}
		default:
			c.logger.Debug("ignoring event", "event", msg.Event)
		}
	case TypeResponse:
		c.mu.Lock()
		cbs, ok := c.registry[msg.SeqID]
		cbs = append([]ResponseFunc(nil), cbs...)
		sent := c.sentAt[msg.SeqID]
		c.mu.Unlock()
		if !ok {
			return
		}
		observability.Debugger().OnResponse(context.Background(), msg.Feature, msg.Command, msg.SeqID, time.Since(sent))
		for _, cb := range cbs {
			cb(msg)
		}
	default:
		c.logger.Debug("ignoring message", "ty", msg.Ty)
	}
}
