package debugger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/telemetry"
)

const testDocument = `main = "main"`

// fakeRuntime serves the debugging endpoint and runs script on the first
// connection.
func fakeRuntime(t *testing.T, script func(t *testing.T, conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != Path {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		script(t, conn)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func sendInitialized(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Message{
		Ty:       TypeEvent,
		Event:    EventInitialized,
		Graph:    testDocument,
		Features: []string{FeatureQPS},
	}))
}

func readRequest(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	var m Message
	require.NoError(t, conn.ReadJSON(&m))
	require.Equal(t, TypeRequest, m.Ty)
	return m
}

func TestDialInvalidTarget(t *testing.T) {
	_, err := Dial(context.Background(), "ws://localhost:3001/debugger", Handlers{}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidTarget))
}

func TestDialUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "127.0.0.1:1", Handlers{}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
}

func TestQPSSession(t *testing.T) {
	target := fakeRuntime(t, func(t *testing.T, conn *websocket.Conn) {
		sendInitialized(t, conn)

		start := readRequest(t, conn)
		assert.Equal(t, FeatureQPS, start.Feature)
		assert.Equal(t, CommandStart, start.Command)
		assert.Equal(t, 2.0, start.Ratio)

		for i := 0; i < 2; i++ {
			require.NoError(t, conn.WriteJSON(Message{
				Ty:      TypeResponse,
				Success: true,
				Feature: FeatureQPS,
				Command: CommandNoop,
				SeqID:   start.SeqID,
				Graph:   "main",
				Nodes: []telemetry.Sample{
					{Name: "A", QPS: map[string][2]int{"out": {i, 10}}},
				},
			}))
		}
		// Responses on unknown sequence ids are ignored.
		require.NoError(t, conn.WriteJSON(Message{Ty: TypeResponse, Success: true, SeqID: 99}))

		stop := readRequest(t, conn)
		assert.Equal(t, CommandStop, stop.Command)
		assert.Equal(t, start.SeqID, stop.SeqID)

		require.NoError(t, conn.WriteJSON(Message{Ty: TypeEvent, Event: EventTerminated}))
		_, _, _ = conn.ReadMessage()
	})

	initialized := make(chan Initialized, 1)
	terminated := make(chan struct{})
	closed := make(chan error, 1)
	c, err := Dial(context.Background(), target, Handlers{
		Initialized: func(e Initialized) { initialized <- e },
		Terminated:  func() { close(terminated) },
		Closed:      func(err error) { closed <- err },
	}, Options{})
	require.NoError(t, err)

	var ev Initialized
	select {
	case ev = <-initialized:
	case <-time.After(5 * time.Second):
		t.Fatal("no initialized event")
	}
	assert.Equal(t, testDocument, ev.Document)
	assert.True(t, ev.Supports(FeatureQPS))

	batches := make(chan telemetry.Batch, 4)
	seq, err := c.StartQPS(2, func(b telemetry.Batch) { batches <- b })
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	for i := 0; i < 2; i++ {
		select {
		case b := <-batches:
			assert.Equal(t, "main", b.Graph)
			require.Len(t, b.Nodes, 1)
			assert.Equal(t, [2]int{i, 10}, b.Nodes[0].QPS["out"])
		case <-time.After(5 * time.Second):
			t.Fatal("no QPS batch")
		}
	}

	require.NoError(t, c.StopQPS(seq))
	assert.Equal(t, 0, c.Pending())

	select {
	case <-terminated:
	case <-time.After(5 * time.Second):
		t.Fatal("no terminated event")
	}

	require.NoError(t, c.Close())
	assert.NoError(t, <-closed)
	_, err = c.Send(Message{Feature: FeatureQPS, Command: CommandStart}, -1, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStopEventDropsRegistration(t *testing.T) {
	target := fakeRuntime(t, func(t *testing.T, conn *websocket.Conn) {
		start := readRequest(t, conn)
		require.NoError(t, conn.WriteJSON(Message{Ty: TypeEvent, Event: EventStop, SeqID: start.SeqID}))
		_, _, _ = conn.ReadMessage()
	})

	c, err := Dial(context.Background(), target, Handlers{}, Options{})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.StartQPS(1, nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return c.Pending() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestRemoteCloseReportsError(t *testing.T) {
	target := fakeRuntime(t, func(t *testing.T, conn *websocket.Conn) {
		// Drop the connection without a close frame.
		_ = conn.UnderlyingConn().Close()
	})

	c, err := Dial(context.Background(), target, Handlers{}, Options{})
	require.NoError(t, err)

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection not closed")
	}
	assert.True(t, errors.Is(c.Err(), errors.ErrCodeNetwork))
}

func TestURL(t *testing.T) {
	assert.Equal(t, "ws://127.0.0.1:3001/debugger", URL("127.0.0.1:3001"))
}
