package telemetry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowscope/pkg/errors"
)

func setupPublisher(t *testing.T) (*RedisPublisher, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	p, err := NewRedisPublisher(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: time.Second,
	}, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close()
	})
	return p, mr
}

func TestNewRedisPublisher(t *testing.T) {
	t.Run("default channel", func(t *testing.T) {
		p, _ := setupPublisher(t)
		assert.Equal(t, DefaultChannel, p.Channel())
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisPublisher(RedisOptions{URL: "invalid://url"}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedisPublisher(RedisOptions{
			URL:            "redis://127.0.0.1:1",
			ConnectTimeout: 100 * time.Millisecond,
		}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
	})
}

func TestPublishSubscribe(t *testing.T) {
	p, _ := setupPublisher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames, err := p.Subscribe(ctx)
	require.NoError(t, err)

	sent := Frame{
		Graph:   "main",
		Ports:   []Port{{ID: "4#in", Descp: "A:in", Data: Data{Size: 10, QPS: 5}}},
		Blocked: []int{4},
	}
	require.NoError(t, p.Publish(ctx, sent))

	select {
	case got := <-frames:
		assert.Equal(t, sent, got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for frame")
	}
}

func TestSubscribeDropsMalformed(t *testing.T) {
	p, mr := setupPublisher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames, err := p.Subscribe(ctx)
	require.NoError(t, err)

	mr.Publish(DefaultChannel, "not json")
	require.NoError(t, p.Publish(ctx, Frame{Graph: "main", Ports: []Port{}, Blocked: []int{}}))

	select {
	case got := <-frames:
		assert.Equal(t, "main", got.Graph)
	case <-ctx.Done():
		t.Fatal("timed out waiting for frame")
	}
}

func TestNopPublisher(t *testing.T) {
	p := NopPublisher()
	assert.NoError(t, p.Publish(context.Background(), Frame{}))
	assert.NoError(t, p.Close())
}
