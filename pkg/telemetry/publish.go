package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/observability"
)

// DefaultChannel is the pub/sub channel frames are published on.
const DefaultChannel = "flowscope:telemetry"

// Publisher fans split frames out to chart consumers.
type Publisher interface {
	// Publish sends one frame. Frames are not retained.
	Publish(ctx context.Context, f Frame) error

	// Close releases the publisher's resources.
	Close() error
}

// Subscriber streams frames published by other processes.
type Subscriber interface {
	// Subscribe delivers frames until ctx is done, then closes the channel.
	Subscribe(ctx context.Context) (<-chan Frame, error)
}

// NopPublisher returns a Publisher that discards every frame.
func NopPublisher() Publisher { return nopPublisher{} }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Frame) error { return nil }
func (nopPublisher) Close() error                         { return nil }

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// Channel is the pub/sub channel. Defaults to DefaultChannel.
	Channel string

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// WriteTimeout is the maximum time to wait for a publish
	WriteTimeout time.Duration
}

// RedisPublisher publishes frames on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *log.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(opts RedisOptions, logger *log.Logger) (*RedisPublisher, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse redis url")
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis")
	}

	return &RedisPublisher{client: client, channel: opts.Channel, logger: logger}, nil
}

// Channel returns the pub/sub channel frames are published on.
func (p *RedisPublisher) Channel() string { return p.channel }

// Publish sends a frame to the channel.
func (p *RedisPublisher) Publish(ctx context.Context, f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	err = p.client.Publish(ctx, p.channel, data).Err()
	observability.Telemetry().OnPublish(ctx, p.channel, err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "publish to %s", p.channel)
	}
	return nil
}

// Subscribe streams frames published on the channel until ctx is done.
// Malformed messages are logged and dropped.
func (p *RedisPublisher) Subscribe(ctx context.Context) (<-chan Frame, error) {
	pubsub := p.client.Subscribe(ctx, p.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "subscribe to %s", p.channel)
	}

	frames := make(chan Frame)
	go func() {
		defer close(frames)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var f Frame
				if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
					p.logger.Warn("dropping malformed frame", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case frames <- f:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return frames, nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
