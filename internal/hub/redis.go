package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/park285/chess-movetable/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis relays frames through a Redis pub/sub channel so sessions attached
// to any replica receive them.
type Redis struct {
	rdb     *redis.Client
	channel string
	owned   bool
}

// NewRedis uses an existing client. Close does not close it.
func NewRedis(rdb *redis.Client, channel string) *Redis {
	return &Redis{rdb: rdb, channel: strings.TrimSpace(channel)}
}

// DialRedis parses a redis:// URL and pings the server.
func DialRedis(ctx context.Context, url, channel string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	h := NewRedis(rdb, channel)
	h.owned = true
	return h, nil
}

// Publish encodes f as JSON onto the channel.
func (h *Redis) Publish(ctx context.Context, f Frame) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := h.rdb.Publish(ctx, h.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe returns once the subscription is confirmed by the server, so no
// frame published afterwards is missed.
func (h *Redis) Subscribe(ctx context.Context) (*Subscription, error) {
	ps := h.rdb.Subscribe(ctx, h.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan Frame, DefaultBuffer)
	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		defer stop()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var f Frame
				if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
					obslog.L().Warn("hub_frame_decode_failed", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- f:
				default:
					obslog.L().Warn("hub_subscriber_dropped", zap.Uint64("seq", f.Seq))
					return
				}
			}
		}
	}()
	return &Subscription{C: out, close: stop}, nil
}

// Close releases the client when DialRedis created it.
func (h *Redis) Close() error {
	if h.owned {
		return h.rdb.Close()
	}
	return nil
}
