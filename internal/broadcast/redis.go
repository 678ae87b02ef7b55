package broadcast

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/piyushdatta/senseboard-server/internal/logger"
)

// RedisPublisher republishes room snapshots on a room-keyed Redis channel
// so a second process's Hub can relay them to its own locally-attached
// sockets (SPEC_FULL.md §D: additive multi-instance fan-out, never a
// consensus mechanism). Adapted from the teacher's
// internal/realtime/bus.redisBus, generalized from one fixed "sse"
// channel to a channel-per-room naming scheme and from SSEMessage to raw
// snapshot bytes.
type RedisPublisher struct {
	log    *logger.Logger
	client *goredis.Client
	prefix string
}

// NewRedisPublisher dials addr and pings it once; a failed ping is a
// construction error so callers can fall back to in-process-only fan-out.
func NewRedisPublisher(addr, channelPrefix string, log *logger.Logger) (*RedisPublisher, error) {
	if addr == "" {
		return nil, fmt.Errorf("broadcast: redis address required")
	}
	if channelPrefix == "" {
		channelPrefix = "senseboard:room:"
	}
	if log == nil {
		log = logger.Nop()
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("broadcast: redis ping: %w", err)
	}

	return &RedisPublisher{log: log.With("component", "broadcast.RedisPublisher"), client: client, prefix: channelPrefix}, nil
}

func (p *RedisPublisher) channel(roomID string) string { return p.prefix + roomID }

// Publish implements Publisher.
func (p *RedisPublisher) Publish(roomID string, snapshot []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.client.Publish(ctx, p.channel(roomID), snapshot).Err()
}

// Subscribe starts a forwarder that invokes onSnapshot for every message
// published on roomID's channel by another process, until ctx is
// cancelled. Used by a second instance's Hub to relay snapshots it did
// not produce locally to its own attached sockets.
func (p *RedisPublisher) Subscribe(ctx context.Context, roomID string, onSnapshot func([]byte)) error {
	sub := p.client.Subscribe(ctx, p.channel(roomID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("broadcast: redis subscribe: %w", err)
	}
	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				onSnapshot([]byte(m.Payload))
			}
		}
	}()
	return nil
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
