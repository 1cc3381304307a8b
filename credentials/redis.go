package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultRedisTimeout = 2 * time.Second

// RedisOptions configures a [Redis] store.
type RedisOptions struct {
	// Prefix namespaces the keys as <Prefix>:session_id and so on.
	Prefix string
	// Timeout bounds every operation. Zero means two seconds.
	Timeout time.Duration
	// TTL expires the keys. Zero keeps them until cleared.
	TTL time.Duration
}

// Redis persists credentials in Redis.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
	ttl     time.Duration
}

// NewRedis creates a store on client.
func NewRedis(client redis.UniversalClient, opts RedisOptions) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = "gs"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRedisTimeout
	}
	return &Redis{
		client:  client,
		prefix:  opts.Prefix,
		timeout: opts.Timeout,
		ttl:     opts.TTL,
	}
}

func (s *Redis) key(name string) string {
	return s.prefix + ":" + name
}

func (s *Redis) keys() []string {
	out := make([]string, len(Keys))
	for i, k := range Keys {
		out[i] = s.key(k)
	}
	return out
}

// Read returns the stored credentials. Redis failures read as absent.
func (s *Redis) Read() (goSession.Credentials, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	c, ok, err := s.Load(ctx)
	if err != nil {
		return goSession.Credentials{}, false
	}
	return c, ok
}

// Load is Read with the Redis error preserved.
func (s *Redis) Load(ctx context.Context) (goSession.Credentials, bool, error) {
	vals, err := s.client.MGet(ctx, s.keys()...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return goSession.Credentials{}, false, nil
		}
		return goSession.Credentials{}, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	fields := make(map[string]string, len(Keys))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			fields[Keys[i]] = str
		}
	}

	c, ok := fromFields(fields)
	return c, ok, nil
}

// Write replaces every key atomically.
func (s *Redis) Write(c goSession.Credentials) error {
	if !c.Present() {
		return ErrIncomplete
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	fields := toFields(c)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range Keys {
			v, ok := fields[k]
			if !ok {
				pipe.Del(ctx, s.key(k))
				continue
			}
			pipe.Set(ctx, s.key(k), v, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Clear deletes every key. Clearing an empty store succeeds.
func (s *Redis) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.keys()...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
