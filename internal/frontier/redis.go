package frontier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
)

// DefaultSeenTTL bounds how long a run's keys stay in Redis.
const DefaultSeenTTL = 24 * time.Hour

const redisPingTimeout = 5 * time.Second

// ErrEmptyRedisAddress is returned when Redis dedup is enabled without an address.
var ErrEmptyRedisAddress = errors.New("redis address is required")

// RedisConfig holds connection settings for RedisSeen.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisSeen is a SeenSet shared through Redis. Keys are scoped to one run
// so concurrent runs never see each other's requests.
type RedisSeen struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	log    logger.Logger
}

// NewRedisSeen creates a RedisSeen for runID.
func NewRedisSeen(client redis.Cmdable, runID string, ttl time.Duration, log logger.Logger) *RedisSeen {
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisSeen{client: client, prefix: "statcrawl:seen:" + runID + ":", ttl: ttl, log: log}
}

// Add implements SeenSet using SETNX. Once SETNX has stored the key the
// request counts as added; the counter behind Len is best-effort.
func (s *RedisSeen) Add(ctx context.Context, key string) (bool, error) {
	added, err := s.client.SetNX(ctx, s.prefix+key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if !added {
		return false, nil
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, s.counterKey())
		pipe.Expire(ctx, s.counterKey(), s.ttl)
		return nil
	})
	if err != nil {
		s.log.Warn("Seen counter update failed",
			logger.String("key", s.counterKey()),
			logger.Error(err),
		)
	}
	return true, nil
}

// Len implements SeenSet.
func (s *RedisSeen) Len(ctx context.Context) (int64, error) {
	n, err := s.client.Get(ctx, s.counterKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return n, nil
}

func (s *RedisSeen) counterKey() string {
	return s.prefix + "count"
}
