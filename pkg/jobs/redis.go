package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/matchthumb/pkg/errors"
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long finished jobs can be polled. Defaults to DefaultRedisTTL.
	TTL time.Duration

	// Prefix namespaces keys. Defaults to DefaultRedisPrefix.
	Prefix string
}

const (
	DefaultRedisTTL    = 24 * time.Hour
	DefaultRedisPrefix = "matchthumb:job:"
)

// RedisStore keeps jobs as JSON values in Redis, so several API instances
// can answer polls for the same job.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to redis at %s", cfg.Addr)
	}
	return newRedisStore(client, cfg), nil
}

func newRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRedisTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, ttl: cfg.TTL, prefix: cfg.Prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.New(errors.ErrCodeNotFound, "job %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "get job %s", id)
	}

	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode job %s", id)
	}
	return &j, nil
}

func (s *RedisStore) Set(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode job %s", job.ID)
	}
	if err := s.client.Set(ctx, s.key(job.ID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "set job %s", job.ID)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete job %s", id)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
