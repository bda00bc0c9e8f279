package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecoworks/transcribed/pkg/models"
)

// RedisStore is the durable, cross-process Store used when the API server
// and the worker run as separate processes. Entries expire via Redis TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore from a Redis URL.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *RedisStore) PutJob(ctx context.Context, id string, job *models.Job) error {
	data, err := encodeJob(job)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, jobKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: put job: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) GetJob(ctx context.Context, id string) (*models.Job, bool, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get job: %v", ErrUnavailable, err)
	}
	job, err := decodeJob(data)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *RedisStore) DeleteJob(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, jobKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: delete job: %v", ErrUnavailable, err)
	}
	return nil
}

// PutPayload stores the audio bytes and the metadata under separate keys in
// one pipeline so a reader never observes one without the other.
func (s *RedisStore) PutPayload(ctx context.Context, id string, audio []byte, meta models.PayloadMeta) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode payload meta: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, audioKey(id), audio, s.ttl)
	pipe.Set(ctx, metaKey(id), metaJSON, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: put payload: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) GetPayload(ctx context.Context, id string) ([]byte, models.PayloadMeta, bool, error) {
	pipe := s.client.Pipeline()
	audioCmd := pipe.Get(ctx, audioKey(id))
	metaCmd := pipe.Get(ctx, metaKey(id))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, models.PayloadMeta{}, false, fmt.Errorf("%w: get payload: %v", ErrUnavailable, err)
	}

	audio, err := audioCmd.Bytes()
	if err == redis.Nil {
		return nil, models.PayloadMeta{}, false, nil
	}
	if err != nil {
		return nil, models.PayloadMeta{}, false, fmt.Errorf("%w: get payload audio: %v", ErrUnavailable, err)
	}

	metaJSON, err := metaCmd.Bytes()
	if err == redis.Nil {
		return nil, models.PayloadMeta{}, false, nil
	}
	if err != nil {
		return nil, models.PayloadMeta{}, false, fmt.Errorf("%w: get payload meta: %v", ErrUnavailable, err)
	}

	var meta models.PayloadMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, models.PayloadMeta{}, false, fmt.Errorf("decode payload meta: %w", err)
	}
	return audio, meta, true, nil
}

func (s *RedisStore) DeletePayload(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, audioKey(id), metaKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: delete payload: %v", ErrUnavailable, err)
	}
	return nil
}

// IncrWithExpiry increments a counter and refreshes its expiry in one
// transaction. Used by the API rate limiter.
func (s *RedisStore) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: incr: %v", ErrUnavailable, err)
	}
	return incr.Val(), nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
