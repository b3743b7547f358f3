// Package cache stores classification results in redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-sod/mixknn/internal/logging"
	"github.com/go-sod/mixknn/internal/util"
	"github.com/go-sod/mixknn/pkg/record"
)

const keyPrefix = "knn:class:"

type Config struct {
	Addr     string        `envconfig:"KNN_REDIS_ADDR"`
	Password string        `envconfig:"KNN_REDIS_PASSWORD"`
	DB       int           `envconfig:"KNN_REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"KNN_REDIS_TTL" default:"10m"`
}

func (c Config) Enabled() bool {
	return c.Addr != ""
}

// Cache maps a query fingerprint to a predicted class.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, class string) error
}

// Key fingerprints query under the digest of a training set and the predictor
// settings, so replicas sharing a redis only share results for identical state.
func Key(query record.Record, training [32]byte, settings string) string {
	q := util.HashRecord(query.Numeric(), query.Categorical())
	h := sha256.New()
	_, _ = h.Write([]byte(settings))
	_, _ = h.Write(training[:])
	_, _ = h.Write(q[:])
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func New(ctx context.Context, cfg *Config) (*Redis, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("creating redis connection to %s", cfg.Addr)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	return &Redis{client: client, ttl: cfg.TTL}, nil
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	class, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return class, true, nil
}

func (r *Redis) Set(ctx context.Context, key, class string) error {
	if err := r.client.Set(ctx, key, class, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close(ctx context.Context) error {
	logging.FromContext(ctx).Infof("closing redis connection")
	return r.client.Close()
}
