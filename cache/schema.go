// Package cache keeps recently fetched database schemas in Redis so
// repeated schema requests for the same database skip introspection.
//
// Cache failures are logged and treated as misses; they never fail the
// request that triggered them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/db"
)

// SchemaCache stores schemas keyed by database URL.
type SchemaCache interface {
	Get(ctx context.Context, dbURL string) (db.Schema, bool)
	Set(ctx context.Context, dbURL string, s db.Schema)
	Invalidate(ctx context.Context, dbURL string)
	Close() error
}

// kv is the subset of the Redis client the cache uses.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis is a SchemaCache backed by Redis.
type Redis struct {
	kv     kv
	closer func() error
	ttl    time.Duration
	log    *zap.Logger
}

var _ SchemaCache = (*Redis)(nil)

// New returns a Redis cache when cfg.URL is set, otherwise a Noop.
func New(ctx context.Context, cfg config.Redis) (SchemaCache, error) {
	if cfg.URL == "" {
		return Noop{}, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return newRedis(client, client.Close, cfg.SchemaTTL), nil
}

func newRedis(c kv, closer func() error, ttl time.Duration) *Redis {
	return &Redis{kv: c, closer: closer, ttl: ttl, log: applog.Named("cache")}
}

// Key derives the Redis key for a database URL. The URL is hashed so
// credentials never appear in Redis.
func Key(dbURL string) string {
	sum := sha256.Sum256([]byte(dbURL))
	return "chatdb:schema:" + hex.EncodeToString(sum[:])
}

func (r *Redis) Get(ctx context.Context, dbURL string) (db.Schema, bool) {
	data, err := r.kv.Get(ctx, Key(dbURL)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.log.Warn("schema cache get", zap.Error(err))
		return nil, false
	}

	var s db.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		r.log.Warn("schema cache entry corrupt", zap.Error(err))
		r.Invalidate(ctx, dbURL)
		return nil, false
	}
	return s, true
}

func (r *Redis) Set(ctx context.Context, dbURL string, s db.Schema) {
	data, err := json.Marshal(s)
	if err != nil {
		r.log.Warn("schema cache encode", zap.Error(err))
		return
	}
	if err := r.kv.Set(ctx, Key(dbURL), data, r.ttl).Err(); err != nil {
		r.log.Warn("schema cache set", zap.Error(err))
	}
}

func (r *Redis) Invalidate(ctx context.Context, dbURL string) {
	if err := r.kv.Del(ctx, Key(dbURL)).Err(); err != nil {
		r.log.Warn("schema cache del", zap.Error(err))
	}
}

func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// Noop never stores anything.
type Noop struct{}

var _ SchemaCache = Noop{}

func (Noop) Get(context.Context, string) (db.Schema, bool) { return nil, false }
func (Noop) Set(context.Context, string, db.Schema)        {}
func (Noop) Invalidate(context.Context, string)            {}
func (Noop) Close() error                                  { return nil }

// Fetch returns the cached schema for dbURL or calls load and caches its
// result. cached reports whether the schema came from the cache.
func Fetch(ctx context.Context, c SchemaCache, dbURL string, load func(context.Context) (db.Schema, error)) (s db.Schema, cached bool, err error) {
	if s, ok := c.Get(ctx, dbURL); ok {
		return s, true, nil
	}
	s, err = load(ctx)
	if err != nil {
		return nil, false, err
	}
	c.Set(ctx, dbURL, s)
	return s, false, nil
}
