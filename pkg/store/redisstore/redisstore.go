// Package redisstore persists cache records in Redis. Marshaling and the
// optional in-process cache layer are handled by go-redis/cache.
package redisstore

import (
	"context"
	"errors"
	"time"

	rediscache "github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/restash/restash/pkg/cache"
)

// Store is a Redis-backed cache.Store. Keys are namespaced with a prefix
// so Clean only touches this store's records.
type Store struct {
	client    redis.UniversalClient
	cache     *rediscache.Cache
	keyPrefix string
	ttl       time.Duration
}

var _ cache.Store = (*Store)(nil)

type options struct {
	keyPrefix  string
	ttl        time.Duration
	localCache rediscache.LocalCache
}

// Option configures the store.
type Option interface {
	apply(opts *options)
}

var (
	_ Option = keyPrefixOption("")
	_ Option = retentionTTLOption(0)
	_ Option = localCacheOption{}
)

type keyPrefixOption string

func (o keyPrefixOption) apply(opts *options) { opts.keyPrefix = string(o) }

// WithKeyPrefix replaces the default "restash:" key namespace.
func WithKeyPrefix(prefix string) Option { return keyPrefixOption(prefix) }

type retentionTTLOption time.Duration

func (o retentionTTLOption) apply(opts *options) { opts.ttl = time.Duration(o) }

// WithRetentionTTL bounds how long Redis keeps a record. By default
// records are kept until Delete or Clean, which stale serving and error
// fallback rely on; a retention TTL trades that for bounded storage.
func WithRetentionTTL(ttl time.Duration) Option { return retentionTTLOption(ttl) }

type localCacheOption struct {
	localCache rediscache.LocalCache
}

func (o localCacheOption) apply(opts *options) { opts.localCache = o.localCache }

// WithLocalCache adds an in-process cache layer in front of Redis.
func WithLocalCache(localCache rediscache.LocalCache) Option {
	return localCacheOption{localCache}
}

// New creates a Redis-backed store.
func New(client redis.UniversalClient, opts ...Option) *Store {
	o := &options{keyPrefix: "restash:"}
	for _, opt := range opts {
		opt.apply(o)
	}
	return &Store{
		client: client,
		cache: rediscache.New(&rediscache.Options{
			Redis:      client,
			LocalCache: o.localCache,
		}),
		keyPrefix: o.keyPrefix,
		ttl:       o.ttl,
	}
}

func (s *Store) Get(ctx context.Context, key string) (*cache.Record, bool, error) {
	var rec cache.Record
	if err := s.cache.Get(ctx, s.keyPrefix+key, &rec); err != nil {
		if errors.Is(err, rediscache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &rec, true, nil
}

func (s *Store) Set(ctx context.Context, key string, rec *cache.Record) error {
	ttl := s.ttl
	if ttl <= 0 {
		// go-redis/cache substitutes a default TTL for zero; a negative
		// value keeps the record until Delete or Clean.
		ttl = -1
	}
	return s.cache.Set(&rediscache.Item{
		Ctx:   ctx,
		Key:   s.keyPrefix + key,
		Value: rec,
		TTL:   ttl,
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, s.keyPrefix+key)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Clean(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
