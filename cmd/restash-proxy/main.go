// Command restash-proxy runs a caching reverse proxy in front of a single
// origin. Responses are cached per the default policy; cache metadata is
// exposed via the X-Cache-Key and X-From-Network response headers and
// Prometheus metrics are served on /metrics.
package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/restash/restash"
	"github.com/restash/restash/pkg/cache"
	"github.com/restash/restash/pkg/logging"
	"github.com/restash/restash/pkg/store/memstore"
	"github.com/restash/restash/pkg/store/redisstore"
	"github.com/restash/restash/pkg/store/sqlitestore"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") != "",
		Output: os.Stderr,
	}).With().Str("component", "restash-proxy").Logger()

	originURL := getEnv("ORIGIN_URL", "")
	if originURL == "" {
		logger.Fatal().Msg("ORIGIN_URL is required")
	}
	origin, err := url.Parse(originURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid ORIGIN_URL")
	}

	store, err := newStore(getEnv("STORE", "memory"), getEnv("STORE_DSN", ""))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create store")
	}

	engineOpts := []cache.Option{
		cache.WithLogger(logger),
		cache.WithHitCacheOnErrorExcept(),
	}
	if maxStale := getEnv("MAX_STALE", ""); maxStale != "" {
		d, err := time.ParseDuration(maxStale)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid MAX_STALE")
		}
		engineOpts = append(engineOpts, cache.WithMaxStale(d))
	}
	engine := cache.New(store, engineOpts...)

	proxy := httputil.NewSingleHostReverseProxy(origin)
	proxy.Transport = restash.NewTransport(engine, restash.WithLogger(logger))

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	router.NotFound(proxy.ServeHTTP)

	addr := ":" + getEnv("PORT", "8080")
	logger.Info().
		Str("addr", addr).
		Str("origin", origin.String()).
		Msg("starting caching proxy")
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// newStore selects the persistence backend: "memory", "redis" (dsn is the
// Redis address) or "sqlite" (dsn is the database path).
func newStore(kind, dsn string) (cache.Store, error) {
	switch strings.ToLower(kind) {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: dsn})
		return redisstore.New(client), nil
	case "sqlite":
		if dsn == "" {
			dsn = "restash.db"
		}
		return sqlitestore.New(dsn)
	default:
		return memstore.New(), nil
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
