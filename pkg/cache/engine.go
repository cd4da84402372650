package cache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Caller performs the actual network round trip. It is typically an
// http.RoundTripper's RoundTrip method.
type Caller func(req *http.Request) (*http.Response, error)

// Result is the outcome of one engine execution.
type Result struct {
	// Response is the final response served to the caller.
	Response *http.Response

	// CacheKey is the derived key, empty when the request was not
	// cache-eligible or the response forbade storage.
	CacheKey string

	// FromNetwork reports whether a network round trip produced this
	// outcome. It is true for full fetches and 304 revalidations, false
	// when the body was served from the store without contacting the
	// origin or substituted for a failed call.
	FromNetwork bool
}

// Engine is the cache decision engine. It holds no per-request state; the
// store and cipher are shared resources used strictly through their
// contracts.
type Engine struct {
	store  Store
	base   Options
	logger zerolog.Logger
}

// New creates an engine over the given store.
func New(store Store, opts ...Option) *Engine {
	if store == nil {
		panic("cache store cannot be nil")
	}
	base := NewOptions(opts...)
	return &Engine{
		store:  store,
		base:   base,
		logger: base.logger,
	}
}

// Options returns the engine's base options, for deriving per-request
// variants.
func (e *Engine) Options() Options { return e.base }

// Store returns the engine's store.
func (e *Engine) Store() Store { return e.store }

// Execute runs one request through the cache with the engine's base
// options.
func (e *Engine) Execute(req *http.Request, next Caller) (*Result, error) {
	return e.ExecuteWith(req, e.base, next)
}

// ExecuteWith runs one request through the cache: derive the key, consult
// the store, decide per policy, perform the network call if needed, and
// resolve the outcome back into the store and a Result.
func (e *Engine) ExecuteWith(req *http.Request, o Options, next Caller) (*Result, error) {
	ctx := req.Context()

	if o.policy == PolicyNoCache || !o.methodCacheable(req.Method) {
		return passthrough(ctx, req, next)
	}

	key, err := o.keyer.Key(req)
	if err != nil {
		o.logger.Warn().Err(err).Msg("cache key derivation failed, passing request through")
		return passthrough(ctx, req, next)
	}

	rec, found, err := e.lookup(ctx, key, o)
	if err != nil {
		return nil, err
	}

	fresh := found && !rec.IsExpiredAt(o.now(), o.maxStale)
	decision := decide(o.policy, rec, fresh)
	o.logger.Debug().
		Str("key", key).
		Stringer("policy", o.policy).
		Stringer("decision", decision).
		Bool("fresh", fresh).
		Msg("cache decision")

	if decision == DecisionServe {
		cacheHits.WithLabelValues(o.policy.String()).Inc()
		return &Result{Response: rec.Response(req), CacheKey: key}, nil
	}
	if !found {
		cacheMisses.Inc()
	}

	outbound := req
	if decision == DecisionRevalidate {
		outbound = req.Clone(ctx)
		addConditionalHeaders(outbound, rec)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	requestTime := o.now()
	resp, err := next(outbound)
	responseTime := o.now()
	if err != nil {
		return e.resolveError(ctx, req, key, rec, err, o)
	}
	return e.resolve(ctx, req, key, rec, resp, requestTime, responseTime, o)
}

// lookup reads and, when a cipher is configured, decrypts the record
// stored under key.
func (e *Engine) lookup(ctx context.Context, key string, o Options) (*Record, bool, error) {
	rec, found, err := e.store.Get(ctx, key)
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		if o.lenientStore {
			o.logger.Warn().Err(err).Str("key", key).Msg("store read failed, treating as miss")
			return nil, false, nil
		}
		return nil, false, &StoreError{Op: "get", Err: err}
	}
	if !found {
		return nil, false, nil
	}
	if o.cipher != nil {
		body, err := o.cipher.Decrypt(ctx, rec.Body)
		if err != nil {
			cacheErrors.WithLabelValues("decrypt").Inc()
			return nil, false, &CipherError{Op: "decrypt", Err: err}
		}
		rec.Body = body
	}
	return rec, true, nil
}

// resolve folds a received response into the store and the final Result.
func (e *Engine) resolve(ctx context.Context, req *http.Request, key string, rec *Record, resp *http.Response, requestTime, responseTime time.Time, o Options) (*Result, error) {
	switch {
	case resp.StatusCode == http.StatusNotModified && rec != nil:
		return e.resolveNotModified(ctx, req, key, rec, resp, requestTime, responseTime, o)
	case resp.StatusCode >= http.StatusBadRequest:
		if rec != nil && o.fallbackAllowed(resp.StatusCode) {
			staleServed.Inc()
			o.logger.Warn().
				Int("status", resp.StatusCode).
				Str("key", key).
				Msg("origin error, serving stale record")
			drain(resp)
			return &Result{Response: rec.Response(req), CacheKey: key}, nil
		}
		return &Result{Response: resp, CacheKey: key, FromNetwork: true}, nil
	default:
		return e.resolveSuccess(ctx, req, key, rec, resp, requestTime, responseTime, o)
	}
}

// resolveSuccess stores a cacheable success and passes everything else
// through. A no-store response invalidates whatever was held under the
// key and detaches the key from the outcome.
func (e *Engine) resolveSuccess(ctx context.Context, _ *http.Request, key string, rec *Record, resp *http.Response, requestTime, responseTime time.Time, o Options) (*Result, error) {
	d := ParseCacheControl(resp.Header)
	if d.NoStore {
		if rec != nil {
			if err := e.store.Delete(ctx, key); err != nil {
				cacheErrors.WithLabelValues("delete").Inc()
				return nil, &StoreError{Op: "delete", Err: err}
			}
		}
		return &Result{Response: resp, FromNetwork: true}, nil
	}
	if _, cacheable := o.cacheableStatuses[resp.StatusCode]; !cacheable {
		return &Result{Response: resp, CacheKey: key, FromNetwork: true}, nil
	}

	newRec, err := NewRecord(resp, requestTime, responseTime)
	if err != nil {
		return nil, err
	}
	if err := e.persist(ctx, key, newRec, o); err != nil {
		return nil, err
	}
	return &Result{Response: resp, CacheKey: key, FromNetwork: true}, nil
}

// resolveNotModified merges a 304 into the stored record: the stored body
// stays authoritative, refreshed metadata is written back, and the served
// response is synthesized from the record.
func (e *Engine) resolveNotModified(ctx context.Context, req *http.Request, key string, rec *Record, resp *http.Response, requestTime, responseTime time.Time, o Options) (*Result, error) {
	revalidated.Inc()
	drain(resp)
	rec.RefreshFrom(resp, requestTime, responseTime)
	if err := e.persist(ctx, key, rec, o); err != nil {
		return nil, err
	}
	o.logger.Debug().Str("key", key).Msg("revalidated, stored record refreshed")
	return &Result{Response: rec.Response(req), CacheKey: key, FromNetwork: true}, nil
}

// resolveError handles a failed network call. Cancellation always
// propagates; other transport failures may be substituted with the stored
// record per the error except set, using the status 0 sentinel.
func (e *Engine) resolveError(ctx context.Context, req *http.Request, key string, rec *Record, callErr error, o Options) (*Result, error) {
	if ctx.Err() != nil || errors.Is(callErr, context.Canceled) || errors.Is(callErr, context.DeadlineExceeded) {
		return nil, callErr
	}
	if rec != nil && o.fallbackAllowed(statusTransportError) {
		staleServed.Inc()
		o.logger.Warn().Err(callErr).Str("key", key).Msg("network call failed, serving stale record")
		return &Result{Response: rec.Response(req), CacheKey: key}, nil
	}
	return nil, callErr
}

// persist writes the record, transforming the body when a cipher is
// configured. The in-memory record keeps its plaintext body.
func (e *Engine) persist(ctx context.Context, key string, rec *Record, o Options) error {
	stored := rec
	if o.cipher != nil {
		sealed, err := o.cipher.Encrypt(ctx, rec.Body)
		if err != nil {
			cacheErrors.WithLabelValues("encrypt").Inc()
			return &CipherError{Op: "encrypt", Err: err}
		}
		clone := *rec
		clone.Body = sealed
		stored = &clone
	}
	if err := e.store.Set(ctx, key, stored); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return &StoreError{Op: "set", Err: err}
	}
	return nil
}

// passthrough performs the network call without any cache involvement.
func passthrough(ctx context.Context, req *http.Request, next Caller) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := next(req)
	if err != nil {
		return nil, err
	}
	return &Result{Response: resp, FromNetwork: true}, nil
}

// addConditionalHeaders attaches If-None-Match or If-Modified-Since from
// the stored validators. ETag is preferred over Last-Modified.
func addConditionalHeaders(req *http.Request, rec *Record) {
	if rec.ETag != "" {
		req.Header.Set("If-None-Match", rec.ETag)
	} else if rec.LastModified != "" {
		req.Header.Set("If-Modified-Since", rec.LastModified)
	}
}

// drain discards and closes a response body so the underlying connection
// can be reused.
func drain(resp *http.Response) {
	if resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
