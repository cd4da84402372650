// Package restash provides a policy-driven HTTP response cache exposed as
// an http.RoundTripper. The decision engine lives in pkg/cache; this
// package is the thin adapter wiring it into an http.Client.
package restash

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httputil"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/restash/restash/pkg/cache"
)

// Metadata headers attached to responses returned by the Transport. A
// RoundTripper cannot return structured metadata alongside the response,
// so the engine's Result fields travel as headers.
const (
	// HeaderCacheKey carries the derived cache key. Absent when the
	// request was not cache-eligible.
	HeaderCacheKey = "X-Cache-Key"

	// HeaderFromNetwork is "1" when a network round trip produced the
	// response and "0" when it was served from the store.
	HeaderFromNetwork = "X-From-Network"
)

// Transport is an http.RoundTripper that answers from the cache engine
// where possible. Concurrent identical GET fetches under the default
// policy are coalesced so a cold key is filled by a single origin call.
type Transport struct {
	engine *cache.Engine
	child  http.RoundTripper
	logger zerolog.Logger
	group  singleflight.Group
}

var _ http.RoundTripper = (*Transport)(nil)

type options struct {
	child  http.RoundTripper
	logger zerolog.Logger
}

// Option configures the Transport.
type Option interface {
	apply(opts *options)
}

var (
	_ Option = childOption{}
	_ Option = loggerOption{}
)

type childOption struct {
	child http.RoundTripper
}

func (o childOption) apply(opts *options) { opts.child = o.child }

// WithChild sets the RoundTripper performing the actual network calls.
// Defaults to http.DefaultTransport.
func WithChild(child http.RoundTripper) Option { return childOption{child} }

type loggerOption struct {
	logger zerolog.Logger
}

func (o loggerOption) apply(opts *options) { opts.logger = o.logger }

// WithLogger sets the transport logger.
func WithLogger(logger zerolog.Logger) Option { return loggerOption{logger} }

// NewTransport wraps the engine as an http.RoundTripper.
func NewTransport(engine *cache.Engine, opts ...Option) *Transport {
	o := &options{
		child:  http.DefaultTransport,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	return &Transport{
		engine: engine,
		child:  o.child,
		logger: o.logger,
	}
}

type requestOptionsKey struct{}

// WithRequestOptions attaches per-request cache options that override the
// engine's base configuration for this request only.
func WithRequestOptions(req *http.Request, opts ...cache.Option) *http.Request {
	ctx := context.WithValue(req.Context(), requestOptionsKey{}, opts)
	return req.WithContext(ctx)
}

func (t *Transport) requestOptions(req *http.Request) cache.Options {
	base := t.engine.Options()
	if opts, ok := req.Context().Value(requestOptionsKey{}).([]cache.Option); ok {
		return base.Derive(opts...)
	}
	return base
}

// hasRequestOptions reports whether the request carries per-request option
// overrides. Such requests take the direct path: coalescing them would
// leak one caller's overrides into another's outcome.
func hasRequestOptions(req *http.Request) bool {
	opts, ok := req.Context().Value(requestOptionsKey{}).([]cache.Option)
	return ok && len(opts) > 0
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	o := t.requestOptions(req)
	t.logger.Debug().
		Str("method", req.Method).
		Stringer("url", req.URL).
		Stringer("policy", o.Policy()).
		Msg("cache transport round trip")

	if o.Policy() == cache.PolicyRequest && req.Method == http.MethodGet && req.Body == nil && !hasRequestOptions(req) {
		if flightKey, err := o.Keyer().Key(req); err == nil {
			return t.roundTripShared(req, flightKey, o)
		}
	}
	result, err := t.engine.ExecuteWith(req, o, t.child.RoundTrip)
	if err != nil {
		return nil, err
	}
	return annotate(result), nil
}

// roundTripShared coalesces concurrent fetches that share a cache key. The
// flight key is the engine's derived key, so requests the keyer tells
// apart (vary headers, partitions) are never coalesced. The response is
// dumped to bytes inside the flight so every waiter gets an independent
// body. Waiters do ride the leader's request: if the leader's context is
// canceled mid-flight, every waiter sees the cancellation.
func (t *Transport) roundTripShared(req *http.Request, flightKey string, o cache.Options) (*http.Response, error) {
	v, err, _ := t.group.Do(flightKey, func() (any, error) {
		result, err := t.engine.ExecuteWith(req, o, t.child.RoundTrip)
		if err != nil {
			return nil, err
		}
		return httputil.DumpResponse(annotate(result), true)
	})
	if err != nil {
		return nil, err
	}
	respBytes := v.([]byte)
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(respBytes)), req)
}

// annotate copies the result metadata onto the response headers.
func annotate(result *cache.Result) *http.Response {
	resp := result.Response
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	if result.CacheKey != "" {
		resp.Header.Set(HeaderCacheKey, result.CacheKey)
	}
	fromNetwork := "0"
	if result.FromNetwork {
		fromNetwork = "1"
	}
	resp.Header.Set(HeaderFromNetwork, fromNetwork)
	return resp
}
