package cache

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// statusTransportError is the sentinel status matched against the error
// except set when the network call failed without producing a status code.
const statusTransportError = 0

// Options is an immutable per-call configuration value. Deriving a variant
// never mutates the original, so one base configuration can be shared
// across concurrent requests.
type Options struct {
	policy            Policy
	maxStale          time.Duration
	errorExcept       []int // nil: never substitute; empty: substitute on any error
	allowPost         bool
	cipher            Cipher
	cacheableStatuses map[int]struct{}
	keyer             Keyer
	logger            zerolog.Logger
	now               func() time.Time
	lenientStore      bool
}

var defaultCacheableStatuses = map[int]struct{}{http.StatusOK: {}}

// NewOptions returns the default options with the given overrides applied:
// PolicyRequest, no max-stale tolerance, no error fallback, GET-only
// caching, status 200 cacheable, no cipher.
func NewOptions(opts ...Option) Options {
	o := Options{
		policy:            PolicyRequest,
		cacheableStatuses: defaultCacheableStatuses,
		keyer:             NewKeyer(""),
		logger:            zerolog.Nop(),
		now:               time.Now,
	}
	return o.Derive(opts...)
}

// Derive returns a copy of o with the given overrides applied. The
// receiver is left untouched.
func (o Options) Derive(opts ...Option) Options {
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// Policy returns the configured policy.
func (o Options) Policy() Policy { return o.policy }

// MaxStale returns the configured staleness tolerance.
func (o Options) MaxStale() time.Duration { return o.maxStale }

// Keyer returns the configured cache key deriver.
func (o Options) Keyer() Keyer { return o.keyer }

// methodCacheable reports whether requests with this method are
// cache-eligible under the options.
func (o Options) methodCacheable(method string) bool {
	switch method {
	case http.MethodGet:
		return true
	case http.MethodPost:
		return o.allowPost
	default:
		return false
	}
}

// fallbackAllowed reports whether an error outcome with the given status
// may be substituted with a stored record. Transport failures match the
// statusTransportError sentinel. A nil except set disables substitution
// entirely; an empty set substitutes on every error.
func (o Options) fallbackAllowed(status int) bool {
	if o.errorExcept == nil {
		return false
	}
	for _, code := range o.errorExcept {
		if code == status {
			return false
		}
	}
	return true
}

// Option overrides a single Options field.
type Option interface {
	apply(o *Options)
}

var (
	_ Option = policyOption(0)
	_ Option = maxStaleOption(0)
	_ Option = errorExceptOption{}
	_ Option = allowPostOption{}
	_ Option = cipherOption{}
	_ Option = cacheableStatusesOption{}
	_ Option = keyerOption{}
	_ Option = loggerOption{}
	_ Option = clockOption{}
	_ Option = lenientStoreOption{}
)

type policyOption Policy

func (p policyOption) apply(o *Options) { o.policy = Policy(p) }

// WithPolicy selects the cache policy.
func WithPolicy(p Policy) Option { return policyOption(p) }

type maxStaleOption time.Duration

func (d maxStaleOption) apply(o *Options) { o.maxStale = time.Duration(d) }

// WithMaxStale widens the freshness window: a record whose expiry has
// passed is still served if now <= expiry + maxStale.
func WithMaxStale(d time.Duration) Option { return maxStaleOption(d) }

type errorExceptOption struct {
	codes []int
}

func (e errorExceptOption) apply(o *Options) { o.errorExcept = e.codes }

// WithHitCacheOnErrorExcept enables stale substitution for failed network
// calls, except for the listed status codes which always propagate. With
// no codes, every error is substituted when a record exists.
func WithHitCacheOnErrorExcept(codes ...int) Option {
	except := make([]int, len(codes))
	copy(except, codes)
	return errorExceptOption{codes: except}
}

// WithoutHitCacheOnError disables stale substitution entirely; errors
// always propagate. This is the default.
func WithoutHitCacheOnError() Option { return errorExceptOption{codes: nil} }

type allowPostOption struct{}

func (allowPostOption) apply(o *Options) { o.allowPost = true }

// WithAllowPostMethod makes POST requests cache-eligible, keyed by URL and
// request body.
func WithAllowPostMethod() Option { return allowPostOption{} }

type cipherOption struct {
	cipher Cipher
}

func (c cipherOption) apply(o *Options) { o.cipher = c.cipher }

// WithCipher encrypts record bodies at rest with the given cipher.
func WithCipher(c Cipher) Option { return cipherOption{c} }

type cacheableStatusesOption []int

func (codes cacheableStatusesOption) apply(o *Options) {
	statuses := make(map[int]struct{}, len(codes))
	for _, code := range codes {
		statuses[code] = struct{}{}
	}
	o.cacheableStatuses = statuses
}

// WithCacheableStatusCodes replaces the set of response status codes that
// may be stored. The default is 200 only.
func WithCacheableStatusCodes(codes []int) Option {
	return cacheableStatusesOption(codes)
}

type keyerOption struct {
	keyer Keyer
}

func (k keyerOption) apply(o *Options) { o.keyer = k.keyer }

// WithKeyer replaces the cache key deriver.
func WithKeyer(k Keyer) Option { return keyerOption{k} }

type loggerOption struct {
	logger zerolog.Logger
}

func (l loggerOption) apply(o *Options) { o.logger = l.logger }

// WithLogger sets the logger used for cache flow events.
func WithLogger(logger zerolog.Logger) Option { return loggerOption{logger} }

type clockOption struct {
	now func() time.Time
}

func (c clockOption) apply(o *Options) { o.now = c.now }

// WithClock replaces the time source used for freshness evaluation.
func WithClock(now func() time.Time) Option { return clockOption{now} }

type lenientStoreOption struct{}

func (lenientStoreOption) apply(o *Options) { o.lenientStore = true }

// WithLenientStore downgrades store read failures to cache misses instead
// of propagating them, so a flaky backend degrades to pass-through
// behavior. Write failures still propagate.
func WithLenientStore() Option { return lenientStoreOption{} }
