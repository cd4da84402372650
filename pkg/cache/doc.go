// Package cache implements an HTTP response caching engine: a policy
// driven decision machine that answers requests from a pluggable store,
// revalidates stale records with conditional requests, or fetches from the
// origin, and then folds the network outcome back into the store.
//
// The engine sits between a request issuer and a transport. It never
// performs network I/O itself; the caller supplies a Caller that does.
//
// # Basic Usage
//
//	store := memstore.New()
//	engine := cache.New(store)
//
//	req, _ := http.NewRequest(http.MethodGet, "https://example.com/data", nil)
//	result, err := engine.Execute(req, http.DefaultTransport.RoundTrip)
//	if err != nil {
//		return err
//	}
//	// result.Response is the final response.
//	// result.CacheKey is the derived key, empty if not cache-eligible.
//	// result.FromNetwork reports whether a network round trip happened.
//
// # Policies
//
// Five policies control how the store and the network are combined:
//
//   - PolicyRequest: serve fresh records, revalidate stale ones that carry
//     validators, fetch otherwise. The default.
//   - PolicyNoCache: bypass the store entirely.
//   - PolicyForceCache: serve any stored record regardless of freshness.
//   - PolicyRefresh: always contact the origin, conditionally if possible.
//   - PolicyRefreshForceCache: always fetch unconditionally and overwrite.
//
// Options are immutable values; derive per-request variants from a base
// configuration without mutating it:
//
//	base := engine.Options()
//	result, err := engine.ExecuteWith(req, base.Derive(
//		cache.WithPolicy(cache.PolicyForceCache),
//	), http.DefaultTransport.RoundTrip)
//
// # Freshness
//
// A record's explicit expiry is derived at write time from max-age
// (preferred) or the Expires header. Cache-Control: no-cache records are
// stored but always revalidated; no-store responses are never stored.
// WithMaxStale widens the acceptance window past the expiry.
//
// # Stale fallback
//
// When the origin fails (non-2xx status or transport error) and a record
// exists, the engine can substitute the stale record for the failure. The
// except set passed to WithHitCacheOnErrorExcept lists status codes that
// must propagate; an empty set substitutes on every error, and leaving the
// option unset disables substitution. Store and cipher failures, and
// cancellation, always propagate.
//
// # Encryption at rest
//
// When a Cipher is configured the engine encrypts record bodies before
// store writes and decrypts after reads. Bodies are plaintext in memory
// and cipher-form at rest; the store never sees plaintext.
package cache
