package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Record is the persisted representation of one prior response, keyed by
// request identity. The body is plaintext in memory; when a cipher is
// configured the engine transforms it around store access.
type Record struct {
	// Status is the HTTP status code of the cached response.
	Status int `json:"status"`

	// Header holds the response headers.
	Header http.Header `json:"header"`

	// Body is the response body.
	Body []byte `json:"body"`

	// RequestTime is when the request producing this record was sent.
	RequestTime time.Time `json:"request_time"`

	// ResponseTime is when the response was received.
	ResponseTime time.Time `json:"response_time"`

	// Expires is the explicit expiry derived from max-age or the Expires
	// header at write time. The zero time means no explicit lifetime.
	Expires time.Time `json:"expires"`

	// ETag is the raw ETag validator, empty if absent.
	ETag string `json:"etag"`

	// LastModified is the raw Last-Modified validator, empty if absent.
	LastModified string `json:"last_modified"`

	// NoCache marks a record stored under Cache-Control: no-cache. It is
	// kept but must be revalidated on every use.
	NoCache bool `json:"no_cache"`
}

// NewRecord builds a Record from a received response. The response body is
// read fully and restored for the caller.
func NewRecord(resp *http.Response, requestTime, responseTime time.Time) (*Record, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	var body []byte
	if resp.Body != nil {
		var err error
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}

	d := ParseCacheControl(resp.Header)
	return &Record{
		Status:       resp.StatusCode,
		Header:       resp.Header.Clone(),
		Body:         body,
		RequestTime:  requestTime,
		ResponseTime: responseTime,
		Expires:      expiresAt(resp.Header, d, responseTime),
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		NoCache:      d.NoCache,
	}, nil
}

// HasValidators reports whether the record can drive a conditional request.
func (r *Record) HasValidators() bool {
	return r.ETag != "" || r.LastModified != ""
}

// IsExpiredAt reports whether the record may no longer be served without
// revalidation at the given instant. maxStale widens the window past the
// explicit expiry. The boundary is inclusive on the fresh side: the record
// is expired only once now is strictly past expires+maxStale.
func (r *Record) IsExpiredAt(now time.Time, maxStale time.Duration) bool {
	if r.NoCache {
		return true
	}
	if r.Expires.IsZero() {
		// No explicit lifetime: immediately stale, revalidate or refetch.
		return true
	}
	return now.After(r.Expires.Add(maxStale))
}

// TTL returns the time left until the explicit expiry, zero if the record
// is expired or carries no explicit lifetime. Store backends may use it as
// an eviction hint, keeping in mind that stale records are still wanted
// for revalidation and error fallback.
func (r *Record) TTL(now time.Time) time.Duration {
	if r.Expires.IsZero() {
		return 0
	}
	ttl := r.Expires.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// RefreshFrom merges a 304 Not Modified response into the record following
// RFC 9111 section 3.2: the stored body and status stay authoritative,
// headers from the 304 replace their stored counterparts (Content-Length
// excluded), and validators and expiry are refreshed.
func (r *Record) RefreshFrom(resp *http.Response, requestTime, responseTime time.Time) {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	for name, values := range resp.Header {
		if http.CanonicalHeaderKey(name) == "Content-Length" {
			continue
		}
		r.Header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		r.ETag = etag
	}
	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		r.LastModified = lastModified
	}
	d := ParseCacheControl(resp.Header)
	if len(resp.Header.Values("Cache-Control")) > 0 {
		r.NoCache = d.NoCache
	}
	if expires := expiresAt(resp.Header, d, responseTime); !expires.IsZero() {
		r.Expires = expires
	}
	r.RequestTime = requestTime
	r.ResponseTime = responseTime
}

// Response materializes the record as an http.Response for the given
// request.
func (r *Record) Response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", r.Status, http.StatusText(r.Status)),
		StatusCode:    r.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        r.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}
