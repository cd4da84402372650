// Package testutil provides testing utilities: a configurable mock origin
// server and assertion helpers.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// OriginResponse defines the behavior for a mock origin endpoint.
type OriginResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Origin is a configurable mock origin server. It counts total and
// conditional requests and records the headers of the last request seen.
type Origin struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requests    int
	conditional int
	lastHeader  http.Header
}

// NewOrigin creates a running mock origin. Close it when done.
func NewOrigin() *Origin {
	origin := &Origin{
		handlers: make(map[string]http.HandlerFunc),
	}

	origin.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin.mu.Lock()
		origin.requests++
		origin.lastHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			origin.conditional++
		}
		origin.mu.Unlock()

		origin.mu.RLock()
		handler, exists := origin.handlers[r.URL.Path]
		origin.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}
		origin.defaultHandler(w, r)
	}))

	return origin
}

// URL returns the origin server URL.
func (o *Origin) URL() string {
	return o.server.URL
}

// Close shuts down the origin server.
func (o *Origin) Close() {
	o.server.Close()
}

// Requests returns the number of requests received.
func (o *Origin) Requests() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.requests
}

// ConditionalRequests returns the number of requests that carried
// If-None-Match or If-Modified-Since.
func (o *Origin) ConditionalRequests() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.conditional
}

// LastRequestHeader returns the headers of the most recent request.
func (o *Origin) LastRequestHeader() http.Header {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastHeader
}

// Reset clears all tracking counters.
func (o *Origin) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = 0
	o.conditional = 0
	o.lastHeader = nil
}

// Handle sets a custom handler for a specific path.
func (o *Origin) Handle(path string, handler http.HandlerFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers[path] = handler
}

// Respond configures a static response for a path.
func (o *Origin) Respond(path string, resp OriginResponse) {
	o.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for name, value := range resp.Headers {
			w.Header().Set(name, value)
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		fmt.Fprint(w, resp.Body)
	})
}

func (o *Origin) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
}
