package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Directives holds the response Cache-Control directives recognized by the
// engine.
type Directives struct {
	// NoStore suppresses caching entirely.
	NoStore bool

	// NoCache allows storing but forces revalidation on every use.
	NoCache bool

	// MaxAge is the freshness lifetime, valid only when HasMaxAge is set.
	// A zero MaxAge with HasMaxAge set means the response expires at the
	// moment it is received.
	MaxAge    time.Duration
	HasMaxAge bool
}

// ParseCacheControl extracts the recognized directives from the
// Cache-Control header. Directive names match case-insensitively, unknown
// directives are ignored.
func ParseCacheControl(h http.Header) Directives {
	var d Directives
	for _, value := range h.Values("Cache-Control") {
		for _, part := range strings.Split(value, ",") {
			name, arg, _ := strings.Cut(strings.TrimSpace(part), "=")
			switch strings.ToLower(name) {
			case "no-store":
				d.NoStore = true
			case "no-cache":
				d.NoCache = true
			case "max-age":
				arg = strings.Trim(arg, `"`)
				if secs, err := strconv.Atoi(arg); err == nil && secs >= 0 {
					d.MaxAge = time.Duration(secs) * time.Second
					d.HasMaxAge = true
				}
			}
		}
	}
	return d
}

// expiresAt derives the explicit expiry of a response received at
// responseTime. max-age takes precedence over the Expires header. The zero
// time means the response carries no explicit lifetime.
func expiresAt(h http.Header, d Directives, responseTime time.Time) time.Time {
	if d.HasMaxAge {
		return responseTime.Add(d.MaxAge)
	}
	if expiresStr := h.Get("Expires"); expiresStr != "" {
		if expires, err := http.ParseTime(expiresStr); err == nil {
			return expires
		}
	}
	return time.Time{}
}
