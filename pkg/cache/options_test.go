package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestNewOptions_Defaults(t *testing.T) {
	o := NewOptions()

	if o.policy != PolicyRequest {
		t.Errorf("policy = %v, want %v", o.policy, PolicyRequest)
	}
	if o.maxStale != 0 {
		t.Errorf("maxStale = %v, want 0", o.maxStale)
	}
	if o.errorExcept != nil {
		t.Error("errorExcept should default to nil (no fallback)")
	}
	if o.allowPost {
		t.Error("allowPost should default to false")
	}
	if o.cipher != nil {
		t.Error("cipher should default to nil")
	}
	if _, ok := o.cacheableStatuses[http.StatusOK]; !ok {
		t.Error("status 200 should be cacheable by default")
	}
	if len(o.cacheableStatuses) != 1 {
		t.Errorf("cacheableStatuses has %d entries, want 1", len(o.cacheableStatuses))
	}
	if o.keyer == nil {
		t.Error("keyer should have a default")
	}
	if o.now == nil {
		t.Error("now should have a default")
	}
}

func TestOptions_DeriveDoesNotMutate(t *testing.T) {
	base := NewOptions(WithPolicy(PolicyForceCache), WithMaxStale(time.Minute))

	derived := base.Derive(
		WithPolicy(PolicyRefresh),
		WithMaxStale(0),
		WithAllowPostMethod(),
		WithHitCacheOnErrorExcept(500),
	)

	if base.policy != PolicyForceCache {
		t.Errorf("base policy mutated to %v", base.policy)
	}
	if base.maxStale != time.Minute {
		t.Errorf("base maxStale mutated to %v", base.maxStale)
	}
	if base.allowPost {
		t.Error("base allowPost mutated")
	}
	if base.errorExcept != nil {
		t.Error("base errorExcept mutated")
	}

	if derived.policy != PolicyRefresh {
		t.Errorf("derived policy = %v, want %v", derived.policy, PolicyRefresh)
	}
	if derived.maxStale != 0 {
		t.Errorf("derived maxStale = %v, want 0", derived.maxStale)
	}
	if !derived.allowPost {
		t.Error("derived allowPost not applied")
	}
}

func TestOptions_FallbackAllowed(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		status int
		want   bool
	}{
		{"default never substitutes", nil, 500, false},
		{"default never substitutes transport error", nil, statusTransportError, false},
		{"empty set substitutes any status", []Option{WithHitCacheOnErrorExcept()}, 503, true},
		{"empty set substitutes transport error", []Option{WithHitCacheOnErrorExcept()}, statusTransportError, true},
		{"member status propagates", []Option{WithHitCacheOnErrorExcept(500)}, 500, false},
		{"non-member status substitutes", []Option{WithHitCacheOnErrorExcept(500)}, 503, true},
		{"transport error not in set substitutes", []Option{WithHitCacheOnErrorExcept(500)}, statusTransportError, true},
		{"disabled again after enable", []Option{WithHitCacheOnErrorExcept(), WithoutHitCacheOnError()}, 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions(tt.opts...)
			if got := o.fallbackAllowed(tt.status); got != tt.want {
				t.Errorf("fallbackAllowed(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestWithHitCacheOnErrorExcept_CopiesCodes(t *testing.T) {
	codes := []int{500}
	o := NewOptions(WithHitCacheOnErrorExcept(codes...))
	codes[0] = 503

	if o.fallbackAllowed(500) {
		t.Error("mutation of the caller's slice leaked into the options")
	}
}

func TestOptions_MethodCacheable(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		method string
		want   bool
	}{
		{"GET", nil, http.MethodGet, true},
		{"POST default", nil, http.MethodPost, false},
		{"POST allowed", []Option{WithAllowPostMethod()}, http.MethodPost, true},
		{"PUT", nil, http.MethodPut, false},
		{"DELETE", nil, http.MethodDelete, false},
		{"HEAD", nil, http.MethodHead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions(tt.opts...)
			if got := o.methodCacheable(tt.method); got != tt.want {
				t.Errorf("methodCacheable(%q) = %v, want %v", tt.method, got, tt.want)
			}
		})
	}
}

func TestWithCacheableStatusCodes(t *testing.T) {
	o := NewOptions(WithCacheableStatusCodes([]int{200, 203, 300}))

	for _, code := range []int{200, 203, 300} {
		if _, ok := o.cacheableStatuses[code]; !ok {
			t.Errorf("status %d should be cacheable", code)
		}
	}
	if _, ok := o.cacheableStatuses[404]; ok {
		t.Error("status 404 should not be cacheable")
	}
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	o := NewOptions(WithClock(func() time.Time { return fixed }))

	if got := o.now(); !got.Equal(fixed) {
		t.Errorf("now() = %v, want %v", got, fixed)
	}
}
