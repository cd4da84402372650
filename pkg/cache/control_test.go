package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestParseCacheControl(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   Directives
	}{
		{
			name:   "no header",
			values: nil,
			want:   Directives{},
		},
		{
			name:   "no-store",
			values: []string{"no-store"},
			want:   Directives{NoStore: true},
		},
		{
			name:   "no-cache",
			values: []string{"no-cache"},
			want:   Directives{NoCache: true},
		},
		{
			name:   "max-age",
			values: []string{"max-age=60"},
			want:   Directives{MaxAge: 60 * time.Second, HasMaxAge: true},
		},
		{
			name:   "max-age zero",
			values: []string{"max-age=0"},
			want:   Directives{MaxAge: 0, HasMaxAge: true},
		},
		{
			name:   "quoted max-age",
			values: []string{`max-age="30"`},
			want:   Directives{MaxAge: 30 * time.Second, HasMaxAge: true},
		},
		{
			name:   "combined directives",
			values: []string{"no-cache, max-age=120"},
			want:   Directives{NoCache: true, MaxAge: 120 * time.Second, HasMaxAge: true},
		},
		{
			name:   "multiple header values",
			values: []string{"no-cache", "max-age=10"},
			want:   Directives{NoCache: true, MaxAge: 10 * time.Second, HasMaxAge: true},
		},
		{
			name:   "mixed case",
			values: []string{"No-Store, Max-Age=5"},
			want:   Directives{NoStore: true, MaxAge: 5 * time.Second, HasMaxAge: true},
		},
		{
			name:   "negative max-age ignored",
			values: []string{"max-age=-1"},
			want:   Directives{},
		},
		{
			name:   "malformed max-age ignored",
			values: []string{"max-age=abc"},
			want:   Directives{},
		},
		{
			name:   "unknown directives ignored",
			values: []string{"private, must-revalidate, max-age=7"},
			want:   Directives{MaxAge: 7 * time.Second, HasMaxAge: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for _, v := range tt.values {
				h.Add("Cache-Control", v)
			}
			if got := ParseCacheControl(h); got != tt.want {
				t.Errorf("ParseCacheControl() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExpiresAt(t *testing.T) {
	responseTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	expiresHeader := responseTime.Add(10 * time.Minute)

	tests := []struct {
		name   string
		header http.Header
		want   time.Time
	}{
		{
			name:   "no lifetime",
			header: http.Header{},
			want:   time.Time{},
		},
		{
			name:   "max-age",
			header: http.Header{"Cache-Control": []string{"max-age=60"}},
			want:   responseTime.Add(60 * time.Second),
		},
		{
			name:   "max-age zero expires at response time",
			header: http.Header{"Cache-Control": []string{"max-age=0"}},
			want:   responseTime,
		},
		{
			name:   "expires header",
			header: http.Header{"Expires": []string{expiresHeader.Format(http.TimeFormat)}},
			want:   expiresHeader,
		},
		{
			name: "max-age wins over expires",
			header: http.Header{
				"Cache-Control": []string{"max-age=30"},
				"Expires":       []string{expiresHeader.Format(http.TimeFormat)},
			},
			want: responseTime.Add(30 * time.Second),
		},
		{
			name:   "malformed expires ignored",
			header: http.Header{"Expires": []string{"not a date"}},
			want:   time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseCacheControl(tt.header)
			got := expiresAt(tt.header, d, responseTime)
			if !got.Equal(tt.want) {
				t.Errorf("expiresAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
