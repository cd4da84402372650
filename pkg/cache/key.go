package cache

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
)

// Keyer derives a stable opaque key from a request. Keys must be
// deterministic across process restarts and must never alias distinct
// (method, URL) pairs.
type Keyer interface {
	Key(req *http.Request) (key string, err error)
}

// DefaultKeyer hashes the request method and URL with FNV-64a. A partition
// key separates unrelated applications sharing one store, VaryHeaders adds
// the named request header values to the key, and request bodies are
// hashed in so distinct POST payloads never alias.
type DefaultKeyer struct {
	PartitionKey string
	VaryHeaders  []string
}

var _ Keyer = (*DefaultKeyer)(nil)

// NewKeyer returns a DefaultKeyer with the given partition key and header
// allow-list.
func NewKeyer(partitionKey string, varyHeaders ...string) *DefaultKeyer {
	return &DefaultKeyer{
		PartitionKey: partitionKey,
		VaryHeaders:  varyHeaders,
	}
}

func (g *DefaultKeyer) Key(req *http.Request) (string, error) {
	var (
		body []byte
		err  error
	)
	if req.Body != nil && req.Body != http.NoBody {
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return "", err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	h := fnv.New64a()
	h.Write([]byte(req.Method))
	h.Write([]byte(req.URL.String()))
	for _, name := range g.VaryHeaders {
		h.Write([]byte(strings.ToLower(name)))
		h.Write([]byte{0})
		h.Write([]byte(req.Header.Get(name)))
		h.Write([]byte{0})
	}
	h.Write(body)
	return fmt.Sprintf("%s_%x", g.PartitionKey, h.Sum64()), nil
}
