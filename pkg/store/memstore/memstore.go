// Package memstore provides an in-memory cache store for tests and
// single-process setups.
package memstore

import (
	"context"
	"net/http"
	"sync"

	"github.com/restash/restash/pkg/cache"
)

// Store keeps records in a map guarded by a mutex. Records are deep-copied
// on both Set and Get so callers can never mutate stored state.
type Store struct {
	mu      sync.RWMutex
	records map[string]*cache.Record
}

var _ cache.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]*cache.Record)}
}

func (s *Store) Get(_ context.Context, key string) (*cache.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (s *Store) Set(_ context.Context, key string, rec *cache.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = cloneRecord(rec)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok, nil
}

func (s *Store) Clean(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*cache.Record)
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(rec *cache.Record) *cache.Record {
	clone := *rec
	if rec.Header != nil {
		clone.Header = rec.Header.Clone()
	} else {
		clone.Header = http.Header{}
	}
	clone.Body = append([]byte(nil), rec.Body...)
	return &clone
}
