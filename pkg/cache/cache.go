// Package cache keeps synthesized route searches so they can be refined
// repeatedly without synthesizing again.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/monitoring"
	"github.com/NERVsystems/tripmcp/pkg/trip"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrSearchNotFound is returned for unknown or expired search ids
var ErrSearchNotFound = errors.New("search not found")

const (
	DefaultSize = 1000
	DefaultTTL  = 30 * time.Minute
)

// SearchRequest identifies what was searched
type SearchRequest struct {
	OriginID      string `json:"from"`
	DestinationID string `json:"to"`
	Departure     string `json:"departure_time"`
}

// Search is a stored synthesis result. The route set never changes after
// Put; only the current filter and sort key move forward with each refinement.
type Search struct {
	ID        string
	Request   SearchRequest
	CreatedAt time.Time

	routes []trip.Route

	mu       sync.Mutex
	revision uint64
	filter   trip.Filter
	sortKey  trip.SortKey
}

// Refinement is one filtered and sorted view of a stored search
type Refinement struct {
	SearchID string       `json:"search_id"`
	Revision uint64       `json:"revision"`
	Filter   trip.Filter  `json:"filter"`
	SortKey  trip.SortKey `json:"sort_by"`
	Routes   []trip.Route `json:"routes"`
	Total    int          `json:"total"`
}

// Routes returns a copy of the full, unfiltered route set
func (s *Search) Routes() []trip.Route {
	return append([]trip.Route(nil), s.routes...)
}

// Current returns the view selected by the latest refinement
func (s *Search) Current() Refinement {
	s.mu.Lock()
	f, key, rev := s.filter, s.sortKey, s.revision
	s.mu.Unlock()

	return Refinement{
		SearchID: s.ID,
		Revision: rev,
		Filter:   f,
		SortKey:  key,
		Routes:   trip.Refine(s.routes, f, key),
		Total:    len(s.routes),
	}
}

// refine recomputes from the full set and records the new state under a fresh revision
func (s *Search) refine(f trip.Filter, key trip.SortKey) Refinement {
	routes := trip.Refine(s.routes, f, key)
	f.Modes = append([]string{}, f.Modes...)

	s.mu.Lock()
	s.revision++
	rev := s.revision
	s.filter = f
	s.sortKey = key
	s.mu.Unlock()

	return Refinement{
		SearchID: s.ID,
		Revision: rev,
		Filter:   f,
		SortKey:  key,
		Routes:   routes,
		Total:    len(s.routes),
	}
}

// SearchStore is a size-bounded, expiring store of searches. It is safe for concurrent use.
type SearchStore struct {
	lru   *expirable.LRU[string, *Search]
	newID func() string
	ttl   time.Duration
}

// NewSearchStore creates a store holding at most size searches for ttl each.
// Non-positive values fall back to DefaultSize and DefaultTTL.
func NewSearchStore(size int, ttl time.Duration) *SearchStore {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	onEvict := func(id string, _ *Search) {
		slog.Debug("search evicted", "search_id", id)
	}

	return &SearchStore{
		lru:   expirable.NewLRU[string, *Search](size, onEvict, ttl),
		newID: uuid.NewString,
		ttl:   ttl,
	}
}

// TTL returns how long a search is kept
func (s *SearchStore) TTL() time.Duration {
	return s.ttl
}

// Put stores a copy of routes and returns the new search, initially showing
// every route sorted by the default key
func (s *SearchStore) Put(req SearchRequest, routes []trip.Route) *Search {
	stored := append([]trip.Route(nil), routes...)

	search := &Search{
		ID:        s.newID(),
		Request:   req,
		CreatedAt: time.Now(),
		routes:    stored,
		filter:    trip.DefaultFilter(stored),
		sortKey:   trip.DefaultSortKey,
	}

	s.lru.Add(search.ID, search)
	monitoring.UpdateSearchCacheSize(s.lru.Len())

	return search
}

// Get returns a stored search or ErrSearchNotFound
func (s *SearchStore) Get(id string) (*Search, error) {
	search, ok := s.lru.Get(id)
	if !ok {
		monitoring.RecordSearchCacheMiss()
		monitoring.UpdateSearchCacheSize(s.lru.Len())
		return nil, fmt.Errorf("search %q: %w", id, ErrSearchNotFound)
	}
	monitoring.RecordSearchCacheHit()
	return search, nil
}

// Refine filters and sorts the full route set of a stored search and makes
// the result the search's current view
func (s *SearchStore) Refine(id string, f trip.Filter, key trip.SortKey) (Refinement, error) {
	if err := f.Validate(); err != nil {
		return Refinement{}, err
	}

	search, err := s.Get(id)
	if err != nil {
		return Refinement{}, err
	}

	r := search.refine(f, key)
	monitoring.RecordRefine(string(key), len(r.Routes))
	return r, nil
}

// Len returns the number of live searches
func (s *SearchStore) Len() int {
	return s.lru.Len()
}

// Purge drops every stored search
func (s *SearchStore) Purge() {
	s.lru.Purge()
	monitoring.UpdateSearchCacheSize(0)
}

// Global store instance
var (
	globalStore   *SearchStore
	globalStoreMu sync.Mutex
)

// Global returns the process-wide search store, creating it with defaults on first use
func Global() *SearchStore {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()

	if globalStore == nil {
		globalStore = NewSearchStore(DefaultSize, DefaultTTL)
	}
	return globalStore
}

// SetGlobal replaces the process-wide search store
func SetGlobal(s *SearchStore) {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()
	globalStore = s
}
