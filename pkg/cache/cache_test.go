package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/trip"
)

func synthesize(t *testing.T) []trip.Route {
	t.Helper()
	s := trip.NewSynthesizer(nil, trip.WithWaitSource(trip.FixedWait(5)))
	routes, err := s.Synthesize("nyc-jfk", "nyc-ts", "09:00")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	return routes
}

func TestPutAndGet(t *testing.T) {
	store := NewSearchStore(10, time.Minute)
	routes := synthesize(t)

	req := SearchRequest{OriginID: "nyc-jfk", DestinationID: "nyc-ts", Departure: "09:00"}
	search := store.Put(req, routes)

	if search.ID == "" {
		t.Fatal("Expected a search id")
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 search, got %d", store.Len())
	}

	got, err := store.Get(search.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Request != req {
		t.Errorf("Request = %+v, want %+v", got.Request, req)
	}

	cur := got.Current()
	if cur.Revision != 0 || cur.SortKey != trip.SortByDuration {
		t.Errorf("unexpected initial state: rev=%d key=%s", cur.Revision, cur.SortKey)
	}
	if len(cur.Routes) != len(routes) || cur.Total != len(routes) {
		t.Errorf("initial view has %d of %d routes", len(cur.Routes), cur.Total)
	}
}

func TestGetMissing(t *testing.T) {
	store := NewSearchStore(10, time.Minute)

	_, err := store.Get("does-not-exist")
	if !errors.Is(err, ErrSearchNotFound) {
		t.Errorf("Expected ErrSearchNotFound, got %v", err)
	}
}

func TestPutCopiesRoutes(t *testing.T) {
	store := NewSearchStore(10, time.Minute)
	routes := synthesize(t)

	search := store.Put(SearchRequest{}, routes)
	routes[0].Price = 999

	if search.Routes()[0].Price == 999 {
		t.Error("stored routes must not alias the caller's slice")
	}

	out := search.Routes()
	out[0].Price = 999
	if search.Routes()[0].Price == 999 {
		t.Error("Routes must return a copy")
	}
}

func TestRefineAlwaysUsesFullSet(t *testing.T) {
	store := NewSearchStore(10, time.Minute)
	search := store.Put(SearchRequest{}, synthesize(t))

	r1, err := store.Refine(search.ID, trip.Filter{Modes: []string{"walk"}}, trip.SortByPrice)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if len(r1.Routes) != 1 || r1.Revision != 1 {
		t.Fatalf("first refine: %d routes, revision %d", len(r1.Routes), r1.Revision)
	}

	// A wider filter after a narrow one must see every route again.
	all := trip.DefaultFilter(search.Routes())
	r2, err := store.Refine(search.ID, all, trip.SortByPrice)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if len(r2.Routes) != 11 || r2.Revision != 2 {
		t.Errorf("second refine: %d routes, revision %d", len(r2.Routes), r2.Revision)
	}
	if r2.Routes[0].ModeID != "walk" {
		t.Errorf("cheapest route = %s, want walk", r2.Routes[0].ModeID)
	}

	cur := search.Current()
	if cur.Revision != 2 || cur.SortKey != trip.SortByPrice || len(cur.Routes) != 11 {
		t.Errorf("current state not updated: %+v", cur)
	}
}

func TestRefineErrors(t *testing.T) {
	store := NewSearchStore(10, time.Minute)
	search := store.Put(SearchRequest{}, synthesize(t))

	if _, err := store.Refine("missing", trip.Filter{}, trip.SortByPrice); !errors.Is(err, ErrSearchNotFound) {
		t.Errorf("Expected ErrSearchNotFound, got %v", err)
	}

	neg := -1.0
	if _, err := store.Refine(search.ID, trip.Filter{MaxPrice: &neg}, trip.SortByPrice); !errors.Is(err, trip.ErrInvalidFilter) {
		t.Errorf("Expected ErrInvalidFilter, got %v", err)
	}
	if search.Current().Revision != 0 {
		t.Error("a rejected refinement must not change state")
	}
}

func TestConcurrentRefine(t *testing.T) {
	store := NewSearchStore(10, time.Minute)
	search := store.Put(SearchRequest{}, synthesize(t))
	modes := trip.DefaultFilter(search.Routes()).Modes

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := trip.SortKeys()[i%len(trip.SortKeys())]
			if _, err := store.Refine(search.ID, trip.Filter{Modes: modes}, key); err != nil {
				t.Errorf("Refine: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if rev := search.Current().Revision; rev != n {
		t.Errorf("revision = %d, want %d", rev, n)
	}
}

func TestCapacityEviction(t *testing.T) {
	store := NewSearchStore(2, time.Minute)
	routes := synthesize(t)

	first := store.Put(SearchRequest{Departure: "01:00"}, routes)
	store.Put(SearchRequest{Departure: "02:00"}, routes)
	store.Put(SearchRequest{Departure: "03:00"}, routes)

	if store.Len() != 2 {
		t.Errorf("Expected 2 searches, got %d", store.Len())
	}
	if _, err := store.Get(first.ID); !errors.Is(err, ErrSearchNotFound) {
		t.Errorf("oldest search should have been evicted, got %v", err)
	}
}

func TestExpiration(t *testing.T) {
	store := NewSearchStore(10, 20*time.Millisecond)
	search := store.Put(SearchRequest{}, synthesize(t))

	time.Sleep(60 * time.Millisecond)

	if _, err := store.Get(search.ID); !errors.Is(err, ErrSearchNotFound) {
		t.Errorf("search should have expired, got %v", err)
	}
}

func TestPurge(t *testing.T) {
	store := NewSearchStore(10, time.Minute)
	store.Put(SearchRequest{}, nil)
	store.Put(SearchRequest{}, nil)

	store.Purge()
	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d", store.Len())
	}
}

func TestDefaults(t *testing.T) {
	store := NewSearchStore(0, 0)
	if store.TTL() != DefaultTTL {
		t.Errorf("TTL = %v, want %v", store.TTL(), DefaultTTL)
	}
}

func TestGlobal(t *testing.T) {
	old := Global()
	defer SetGlobal(old)

	custom := NewSearchStore(5, time.Minute)
	SetGlobal(custom)
	if Global() != custom {
		t.Error("SetGlobal did not replace the global store")
	}
}
