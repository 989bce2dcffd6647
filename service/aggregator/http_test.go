package aggregator

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/log"

	"github.com/archenova/observatory/cache"
	"github.com/archenova/observatory/feed"
)

// memoryCache is a map-backed stand-in for the sqlite response cache.
type memoryCache struct {
	entries map[string]string
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (m *memoryCache) Get(key string) (*cache.Entry, bool, error) {
	payload, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &cache.Entry{Key: key, Payload: payload}, true, nil
}

func (m *memoryCache) Set(key string, payload []byte) error {
	m.entries[key] = string(payload)
	m.sets++
	return nil
}

// brokenCache fails every read and write.
type brokenCache struct{}

func (brokenCache) Get(key string) (*cache.Entry, bool, error) {
	return nil, false, errors.New("database is locked")
}

func (brokenCache) Set(key string, payload []byte) error {
	return errors.New("database is locked")
}

func newTestHandler(r Resolver, cr cache.Repository) http.Handler {
	s := NewService(log.NewNopLogger(), r, &fakeFetcher{}, testCatalog(), "")
	return NewHandler(s, cr, 30, 60)
}

func TestFeedsHandler(t *testing.T) {
	h := newTestHandler(&fakeResolver{items: map[string][]feed.Item{
		"a1": {{Title: "one", URL: "https://1", Source: "A One", Published: d2}},
		"b1": {{Title: "two", URL: "https://2", Source: "B One", Published: d1}},
	}}, newMemoryCache())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?scope=all&limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var resp struct {
		OK      bool        `json:"ok"`
		Updated string      `json:"updated"`
		Items   []feed.Item `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.OK {
		t.Error("got ok=false, want ok=true")
	}
	if resp.Updated == "" {
		t.Error("missing updated timestamp")
	}
	if len(resp.Items) != 2 || resp.Items[0].Title != "one" {
		t.Errorf("got items %v, want newest-first pair", resp.Items)
	}
}

func TestFeedsHandlerTotalFailureIsStill200(t *testing.T) {
	h := newTestHandler(&fakeResolver{}, newMemoryCache())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?scope=all", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 even when every upstream failed", rec.Code)
	}
	var resp struct {
		OK    bool        `json:"ok"`
		Items []feed.Item `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.OK {
		t.Error("got ok=true, want ok=false")
	}
	if resp.Items == nil {
		t.Error("items must be an empty list, not null")
	}
}

func TestFeedsHandlerUnknownScopeIs400(t *testing.T) {
	h := newTestHandler(&fakeResolver{}, newMemoryCache())

	for _, target := range []string{"/?scope=bogus", "/?scope=category:nope"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got status %d, want 400", target, rec.Code)
		}
	}
}

func TestFeedsHandlerCaching(t *testing.T) {
	mc := newMemoryCache()
	h := newTestHandler(&fakeResolver{items: map[string][]feed.Item{
		"a1": {{Title: "one", URL: "https://1", Published: d1}},
	}}, mc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?scope=all", nil))
	if mc.sets != 1 {
		t.Fatalf("got %d cache writes, want 1", mc.sets)
	}
	first := rec.Body.String()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?scope=all", nil))
	if mc.sets != 1 {
		t.Errorf("got %d cache writes, want the second request served from cache", mc.sets)
	}
	if rec.Body.String() != first {
		t.Error("cached payload differs from the original response")
	}
}

func TestFeedsHandlerDoesNotCacheFailures(t *testing.T) {
	mc := newMemoryCache()
	h := newTestHandler(&fakeResolver{}, mc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?scope=all", nil))
	if mc.sets != 0 {
		t.Errorf("got %d cache writes, want 0 for an all-failed aggregate", mc.sets)
	}
}

func TestFeedsHandlerCacheErrorsServeLive(t *testing.T) {
	h := newTestHandler(&fakeResolver{items: map[string][]feed.Item{
		"a1": {{Title: "one", URL: "https://1", Source: "A One", Published: d1}},
	}}, brokenCache{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?scope=all", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 despite the cache failing", rec.Code)
	}
	var resp struct {
		OK    bool        `json:"ok"`
		Items []feed.Item `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.OK || len(resp.Items) != 1 {
		t.Errorf("got %+v, want a live aggregate", resp)
	}
}

func TestCategoriesHandler(t *testing.T) {
	h := newTestHandler(&fakeResolver{}, newMemoryCache())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var resp struct {
		OK         bool `json:"ok"`
		Categories []struct {
			ID      string   `json:"id"`
			Name    string   `json:"name"`
			Sources []string `json:"sources"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(resp.Categories))
	}
	if resp.Categories[0].ID != "alpha" || len(resp.Categories[0].Sources) != 2 {
		t.Errorf("got %+v, want alpha with its two source names", resp.Categories[0])
	}
}
