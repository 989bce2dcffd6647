package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kit/log"
)

const chainRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>t</title><link>https://t</link><description>d</description>
<item><title>Mirror item</title><link>https://mirror/1</link><pubDate>Tue, 02 Jan 2024 00:00:00 +0000</pubDate></item>
</channel></rss>`

func newTestChain() *Chain {
	l := log.NewNopLogger()
	return NewChain(l, NewFetcher(l, "bot", time.Second), NewParser(l, 180))
}

func TestResolveFallsThroughToHealthyMirror(t *testing.T) {
	var attempts int32
	mux := http.NewServeMux()
	mux.HandleFunc("/blocked", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Write([]byte(chainRSS))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := Source{
		ID:   "mirrored",
		Name: "Mirrored",
		Endpoints: []Endpoint{
			{URL: srv.URL + "/blocked", Kind: EndpointFeed},
			{URL: srv.URL + "/blocked", Kind: EndpointFeed},
			{URL: srv.URL + "/good", Kind: EndpointFeed},
		},
	}
	items, trail := newTestChain().Resolve(context.Background(), src)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Title != "Mirror item" {
		t.Errorf("got title %q, want Mirror item", items[0].Title)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("got %d fetch attempts, want 3", got)
	}
	if len(trail) != 2 {
		t.Errorf("got trail %v, want one note per failed endpoint", trail)
	}
}

func TestResolveShortCircuitsOnFirstSuccess(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Write([]byte(chainRSS))
	}))
	defer srv.Close()

	src := Source{
		ID:   "mirrored",
		Name: "Mirrored",
		Endpoints: []Endpoint{
			{URL: srv.URL, Kind: EndpointFeed},
			{URL: srv.URL, Kind: EndpointFeed},
		},
	}
	items, trail := newTestChain().Resolve(context.Background(), src)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("got %d fetch attempts, want 1 (remaining mirrors skipped)", got)
	}
	if len(trail) != 0 {
		t.Errorf("got trail %v, want empty", trail)
	}
}

func TestResolveExhaustedChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := Source{
		ID:   "down",
		Name: "Down",
		Endpoints: []Endpoint{
			{URL: srv.URL, Kind: EndpointFeed},
			{URL: srv.URL, Kind: EndpointFeed},
		},
	}
	items, trail := newTestChain().Resolve(context.Background(), src)

	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
	if len(trail) != 2 {
		t.Errorf("got trail %v, want a note for every endpoint", trail)
	}
}

func TestResolvePageAutodiscovery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
<link rel="alternate" type="application/rss+xml" href="/discovered.xml">
</head><body>news page</body></html>`))
	})
	mux.HandleFunc("/discovered.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chainRSS))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := Source{
		ID:        "paged",
		Name:      "Paged",
		Endpoints: []Endpoint{{URL: srv.URL + "/news", Kind: EndpointPage}},
	}
	items, _ := newTestChain().Resolve(context.Background(), src)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 from the discovered feed", len(items))
	}
	if items[0].Title != "Mirror item" {
		t.Errorf("got title %q, want the feed item, not the page", items[0].Title)
	}
}

func TestResolvePageMetaFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
<meta property="og:title" content="Plain Newsroom">
<meta property="og:description" content="No feed advertised here.">
</head><body></body></html>`))
	}))
	defer srv.Close()

	src := Source{
		ID:        "plain",
		Name:      "Plain",
		Endpoints: []Endpoint{{URL: srv.URL, Kind: EndpointPage}},
	}
	items, _ := newTestChain().Resolve(context.Background(), src)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 distilled from page metadata", len(items))
	}
	it := items[0]
	if it.Title != "Plain Newsroom" {
		t.Errorf("got title %q, want og:title", it.Title)
	}
	if it.URL != srv.URL {
		t.Errorf("got url %q, want the page url", it.URL)
	}
	if !it.Published.IsZero() {
		t.Errorf("got %s, want zero time for a dateless page item", it.Published)
	}
}

func TestResolveProfileNeedsNoNetwork(t *testing.T) {
	src := Source{
		ID:        "handle",
		Name:      "Someone (X)",
		Note:      "Open the official profile.",
		Endpoints: []Endpoint{{URL: "https://x.com/someone", Kind: EndpointProfile}},
	}
	items, trail := newTestChain().Resolve(context.Background(), src)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 static profile item", len(items))
	}
	if items[0].URL != "https://x.com/someone" {
		t.Errorf("got url %q, want the profile link", items[0].URL)
	}
	if items[0].Title != "Open the official profile." {
		t.Errorf("got title %q, want the source note", items[0].Title)
	}
	if len(trail) != 0 {
		t.Errorf("got trail %v, want empty", trail)
	}
}
