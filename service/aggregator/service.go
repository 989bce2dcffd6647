package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/archenova/observatory/feed"
)

// Resolver turns one logical source into items plus a diagnostic trail.
type Resolver interface {
	Resolve(ctx context.Context, src feed.Source) ([]feed.Item, []string)
}

// Fetcher is the single-endpoint fetch contract, used for the latest-post
// widget scrape.
type Fetcher interface {
	Fetch(ctx context.Context, url string) feed.Outcome
}

// ScopeKind selects which sources an aggregate call covers.
type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeCategory
	ScopeSource
)

// Scope is a parsed request scope.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// ParseScope parses the wire form "all", "category:<id>" or "source:<id>".
// An empty string means all.
func ParseScope(s string) (Scope, error) {
	switch {
	case s == "" || s == "all":
		return Scope{Kind: ScopeAll}, nil
	case strings.HasPrefix(s, "category:"):
		id := strings.TrimPrefix(s, "category:")
		if id == "" {
			return Scope{}, fmt.Errorf("empty category id")
		}
		return Scope{Kind: ScopeCategory, ID: id}, nil
	case strings.HasPrefix(s, "source:"):
		id := strings.TrimPrefix(s, "source:")
		if id == "" {
			return Scope{}, fmt.Errorf("empty source id")
		}
		return Scope{Kind: ScopeSource, ID: id}, nil
	default:
		return Scope{}, fmt.Errorf("unknown scope %q", s)
	}
}

// Post is the single most recent post scraped from the X widget.
type Post struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// service aggregates items across logical sources: concurrent fan-out over
// the chains, then a deterministic merge (dedupe by URL first-wins, stable
// sort by recency, truncate). Source failures contribute zero items and
// never fail the call.
type service struct {
	l              log.Logger
	resolver       Resolver
	fetcher        Fetcher
	catalog        feed.Catalog
	latestPostUser string
	reStatusLink   *regexp.Regexp
}

// NewService initializes an aggregator service over the given catalog.
func NewService(l log.Logger, resolver Resolver, fetcher Fetcher, catalog feed.Catalog, latestPostUser string) *service {
	s := &service{
		l:              l,
		resolver:       resolver,
		fetcher:        fetcher,
		catalog:        catalog,
		latestPostUser: latestPostUser,
	}
	if latestPostUser != "" {
		s.reStatusLink = regexp.MustCompile(`https://(?:x|twitter)\.com/` + regexp.QuoteMeta(latestPostUser) + `/status/\d+`)
	}
	return s
}

// task pairs a source with the display label of its category, stamped onto
// every item the source produces.
type task struct {
	src   feed.Source
	group string
}

func (s *service) tasksFor(scope Scope) ([]task, error) {
	switch scope.Kind {
	case ScopeAll:
		var tasks []task
		for _, cat := range s.catalog.Categories() {
			for _, src := range cat.Sources {
				tasks = append(tasks, task{src: src, group: cat.Name})
			}
		}
		return tasks, nil
	case ScopeCategory:
		cat, ok := s.catalog.Category(scope.ID)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", scope.ID)
		}
		var tasks []task
		for _, src := range cat.Sources {
			tasks = append(tasks, task{src: src, group: cat.Name})
		}
		return tasks, nil
	case ScopeSource:
		src, group, ok := s.catalog.Source(scope.ID)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", scope.ID)
		}
		return []task{{src: src, group: group}}, nil
	default:
		return nil, fmt.Errorf("unknown scope kind %d", scope.Kind)
	}
}

// Aggregate resolves every source in scope concurrently and merges the
// results. The returned slice holds at most limit items; an empty slice is
// a valid outcome when every upstream failed. The error only reports an
// unresolvable scope, never upstream trouble.
func (s *service) Aggregate(ctx context.Context, scope Scope, limit int) ([]feed.Item, error) {
	tasks, err := s.tasksFor(scope)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}

	// One goroutine per source, results land in per-source slots so the
	// concat order is the catalog order no matter which fetch finishes
	// first. No state is shared between resolutions.
	results := make([][]feed.Item, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			items, trail := s.resolver.Resolve(ctx, t.src)
			for _, note := range trail {
				level.Debug(s.l).Log("msg", "endpoint produced nothing", "source", t.src.ID, "note", note)
			}
			if len(items) == 0 {
				level.Info(s.l).Log("msg", "source produced no items", "source", t.src.ID, "attempts", len(trail))
			}
			for j := range items {
				items[j].Group = t.group
			}
			results[i] = items
		}(i, t)
	}
	wg.Wait()

	var merged []feed.Item
	for _, items := range results {
		merged = append(merged, items...)
	}
	merged = dedupeByURL(merged)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Published.After(merged[j].Published)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// Categories enumerates the configured categories.
func (s *service) Categories() []feed.Category {
	return s.catalog.Categories()
}

// dedupeByURL keeps the first occurrence of every URL, preserving order.
func dedupeByURL(items []feed.Item) []feed.Item {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if seen[it.URL] {
			continue
		}
		seen[it.URL] = true
		out = append(out, it)
	}
	return out
}

var rePostParagraph = regexp.MustCompile(`(?i)<p[^>]*>[\s\S]*?</p>`)

// LatestPost scrapes the X syndication widget for the newest post of the
// configured account. Any failure reports ok=false; the widget is best
// effort only.
func (s *service) LatestPost(ctx context.Context) (Post, bool) {
	if s.latestPostUser == "" {
		return Post{}, false
	}
	oc := s.fetcher.Fetch(ctx, "https://cdn.syndication.twimg.com/widgets/timelines/profile?screen_name="+s.latestPostUser+"&lang=en")
	if !oc.OK() {
		return Post{}, false
	}
	var widget struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal(oc.Body, &widget); err != nil || widget.Body == "" {
		return Post{}, false
	}

	url := s.reStatusLink.FindString(widget.Body)
	if url == "" {
		return Post{}, false
	}

	content := feed.StripHTML(rePostParagraph.FindString(widget.Body))
	if content == "" {
		content = "Open the latest post on X →"
	}
	return Post{URL: url, Content: content}, true
}
