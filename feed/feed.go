package feed

import (
	"time"
)

// Item is one normalized syndication entry. URL is the dedupe key; a zero
// Published means the date couldn't be parsed and the item sorts last.
type Item struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Summary   string    `json:"summary,omitempty"`
	Source    string    `json:"source"`
	Group     string    `json:"group,omitempty"`
	Published time.Time `json:"publishedAt"`
}

// EndpointKind selects how an endpoint is turned into items.
type EndpointKind string

const (
	// EndpointFeed is a direct RSS/Atom URL.
	EndpointFeed EndpointKind = "feed"
	// EndpointPage is an HTML page; we autodiscover a feed link on it and
	// fall back to its og: metadata when there is none.
	EndpointPage EndpointKind = "page"
	// EndpointProfile is a link-only surface (e.g. an X profile) that we
	// present as a single static item instead of scraping.
	EndpointProfile EndpointKind = "profile"
)

// Endpoint is one physical URL backing a logical source.
type Endpoint struct {
	URL  string
	Kind EndpointKind
}

// Source is a named feed identity backed by an ordered list of mirror
// endpoints, tried in sequence until one yields items.
type Source struct {
	ID        string
	Name      string
	Note      string
	Endpoints []Endpoint
}

// Category groups sources under a display name and an observation label.
type Category struct {
	ID          string
	Name        string
	Observation string
	Sources     []Source
}

// Catalog is the static category/source index. It is built once at startup
// and read-only afterwards, so concurrent lookups need no locking.
type Catalog struct {
	categories []Category
}

// NewCatalog builds a catalog from an ordered list of categories.
func NewCatalog(categories []Category) Catalog {
	return Catalog{categories: categories}
}

// Categories returns all categories in configured order.
func (c Catalog) Categories() []Category {
	return c.categories
}

// Category looks up a single category by id.
func (c Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Source looks up a single source by id, returning the display name of the
// category it belongs to.
func (c Catalog) Source(id string) (Source, string, bool) {
	for _, cat := range c.categories {
		for _, src := range cat.Sources {
			if src.ID == id {
				return src, cat.Name, true
			}
		}
	}
	return Source{}, "", false
}
