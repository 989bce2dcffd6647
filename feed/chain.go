package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Chain resolves a logical source by walking its mirror endpoints in order
// until one yields at least one item. Mirrors for scraping-hostile sources
// get blocked unpredictably, so a single static endpoint would fail silently
// far too often; the chain trades a little latency for availability.
type Chain struct {
	l       log.Logger
	fetcher *Fetcher
	parser  *Parser
}

// NewChain initializes a fallback chain resolver.
func NewChain(l log.Logger, fetcher *Fetcher, parser *Parser) *Chain {
	return &Chain{
		l:       l,
		fetcher: fetcher,
		parser:  parser,
	}
}

// Resolve tries src's endpoints sequentially and returns the first non-empty
// item list, plus a diagnostic trail describing every attempt that produced
// nothing. Exhausting the chain returns an empty list and the full trail;
// that is a valid outcome, not an error.
func (c *Chain) Resolve(ctx context.Context, src Source) ([]Item, []string) {
	var trail []string
	for _, ep := range src.Endpoints {
		var items []Item
		var note string
		switch ep.Kind {
		case EndpointProfile:
			items = c.profileItem(src, ep)
		case EndpointPage:
			items, note = c.resolvePage(ctx, src, ep)
		default:
			items, note = c.resolveFeed(ctx, src, ep)
		}
		if len(items) > 0 {
			level.Debug(c.l).Log("msg", "endpoint resolved", "source", src.ID, "url", ep.URL, "items", len(items))
			return items, trail
		}
		trail = append(trail, fmt.Sprintf("%s: %s", ep.URL, note))
	}
	return nil, trail
}

func (c *Chain) resolveFeed(ctx context.Context, src Source, ep Endpoint) ([]Item, string) {
	oc := c.fetcher.Fetch(ctx, ep.URL)
	if !oc.OK() {
		return nil, oc.String()
	}
	items := c.parser.Parse(oc.Body, src.Name)
	if len(items) == 0 {
		return nil, "no items parsed"
	}
	return items, ""
}

// resolvePage handles HTML endpoints: autodiscover an advertised feed and
// parse that, else distill the page's og: metadata into a single item.
func (c *Chain) resolvePage(ctx context.Context, src Source, ep Endpoint) ([]Item, string) {
	oc := c.fetcher.Fetch(ctx, ep.URL)
	if !oc.OK() {
		return nil, oc.String()
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(oc.Body))
	if err != nil {
		return nil, fmt.Sprintf("html parse: %v", err)
	}

	if feedURL := discoverFeedURL(doc, ep.URL); feedURL != "" {
		if items, _ := c.resolveFeed(ctx, src, Endpoint{URL: feedURL, Kind: EndpointFeed}); len(items) > 0 {
			return items, ""
		}
	}

	if item, ok := pageItem(doc, ep.URL, src.Name); ok {
		item.Summary = Clamp(item.Summary, c.parser.summaryMax)
		return []Item{item}, ""
	}
	return nil, "no feed link, no og metadata"
}

// profileItem presents a link-only surface as one static item. The profile
// is not scraped; the date is unknown so the sentinel zero time applies.
func (c *Chain) profileItem(src Source, ep Endpoint) []Item {
	title := src.Note
	if title == "" {
		title = "Open the official profile"
	}
	return []Item{{
		Title:   title,
		URL:     ep.URL,
		Summary: "This surface is observed via official link (no scraping).",
		Source:  src.Name,
	}}
}

// discoverFeedURL finds an RSS/Atom alternate link advertised by the page,
// resolved against the page URL.
func discoverFeedURL(doc *goquery.Document, pageURL string) string {
	selectors := []string{
		`link[rel="alternate"][type="application/rss+xml"]`,
		`link[rel="alternate"][type="application/atom+xml"]`,
		`link[type="application/rss+xml"]`,
		`link[type="application/atom+xml"]`,
	}
	for _, sel := range selectors {
		if href, ok := doc.Find(sel).First().Attr("href"); ok && href != "" {
			return absoluteURL(pageURL, href)
		}
	}
	return ""
}

// pageItem distills a page into a single item from its og:/meta tags.
func pageItem(doc *goquery.Document, pageURL, sourceName string) (Item, bool) {
	title, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		return Item{}, false
	}
	desc, _ := doc.Find(`meta[property="og:description"]`).First().Attr("content")
	if strings.TrimSpace(desc) == "" {
		desc, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	}
	return Item{
		Title:   title,
		URL:     pageURL,
		Summary: StripHTML(desc),
		Source:  sourceName,
	}, true
}

func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
