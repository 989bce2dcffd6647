package feed

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mmcdole/gofeed"
)

var (
	reRSSItem   = regexp.MustCompile(`(?is)<item\b[^>]*>.*?</item>`)
	reAtomEntry = regexp.MustCompile(`(?is)<entry\b[^>]*>.*?</entry>`)
	reLinkHref  = regexp.MustCompile(`(?i)<link[^>]*\bhref="([^"]+)"`)
	reCDATA     = regexp.MustCompile(`<!\[CDATA\[|\]\]>`)
)

// pickRe holds one capture regex per tag we scan for. Built up front so the
// per-item hot loop never compiles.
var pickRe = map[string]*regexp.Regexp{}

func init() {
	for _, tag := range []string{
		"title", "link", "guid", "description", "content:encoded",
		"pubDate", "dc:date", "summary", "content", "updated", "published",
	} {
		pickRe[tag] = regexp.MustCompile(fmt.Sprintf(`(?is)<%s[^>]*>(.*?)</%s>`, tag, tag))
	}
}

// dateFormats are tried in order for date fields the permissive scanner
// pulls out of raw markup. gofeed handles its own date parsing.
var dateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

// Parser converts raw RSS/Atom markup into normalized items. It is total:
// unparseable input yields an empty slice, never an error. A tolerant
// structured parse is tried first; feeds too malformed for that go through
// permissive regex scanning, RSS items before Atom entries, first non-empty
// shape wins.
type Parser struct {
	l          log.Logger
	summaryMax int
}

// NewParser initializes a parser with the given summary character budget.
func NewParser(l log.Logger, summaryMax int) *Parser {
	return &Parser{
		l:          l,
		summaryMax: summaryMax,
	}
}

// Parse extracts items from raw feed markup, labeling each with sourceName.
// Items without a usable title or URL are dropped. Document order is
// preserved; ordering by recency is the aggregator's job.
func (p *Parser) Parse(raw []byte, sourceName string) []Item {
	if items := p.parseStructured(raw, sourceName); len(items) > 0 {
		return items
	}
	if items := p.scanRSS(string(raw), sourceName); len(items) > 0 {
		return items
	}
	return p.scanAtom(string(raw), sourceName)
}

func (p *Parser) parseStructured(raw []byte, sourceName string) []Item {
	parsed, err := gofeed.NewParser().ParseString(string(raw))
	if err != nil {
		level.Debug(p.l).Log("msg", "structured parse failed, falling back to scanning", "source", sourceName, "err", err)
		return nil
	}
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		title := StripHTML(entry.Title)
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			link = strings.TrimSpace(entry.GUID)
		}
		if title == "" || link == "" {
			continue
		}
		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}
		var published time.Time
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}
		items = append(items, Item{
			Title:     title,
			URL:       link,
			Summary:   Clamp(StripHTML(summary), p.summaryMax),
			Source:    sourceName,
			Published: published,
		})
	}
	return items
}

func (p *Parser) scanRSS(xml string, sourceName string) []Item {
	var items []Item
	for _, block := range reRSSItem.FindAllString(xml, -1) {
		title := StripHTML(pick(block, "title"))
		link := StripHTML(pick(block, "link"))
		if link == "" {
			link = StripHTML(pick(block, "guid"))
		}
		if title == "" || link == "" {
			continue
		}
		desc := pick(block, "description")
		if desc == "" {
			desc = pick(block, "content:encoded")
		}
		date := pick(block, "pubDate")
		if date == "" {
			date = pick(block, "dc:date")
		}
		items = append(items, Item{
			Title:     title,
			URL:       link,
			Summary:   Clamp(StripHTML(desc), p.summaryMax),
			Source:    sourceName,
			Published: parseDate(date),
		})
	}
	return items
}

func (p *Parser) scanAtom(xml string, sourceName string) []Item {
	var items []Item
	for _, block := range reAtomEntry.FindAllString(xml, -1) {
		title := StripHTML(pick(block, "title"))
		link := pickLinkHref(block)
		if title == "" || link == "" {
			continue
		}
		sum := pick(block, "summary")
		if sum == "" {
			sum = pick(block, "content")
		}
		date := pick(block, "updated")
		if date == "" {
			date = pick(block, "published")
		}
		items = append(items, Item{
			Title:     title,
			URL:       link,
			Summary:   Clamp(StripHTML(sum), p.summaryMax),
			Source:    sourceName,
			Published: parseDate(date),
		})
	}
	return items
}

// pick returns the inner text of the first occurrence of tag in block, with
// any CDATA wrapper removed.
func pick(block, tag string) string {
	m := pickRe[tag].FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(reCDATA.ReplaceAllString(m[1], ""))
}

// pickLinkHref returns the href attribute of the first <link> tag. Atom
// carries the URL in the attribute, not the element text.
func pickLinkHref(block string) string {
	m := reLinkHref.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseDate tries each known format and falls back to the zero time, so an
// unparseable date sorts the item last instead of dropping it.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
