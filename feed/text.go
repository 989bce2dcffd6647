package feed

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reBreak      = regexp.MustCompile(`(?i)<br\s*/?>`)
	reParagraph  = regexp.MustCompile(`(?i)</p>`)
	reTag        = regexp.MustCompile(`<[^>]+>`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// StripHTML reduces a markup fragment to plain text: line breaks become
// newlines, paragraph ends become blank lines, every other tag is dropped,
// whitespace is collapsed and the five standard entities are decoded.
func StripHTML(html string) string {
	s := reBreak.ReplaceAllString(html, "\n")
	s = reParagraph.ReplaceAllString(s, "\n\n")
	s = reTag.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	return entityReplacer.Replace(strings.TrimSpace(s))
}

// Clamp truncates s to at most max runes without splitting a word, appending
// an ellipsis when anything was cut. When the cut lands mid-word it backs
// off to the last whitespace before it, which for very small budgets can
// leave nothing but the ellipsis itself.
func Clamp(s string, max int) string {
	t := strings.TrimSpace(s)
	runes := []rune(t)
	if len(runes) <= max {
		return t
	}
	cut := runes[:max]
	boundary := -1
	for i, r := range cut {
		if unicode.IsSpace(r) {
			boundary = i
		}
	}
	if boundary < 0 {
		return "…"
	}
	return strings.TrimRight(string(cut[:boundary]), " \t\n") + "…"
}
