package gate

import (
	"regexp"
	"strings"

	"github.com/go-kit/log"

	"github.com/archenova/observatory/fragment"
)

const (
	maxTextRunes = 120
	minTextRunes = 6
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	// Crude personal-identifier screens: anything email-ish or phone-ish is
	// rejected rather than stored.
	reEmailish = regexp.MustCompile(`@`)
	rePhoneish = regexp.MustCompile(`\d{2,}-\d{2,}`)
)

// Service is an interface for the gate fragment service
type Service interface {
	Leave(text string) (*fragment.Fragment, string, error)
	Recent(limit int) ([]fragment.Fragment, error)
}

type service struct {
	l  log.Logger
	fr fragment.Repository
}

// NewService initializes a new gate fragment service
func NewService(l log.Logger, fr fragment.Repository) *service {
	return &service{
		l:  l,
		fr: fr,
	}
}

// sanitize folds the input into a single clamped line. Fragments are meant
// to be one short declaration, not free-form text.
func sanitize(input string) string {
	t := strings.TrimSpace(input)
	runes := []rune(t)
	if len(runes) > maxTextRunes {
		t = string(runes[:maxTextRunes])
	}
	return strings.TrimSpace(reWhitespace.ReplaceAllString(t, " "))
}

// Leave validates and stores a visitor fragment. A non-empty reason means
// the input was rejected; err reports storage trouble only.
func (s *service) Leave(text string) (*fragment.Fragment, string, error) {
	clean := sanitize(text)
	if len([]rune(clean)) < minTextRunes {
		return nil, "too short", nil
	}
	if reEmailish.MatchString(clean) || rePhoneish.MatchString(clean) {
		return nil, "no personal identifiers", nil
	}
	f, err := s.fr.Add(clean)
	if err != nil {
		return nil, "", err
	}
	return f, "", nil
}

// Recent returns up to limit fragments, newest first.
func (s *service) Recent(limit int) ([]fragment.Fragment, error) {
	return s.fr.List(limit)
}
