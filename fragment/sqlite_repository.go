package fragment

import (
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type repository struct {
	l  log.Logger
	db *sqlx.DB
}

// NewRepository initializes a new gate fragment repository
func NewRepository(l log.Logger, db *sqlx.DB) (*repository, error) {
	return &repository{
		l:  l,
		db: db,
	}, nil
}

// Add stores a new fragment and returns it. Expired rows are pruned first
// and the store is trimmed to the newest MaxRetained entries afterwards.
func (s *repository) Add(text string) (*Fragment, error) {
	if err := s.prune(); err != nil {
		return nil, err
	}

	f := Fragment{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := s.db.NamedExec("INSERT INTO gate_fragments (id, text, created_at) VALUES (:id, :text, :created_at)",
		map[string]interface{}{
			"id":         f.ID,
			"text":       f.Text,
			"created_at": f.CreatedAt,
		})
	if err != nil {
		return nil, errors.Wrap(err, "inserting fragment")
	}

	if _, err := s.db.Exec(
		"DELETE FROM gate_fragments WHERE id NOT IN (SELECT id FROM gate_fragments ORDER BY created_at DESC LIMIT $1)",
		MaxRetained); err != nil {
		level.Debug(s.l).Log("msg", "error trimming fragment store", "err", err)
	}
	return &f, nil
}

// List returns up to limit fragments, newest first, pruning expired rows on
// the way so a fragment never outlives its TTL by being read.
func (s *repository) List(limit int) ([]Fragment, error) {
	if err := s.prune(); err != nil {
		return nil, err
	}

	fragments := []Fragment{}
	err := s.db.Select(&fragments, "SELECT * FROM gate_fragments ORDER BY created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing fragments")
	}
	return fragments, nil
}

func (s *repository) prune() error {
	cutoff := time.Now().UTC().Add(-TTL).Format(time.RFC3339)
	_, err := s.db.Exec("DELETE FROM gate_fragments WHERE created_at < $1", cutoff)
	return errors.Wrap(err, "pruning expired fragments")
}
