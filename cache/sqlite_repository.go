package cache

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jmoiron/sqlx"
)

type repository struct {
	l   log.Logger
	db  *sqlx.DB
	ttl time.Duration
}

// NewRepository initializes a new response cache repository. Entries expire
// ttl after they are set.
func NewRepository(l log.Logger, db *sqlx.DB, ttl time.Duration) (*repository, error) {
	return &repository{
		l:   l,
		db:  db,
		ttl: ttl,
	}, nil
}

// Get returns the cached payload for a key. Expired entries count as a miss
// and are removed on the way out.
func (s *repository) Get(key string) (*Entry, bool, error) {
	var entry Entry
	err := s.db.Get(&entry, "SELECT * FROM response_cache WHERE key=$1", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	expires, err := time.Parse(time.RFC3339, entry.ExpiresAt)
	if err != nil || time.Now().After(expires) {
		if _, err := s.db.Exec("DELETE FROM response_cache WHERE key=$1", key); err != nil {
			level.Debug(s.l).Log("msg", "error pruning expired cache entry", "key", key, "err", err)
		}
		return nil, false, nil
	}
	return &entry, true, nil
}

// Set stores a payload under a key, replacing any previous entry.
func (s *repository) Set(key string, payload []byte) error {
	_, err := s.db.NamedExec("INSERT OR REPLACE INTO response_cache (key, payload, expires_at) VALUES (:key, :payload, :expires_at)",
		map[string]interface{}{
			"key":        key,
			"payload":    string(payload),
			"expires_at": time.Now().Add(s.ttl).Format(time.RFC3339),
		})
	return err
}
