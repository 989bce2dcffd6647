package fragment

import "time"

// TTL is how long a fragment survives before it is pruned.
const TTL = 24 * time.Hour

// MaxRetained caps the store so it cannot grow without bound inside a TTL
// window.
const MaxRetained = 200

// Repository is an interface for the gate fragment store
type Repository interface {
	Add(text string) (*Fragment, error)
	List(limit int) ([]Fragment, error)
}

// Fragment is one short-lived visitor note
type Fragment struct {
	ID        string `db:"id" json:"id"`
	Text      string `db:"text" json:"text"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}
