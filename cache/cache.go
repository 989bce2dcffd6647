package cache

// Repository is an interface for the response cache
type Repository interface {
	Get(key string) (*Entry, bool, error)
	Set(key string, payload []byte) error
}

// Entry is a struct for a cached response
type Entry struct {
	Key       string `db:"key"`
	Payload   string `db:"payload"`
	ExpiresAt string `db:"expires_at"`
}
