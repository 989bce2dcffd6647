package aggregator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log/level"

	"github.com/archenova/observatory/cache"
	"github.com/archenova/observatory/feed"
)

// feedsResponse is the wire shape of an aggregate call. Upstream failure is
// never a transport error: an all-failed aggregate is ok=false with HTTP 200.
type feedsResponse struct {
	OK      bool        `json:"ok"`
	Updated string      `json:"updated,omitempty"`
	Items   []feed.Item `json:"items"`
}

type categoryResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Observation string   `json:"observation,omitempty"`
	Sources     []string `json:"sources"`
}

// NewHandler initializes the /feeds API handler.
func NewHandler(s *service, cr cache.Repository, defaultLimit, maxLimit int) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/", feedsHandler(s, cr, defaultLimit, maxLimit))
	r.Get("/categories", categoriesHandler(s))
	r.Get("/latest-post", latestPostHandler(s))

	return r
}

func feedsHandler(s *service, cr cache.Repository, defaultLimit, maxLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := ParseScope(r.URL.Query().Get("scope"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, feedsResponse{OK: false, Items: []feed.Item{}})
			return
		}

		limit := defaultLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				limit = n
			}
		}
		if limit > maxLimit {
			limit = maxLimit
		}

		cacheKey := fmt.Sprintf("feeds:%d:%s:%d", scope.Kind, scope.ID, limit)
		if entry, ok, err := cr.Get(cacheKey); err != nil {
			level.Error(s.l).Log("msg", "cache read failed, serving live", "key", cacheKey, "err", err)
		} else if ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Write([]byte(entry.Payload))
			return
		}

		items, err := s.Aggregate(r.Context(), scope, limit)
		if err != nil {
			// Unresolvable scope is the caller's mistake, unlike upstream
			// failure which stays a 200.
			writeJSON(w, http.StatusBadRequest, feedsResponse{OK: false, Items: []feed.Item{}})
			return
		}
		if items == nil {
			items = []feed.Item{}
		}

		resp := feedsResponse{
			OK:      len(items) > 0,
			Updated: time.Now().UTC().Format(time.RFC3339),
			Items:   items,
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			level.Error(s.l).Log("err", err)
			return
		}
		// Only successful aggregates are cached; a blocked upstream should
		// be retried on the next request, not remembered for the TTL.
		if resp.OK {
			if err := cr.Set(cacheKey, payload); err != nil {
				level.Error(s.l).Log("msg", "cache write failed", "key", cacheKey, "err", err)
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(payload)
	}
}

func categoriesHandler(s *service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories := make([]categoryResponse, 0)
		for _, cat := range s.Categories() {
			names := make([]string, 0, len(cat.Sources))
			for _, src := range cat.Sources {
				names = append(names, src.Name)
			}
			categories = append(categories, categoryResponse{
				ID:          cat.ID,
				Name:        cat.Name,
				Observation: cat.Observation,
				Sources:     names,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":         true,
			"categories": categories,
		})
	}
}

func latestPostHandler(s *service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, ok := s.LatestPost(r.Context())
		if !ok {
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"url":     post.URL,
			"content": post.Content,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
