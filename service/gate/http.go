package gate

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log/level"
)

const (
	defaultListLimit = 5
	maxListLimit     = 30
)

// NewHandler initializes the /gate API handler.
func NewHandler(s *service) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/fragments", listHandler(s))
	r.Post("/fragments", leaveHandler(s))

	return r
}

func listHandler(s *service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}

		items, err := s.Recent(limit)
		if err != nil {
			level.Error(s.l).Log("err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "items": items})
	}
}

func leaveHandler(s *service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "reason": "bad request"})
			return
		}

		f, reason, err := s.Leave(body.Text)
		if err != nil {
			level.Error(s.l).Log("err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false})
			return
		}
		if reason != "" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "reason": reason})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "item": f})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
