package httptransport

import (
	"net/http"

	"pong-arena/internal/match"
)

type AdminHandlers struct {
	registry *match.Registry
	db       Pinger
}

func NewAdminHandlers(reg *match.Registry, db Pinger) *AdminHandlers {
	return &AdminHandlers{registry: reg, db: db}
}

// Health reports liveness. The database is only consulted when one is
// configured.
func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.db == nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		if err := h.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) Sessions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := h.registry.Summaries()
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	}
}
