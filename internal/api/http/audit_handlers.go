package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mind-engage/paperdesk/internal/audit"
)

type EventSearcher interface {
	Search(ctx context.Context, q audit.Query) ([]audit.Event, error)
}

// GET /admin/audit?type=&key=&since=&limit=
func AuditSearchHandler(events EventSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		since, _ := strconv.ParseInt(q.Get("since"), 10, 64)
		list, err := events.Search(r.Context(), audit.Query{
			Type:  q.Get("type"),
			Key:   q.Get("key"),
			Since: since,
			Limit: parseIntDefault(q.Get("limit"), 100),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}
