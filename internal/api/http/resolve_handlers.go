package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/paperdesk/internal/catalog"
	"github.com/mind-engage/paperdesk/internal/paper"
	"github.com/mind-engage/paperdesk/internal/resolve"
)

// POST /resolve  { "metadata": {...} } or { "header": {...} }
// A header is run through extraction first; metadata is matched as given.
// No match is a 200 with confidence 0; a catalog failure is a 502.
func ResolveHandler(x *resolve.Extractor, rs *resolve.Resolver, cat catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Metadata paper.Metadata `json:"metadata"`
			Header   paper.Header   `json:"header"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		md := req.Metadata
		if len(req.Header) > 0 {
			md = x.Extract(req.Header)
		}
		m, err := rs.MatchFrom(r.Context(), cat, md)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"metadata": md, "match": m})
	}
}
