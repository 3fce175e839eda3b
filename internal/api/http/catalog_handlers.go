package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/paperdesk/internal/catalog"
)

// GET /catalog
func ListCatalogHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListEntries(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// POST /catalog  upserts one data structure with its region, program,
// provider and subject rows.
func PutCatalogEntryHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e catalog.Entry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := e.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutEntry(r.Context(), e); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, e)
	}
}
