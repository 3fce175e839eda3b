package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/paperdesk/internal/catalog"
	"github.com/mind-engage/paperdesk/internal/paper"
	"github.com/mind-engage/paperdesk/internal/rbac"
)

const maxUpload = 10 << 20

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps store and domain errors onto status codes.
func respondError(w http.ResponseWriter, err error) {
	var ve *paper.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusUnprocessableEntity, ve)
	case errors.Is(err, paper.ErrNotFound), errors.Is(err, paper.ErrItemNotFound), errors.Is(err, catalog.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, paper.ErrLocked):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("request failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// csvParam splits a comma separated query parameter.
func csvParam(r *http.Request, name string) []string {
	var out []string
	for _, p := range strings.Split(r.URL.Query().Get(name), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// itemNumber reads {number}; numbers such as "3(b)(ii)" may arrive escaped.
func itemNumber(r *http.Request) string {
	n := chi.URLParam(r, "number")
	if u, err := url.PathUnescape(n); err == nil {
		return u
	}
	return n
}

// EventAppender is the audit log as the handlers see it.
type EventAppender interface {
	Append(ctx context.Context, typ, key, actor string, data any) error
}

// record appends an audit event. A failed append is logged and does not
// fail the request that caused it.
func record(r *http.Request, ev EventAppender, typ, key string, data any) {
	if ev == nil {
		return
	}
	if err := ev.Append(r.Context(), typ, key, rbac.CallerFrom(r.Context()).Username, data); err != nil {
		log.Printf("audit %s %s: %v", typ, key, err)
	}
}
