package http

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/paperdesk/internal/storage"
)

// MountAssets serves stored attachments: GET /assets/*
func MountAssets(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key, err := storage.CleanKey(chi.URLParam(r, "*")) // everything after /assets/
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rc, err := bs.Get(key)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			respondError(w, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", storage.ContentType(key))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_, _ = io.Copy(w, rc)
	})
}
