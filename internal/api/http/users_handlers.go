package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	auth "github.com/mind-engage/paperdesk/internal/auth/middleware"
)

type UserCreator interface {
	CreateUser(ctx context.Context, username, password, role string) error
}

// POST /admin/users  { "username": "...", "password": "...", "role": "editor" }
func CreateUserHandler(users UserCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := users.CreateUser(r.Context(), req.Username, req.Password, req.Role); err != nil {
			if errors.Is(err, auth.ErrUnknownRole) || errors.Is(err, auth.ErrInvalidUser) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]string{"username": req.Username, "role": req.Role})
	}
}
