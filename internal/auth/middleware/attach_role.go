package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/mind-engage/paperdesk/internal/rbac"
)

type RoleLookup interface {
	Role(ctx context.Context, username string) (string, error)
}

// AttachRoleFromDB replaces the token's role with the stored one, so role
// changes and deleted accounts take effect before the token expires.
// allowClaimFallback=true in dev/offline; false in prod.
func AttachRoleFromDB(users RoleLookup, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller := rbac.CallerFrom(ctx) // set by JWTMiddleware

			role, err := users.Role(ctx, caller.Username)
			switch {
			case err == nil && role != "":
				caller.Role = role
				next.ServeHTTP(w, r.WithContext(rbac.WithCaller(ctx, caller)))
			case errors.Is(err, sql.ErrNoRows):
				http.Error(w, "forbidden", http.StatusForbidden)
			case allowClaimFallback && caller.Role != "":
				// unknown DB error: lenient in dev
				next.ServeHTTP(w, r)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
