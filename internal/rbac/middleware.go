package rbac

import (
	"net/http"
)

func (p Policy) guard(allow func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := CallerFrom(r.Context()).Role
			if role == "" || !allow(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a single permission.
func (p Policy) Require(perm string) func(http.Handler) http.Handler {
	return p.guard(func(role string) bool { return p.Allows(role, perm) })
}

// RequireAny enforces that the role has at least one of the permissions.
func (p Policy) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return p.guard(func(role string) bool { return p.AllowsAny(role, perms...) })
}

// Require checks against DefaultPolicy.
func Require(perm string) func(http.Handler) http.Handler { return DefaultPolicy.Require(perm) }

func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return DefaultPolicy.RequireAny(perms...)
}
