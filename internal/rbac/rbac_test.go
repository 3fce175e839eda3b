package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy

	assert.True(t, p.Allows(RoleViewer, "paper:view"))
	assert.False(t, p.Allows(RoleViewer, "paper:edit"))
	assert.True(t, p.Allows(RoleEditor, "paper:confirm"), "resource wildcard")
	assert.False(t, p.Allows(RoleEditor, "catalog:edit"))
	assert.False(t, p.Allows(RoleEditor, "audit:view"))
	assert.True(t, p.Allows(RoleAdmin, "audit:view"))
	assert.False(t, p.Allows("student", "paper:view"))

	assert.True(t, p.AllowsAny(RoleViewer, "paper:edit", "asset:view"))
	assert.False(t, p.AllowsAny(RoleViewer, "paper:edit", "catalog:edit"))

	assert.True(t, ValidRole(RoleEditor))
	assert.False(t, ValidRole("proctor"))
}

func TestPolicy_WildcardIsPerResource(t *testing.T) {
	p := Policy{"reviewer": {"paper:*", "asset:view"}}

	assert.True(t, p.Allows("reviewer", "paper:confirm"))
	assert.False(t, p.Allows("reviewer", "paperwork:edit"), "no bare prefix match")
	assert.False(t, p.Allows("reviewer", "asset:upload"))
	assert.True(t, p.Valid("reviewer"))
	assert.False(t, p.Valid(RoleAdmin))
	assert.Equal(t, []string{"asset:view", "paper:*"}, p.Grants("reviewer"))
	assert.Empty(t, p.Grants("nobody"))
}

func TestCallerFrom(t *testing.T) {
	assert.Equal(t, Caller{}, CallerFrom(context.Background()))

	ctx := WithCaller(context.Background(), Caller{Username: "ed", Role: RoleEditor})
	assert.Equal(t, "ed", CallerFrom(ctx).Username)
	assert.Equal(t, RoleEditor, CallerFrom(ctx).Role)
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require("paper:edit")(ok)

	cases := map[string]int{
		"":         http.StatusForbidden,
		RoleViewer: http.StatusForbidden,
		RoleEditor: http.StatusNoContent,
		RoleAdmin:  http.StatusNoContent,
	}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if role != "" {
			req = req.WithContext(WithCaller(req.Context(), Caller{Username: "u", Role: role}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %q", role)
	}
}

func TestPolicy_RequireAny(t *testing.T) {
	p := Policy{"reviewer": {"resolve:run"}}
	h := p.RequireAny("paper:edit", "resolve:run")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithCaller(req.Context(), Caller{Username: "r", Role: "reviewer"})))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithCaller(req.Context(), Caller{Username: "e", Role: RoleEditor})))
	assert.Equal(t, http.StatusForbidden, rec.Code, "editor is not in this policy")
}
