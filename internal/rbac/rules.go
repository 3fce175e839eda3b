package rbac

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// DefaultPolicy is what the gateway enforces. Editors own papers and
// assets; only admins change the catalog, read the audit log or add users.
var DefaultPolicy = Policy{
	RoleViewer: {
		"paper:view",
		"catalog:view",
		"compliance:check",
		"resolve:run",
		"asset:view",
	},
	RoleEditor: {
		"paper:*",
		"catalog:view",
		"compliance:check",
		"resolve:run",
		"asset:*",
	},
	RoleAdmin: {
		"*", // everything
	},
}

// ValidRole reports whether DefaultPolicy defines role.
func ValidRole(role string) bool { return DefaultPolicy.Valid(role) }
