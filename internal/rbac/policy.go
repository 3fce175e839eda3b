package rbac

import (
	"sort"
	"strings"
)

// Policy maps a role to the permissions it holds. A permission reads
// "resource:action"; "paper:*" grants every paper action and "*" grants
// everything.
type Policy map[string][]string

// Valid reports whether p defines role.
func (p Policy) Valid(role string) bool {
	_, ok := p[role]
	return ok
}

// Allows reports whether role holds perm.
func (p Policy) Allows(role, perm string) bool {
	for _, g := range p[role] {
		if grants(g, perm) {
			return true
		}
	}
	return false
}

func (p Policy) AllowsAny(role string, perms ...string) bool {
	for _, perm := range perms {
		if p.Allows(role, perm) {
			return true
		}
	}
	return false
}

// Grants lists the patterns role holds, sorted.
func (p Policy) Grants(role string) []string {
	out := append([]string(nil), p[role]...)
	sort.Strings(out)
	return out
}

func grants(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	res, act, ok := strings.Cut(pattern, ":")
	if !ok || act != "*" {
		return false
	}
	permRes, _, _ := strings.Cut(perm, ":")
	return permRes == res
}
