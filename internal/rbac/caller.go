package rbac

import "context"

// Caller is who a request acts for. The guards check Role; the audit log
// records Username as the actor of every paper and catalog change.
type Caller struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the zero Caller outside an authenticated request.
func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}
