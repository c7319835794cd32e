package tenant

import (
	"context"
	"errors"
)

// ErrNoTenantContext means the authenticator never ran for this request.
// It is a deployment fault, not a client error.
var ErrNoTenantContext = errors.New("tenant context not found - middleware configuration error")

type contextKey struct{}

// Context is the per-request tenant scope. Its fields can only be populated
// from a registry Record.
type Context struct {
	tenantID    string
	displayName string
}

// NewContext builds the request scope for a resolved tenant.
func NewContext(rec Record) Context {
	return Context{tenantID: rec.ID, displayName: rec.DisplayName}
}

func (c Context) TenantID() string    { return c.tenantID }
func (c Context) DisplayName() string { return c.displayName }

// WithContext attaches tc to ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the tenant scope attached by the authenticator.
func FromContext(ctx context.Context) (Context, error) {
	tc, ok := ctx.Value(contextKey{}).(Context)
	if !ok || tc.tenantID == "" {
		return Context{}, ErrNoTenantContext
	}
	return tc, nil
}
