package auth

import (
	"context"

	"rentio/pkg/model"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID string
	Email  string
	Role   model.Role
}

func (p *Principal) IsTenant() bool {
	return p.Role == model.RoleTenant
}

func (p *Principal) IsLandlord() bool {
	return p.Role == model.RoleLandlord
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the authenticated caller, or nil for anonymous
// requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
