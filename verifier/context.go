package verifier

import (
	"context"

	"github.com/dioad/sigv4/sigv4"
)

type principalKey struct{}
type sessionDataKey struct{}

// newContextWithPrincipal attaches p to ctx, retrievable with
// PrincipalFromContext.
func newContextWithPrincipal(ctx context.Context, p sigv4.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the Principal a Handler attached to ctx, and
// whether one was present.
func PrincipalFromContext(ctx context.Context) (sigv4.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(sigv4.Principal)
	return p, ok
}

func newContextWithSessionData(ctx context.Context, s sigv4.SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, s)
}

// SessionDataFromContext returns the SessionData a Handler attached to
// ctx, and whether any was present.
func SessionDataFromContext(ctx context.Context) (sigv4.SessionData, bool) {
	s, ok := ctx.Value(sessionDataKey{}).(sigv4.SessionData)
	return s, ok
}
