package auth

import "context"

type ctxKey struct{}

// WithClaims stores verified token claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, claims)
}

// ClaimsFromContext returns the claims placed by the bearer middleware, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(ctxKey{}).(*Claims)
	return claims, ok && claims != nil
}
