package httpx

import "context"

type ctxKey string

const (
	CtxKeyPrincipalID ctxKey = "principal_id"
	CtxKeyPrincipal   ctxKey = "principal"
)

// Principal is the verified identity AccessControl attaches to a request.
type Principal interface {
	PrincipalID() string
}

// WithPrincipal stores p (and its id) in ctx.
func WithPrincipal[P Principal](ctx context.Context, p P) context.Context {
	ctx = context.WithValue(ctx, CtxKeyPrincipalID, p.PrincipalID())
	return context.WithValue(ctx, CtxKeyPrincipal, p)
}

// PrincipalFrom returns the principal attached by AccessControl, if any.
func PrincipalFrom[P Principal](ctx context.Context) (P, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(P)
	return p, ok
}

func principalIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyPrincipalID).(string); ok {
		return v
	}
	return ""
}
