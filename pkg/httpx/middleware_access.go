package httpx

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/backoffice/pkg/slogx"
)

// RouteClass is the access-control classification of a request path.
type RouteClass int

const (
	RoutePublic RouteClass = iota
	RouteExcluded
	RouteAuthOnly
	RouteProtected
)

func (c RouteClass) String() string {
	switch c {
	case RouteExcluded:
		return "excluded"
	case RouteAuthOnly:
		return "auth-only"
	case RouteProtected:
		return "protected"
	default:
		return "public"
	}
}

// SessionVerifier validates a raw session cookie value.
type SessionVerifier[P Principal] interface {
	Verify(token string) (P, error)
}

// AccessConfig configures AccessControl.
type AccessConfig struct {
	// CookieName is the session cookie to read.
	CookieName string
	// LoginPath receives unauthenticated visitors of protected paths.
	LoginPath string
	// HomePath receives authenticated visitors of auth-only paths.
	HomePath string

	Protected []string
	AuthOnly  []string
	Excluded  []string

	// Cookies is used to drop a session cookie that no longer verifies.
	Cookies CookiePolicy
}

// Classify returns the class of path. Excluded wins over auth-only, which wins
// over protected; anything unmatched is public.
func (c AccessConfig) Classify(path string) RouteClass {
	switch {
	case matchAny(path, c.Excluded):
		return RouteExcluded
	case matchAny(path, c.AuthOnly):
		return RouteAuthOnly
	case matchAny(path, c.Protected):
		return RouteProtected
	default:
		return RoutePublic
	}
}

// AccessControl enforces the session contract on every request before any
// handler runs:
//
//	protected + valid session   -> continue, principal in context
//	protected + no session      -> 303 to LoginPath?next=<path>
//	auth-only + valid session   -> 303 to HomePath
//	auth-only + no session      -> continue
//	public / excluded           -> continue
func AccessControl[P Principal](cfg AccessConfig, sessions SessionVerifier[P]) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := cfg.Classify(r.URL.Path)
			if class == RoutePublic || class == RouteExcluded {
				next.ServeHTTP(w, r)
				return
			}

			ctx := slogx.With(r.Context(), "route_class", class.String())
			log := slogx.FromContext(ctx)

			var (
				principal P
				valid     bool
			)
			if raw := CookieValue(r, cfg.CookieName); raw != "" {
				p, err := sessions.Verify(raw)
				if err != nil {
					log.Debug("session rejected", "err", err)
					cfg.Cookies.Clear(w, cfg.CookieName)
				} else {
					principal, valid = p, true
				}
			}

			switch {
			case class == RouteProtected && !valid:
				target := cfg.LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
			case class == RouteAuthOnly && valid:
				http.Redirect(w, r, cfg.HomePath, http.StatusSeeOther)
			case valid:
				ctx = slogx.With(ctx, "principal", principal.PrincipalID())
				next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
			default:
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// SafeRedirect returns next when it is a local absolute path, fallback
// otherwise. Protocol-relative and backslash tricks are rejected.
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

func matchAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if matchPrefix(path, p) {
			return true
		}
	}
	return false
}

// matchPrefix is segment aware: "/admin" matches "/admin" and "/admin/x" but
// not "/administrator". A prefix ending in "/" matches anything beneath it.
func matchPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
