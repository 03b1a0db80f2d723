package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/service"
	"github.com/aussiebroadwan/backoffice/internal/admin/session"
	"github.com/aussiebroadwan/backoffice/pkg/adminapi"
	"github.com/aussiebroadwan/backoffice/pkg/httpx"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
)

// sessionStarter sets the admin-session cookie after a successful login and
// tells the client where to go next.
type sessionStarter struct {
	Cookies  httpx.CookiePolicy
	HomePath string
}

func (s sessionStarter) start(w http.ResponseWriter, tok session.Token, next string) {
	s.Cookies.Set(w, adminapi.SessionCookie, tok.Value, tok.ExpiresAt.Sub(tok.IssuedAt))
	httpx.WriteJSON(w, http.StatusOK, adminapi.SessionResponse{
		Principal: tok.Subject,
		Methods:   tok.Methods,
		IssuedAt:  tok.IssuedAt,
		ExpiresAt: tok.ExpiresAt,
		Redirect:  httpx.SafeRedirect(next, s.HomePath),
	})
}

type SessionHandler struct {
	sessionStarter
	PasswordService *service.PasswordService
}

// HandleLogin is the password fallback.
//
//	@Summary		Password login
//	@Description	Verifies the admin password (and TOTP code when enabled) and sets the admin-session cookie.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminapi.LoginRequest		true	"Password and optional TOTP code"
//	@Success		200		{object}	adminapi.SessionResponse	"Session started"
//	@Failure		400		{object}	adminapi.APIError			"Missing password or malformed body"
//	@Failure		401		{object}	adminapi.APIError			"Wrong password or TOTP code"
//	@Failure		500		{object}	adminapi.APIError			"Password digest or server secret not configured"
//	@Router			/api/admin/login [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req adminapi.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Password == "" {
		slogx.FromContext(r.Context()).Debug("login rejected: malformed body", "err", err)
		adminapi.ErrInvalidRequest.WriteError(w)
		return
	}

	tok, err := h.PasswordService.Login(r.Context(), req.Password, strings.TrimSpace(req.TOTP))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.start(w, tok, req.Next)
}

// HandleLogout drops the session cookie. Tokens are stateless, so this only
// affects the calling browser.
//
//	@Summary	Logout
//	@Tags		Session
//	@Success	204	"Session cookie cleared"
//	@Router		/api/admin/logout [post].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.Clear(w, adminapi.SessionCookie)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession describes the verified session attached by AccessControl.
//
//	@Summary	Current session
//	@Tags		Session
//	@Produce	json
//	@Success	200	{object}	adminapi.SessionResponse
//	@Failure	303	"Redirect to the login page when no valid session is present"
//	@Router		/api/admin/session [get].
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFrom[session.Principal](r.Context())
	if !ok {
		adminapi.ErrInvalidCredentials.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, adminapi.SessionResponse{
		Principal: p.Subject,
		Methods:   p.Methods,
		IssuedAt:  p.IssuedAt,
		ExpiresAt: p.ExpiresAt,
	})
}

func cookieMaxAge(expires time.Time) time.Duration {
	d := time.Until(expires)
	if d < time.Second {
		return time.Second
	}
	return d
}
