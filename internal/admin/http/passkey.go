package http

import (
	"encoding/base64"
	"net/http"

	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	"github.com/aussiebroadwan/backoffice/internal/admin/service"
	"github.com/aussiebroadwan/backoffice/pkg/adminapi"
	"github.com/aussiebroadwan/backoffice/pkg/httpx"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
	"github.com/google/uuid"
)

type PasskeyHandler struct {
	sessionStarter
	PasskeyService *service.PasskeyService
}

// HandleRegisterOptions starts a registration ceremony.
//
//	@Summary		Passkey registration options
//	@Description	Returns PublicKeyCredentialCreationOptions for the admin and sets the passkey-challenge cookie (300 s).
//	@Tags			Passkey
//	@Produce		json
//	@Success		200	{object}	object	"protocol.CredentialCreation"
//	@Failure		500	{object}	adminapi.APIError
//	@Router			/api/admin/passkey/register/options [post].
func (h *PasskeyHandler) HandleRegisterOptions(w http.ResponseWriter, r *http.Request) {
	creation, b, err := h.PasskeyService.BeginRegistration(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.Cookies.Set(w, adminapi.ChallengeCookie, b.Value, cookieMaxAge(b.ExpiresAt))
	httpx.WriteJSON(w, http.StatusOK, creation)
}

// HandleRegisterVerify finishes a registration ceremony.
//
//	@Summary		Passkey registration verify
//	@Description	Verifies the attestation against the challenge bound in the passkey-challenge cookie and stores the credential. The cookie is cleared whatever the outcome.
//	@Tags			Passkey
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminapi.VerifyRequest		true	"Challenge and PublicKeyCredential"
//	@Success		201		{object}	adminapi.CredentialResponse	"Credential registered"
//	@Failure		400		{object}	adminapi.APIError			"Malformed body, invalid or expired challenge, or verification failed"
//	@Failure		500		{object}	adminapi.APIError
//	@Router			/api/admin/passkey/register/verify [post].
func (h *PasskeyHandler) HandleRegisterVerify(w http.ResponseWriter, r *http.Request) {
	in, ok := h.finishInput(w, r)
	if !ok {
		return
	}

	cred, err := h.PasskeyService.FinishRegistration(r.Context(), in.FinishInput)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, credentialResponse(cred))
}

// HandleListCredentials lists registered passkeys. Public keys are not exposed.
//
//	@Summary	List passkeys
//	@Tags		Passkey
//	@Produce	json
//	@Success	200	{object}	adminapi.CredentialListResponse
//	@Failure	500	{object}	adminapi.APIError
//	@Router		/api/admin/passkey/credentials [get].
func (h *PasskeyHandler) HandleListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.PasskeyService.ListCredentials(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := adminapi.CredentialListResponse{Credentials: make([]adminapi.CredentialResponse, 0, len(creds))}
	for _, c := range creds {
		out.Credentials = append(out.Credentials, credentialResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleLoginOptions starts an authentication ceremony.
//
//	@Summary		Passkey login options
//	@Description	Returns PublicKeyCredentialRequestOptions and sets the passkey-challenge cookie (300 s).
//	@Tags			Passkey
//	@Produce		json
//	@Success		200	{object}	object	"protocol.CredentialAssertion"
//	@Failure		500	{object}	adminapi.APIError
//	@Router			/api/admin/passkey/login/options [post].
func (h *PasskeyHandler) HandleLoginOptions(w http.ResponseWriter, r *http.Request) {
	assertion, b, err := h.PasskeyService.BeginLogin(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.Cookies.Set(w, adminapi.ChallengeCookie, b.Value, cookieMaxAge(b.ExpiresAt))
	httpx.WriteJSON(w, http.StatusOK, assertion)
}

// HandleLoginVerify finishes an authentication ceremony and starts a session.
//
//	@Summary		Passkey login verify
//	@Description	Verifies the assertion, enforces the sign counter and sets the admin-session cookie. The passkey-challenge cookie is cleared whatever the outcome.
//	@Tags			Passkey
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminapi.VerifyRequest		true	"Challenge, PublicKeyCredential and optional redirect target"
//	@Success		200		{object}	adminapi.SessionResponse	"Session started"
//	@Failure		400		{object}	adminapi.APIError			"Malformed body, invalid or expired challenge, or verification failed"
//	@Failure		500		{object}	adminapi.APIError
//	@Router			/api/admin/passkey/login/verify [post].
func (h *PasskeyHandler) HandleLoginVerify(w http.ResponseWriter, r *http.Request) {
	in, ok := h.finishInput(w, r)
	if !ok {
		return
	}

	tok, err := h.PasskeyService.FinishLogin(r.Context(), in.FinishInput)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.start(w, tok, in.next)
}

type verifyInput struct {
	service.FinishInput
	next string
}

// finishInput clears the challenge cookie before anything else so a binding
// is never usable twice, then decodes the body.
func (h *PasskeyHandler) finishInput(w http.ResponseWriter, r *http.Request) (verifyInput, bool) {
	binding := httpx.CookieValue(r, adminapi.ChallengeCookie)
	h.Cookies.Clear(w, adminapi.ChallengeCookie)

	var req adminapi.VerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Challenge == "" || len(req.Credential) == 0 {
		slogx.FromContext(r.Context()).Debug("ceremony rejected: malformed body", "err", err)
		adminapi.ErrInvalidRequest.WriteError(w)
		return verifyInput{}, false
	}

	return verifyInput{
		FinishInput: service.FinishInput{
			Challenge: req.Challenge,
			Response:  req.Credential,
			Binding:   binding,
		},
		next: req.Next,
	}, true
}

func credentialResponse(c domain.Credential) adminapi.CredentialResponse {
	out := adminapi.CredentialResponse{
		ID:             c.EncodedID(),
		Transports:     c.Transports,
		SignCount:      c.SignCount,
		BackupEligible: c.BackupEligible,
		BackupState:    c.BackupState,
		CreatedAt:      c.CreatedAt,
		LastUsedAt:     c.LastUsedAt,
	}
	if out.Transports == nil {
		out.Transports = []string{}
	}
	if id, err := uuid.FromBytes(c.AAGUID); err == nil {
		out.AAGUID = id.String()
	} else if len(c.AAGUID) > 0 {
		out.AAGUID = base64.RawURLEncoding.EncodeToString(c.AAGUID)
	}
	return out
}
