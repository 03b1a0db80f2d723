package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/challenge"
	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	"github.com/aussiebroadwan/backoffice/internal/admin/session"
	"github.com/aussiebroadwan/backoffice/internal/admin/store"
	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/aussiebroadwan/backoffice/pkg/idx"
	"github.com/aussiebroadwan/backoffice/pkg/jwtx"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// DefaultCeremonyTimeout bounds the store work done inside one ceremony call.
const DefaultCeremonyTimeout = 10 * time.Second

// RelyingParty describes the site passkeys are scoped to.
type RelyingParty struct {
	ID          string
	DisplayName string
	Origins     []string
}

// NewWebAuthn builds the go-webauthn relying party. Discoverable credentials
// are preferred so the login page can offer the passkey without a username.
func NewWebAuthn(rp RelyingParty) (*webauthn.WebAuthn, error) {
	return webauthn.New(&webauthn.Config{
		RPID:                  rp.ID,
		RPDisplayName:         rp.DisplayName,
		RPOrigins:             rp.Origins,
		AttestationPreference: protocol.PreferNoAttestation,
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
			UserVerification: protocol.VerificationPreferred,
		},
	})
}

// Binding is the sealed ceremony state handed to the client as the
// passkey-challenge cookie.
type Binding struct {
	Value     string
	ExpiresAt time.Time
}

// FinishInput is what a client submits to complete a ceremony.
type FinishInput struct {
	// Challenge is the value the client believes it answered.
	Challenge string
	// Response is the raw PublicKeyCredential JSON.
	Response []byte
	// Binding is the passkey-challenge cookie value.
	Binding string
}

// PasskeyService runs the WebAuthn registration and authentication
// ceremonies for the singleton admin.
type PasskeyService struct {
	Store    store.Store
	WebAuthn *webauthn.WebAuthn
	Broker   *challenge.Broker
	Sessions *session.Codec
	Admin    domain.Admin

	SessionTTL time.Duration
	// Timeout bounds store calls made while verifying; zero means
	// DefaultCeremonyTimeout.
	Timeout time.Duration
	Now     func() time.Time
}

// BeginRegistration issues creation options for a new passkey. Already
// registered credentials are listed as exclusions so the same authenticator
// is not enrolled twice.
func (s *PasskeyService) BeginRegistration(ctx context.Context) (*protocol.CredentialCreation, Binding, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	stored, err := s.Store.Credentials().List(ctx)
	if err != nil {
		return nil, Binding{}, fmt.Errorf("list credentials: %w", err)
	}
	user := newAdminUser(s.Admin, stored)

	creation, sd, err := s.WebAuthn.BeginRegistration(user,
		webauthn.WithExclusions(webauthn.Credentials(user.creds).CredentialDescriptors()),
	)
	if err != nil {
		return nil, Binding{}, fmt.Errorf("begin registration: %w", err)
	}

	b, err := s.bind(challenge.KindRegistration, *sd)
	if err != nil {
		return nil, Binding{}, err
	}
	return creation, b, nil
}

// FinishRegistration verifies an attestation against the bound challenge and
// stores the new credential.
func (s *PasskeyService) FinishRegistration(ctx context.Context, in FinishInput) (domain.Credential, error) {
	log := slogx.FromContext(ctx).With("ceremony", challenge.KindRegistration)

	sd, err := s.consume(ctx, challenge.KindRegistration, in)
	if err != nil {
		return domain.Credential{}, err
	}

	parsed, err := protocol.ParseCredentialCreationResponseBytes(in.Response)
	if err != nil {
		warn(log, "attestation rejected: parse", err)
		return domain.Credential{}, ErrVerificationFailed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	stored, err := s.Store.Credentials().List(ctx)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("list credentials: %w", err)
	}

	created, err := s.WebAuthn.CreateCredential(newAdminUser(s.Admin, stored), sd, parsed)
	if err != nil {
		warn(log, "attestation rejected: verify", err)
		return domain.Credential{}, ErrVerificationFailed
	}

	cred := fromWebAuthn(created)
	cred.CreatedAt = s.now().UTC()
	cred.ID = idx.At(cred.CreatedAt)

	if err := s.Store.Credentials().Insert(ctx, cred); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("attestation rejected: credential already registered",
				"credential", cryptox.Fingerprint(cred.EncodedID()))
			return domain.Credential{}, ErrVerificationFailed
		}
		return domain.Credential{}, fmt.Errorf("insert credential: %w", err)
	}

	log.Info("passkey registered",
		"credential", cryptox.Fingerprint(cred.EncodedID()),
		"attestation", cred.AttestationType,
		"transports", cred.Transports,
	)
	return cred, nil
}

// BeginLogin issues request options. With no stored credentials the options
// are still issued without an allow list; verification will then fail.
func (s *PasskeyService) BeginLogin(ctx context.Context) (*protocol.CredentialAssertion, Binding, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	stored, err := s.Store.Credentials().List(ctx)
	if err != nil {
		return nil, Binding{}, fmt.Errorf("list credentials: %w", err)
	}

	var (
		assertion *protocol.CredentialAssertion
		sd        *webauthn.SessionData
	)
	if len(stored) == 0 {
		assertion, sd, err = s.WebAuthn.BeginDiscoverableLogin()
	} else {
		assertion, sd, err = s.WebAuthn.BeginLogin(newAdminUser(s.Admin, stored))
	}
	if err != nil {
		return nil, Binding{}, fmt.Errorf("begin login: %w", err)
	}

	b, err := s.bind(challenge.KindAuthentication, *sd)
	if err != nil {
		return nil, Binding{}, err
	}
	return assertion, b, nil
}

// FinishLogin verifies an assertion, enforces the sign counter rule, records
// the new counter and mints a session.
func (s *PasskeyService) FinishLogin(ctx context.Context, in FinishInput) (session.Token, error) {
	log := slogx.FromContext(ctx).With("ceremony", challenge.KindAuthentication)

	sd, err := s.consume(ctx, challenge.KindAuthentication, in)
	if err != nil {
		return session.Token{}, err
	}

	parsed, err := protocol.ParseCredentialRequestResponseBytes(in.Response)
	if err != nil {
		warn(log, "assertion rejected: parse", err)
		return session.Token{}, ErrVerificationFailed
	}
	fp := cryptox.Fingerprint(domain.EncodeID(parsed.RawID))
	log = log.With("credential", fp)

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	stored, err := s.Store.Credentials().Get(ctx, parsed.RawID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("assertion rejected: unknown credential")
			return session.Token{}, ErrVerificationFailed
		}
		return session.Token{}, fmt.Errorf("get credential: %w", err)
	}

	// The allow list issued at options time must be fully owned by the user,
	// so hand go-webauthn every stored credential, not just the one in use.
	all, err := s.Store.Credentials().List(ctx)
	if err != nil {
		return session.Token{}, fmt.Errorf("list credentials: %w", err)
	}
	user := newAdminUser(s.Admin, all)
	// Discoverable options carry no user; the only possible owner is the admin.
	if len(sd.UserID) == 0 {
		sd.UserID = user.WebAuthnID()
	}
	if !bytes.Equal(sd.UserID, user.WebAuthnID()) {
		log.Warn("assertion rejected: ceremony bound to another user handle")
		return session.Token{}, ErrVerificationFailed
	}

	validated, err := s.WebAuthn.ValidateLogin(user, sd, parsed)
	if err != nil {
		warn(log, "assertion rejected: verify", err)
		return session.Token{}, ErrVerificationFailed
	}

	reported := parsed.Response.AuthenticatorData.Counter
	if !counterAdvances(stored.SignCount, reported) {
		log.Warn("assertion rejected: sign counter did not advance, possible cloned authenticator",
			"stored", stored.SignCount, "reported", reported)
		return session.Token{}, ErrVerificationFailed
	}

	if err := s.Store.Credentials().UpdateSignCounter(ctx, validated.ID, reported, s.now().UTC()); err != nil {
		if errors.Is(err, store.ErrStaleCounter) || errors.Is(err, store.ErrNotFound) {
			log.Warn("assertion rejected: counter update lost", "reported", reported, "err", err)
			return session.Token{}, ErrVerificationFailed
		}
		return session.Token{}, fmt.Errorf("update sign counter: %w", err)
	}

	tok, err := s.Sessions.Issue(s.Admin.Email, s.sessionTTL(), session.MethodPasskey)
	if err != nil {
		if errors.Is(err, session.ErrMisconfigured) {
			return session.Token{}, ErrMisconfigured
		}
		return session.Token{}, fmt.Errorf("issue session: %w", err)
	}

	log.Info("passkey login", "sign_count", reported)
	return tok, nil
}

// ListCredentials returns the registered passkeys, oldest first.
func (s *PasskeyService) ListCredentials(ctx context.Context) ([]domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	return s.Store.Credentials().List(ctx)
}

// counterAdvances applies the clone check: a reported counter must be
// strictly greater than the stored one, except that zero means the
// authenticator keeps no counter.
func counterAdvances(stored, reported uint32) bool {
	return reported == 0 || reported > stored
}

func (s *PasskeyService) bind(kind challenge.Kind, sd webauthn.SessionData) (Binding, error) {
	value, exp, err := s.Broker.Issue(kind, sd)
	if err != nil {
		if errors.Is(err, challenge.ErrMisconfigured) {
			return Binding{}, ErrMisconfigured
		}
		return Binding{}, fmt.Errorf("bind ceremony: %w", err)
	}
	return Binding{Value: value, ExpiresAt: exp}, nil
}

func (s *PasskeyService) consume(ctx context.Context, kind challenge.Kind, in FinishInput) (webauthn.SessionData, error) {
	sd, err := s.Broker.Consume(kind, in.Challenge, in.Binding)
	if err != nil {
		if errors.Is(err, challenge.ErrMisconfigured) {
			return webauthn.SessionData{}, ErrMisconfigured
		}
		slogx.FromContext(ctx).Warn("ceremony rejected: challenge binding", "ceremony", kind, "err", err)
		return webauthn.SessionData{}, ErrInvalidChallenge
	}
	return sd, nil
}

func (s *PasskeyService) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultCeremonyTimeout
}

func (s *PasskeyService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTTL
}

func (s *PasskeyService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
