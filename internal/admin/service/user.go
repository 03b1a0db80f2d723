package service

import (
	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// adminUser presents the singleton admin and its stored credentials to
// go-webauthn.
type adminUser struct {
	admin domain.Admin
	creds []webauthn.Credential
}

var _ webauthn.User = (*adminUser)(nil)

func newAdminUser(admin domain.Admin, stored []domain.Credential) *adminUser {
	u := &adminUser{admin: admin, creds: make([]webauthn.Credential, 0, len(stored))}
	for _, c := range stored {
		u.creds = append(u.creds, toWebAuthn(c))
	}
	return u
}

func (u *adminUser) WebAuthnID() []byte                         { return u.admin.Handle() }
func (u *adminUser) WebAuthnName() string                       { return u.admin.Email }
func (u *adminUser) WebAuthnDisplayName() string                { return u.admin.DisplayName }
func (u *adminUser) WebAuthnCredentials() []webauthn.Credential { return u.creds }

func toWebAuthn(c domain.Credential) webauthn.Credential {
	transports := make([]protocol.AuthenticatorTransport, 0, len(c.Transports))
	for _, t := range c.Transports {
		transports = append(transports, protocol.AuthenticatorTransport(t))
	}
	return webauthn.Credential{
		ID:              c.CredentialID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Transport:       transports,
		Flags: webauthn.CredentialFlags{
			UserPresent:    true,
			BackupEligible: c.BackupEligible,
			BackupState:    c.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    c.AAGUID,
			SignCount: c.SignCount,
		},
	}
}

func fromWebAuthn(c *webauthn.Credential) domain.Credential {
	transports := make([]string, 0, len(c.Transport))
	for _, t := range c.Transport {
		transports = append(transports, string(t))
	}
	return domain.Credential{
		CredentialID:    c.ID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		AAGUID:          c.Authenticator.AAGUID,
		SignCount:       c.Authenticator.SignCount,
		Transports:      transports,
		BackupEligible:  c.Flags.BackupEligible,
		BackupState:     c.Flags.BackupState,
	}
}
