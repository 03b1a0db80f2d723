package admin_test

import (
	"testing"

	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	"github.com/aussiebroadwan/backoffice/pkg/adminapi"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/stretchr/testify/require"
)

// TestPasskeyLifecycle enrolls a passkey with a password session, then signs
// in with it and checks the counter was persisted.
func TestPasskeyLifecycle(t *testing.T) {
	baseURL := setupAdminContainer(t, nil)
	admin := passwordSession(t, baseURL)
	authenticator := newAuthenticator(t)

	cred := enrollPasskey(t, admin, authenticator)
	require.Equal(t, authenticator.EncodedID(), cred.ID)

	client, out, err := passkeyLogin(t, baseURL, authenticator)
	require.NoError(t, err)
	require.Equal(t, adminEmail, out.Principal)
	require.Empty(t, client.Cookie(adminapi.ChallengeCookie))

	creds, err := client.Credentials(t.Context())
	require.NoError(t, err)
	require.Len(t, creds, 1)
	require.EqualValues(t, 1, creds[0].SignCount)

	// The same authenticator cannot be enrolled twice.
	creation, err := admin.BeginRegistration(t.Context())
	require.NoError(t, err)
	require.Len(t, creation.Response.CredentialExcludeList, 1)
}

// TestPasskeyChallengeMismatch is the stale-tab case: the browser answers a
// challenge other than the one bound in its cookie.
func TestPasskeyChallengeMismatch(t *testing.T) {
	baseURL := setupAdminContainer(t, nil)
	admin := passwordSession(t, baseURL)
	authenticator := newAuthenticator(t)

	_, err := admin.BeginRegistration(t.Context())
	require.NoError(t, err)

	stale, err := protocol.CreateChallenge()
	require.NoError(t, err)
	resp, err := authenticator.Attest(stale.String(), domain.NewAdmin(adminEmail, "").Handle())
	require.NoError(t, err)

	_, err = admin.FinishRegistration(t.Context(), adminapi.VerifyRequest{Challenge: stale.String(), Credential: resp})
	require.ErrorIs(t, err, adminapi.ErrInvalidChallenge)

	creds, err := admin.Credentials(t.Context())
	require.NoError(t, err)
	require.Empty(t, creds)
}

// TestPasskeyCounterRegression signs in with a clone that lags behind the
// stored counter.
func TestPasskeyCounterRegression(t *testing.T) {
	baseURL := setupAdminContainer(t, nil)
	authenticator := newAuthenticator(t)
	enrollPasskey(t, passwordSession(t, baseURL), authenticator)

	clone := authenticator.Clone()

	_, _, err := passkeyLogin(t, baseURL, authenticator)
	require.NoError(t, err)
	_, _, err = passkeyLogin(t, baseURL, authenticator)
	require.NoError(t, err)

	client, _, err := passkeyLogin(t, baseURL, clone)
	require.ErrorIs(t, err, adminapi.ErrVerificationFailed)
	require.Empty(t, client.Cookie(adminapi.SessionCookie))
}
