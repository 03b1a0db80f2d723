package admin_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/backoffice/pkg/adminapi"
	"github.com/stretchr/testify/require"
)

// TestPasswordLoginAndAccess walks the password fallback through the access
// rules: protected redirect, login, protected access, auth-only redirect,
// logout.
func TestPasswordLoginAndAccess(t *testing.T) {
	baseURL := setupAdminContainer(t, nil)
	client := adminapi.NewClient(baseURL)

	resp, err := client.Get(t.Context(), "/admin")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin/login?next=%2Fadmin", resp.Header.Get("Location"))

	_, err = client.Login(t.Context(), adminapi.LoginRequest{Password: "wrong"})
	require.ErrorIs(t, err, adminapi.ErrInvalidCredentials)

	out, err := client.Login(t.Context(), adminapi.LoginRequest{Password: adminPassword, Next: "/admin"})
	require.NoError(t, err)
	require.Equal(t, adminEmail, out.Principal)
	require.Equal(t, "/admin", out.Redirect)

	resp, err = client.Get(t.Context(), "/admin")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(t.Context(), "/admin/login")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get("Location"))

	require.NoError(t, client.Logout(t.Context()))
	_, err = client.Session(t.Context())
	require.ErrorIs(t, err, adminapi.ErrLoginRequired)
}

// TestDefaultPasswordRejectedOutsideDevelopment checks the development
// default is never accepted once a digest is configured.
func TestDefaultPasswordRejectedOutsideDevelopment(t *testing.T) {
	baseURL := setupAdminContainer(t, map[string]string{"ADMIN_PASSWORD_HASH": ""})

	_, err := adminapi.NewClient(baseURL).Login(t.Context(), adminapi.LoginRequest{Password: "changeme"})
	require.ErrorIs(t, err, adminapi.ErrMisconfigured)
}
