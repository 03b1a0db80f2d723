package adminapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIError_WriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrInvalidChallenge.WriteError(rec)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"invalid_challenge","error_description":"invalid or expired challenge"}`, rec.Body.String())
}

func TestParseErrorResponse(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusUnauthorized, Header: http.Header{}}
		err := parseErrorResponse(resp, []byte(`{"error":"invalid_credentials","error_description":"invalid credentials"}`))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("redirect to login", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusSeeOther, Header: http.Header{"Location": {"/admin/login?next=%2Fadmin"}}}
		err := parseErrorResponse(resp, nil)
		require.ErrorIs(t, err, ErrLoginRequired)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, "/admin/login?next=%2Fadmin", apiErr.Description)
	})

	t.Run("non json body", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusBadGateway, Header: http.Header{}}
		err := parseErrorResponse(resp, []byte("<html>"))

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		require.Equal(t, ErrorCodeServerError, apiErr.Code)
	})
}
