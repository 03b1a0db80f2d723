package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
)

// Client talks to the admin authentication API. It keeps cookies in a jar so
// ceremony and session cookies flow like they would in a browser, and never
// follows redirects so access-control decisions stay visible.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with its own cookie jar.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Cookie returns the current value of a cookie held for the service.
func (c *Client) Cookie(name string) string {
	u, err := url.Parse(c.BaseURL)
	if err != nil || c.HTTPClient.Jar == nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// SetCookie overrides a cookie in the jar, for replay and tamper tests.
func (c *Client) SetCookie(name, value string) {
	u, err := url.Parse(c.BaseURL)
	if err != nil || c.HTTPClient.Jar == nil {
		return
	}
	c.HTTPClient.Jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

// Login performs the password fallback.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout clears the session cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/admin/logout", nil, nil, http.StatusNoContent)
}

// Session returns the current session, or ErrLoginRequired.
func (c *Client) Session(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/session", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// BeginRegistration asks for passkey creation options. Requires a session.
func (c *Client) BeginRegistration(ctx context.Context) (*protocol.CredentialCreation, error) {
	var out protocol.CredentialCreation
	if err := c.do(ctx, http.MethodPost, "/api/admin/passkey/register/options", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// FinishRegistration submits an attestation.
func (c *Client) FinishRegistration(ctx context.Context, req VerifyRequest) (*CredentialResponse, error) {
	var out CredentialResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/passkey/register/verify", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Credentials lists registered passkeys. Requires a session.
func (c *Client) Credentials(ctx context.Context) ([]CredentialResponse, error) {
	var out CredentialListResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/passkey/credentials", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Credentials, nil
}

// BeginLogin asks for passkey request options.
func (c *Client) BeginLogin(ctx context.Context) (*protocol.CredentialAssertion, error) {
	var out protocol.CredentialAssertion
	if err := c.do(ctx, http.MethodPost, "/api/admin/passkey/login/options", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// FinishLogin submits an assertion and, on success, holds the session cookie.
func (c *Client) FinishLogin(ctx context.Context, req VerifyRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/passkey/login/verify", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches an arbitrary path and returns the raw response; the caller
// closes the body.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.HTTPClient.Do(req)
}

// Readiness checks if the service and its store are ready.
func (c *Client) Readiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, expectedStatus int) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
