package authsdk

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// DefaultCookieName is the session cookie name the service uses unless
// configured otherwise.
const DefaultCookieName = "jwt"

// Client talks to the doorman authentication service. The session cookie
// set by Login and VerifyTwoFactor is kept in HTTPClient's cookie jar.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	CookieName string

	base *url.URL
}

// NewClient creates a client with its own cookie jar.
func NewClient(baseURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: base.String(),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		CookieName: DefaultCookieName,
		base:       base,
	}, nil
}

// SessionToken returns the session cookie value, or "" if there is none.
func (c *Client) SessionToken() string {
	if c.HTTPClient.Jar == nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(c.base) {
		if ck.Name == c.CookieName {
			return ck.Value
		}
	}
	return ""
}

// Signup registers an account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	resp, err := c.postJSON(ctx, "/signup", req)
	if err != nil {
		return err
	}
	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusCreated)
}

// Login authenticates with a password. Check RequiresSecondFactor on the
// result: if set, no session was issued yet.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := c.postJSON(ctx, "/login", req)
	if err != nil {
		return nil, err
	}
	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK, http.StatusPartialContent); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTwoFactor completes a login with the code delivered out of band.
func (c *Client) VerifyTwoFactor(ctx context.Context, req VerifyTwoFactorRequest) error {
	resp, err := c.postJSON(ctx, "/verify-2fa", req)
	if err != nil {
		return err
	}
	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// VerifyToken checks any session token, not only this client's.
func (c *Client) VerifyToken(ctx context.Context, token string) (*TokenInfoResponse, error) {
	resp, err := c.postJSON(ctx, "/verify-token", VerifyTokenRequest{Token: token})
	if err != nil {
		return nil, err
	}
	var out TokenInfoResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the session held in the cookie jar.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/logout", nil, nil)
	if err != nil {
		return err
	}
	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/livez")
}

// GetReadiness checks if the service is ready.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/readyz")
}

func (c *Client) getHealth(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetJWKS fetches the public signing keys.
func (c *Client) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", nil, nil)
	if err != nil {
		return nil, err
	}
	var jwks JWKSResponse
	if err := decodeJSON(resp, &jwks, http.StatusOK); err != nil {
		return nil, err
	}
	return &jwks, nil
}
