package authsdk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrIncorrectCredentials.WriteError(w)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)
	require.Equal(t, srv.URL, c.BaseURL)

	_, err = c.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "password123"})
	require.ErrorIs(t, err, ErrIncorrectCredentials)
	require.NotErrorIs(t, err, ErrInvalidCredentials)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "401: Incorrect credentials", apiErr.Error())
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.GetLiveness(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestLoginAcceptsPartialContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = io.WriteString(w, `{"message":"2FA required","loginAttemptId":"9a0a3b3e-5f4c-4c2f-9a53-0c1f8c5f3a1b"}`)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	res, err := c.Login(context.Background(), LoginRequest{Email: "b@x.com", Password: "password123"})
	require.NoError(t, err)
	require.True(t, res.RequiresSecondFactor())
	require.Equal(t, "9a0a3b3e-5f4c-4c2f-9a53-0c1f8c5f3a1b", res.LoginAttemptID)
}

func TestSessionTokenFromJar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/", HttpOnly: true})
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"message":"2FA verified"}`)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	c.CookieName = "session"

	require.Empty(t, c.SessionToken())
	require.NoError(t, c.VerifyTwoFactor(context.Background(), VerifyTwoFactorRequest{}))
	require.Equal(t, "tok", c.SessionToken())
}
