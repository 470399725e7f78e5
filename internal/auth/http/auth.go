package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/doorman/internal/auth/metrics"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/pkg/authsdk"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

// AuthHandler serves the five account endpoints.
type AuthHandler struct {
	Auth    *service.AuthService
	Cookie  httpx.SessionCookie
	Metrics *metrics.Metrics
}

func (h *AuthHandler) observe(op string, err error) {
	if h.Metrics != nil {
		h.Metrics.Operation(op, err)
	}
}

// writeError maps a service error to its response. Outward classes are
// coarser than the service's: every challenge failure reads as incorrect
// credentials and every token failure as an invalid token.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *authsdk.APIError
	switch {
	case errors.Is(err, httpx.ErrUnsupportedMediaType):
		apiErr = authsdk.ErrUnsupportedMediaType
	case errors.Is(err, httpx.ErrMalformedBody), errors.Is(err, service.ErrInvalidInput):
		apiErr = authsdk.ErrUnprocessable
	case errors.Is(err, service.ErrInvalidCredentials):
		apiErr = authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrAlreadyExists):
		apiErr = authsdk.ErrUserAlreadyExists
	case errors.Is(err, service.ErrIncorrectCredentials),
		errors.Is(err, service.ErrChallengeNotFound),
		errors.Is(err, service.ErrIncorrectChallenge):
		apiErr = authsdk.ErrIncorrectCredentials
	case errors.Is(err, service.ErrMissingToken):
		apiErr = authsdk.ErrMissingToken
	case errors.Is(err, service.ErrInvalidToken):
		apiErr = authsdk.ErrInvalidToken
	default:
		slogx.FromContext(r.Context()).Error("request failed", slogx.Err(err))
		apiErr = authsdk.ErrUnexpected
	}
	apiErr.WriteError(w)
}

// HandleSignup godoc
//
//	@Summary		Create an account
//	@Description	Registers an email and password. Set requires2FA to require an emailed code on every login.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignupRequest	true	"New account"
//	@Success		201		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError	"Invalid email or password shorter than 8 characters"
//	@Failure		409		{object}	authsdk.APIError	"Email already registered"
//	@Failure		422		{object}	authsdk.APIError	"Malformed body or missing field"
//	@Failure		500		{object}	authsdk.APIError
//	@Router			/signup [post]
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	err := httpx.DecodeJSON(r, &req)
	if err == nil {
		err = h.Auth.Signup(r.Context(), req)
	}
	h.observe("signup", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, authsdk.MessageResponse{Message: "User created successfully!"})
}

// HandleLogin godoc
//
//	@Summary		Log in with a password
//	@Description	On success without a second factor the session token is set as an HttpOnly cookie.
//	@Description	Accounts requiring a second factor get 206 with a loginAttemptId; the code is delivered out of band.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Session cookie set"
//	@Success		206		{object}	authsdk.LoginResponse	"Second factor required"
//	@Failure		400		{object}	authsdk.APIError		"Invalid email or password"
//	@Failure		401		{object}	authsdk.APIError		"Incorrect credentials"
//	@Failure		422		{object}	authsdk.APIError		"Malformed body or missing field"
//	@Failure		500		{object}	authsdk.APIError
//	@Router			/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.observe("login", err)
		writeError(w, r, err)
		return
	}

	res, err := h.Auth.Login(r.Context(), req)
	h.observe("login", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if res.RequiresSecondFactor() {
		httpx.WriteJSON(w, http.StatusPartialContent, authsdk.LoginResponse{
			Message:        "2FA required",
			LoginAttemptID: res.ChallengeID.String(),
			DeliveryFailed: res.DeliveryFailed,
		})
		return
	}

	h.Cookie.Set(w, res.Session.Token, res.Session.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{Message: "Login successful"})
}

// HandleVerifyTwoFactor godoc
//
//	@Summary		Complete a login with its second factor
//	@Description	A wrong code leaves the attempt open until it expires ten minutes after login. A correct code can be used once.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyTwoFactorRequest	true	"Login attempt and code"
//	@Success		200		{object}	authsdk.MessageResponse			"Session cookie set"
//	@Failure		400		{object}	authsdk.APIError				"Invalid email, attempt id or code format"
//	@Failure		401		{object}	authsdk.APIError				"Unknown, expired or wrong attempt"
//	@Failure		422		{object}	authsdk.APIError				"Malformed body or missing field"
//	@Failure		500		{object}	authsdk.APIError
//	@Router			/verify-2fa [post]
func (h *AuthHandler) HandleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req service.VerifyChallengeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.observe("verify_2fa", err)
		writeError(w, r, err)
		return
	}

	sess, err := h.Auth.VerifyChallenge(r.Context(), req)
	h.observe("verify_2fa", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookie.Set(w, sess.Token, sess.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "2FA verified"})
}

// HandleVerifyToken godoc
//
//	@Summary		Validate a session token
//	@Description	Checks signature, expiry and revocation.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyTokenRequest	true	"Token"
//	@Success		200		{object}	authsdk.TokenInfoResponse
//	@Failure		401		{object}	authsdk.APIError	"Malformed, expired or revoked"
//	@Failure		422		{object}	authsdk.APIError	"Malformed body or missing field"
//	@Failure		500		{object}	authsdk.APIError
//	@Router			/verify-token [post]
func (h *AuthHandler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req service.ValidateTokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.observe("verify_token", err)
		writeError(w, r, err)
		return
	}

	claims, err := h.Auth.ValidateToken(r.Context(), req)
	h.observe("verify_token", err)
	if err != nil {
		slogx.FromContext(r.Context()).Debug("token rejected", slog.String("outcome", service.Outcome(err)))
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenInfoResponse{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Unix(),
	})
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Revokes the session token held in the cookie and clears the cookie.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse
//	@Failure		400	{object}	authsdk.APIError	"No session cookie"
//	@Failure		401	{object}	authsdk.APIError	"Malformed, expired or already revoked"
//	@Failure		500	{object}	authsdk.APIError
//	@Router			/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	err := h.Auth.Logout(r.Context(), h.Cookie.Read(r))
	h.observe("logout", err)
	if err != nil {
		slogx.FromContext(r.Context()).Debug("logout rejected", slog.String("outcome", service.Outcome(err)))
		writeError(w, r, err)
		return
	}

	h.Cookie.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Logged out"})
}
