package authsdk

import (
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
)

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Email                string `json:"email" example:"a@x.com"`
	Password             string `json:"password" example:"password123"`
	RequiresSecondFactor bool   `json:"requires2FA" example:"false"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" example:"a@x.com"`
	Password string `json:"password" example:"password123"`
}

// VerifyTwoFactorRequest is the body of POST /verify-2fa.
type VerifyTwoFactorRequest struct {
	Email          string `json:"email" example:"b@x.com"`
	LoginAttemptID string `json:"loginAttemptId" example:"9a0a3b3e-5f4c-4c2f-9a53-0c1f8c5f3a1b"`
	Code           string `json:"2FACode" example:"042917"`
}

// VerifyTokenRequest is the body of POST /verify-token.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"User created successfully!"`
}

// LoginResponse is returned with 200 when a session was issued, and with
// 206 when a second factor is required.
type LoginResponse struct {
	Message string `json:"message" example:"2FA required"`

	// LoginAttemptID is set on 206 and must be echoed to /verify-2fa.
	LoginAttemptID string `json:"loginAttemptId,omitempty" example:"9a0a3b3e-5f4c-4c2f-9a53-0c1f8c5f3a1b"`

	// DeliveryFailed reports the code could not be sent. The attempt is
	// still valid; logging in again issues a new code.
	DeliveryFailed bool `json:"deliveryFailed,omitempty"`
}

func (r LoginResponse) RequiresSecondFactor() bool { return r.LoginAttemptID != "" }

// TokenInfoResponse describes a valid session token.
type TokenInfoResponse struct {
	Subject   string `json:"sub" example:"a@x.com"`
	ExpiresAt int64  `json:"exp" example:"1767225600"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime,omitempty" example:"1h23m45s"`
	Version string        `json:"version,omitempty" example:"dev"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Stores string `json:"stores"`
	Signer string `json:"signer"`
}

// JWKSResponse contains the public keys session tokens are signed with.
type JWKSResponse jwtx.JWKS
