package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is a request missing required fields.
	ErrInvalidInput = errors.New("invalid_input")
	// ErrInvalidCredentials is a present but unacceptable email or password.
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAlreadyExists      = errors.New("already_exists")
	// ErrIncorrectCredentials covers both an unknown email and a wrong
	// password.
	ErrIncorrectCredentials = errors.New("incorrect_credentials")
	// ErrChallengeNotFound covers never issued, consumed and expired
	// challenges alike.
	ErrChallengeNotFound  = errors.New("challenge_not_found")
	ErrIncorrectChallenge = errors.New("incorrect_challenge")
	ErrMissingToken       = errors.New("missing_token")

	// ErrInvalidToken is the outward class of a token that cannot be
	// honoured. It is always joined with one of the three below.
	ErrInvalidToken   = errors.New("invalid_token")
	ErrMalformedToken = errors.New("malformed_token")
	ErrExpiredToken   = errors.New("expired_token")
	ErrRevokedToken   = errors.New("revoked_token")
)

func invalidToken(kind error, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, kind)
	}
	return fmt.Errorf("%w: %w: %v", ErrInvalidToken, kind, cause)
}

// outcomes is ordered most specific first.
var outcomes = []struct {
	err   error
	label string
}{
	{ErrMalformedToken, "malformed_token"},
	{ErrExpiredToken, "expired_token"},
	{ErrRevokedToken, "revoked_token"},
	{ErrInvalidToken, "invalid_token"},
	{ErrMissingToken, "missing_token"},
	{ErrInvalidInput, "invalid_input"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrAlreadyExists, "already_exists"},
	{ErrIncorrectCredentials, "incorrect_credentials"},
	{ErrChallengeNotFound, "challenge_not_found"},
	{ErrIncorrectChallenge, "incorrect_challenge"},
}

// Outcome maps an error returned by this package to a stable label for logs
// and metrics. Anything unrecognised is "unexpected".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "unexpected"
}
