package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
)

// Session is a freshly minted session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// TokenService mints session tokens and validates them against the
// revocation store.
type TokenService struct {
	Signer      jwtx.Signer
	Verifier    jwtx.Verifier
	Revocations store.Revocations
	Issuer      string
	TTL         time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultSessionTTL
	}
	return s.TTL
}

// Issue signs a session token for email. amr lists how the caller
// authenticated.
func (s *TokenService) Issue(email domain.Email, amr ...string) (Session, error) {
	if len(amr) == 0 {
		amr = []string{jwtx.AMRPassword}
	}
	claims := jwtx.NewSessionClaims(email.String(), amr, s.ttl(), s.Issuer, s.now())

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Validate runs every check in order: signature and structure, then expiry,
// then the revocation store. A failure in the first two is reported as
// ErrMalformedToken or ErrExpiredToken; a revoked token as ErrRevokedToken.
// All are joined with ErrInvalidToken. A revocation store failure is
// returned unwrapped.
func (s *TokenService) Validate(ctx context.Context, token string) (*jwtx.Claims, error) {
	claims, err := s.Verifier.Parse(token)
	if err != nil {
		return nil, invalidToken(ErrMalformedToken, err)
	}

	switch err := claims.ValidateExpiryAt(s.now()); {
	case errors.Is(err, jwtx.ErrExpired):
		return nil, invalidToken(ErrExpiredToken, nil)
	case err != nil:
		return nil, invalidToken(ErrMalformedToken, err)
	}

	revoked, err := s.Revocations.Contains(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return nil, invalidToken(ErrRevokedToken, nil)
	}
	return claims, nil
}
