package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
	"github.com/aussiebroadwan/doorman/pkg/validx"
)

// SignupRequest fields are pointers so an absent field can be told apart
// from a zero value.
type SignupRequest struct {
	Email                *string `json:"email" validate:"required"`
	Password             *string `json:"password" validate:"required"`
	RequiresSecondFactor *bool   `json:"requires2FA" validate:"required"`
}

type LoginRequest struct {
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

type VerifyChallengeRequest struct {
	Email       *string `json:"email" validate:"required"`
	ChallengeID *string `json:"loginAttemptId" validate:"required"`
	Code        *string `json:"2FACode" validate:"required"`
}

type ValidateTokenRequest struct {
	Token *string `json:"token" validate:"required"`
}

// LoginResult is either a session or a pending challenge.
type LoginResult struct {
	Session Session

	// ChallengeID is set when the account requires a second factor. No
	// session is minted in that case.
	ChallengeID domain.ChallengeID

	// DeliveryFailed reports that the code could not be sent. The
	// challenge is still live.
	DeliveryFailed bool
}

func (r LoginResult) RequiresSecondFactor() bool { return r.ChallengeID != "" }

// AuthService runs signup, login, second-factor verification, token
// validation and logout. It holds no state between calls.
type AuthService struct {
	Accounts   store.Accounts
	Challenges store.Challenges
	Tokens     *TokenService
	Notifier   Notifier
}

// dummyHash is verified against when the account does not exist, so an
// unknown email costs the same as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, _ := cryptox.HashPassword("doorman-unknown-account")
	return h
})

func checkInput(req any) error {
	if err := validx.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func parseCredentials(email, password string) (domain.Email, domain.Password, error) {
	e, err := domain.ParseEmail(email)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	p, err := domain.ParsePassword(password)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return e, p, nil
}

// Signup registers a new account.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) error {
	if err := checkInput(req); err != nil {
		return err
	}
	email, password, err := parseCredentials(*req.Email, *req.Password)
	if err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(string(password))
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Accounts.Add(ctx, domain.Account{
		Email:                email,
		PasswordHash:         hash,
		RequiresSecondFactor: *req.RequiresSecondFactor,
		CreatedAt:            time.Now().UTC(),
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}
	if err != nil {
		return fmt.Errorf("add account: %w", err)
	}

	slogx.FromContext(ctx).Info("account created",
		slogx.Email(email.String()),
		slog.Bool("requires_2fa", *req.RequiresSecondFactor),
	)
	return nil
}

// Login checks the password. Accounts without a second factor get a
// session; the rest get a fresh challenge, replacing any earlier one, and
// the code is sent through the Notifier.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	if err := checkInput(req); err != nil {
		return LoginResult{}, err
	}
	email, password, err := parseCredentials(*req.Email, *req.Password)
	if err != nil {
		return LoginResult{}, err
	}
	ctx, l := slogx.With(ctx, slogx.Email(email.String()))

	switch err := s.Accounts.Validate(ctx, email, password); {
	case errors.Is(err, store.ErrNotFound):
		_ = cryptox.VerifyPassword(string(password), dummyHash())
		l.Info("login rejected")
		return LoginResult{}, ErrIncorrectCredentials
	case errors.Is(err, store.ErrInvalidCredentials):
		l.Info("login rejected")
		return LoginResult{}, ErrIncorrectCredentials
	case err != nil:
		return LoginResult{}, fmt.Errorf("validate account: %w", err)
	}

	account, err := s.Accounts.Get(ctx, email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("get account: %w", err)
	}

	if !account.RequiresSecondFactor {
		sess, err := s.Tokens.Issue(email, jwtx.AMRPassword)
		if err != nil {
			return LoginResult{}, err
		}
		l.Info("login succeeded")
		return LoginResult{Session: sess}, nil
	}

	code, err := domain.NewChallengeCode()
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate code: %w", err)
	}
	challenge := domain.Challenge{Email: email, ID: domain.NewChallengeID(), Code: code}
	if err := s.Challenges.Put(ctx, challenge); err != nil {
		return LoginResult{}, fmt.Errorf("store challenge: %w", err)
	}

	res := LoginResult{ChallengeID: challenge.ID}
	if s.Notifier != nil {
		if err := s.Notifier.SendCode(ctx, email, code); err != nil {
			l.Warn("second factor delivery failed", slogx.Err(err))
			res.DeliveryFailed = true
		}
	}
	l.Info("second factor required", slog.String("login_attempt_id", challenge.ID.String()))
	return res, nil
}

// VerifyChallenge completes a login that required a second factor. A wrong
// id or code leaves the challenge in place; a match consumes it.
func (s *AuthService) VerifyChallenge(ctx context.Context, req VerifyChallengeRequest) (Session, error) {
	if err := checkInput(req); err != nil {
		return Session{}, err
	}
	email, err := domain.ParseEmail(*req.Email)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	id, err := domain.ParseChallengeID(*req.ChallengeID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	code, err := domain.ParseChallengeCode(*req.Code)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	ctx, l := slogx.With(ctx, slogx.Email(email.String()))

	challenge, err := s.Challenges.Get(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrChallengeNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get challenge: %w", err)
	}

	if !challenge.Matches(id, code) {
		l.Info("second factor rejected")
		return Session{}, ErrIncorrectChallenge
	}

	// Losing the race to a concurrent verification means the challenge was
	// spent; losing it to a fresh login means it was superseded.
	if err := s.Challenges.Remove(ctx, email, challenge.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrChallengeNotFound
		}
		return Session{}, fmt.Errorf("remove challenge: %w", err)
	}

	sess, err := s.Tokens.Issue(email, jwtx.AMRPassword, jwtx.AMROTP)
	if err != nil {
		return Session{}, err
	}
	l.Info("second factor verified")
	return sess, nil
}

// ValidateToken reports whether a session token is still honoured.
func (s *AuthService) ValidateToken(ctx context.Context, req ValidateTokenRequest) (*jwtx.Claims, error) {
	if err := checkInput(req); err != nil {
		return nil, err
	}
	return s.Tokens.Validate(ctx, *req.Token)
}

// Logout revokes a valid token. Revoking an already revoked token, or
// losing a race with a concurrent logout, is ErrInvalidToken.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}

	claims, err := s.Tokens.Validate(ctx, token)
	if err != nil {
		return err
	}

	err = s.Tokens.Revocations.Revoke(ctx, token, claims.ExpiresAt.Time)
	if errors.Is(err, store.ErrAlreadyRevoked) {
		return invalidToken(ErrRevokedToken, nil)
	}
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	slogx.FromContext(ctx).Info("logged out", slogx.Email(claims.Subject))
	return nil
}
