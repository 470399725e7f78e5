package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/doorman/pkg/validx"
)

// MinPasswordLength is the shortest password accepted at signup and login.
const MinPasswordLength = 8

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPassword = errors.New("invalid password")
)

// Email is a validated account address. It is compared case-sensitively.
type Email string

// ParseEmail accepts a non-empty, well-formed address.
func ParseEmail(s string) (Email, error) {
	if s == "" || !strings.Contains(s, "@") {
		return "", ErrInvalidEmail
	}
	if err := validx.Var(s, "email"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	return Email(s), nil
}

func (e Email) String() string { return string(e) }

// Password is a cleartext candidate. It never appears in logs.
type Password string

// ParsePassword accepts passwords of at least MinPasswordLength bytes.
func ParsePassword(s string) (Password, error) {
	if len(s) < MinPasswordLength {
		return "", ErrInvalidPassword
	}
	return Password(s), nil
}

func (Password) String() string   { return "[redacted]" }
func (Password) GoString() string { return "[redacted]" }

type Account struct {
	Email                Email
	PasswordHash         string // argon2id PHC
	RequiresSecondFactor bool
	CreatedAt            time.Time
}
