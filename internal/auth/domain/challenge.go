package domain

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/google/uuid"
)

var (
	ErrInvalidChallengeID   = errors.New("invalid login attempt id")
	ErrInvalidChallengeCode = errors.New("invalid 2FA code")
)

// ChallengeCodeLength is the number of digits in a second-factor code.
const ChallengeCodeLength = 6

// ChallengeID names one login attempt awaiting its second factor.
type ChallengeID string

// NewChallengeID returns a random (version 4) UUID.
func NewChallengeID() ChallengeID {
	return ChallengeID(uuid.NewString())
}

// ParseChallengeID accepts only the canonical 36 character UUID form.
func ParseChallengeID(s string) (ChallengeID, error) {
	if len(s) != 36 {
		return "", ErrInvalidChallengeID
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidChallengeID, err)
	}
	return ChallengeID(id.String()), nil
}

func (id ChallengeID) String() string { return string(id) }

// ChallengeCode is a six digit one-time code.
type ChallengeCode string

// NewChallengeCode draws uniformly from 100000..999999 using crypto/rand.
func NewChallengeCode() (ChallengeCode, error) {
	n, err := cryptox.RandomInt(100000, 999999)
	if err != nil {
		return "", err
	}
	return ChallengeCode(fmt.Sprintf("%06d", n)), nil
}

// ParseChallengeCode requires exactly six ASCII digits.
func ParseChallengeCode(s string) (ChallengeCode, error) {
	if len(s) != ChallengeCodeLength {
		return "", ErrInvalidChallengeCode
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", ErrInvalidChallengeCode
		}
	}
	return ChallengeCode(s), nil
}

func (c ChallengeCode) String() string { return string(c) }

// Challenge is the outstanding second factor for one account.
type Challenge struct {
	Email Email
	ID    ChallengeID
	Code  ChallengeCode
}

// Matches compares both id and code in constant time.
func (c Challenge) Matches(id ChallengeID, code ChallengeCode) bool {
	idOK := subtle.ConstantTimeCompare([]byte(c.ID), []byte(id))
	codeOK := subtle.ConstantTimeCompare([]byte(c.Code), []byte(code))
	return idOK&codeOK == 1
}
