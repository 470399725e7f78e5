package service

import (
	"context"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
)

// Notifier delivers a second-factor code out of band.
type Notifier interface {
	SendCode(ctx context.Context, to domain.Email, code domain.ChallengeCode) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, to domain.Email, code domain.ChallengeCode) error

func (f NotifierFunc) SendCode(ctx context.Context, to domain.Email, code domain.ChallengeCode) error {
	return f(ctx, to, code)
}
