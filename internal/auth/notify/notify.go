// Package notify delivers second-factor codes out of band.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

const subject = "Your login code"

func body(code domain.ChallengeCode) string {
	return fmt.Sprintf("Your login code is %s. It expires in 10 minutes.\r\n"+
		"If you did not try to log in, change your password.", code)
}

// Log writes codes to the logger instead of sending them. For development
// only: anyone who can read the logs can log in as anyone.
type Log struct {
	Logger *slog.Logger
}

func (n Log) SendCode(ctx context.Context, to domain.Email, code domain.ChallengeCode) error {
	l := n.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}
	l.InfoContext(ctx, "second factor code", slogx.Email(to.String()), slog.String("code", code.String()))
	return nil
}

var (
	_ service.Notifier = Log{}
	_ service.Notifier = (*SMTP)(nil)
	_ service.Notifier = (*SNS)(nil)
)
