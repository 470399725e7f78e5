package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/doorman/internal/auth/notify"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
)

func newNotifier(ctx context.Context, cfg Config, logger *slog.Logger) (service.Notifier, error) {
	switch cfg.Notifier {
	case "smtp":
		logger.Info("second factor codes sent by mail", "smtp_addr", cfg.SMTPAddr)
		return notify.NewSMTP(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword), nil
	case "sns":
		n, err := notify.NewSNS(ctx, cfg.SNSRegion, cfg.SNSTopicARN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sns notifier: %w", err)
		}
		logger.Info("second factor codes published to sns", "topic", cfg.SNSTopicARN)
		return n, nil
	default:
		if cfg.Env == "prod" {
			logger.Warn("second factor codes are written to the log")
		}
		return notify.Log{Logger: logger}, nil
	}
}
