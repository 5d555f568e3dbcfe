package events

import (
	"context"
	"log/slog"

	"casbinder/internal/binder/models"
	"casbinder/internal/platform/logger"
	"casbinder/pkg/requestcontext"
)

// LogListener records each authentication as a structured log line.
type LogListener struct {
	logger *slog.Logger
}

func NewLogListener(l *slog.Logger) *LogListener {
	if l == nil {
		l = slog.Default()
	}
	return &LogListener{logger: l}
}

func (l *LogListener) OnAuthenticated(ctx context.Context, event models.AuthenticatedEvent) error {
	if event.Account == nil {
		return nil
	}
	via := "ticket"
	if event.Correlation.AccessToken != "" {
		via = "token"
	}
	l.logger.InfoContext(ctx, "account authenticated",
		"account_id", event.Account.ID.String(),
		"username", event.Account.Username,
		"email", logger.MaskEmail(event.Account.Email),
		"created", event.Created,
		"via", via,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
