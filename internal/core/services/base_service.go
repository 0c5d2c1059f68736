package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/SscSPs/artist_ledger_app/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	now func() time.Time
}

// Now returns the service clock, defaulting to the wall clock in UTC.
func (s *BaseService) Now() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// AuthorizeActor checks that the actor holds at least the required admin level.
func (s *BaseService) AuthorizeActor(ctx context.Context, actor domain.Actor, required domain.AdminLevel) error {
	if err := domain.RequireLevel(actor, required); err != nil {
		s.LogWarn(ctx, "Actor not authorized",
			slog.String("user_id", actor.UserID),
			slog.String("level", string(actor.Level)),
			slog.String("required_level", string(required)))
		return err
	}
	return nil
}

// ServiceOption is a functional option shared by all services.
type ServiceOption func(*BaseService)

// WithClock overrides the service clock. Tests use it to pin time.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *BaseService) {
		s.now = now
	}
}

func applyBaseOptions(base *BaseService, options []ServiceOption) {
	for _, option := range options {
		option(base)
	}
}
