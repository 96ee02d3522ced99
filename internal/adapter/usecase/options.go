package usecase

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// settings are the collaborators every use case shares.
type settings struct {
	logger *slog.Logger
	now    func() time.Time
	newKey func() string
}

func defaultSettings() settings {
	return settings{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newKey: uuid.NewString,
	}
}

// Option configures a use case.
type Option func(*settings)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, e.g. to pin the budget day in tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithKeyGenerator replaces the idempotency key and token generator.
func WithKeyGenerator(gen func() string) Option {
	return func(s *settings) { s.newKey = gen }
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
