package thread

import (
	"context"
	"log/slog"
)

// Option configures a Thread at construction.
type Option func(*Thread)

// WithName sets the label used in logs and listings.
func WithName(name string) Option {
	return func(t *Thread) { t.name = name }
}

// WithLogger sets the logger failures are reported to. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Thread) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithContext sets the parent of every context handed to Runner.Run.
// Canceling it has the same effect as Stop, without clearing the started flag
// until Run returns.
func WithContext(ctx context.Context) Option {
	return func(t *Thread) {
		if ctx != nil {
			t.parent = ctx
		}
	}
}
