// Package logging is the structured logger shared by the server and the CLI.
// ZapLogger is the default backend; SlogLogger backs LOG_BACKEND=slog.
package logging

import "context"

// Logger takes a message plus alternating key/value pairs:
//
//	log.Info(ctx, "request served", "path", path, "status", status)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that prefixes every entry with args.
	With(args ...any) Logger
}
