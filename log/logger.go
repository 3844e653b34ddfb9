package log

import "context"

// Logger defines the structured logging interface used across the service.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	Fatal(ctx context.Context, msg string, err error, fields ...map[string]interface{}) // zerolog exits the process
	With(fields map[string]interface{}) Logger                                         // Returns a new logger with added structured fields
}

// Redact shortens a secret for logging, keeping only its first eight characters.
func Redact(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}

	return secret[:8] + "..."
}
