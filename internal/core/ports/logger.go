package ports

import "github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"

// Logger defines the interface for structured logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	// Debug logs a diagnostic message with optional key/value attributes.
	Debug(msg string, args ...any)

	// Info logs an informational message with optional key/value attributes.
	Info(msg string, args ...any)

	// Warn logs a warning message with optional key/value attributes.
	Warn(msg string, args ...any)

	// Error logs err, rendering its cause chain.
	Error(err error, args ...any)

	// SetLevel changes the minimum level that is written.
	SetLevel(level domain.LogLevel)
}
