// Package logging wraps log/slog construction and shared attribute helpers
// so components log with consistent field names and formats.
package logging
