// Package logging provides a simple leveled logging interface for the
// now-playing renderer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (per-render pipeline steps)
//   - INFO: General operational messages
//   - WARN: Degraded renders (placeholder metadata, fallback URLs)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true.
package logging
