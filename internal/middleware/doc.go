// Package middleware provides HTTP middleware for the poster service.
//
// It includes:
//   - Request IDs (X-Request-ID), generated with google/uuid when absent
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by mux route template
//   - gzip compression for JSON responses
package middleware
