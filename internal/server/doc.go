// Package server implements the HTTP server for the pushhook webhook receiver.
//
// This package provides:
//   - GitHub webhook endpoint handling with HMAC signature verification
//   - Per-IP rate limiting of the webhook endpoint
//   - A health endpoint for monitoring
//   - Structured logging of all HTTP requests
//
// The server integrates with other packages:
//   - internal/config: the webhook secret, re-read on every request
//   - internal/deployment: background dispatch of git update and service restart
//
// Request validation happens in a fixed order and nothing is dispatched until
// every check has passed:
//   - Content-Type must be exactly application/json (415 otherwise)
//   - Payload size limit of 1MB (413 otherwise)
//   - HMAC-SHA256 signature over the raw body (400 otherwise)
//   - Body must be a JSON object (400 otherwise)
package server
