// Package middleware provides gin middleware for the admin API: CORS and
// per-client or global rate limiting, both configurable from the daemon
// environment.
package middleware
