// Command supervisor runs the multi-stack session supervisor.
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Run the daemon
//	supervisor serve --port 8000 --layout stacks.yaml
//
//	# Development mode (colored logs, debug level)
//	supervisor serve --dev
//
//	# Print the full activity report of a running daemon
//	supervisor dump --all --addr http://localhost:8000
//
// Signals:
//   - SIGINT, SIGTERM: stop serving, shut every stack down, exit
package main
