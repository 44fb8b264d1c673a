// Package config provides 12-factor configuration for the supervisor daemon.
//
// Configuration is loaded from environment variables with defaults; command
// line flags override them. An optional layout file (YAML or TOML) lists the
// stacks to create at boot.
//
// Environment Variables:
//   - PORT, HOST
//   - SUPERVISOR_SHUTDOWN_TIMEOUT, SUPERVISOR_LAYOUT
//   - DUMP_TIMEOUT, DUMP_RETRIES, DUMP_RPS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//
// Layout file (YAML):
//
//	stacks:
//	  - relative_id: 0
//	    position: 1
//	    weight: 0.5
package config
