// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// The supervisor logs recoverable conditions (unknown stack on a task move,
// shutdown timeouts) at Warn and keeps fan-out chatter at Debug.
//
// Example Usage:
//
//	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	sup := supervisor.New(wm, supervisor.WithLogger(logger.Component("supervisor")))
//	logger.Info("Supervisor ready", zap.Int("stacks", 1))
package logging
