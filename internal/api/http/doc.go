// Package http provides the admin REST API of the session supervisor.
//
// Every handler that reads or mutates supervisor state takes the supervisor
// lock for the duration of the call, so each request observes and leaves a
// consistent registry.
//
// Endpoints:
//   - Health: /health
//   - Stacks: /stacks, /stacks/:id/focus, /stacks/:id/activities, /stacks/resume
//   - Activities: /activities/:token/paused, /activities/:token/stopped
//   - Tasks: /tasks/:id/move, /tasks/:id/front
//   - Processes: /processes, /processes/:pid/{died,crashed,finish-top,destroy}
//   - Packages: /packages/:name/force-stop
//   - System: /system-dialogs/close, /idle, /power/{sleep,wake},
//     /configuration, /users/:id/switch, /keyguard/dismiss-latch, /shutdown
//   - Reports: /dump (text, gzip when accepted)
//
// Example Usage:
//
//	handlers := http.NewHandlers(sup, procs, dumpClient, cfg.Supervisor.ShutdownTimeout, logger)
//	handlers.Register(router)
package http
