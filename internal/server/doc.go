// Package server wires the session supervisor daemon together.
//
// Components:
//   - Supervisor with the stack implementation and the home stack
//   - Process table and live dump client
//   - Event hub serving /ws/events
//   - Admin REST API with recovery, tracing, metrics, CORS and rate limiting
//   - Prometheus registry served on /metrics
//
// Server Lifecycle:
//  1. Load configuration from environment and flags
//  2. Initialize logger and metrics
//  3. Create the home stack, then any stacks named by the layout file
//  4. Setup HTTP routes and middleware
//  5. Serve until the context is cancelled
//  6. Shut the supervisor down and flush logs
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
