// Package process keeps the table of hosting processes the supervisor's
// activities run in. A process with an endpoint can serve live activity dumps.
package process
