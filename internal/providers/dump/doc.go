// Package dump fetches live activity dumps from hosting processes.
//
// A hosting process that registered an endpoint serves
// GET {endpoint}/activities/{token}/dump?prefix=...&arg=... and answers with
// plain text. The client wraps resty over a retryablehttp transport, rate
// limits outgoing calls and keeps a circuit breaker per process.
//
// Example Usage:
//
//	client := dump.NewClient(cfg.Dump, logger)
//	out, err := client.DumpActivity(ctx, proc, token, "      ", nil)
package dump
