/*
Package tracing provides lightweight request tracing for the admin API.

Each admin request gets a span. The trace id is taken from the X-Trace-ID
header when the caller sends one and generated otherwise; both ids are echoed
in the response. The live dump client forwards the trace context to hosting
processes, so a client dump can be matched to the admin request that asked
for it.

# Usage

	tracer := tracing.New("supervisor", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

Finished spans are logged through zap at debug level, or at error level when
the span recorded an error. Spans are buffered (1000) and a full buffer drops
spans rather than blocking the request.
*/
package tracing
