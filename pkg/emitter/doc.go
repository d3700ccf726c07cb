/*
Package emitter provides an in-process, awaited event emitter: a registry of
named event types mapping to ordered listeners, where an emission invokes
every listener concurrently and returns the aggregated outcome only after
all of them have completed.

# Overview

	e := emitter.New(emitter.Config{})

	e.On(ctx, "job.done", func(ctx context.Context, args ...any) (any, error) {
	    return process(args[0])
	})

	results, err := e.Emit(ctx, "job.done", payload)

Emit snapshots the listener set when it starts, so registrations and
removals during an emission never affect the listeners it invokes. All
listeners run to completion; the first failure in registration order becomes
the emission's error, successful runs yield the ordered result slice.

# Reserved event types

Three event types carry protocol semantics:

  - "newListener" is emitted — and awaited — before a listener is inserted,
    so the new listener never observes its own registration.
  - "removeListener" is emitted after each committed removal, carrying the
    event type and the removed listener (the original one for Once
    registrations, never the wrapper).
  - "error" with no registered listener does not dispatch: the emission
    fails with the supplied error, or an UnhandledError wrapping the
    payload.

# One-shot listeners

Once wraps a listener so it runs at most once. The wrapper removes itself
before invoking the listener, which makes recursive emissions of the same
type from inside the listener safe. OnceValue returns a promise.Promise
resolved with the first argument of the next emission.

# Configuration

Per-instance settings (max-listener threshold, result filter) override the
process-wide defaults exposed by DefaultMaxListeners and
DefaultResultFilter. Structured logging uses log/slog; metrics and tracing
use OpenTelemetry through the observability subpackage and default to
no-ops. A journal.Store, when configured, records failed emissions.
*/
package emitter
