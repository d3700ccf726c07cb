package emitter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asynckit/emitter/pkg/emitter/journal"
	"github.com/asynckit/emitter/pkg/emitter/observability"
)

// Emit invokes every listener registered for an event type with the given
// arguments and returns the aggregated outcome.
//
// The listener set is a snapshot taken when the emission begins;
// registrations and removals during the emission do not affect it. All
// listeners are started concurrently in registration order and all run to
// completion. When every listener succeeds the results are returned in
// registration order, post-processed by the effective result filter. When
// any listener fails, Emit returns the first failure in snapshot order.
//
// Emitting EventError with no listener registered for it does not invoke
// anything and fails: with the payload itself when it is an error, with an
// UnhandledError otherwise.
func (e *Emitter) Emit(ctx context.Context, etype string, args ...any) ([]any, error) {
	emissionID := uuid.New().String()

	e.mu.Lock()
	var snapshot []*entry
	if s := e.events[etype]; s != nil {
		snapshot = s.entries()
	}
	filter := e.filter
	hasFilter := e.hasFilter
	e.mu.Unlock()

	if !hasFilter {
		filter = DefaultResultFilter()
	}

	if len(snapshot) == 0 {
		if etype == EventError {
			err := unhandledError(args)
			e.metrics.RecordEmit(ctx, etype, 0, 0, err)
			observability.LogEmitError(observability.EnrichLogger(e.logger, etype, emissionID), err, 0)
			e.recordFailure(ctx, emissionID, etype, args, err, true)
			return nil, err
		}
		return []any{}, nil
	}

	logger := observability.EnrichLogger(e.logger, etype, emissionID)
	ctx, span := e.spans.StartEmitSpan(ctx, etype, emissionID)
	observability.LogEmitStart(logger, len(snapshot))
	start := time.Now()

	results := make([]any, len(snapshot))
	failures := make([]error, len(snapshot))
	var wg sync.WaitGroup
	for i, en := range snapshot {
		wg.Add(1)
		go func(i int, fn Listener) {
			defer wg.Done()
			results[i], failures[i] = invoke(ctx, fn, args)
		}(i, en.fn)
	}
	wg.Wait()

	var firstErr error
	for _, err := range failures {
		if err != nil {
			firstErr = err
			break
		}
	}

	elapsed := time.Since(start)
	e.spans.EndSpanWithError(span, firstErr)
	e.metrics.RecordEmit(ctx, etype, len(snapshot), elapsed, firstErr)

	if firstErr != nil {
		observability.LogEmitError(logger, firstErr, float64(elapsed.Milliseconds()))
		e.recordFailure(ctx, emissionID, etype, args, firstErr, false)
		return nil, firstErr
	}

	if filter != nil {
		filtered := make([]any, 0, len(results))
		for _, r := range results {
			if filter(r) {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	observability.LogEmitComplete(logger, len(results), float64(elapsed.Milliseconds()))
	return results, nil
}

// invoke runs one listener, converting a panic into a per-listener failure
// so that siblings still run and the emission aggregates it like any other
// listener error.
func invoke(ctx context.Context, fn Listener, args []any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			if perr, ok := rec.(error); ok {
				err = perr
			} else {
				err = &PanicError{Value: rec}
			}
		}
	}()
	return fn(ctx, args...)
}

// unhandledError builds the failure outcome for an unhandled "error"
// emission.
func unhandledError(args []any) error {
	if len(args) > 0 {
		if err, ok := args[0].(error); ok && err != nil {
			return err
		}
		return &UnhandledError{Payload: args[0]}
	}
	return &UnhandledError{}
}

// recordFailure journals a failed emission, best effort.
func (e *Emitter) recordFailure(ctx context.Context, emissionID, etype string, args []any, cause error, unhandled bool) {
	if e.journal == nil {
		return
	}
	failed := journal.NewFailedEmission(emissionID, etype, args, cause, unhandled)
	if err := e.journal.Record(ctx, failed); err != nil {
		observability.LogJournalError(e.logger, err)
	}
}
