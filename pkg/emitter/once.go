package emitter

import (
	"context"
	"sync/atomic"

	"github.com/asynckit/emitter/pkg/emitter/promise"
)

// onceGuard wraps a listener so it runs at most once. When the event fires
// the guard removes itself from the registry first — waiting for the
// removal, including any removeListener notification it triggers — and only
// then invokes the underlying listener. By the time the listener runs, a
// recursive emission of the same type no longer sees the guard, which keeps
// re-entrant emits bounded.
type onceGuard struct {
	e     *Emitter
	etype string
	fn    Listener
	self  *entry
	fired atomic.Bool
}

func (g *onceGuard) invoke(ctx context.Context, args ...any) (any, error) {
	if !g.fired.CompareAndSwap(false, true) {
		return nil, nil
	}
	if err := g.e.removeEntry(ctx, g.etype, g.self); err != nil {
		return nil, err
	}
	return g.fn(ctx, args...)
}

// Once registers a listener invoked at most once for an event type. The
// listener is removed before it is invoked; it remains removable beforehand
// via RemoveListener with the original listener.
//
// Registration goes through the normal add path, so newListener
// notifications and the max-listener diagnostic behave exactly as with On.
func (e *Emitter) Once(ctx context.Context, etype string, fn Listener) error {
	if fn == nil {
		return ErrInvalidListener
	}
	g := &onceGuard{e: e, etype: etype, fn: fn}
	en := &entry{
		fn:            g.invoke,
		ptr:           listenerPtr(g.invoke),
		underlying:    fn,
		underlyingPtr: listenerPtr(fn),
	}
	g.self = en
	return e.insert(ctx, etype, en)
}

// OnceValue registers a one-shot listener that resolves the returned
// promise with the first argument of the next emission for the event type.
func (e *Emitter) OnceValue(ctx context.Context, etype string) (*promise.Promise[any], error) {
	p := promise.New[any]()
	fn := func(_ context.Context, args ...any) (any, error) {
		var first any
		if len(args) > 0 {
			first = args[0]
		}
		p.Resolve(first)
		return first, nil
	}
	if err := e.Once(ctx, etype, fn); err != nil {
		return nil, err
	}
	return p, nil
}
