package emitter

import (
	"context"
	"sort"
)

// RemoveListener removes the last-registered occurrence of a listener for
// an event type. A stored entry matches when it is the listener itself or
// when the listener is its underlying listener, so a Once registration is
// removable by the original function. Removing an unknown listener or from
// an unknown type is a no-op.
//
// After the removal is committed, listeners of EventRemoveListener are
// notified with (type, listener) — the underlying listener for wrapped
// registrations — and awaited before RemoveListener returns.
func (e *Emitter) RemoveListener(ctx context.Context, etype string, fn Listener) error {
	if fn == nil {
		return ErrInvalidListener
	}

	e.mu.Lock()
	s := e.events[etype]
	if s == nil {
		e.mu.Unlock()
		return nil
	}
	removed := s.removeLastMatch(listenerPtr(fn))
	if removed == nil {
		e.mu.Unlock()
		return nil
	}
	notify, total := e.commitRemovalLocked(etype, s)
	e.mu.Unlock()

	return e.finishRemoval(ctx, etype, removed, notify, total)
}

// removeEntry removes one specific registered occurrence. It backs the
// once wrapper's self-removal and the per-listener path of
// RemoveAllListeners, where pointer identity of the stored entry is already
// known.
func (e *Emitter) removeEntry(ctx context.Context, etype string, target *entry) error {
	e.mu.Lock()
	s := e.events[etype]
	if s == nil {
		e.mu.Unlock()
		return nil
	}
	removed := s.removeExact(target)
	if removed == nil {
		e.mu.Unlock()
		return nil
	}
	notify, total := e.commitRemovalLocked(etype, s)
	e.mu.Unlock()

	return e.finishRemoval(ctx, etype, removed, notify, total)
}

// commitRemovalLocked adjusts count and slot storage after one entry was
// taken out of s. Caller holds e.mu. It reports whether a removeListener
// notification is due and the remaining total.
func (e *Emitter) commitRemovalLocked(etype string, s *slot) (notify bool, total int) {
	e.count--
	if s.len() == 0 {
		delete(e.events, etype)
	}
	if e.count == 0 {
		// Last listener overall: collapse to a fresh registry.
		e.events = make(map[string]*slot)
	}
	_, notify = e.events[EventRemoveListener]
	return notify, e.count
}

// finishRemoval runs the post-commit side effects of a removal.
func (e *Emitter) finishRemoval(ctx context.Context, etype string, removed *entry, notify bool, total int) error {
	e.metrics.RecordRemoval(ctx, etype, total)
	if !notify {
		return nil
	}
	_, err := e.Emit(ctx, EventRemoveListener, etype, removed.notifyTarget())
	return err
}

// RemoveAllListeners removes all listeners for the given event types, or
// for every type when none are given.
//
// Without a removeListener subscriber the registry (or the one slot) is
// reset in a single step with no notifications. With one, listeners are
// removed one at a time — in reverse registration order within a type, with
// removeListener's own listeners last across types — so each removal
// produces its own notification in deterministic order.
func (e *Emitter) RemoveAllListeners(ctx context.Context, etypes ...string) error {
	if len(etypes) == 0 {
		return e.removeAll(ctx)
	}
	for _, etype := range etypes {
		if err := e.removeAllForType(ctx, etype); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) removeAll(ctx context.Context) error {
	e.mu.Lock()
	if _, subscribed := e.events[EventRemoveListener]; !subscribed {
		e.events = make(map[string]*slot)
		e.count = 0
		e.mu.Unlock()
		return nil
	}
	types := make([]string, 0, len(e.events))
	for t := range e.events {
		if t != EventRemoveListener {
			types = append(types, t)
		}
	}
	e.mu.Unlock()

	// Sorted for a deterministic notification order across types;
	// removeListener itself always goes last.
	sort.Strings(types)
	for _, t := range types {
		if err := e.removeAllForType(ctx, t); err != nil {
			return err
		}
	}
	if err := e.removeAllForType(ctx, EventRemoveListener); err != nil {
		return err
	}

	e.mu.Lock()
	e.events = make(map[string]*slot)
	e.count = 0
	e.mu.Unlock()
	return nil
}

func (e *Emitter) removeAllForType(ctx context.Context, etype string) error {
	e.mu.Lock()
	s := e.events[etype]
	if s == nil {
		e.mu.Unlock()
		return nil
	}
	if _, subscribed := e.events[EventRemoveListener]; !subscribed {
		e.count -= s.len()
		delete(e.events, etype)
		if e.count == 0 {
			e.events = make(map[string]*slot)
		}
		e.mu.Unlock()
		return nil
	}
	snapshot := s.entries()
	e.mu.Unlock()

	// Last-registered first, one notification per listener.
	for i := len(snapshot) - 1; i >= 0; i-- {
		if err := e.removeEntry(ctx, etype, snapshot[i]); err != nil {
			return err
		}
	}
	return nil
}
