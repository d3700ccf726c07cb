package emitter

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/asynckit/emitter/pkg/emitter/journal"
	"github.com/asynckit/emitter/pkg/emitter/observability"
)

// Listener handles one emission. It receives the emission arguments
// positionally and may block on asynchronous work; its result contributes
// to the aggregated outcome of Emit.
type Listener func(ctx context.Context, args ...any) (any, error)

// ResultFilter decides which listener results survive aggregation.
type ResultFilter func(result any) bool

// Reserved event types. They dispatch like any other type but have
// registration and removal side effects attached (see On, RemoveListener)
// or, for EventError, a dedicated unhandled policy (see Emit).
const (
	EventNewListener    = "newListener"
	EventRemoveListener = "removeListener"
	EventError          = "error"
)

// Config configures an Emitter. The zero value is usable.
type Config struct {
	// MaxListeners is the per-type warning threshold. Zero means "use the
	// process-wide default" (DefaultMaxListeners).
	MaxListeners int

	// ResultFilter overrides the process-wide default filter.
	ResultFilter ResultFilter

	// Logger receives emission and diagnostic logs. Nil disables logging.
	Logger *slog.Logger

	// Metrics records emission metrics. Nil means no metrics.
	Metrics observability.MetricsRecorder

	// Spans traces emissions. Nil means no tracing.
	Spans observability.SpanManager

	// Journal records failed emissions. Nil disables the journal.
	Journal journal.Store
}

// DefaultConfig provides reasonable defaults.
var DefaultConfig = Config{}

// entry is one registered listener occurrence.
type entry struct {
	fn  Listener
	ptr uintptr

	// underlying is the original listener when fn is a wrapper (Once).
	// Removal identity and removeListener/newListener notifications use it
	// instead of the wrapper.
	underlying    Listener
	underlyingPtr uintptr
}

// notifyTarget returns the listener surfaced by notifications.
func (en *entry) notifyTarget() Listener {
	if en.underlying != nil {
		return en.underlying
	}
	return en.fn
}

// matches reports whether the entry stores the listener identified by p,
// directly or as its underlying listener.
func (en *entry) matches(p uintptr) bool {
	return en.ptr == p || (en.underlying != nil && en.underlyingPtr == p)
}

// listenerPtr returns the identity pointer of a listener function.
func listenerPtr(fn Listener) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// slot is the listener storage for one event type: a single entry in the
// common case, promoted to an ordered sequence on the second registration
// and demoted back when the sequence collapses to one element.
type slot struct {
	one  *entry
	many []*entry

	// warned tracks the once-per-slot max-listener diagnostic. It resets
	// with the slot.
	warned bool
}

func (s *slot) len() int {
	if s.many != nil {
		return len(s.many)
	}
	if s.one != nil {
		return 1
	}
	return 0
}

func (s *slot) append(en *entry) {
	if s.many != nil {
		s.many = append(s.many, en)
		return
	}
	if s.one == nil {
		s.one = en
		return
	}
	s.many = []*entry{s.one, en}
	s.one = nil
}

// entries returns a copy of the stored sequence in registration order.
func (s *slot) entries() []*entry {
	if s.many != nil {
		out := make([]*entry, len(s.many))
		copy(out, s.many)
		return out
	}
	if s.one != nil {
		return []*entry{s.one}
	}
	return nil
}

// removeLastMatch removes the last-registered entry matching p and returns
// it, or nil when nothing matches.
func (s *slot) removeLastMatch(p uintptr) *entry {
	if s.many != nil {
		for i := len(s.many) - 1; i >= 0; i-- {
			if s.many[i].matches(p) {
				return s.removeAt(i)
			}
		}
		return nil
	}
	if s.one != nil && s.one.matches(p) {
		en := s.one
		s.one = nil
		return en
	}
	return nil
}

// removeExact removes the given entry occurrence, scanning from the end.
func (s *slot) removeExact(target *entry) *entry {
	if s.many != nil {
		for i := len(s.many) - 1; i >= 0; i-- {
			if s.many[i] == target {
				return s.removeAt(i)
			}
		}
		return nil
	}
	if s.one == target {
		s.one = nil
		return target
	}
	return nil
}

func (s *slot) removeAt(i int) *entry {
	en := s.many[i]
	s.many = append(s.many[:i], s.many[i+1:]...)
	if len(s.many) == 1 {
		s.one = s.many[0]
		s.many = nil
	}
	return en
}

// Emitter is an in-process asynchronous event emitter. Emissions invoke
// every registered listener concurrently and return the aggregated outcome
// once all of them have completed.
//
// All methods are safe for concurrent use. Registry mutations are
// serialized per instance; dispatch never holds the registry lock, so
// listeners may freely register, remove and emit recursively.
type Emitter struct {
	mu     sync.Mutex
	events map[string]*slot
	count  int

	// maxListeners: -1 means "use the process default", 0 disables the
	// warning.
	maxListeners int
	filter       ResultFilter
	hasFilter    bool

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	journal journal.Store
}

// New creates an emitter with the given configuration.
func New(cfg Config) *Emitter {
	e := &Emitter{
		events:       make(map[string]*slot),
		maxListeners: -1,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		spans:        cfg.Spans,
		journal:      cfg.Journal,
	}
	if cfg.MaxListeners > 0 {
		e.maxListeners = cfg.MaxListeners
	}
	if cfg.ResultFilter != nil {
		e.filter = cfg.ResultFilter
		e.hasFilter = true
	}
	if e.metrics == nil {
		e.metrics = observability.NoopMetrics{}
	}
	if e.spans == nil {
		e.spans = observability.NoopSpanManager{}
	}
	return e
}

// AddListener registers a listener for an event type. Duplicate
// registrations of the same listener are independent occurrences.
//
// When a newListener slot exists, its listeners are notified with
// (type, listener) and awaited before the listener is physically inserted,
// so a listener never observes its own registration. A failed notification
// aborts the registration.
func (e *Emitter) AddListener(ctx context.Context, etype string, fn Listener) error {
	if fn == nil {
		return ErrInvalidListener
	}
	return e.insert(ctx, etype, &entry{fn: fn, ptr: listenerPtr(fn)})
}

// On is an alias for AddListener.
func (e *Emitter) On(ctx context.Context, etype string, fn Listener) error {
	return e.AddListener(ctx, etype, fn)
}

// insert runs the shared registration path for plain and wrapped listeners.
func (e *Emitter) insert(ctx context.Context, etype string, en *entry) error {
	e.mu.Lock()
	_, hasNew := e.events[EventNewListener]
	e.mu.Unlock()

	if hasNew {
		if _, err := e.Emit(ctx, EventNewListener, etype, en.notifyTarget()); err != nil {
			return err
		}
	}

	e.mu.Lock()
	s := e.events[etype]
	if s == nil {
		s = &slot{}
		e.events[etype] = s
	}
	s.append(en)
	e.count++
	total := e.count
	slotLen := s.len()
	max := e.effectiveMaxListenersLocked()
	warn := max > 0 && slotLen > max && !s.warned
	if warn {
		s.warned = true
	}
	e.mu.Unlock()

	if warn {
		observability.LogListenerLeak(e.logger, etype, slotLen, max)
		e.metrics.RecordLeakWarning(ctx, etype, slotLen)
	}
	e.metrics.RecordRegistration(ctx, etype, total)
	return nil
}

// effectiveMaxListenersLocked resolves the instance threshold against the
// process default. Caller holds e.mu.
func (e *Emitter) effectiveMaxListenersLocked() int {
	if e.maxListeners >= 0 {
		return e.maxListeners
	}
	return DefaultMaxListeners()
}

// MaxListeners returns the effective warning threshold for this emitter.
func (e *Emitter) MaxListeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effectiveMaxListenersLocked()
}

// SetMaxListeners sets the per-instance warning threshold. Zero or negative
// disables the warning.
func (e *Emitter) SetMaxListeners(n int) {
	if n < 0 {
		n = 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxListeners = n
}

// ResultFilter returns the per-instance result filter, or nil when the
// emitter falls back to the process-wide default.
func (e *Emitter) ResultFilter() ResultFilter {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasFilter {
		return nil
	}
	return e.filter
}

// SetResultFilter sets the per-instance result filter. It accepts nil
// (reverts to the process-wide default), a ResultFilter, or a
// func(any) bool; anything else fails with ErrInvalidFilter.
func (e *Emitter) SetResultFilter(filter any) error {
	f, err := coerceFilter(filter)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter = f
	e.hasFilter = f != nil
	return nil
}

// ListenerCount returns the number of listeners registered for an event
// type.
func (e *Emitter) ListenerCount(etype string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.events[etype]
	if s == nil {
		return 0
	}
	return s.len()
}

// Len returns the total number of listener occurrences across all event
// types. It is O(1).
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// EventNames returns the event types that currently have listeners.
// Order is not specified.
func (e *Emitter) EventNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.events))
	for t := range e.events {
		names = append(names, t)
	}
	return names
}

// Listeners returns the listeners registered for an event type in
// registration order. Wrapped listeners are reported as their underlying
// listener.
func (e *Emitter) Listeners(etype string) []Listener {
	e.mu.Lock()
	s := e.events[etype]
	var snapshot []*entry
	if s != nil {
		snapshot = s.entries()
	}
	e.mu.Unlock()

	out := make([]Listener, len(snapshot))
	for i, en := range snapshot {
		out[i] = en.notifyTarget()
	}
	return out
}
