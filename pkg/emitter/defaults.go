package emitter

import "sync"

// initialDefaultMaxListeners is the process-wide warning threshold before
// any call to SetDefaultMaxListeners.
const initialDefaultMaxListeners = 10

// Process-wide defaults. Instance values, when set, override these.
var (
	defaultsMu          sync.RWMutex
	defaultMaxListeners = initialDefaultMaxListeners
	defaultResultFilter ResultFilter
)

// DefaultMaxListeners returns the process-wide listener warning threshold.
func DefaultMaxListeners() int {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultMaxListeners
}

// SetDefaultMaxListeners sets the process-wide listener warning threshold.
// Zero or negative disables the warning for emitters that have not set
// their own threshold.
func SetDefaultMaxListeners(n int) {
	if n < 0 {
		n = 0
	}
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultMaxListeners = n
}

// DefaultResultFilter returns the process-wide result filter, or nil when
// none is configured.
func DefaultResultFilter() ResultFilter {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultResultFilter
}

// SetDefaultResultFilter sets the process-wide result filter. It accepts
// nil (clears the filter), a ResultFilter, or a func(any) bool; anything
// else fails with ErrInvalidFilter.
func SetDefaultResultFilter(filter any) error {
	f, err := coerceFilter(filter)
	if err != nil {
		return err
	}
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultResultFilter = f
	return nil
}

// coerceFilter normalizes the accepted filter shapes.
func coerceFilter(filter any) (ResultFilter, error) {
	switch f := filter.(type) {
	case nil:
		return nil, nil
	case ResultFilter:
		return f, nil
	case func(any) bool:
		return f, nil
	default:
		return nil, ErrInvalidFilter
	}
}
