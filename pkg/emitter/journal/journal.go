// Package journal provides storage for failed emissions: listener failures
// and unhandled "error" emissions. It never stores registered listeners,
// only failure diagnostics.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// FailedEmission is one recorded emission failure.
type FailedEmission struct {
	// EmissionID uniquely identifies the emission that failed.
	EmissionID string `json:"emission_id"`

	// EventType is the emitted event type.
	EventType string `json:"event_type"`

	// Args is the JSON-encoded argument list, when it was encodable.
	Args []byte `json:"args,omitempty"`

	// ErrorMessage is the failure's error text.
	ErrorMessage string `json:"error_message"`

	// Unhandled marks an "error" emission that had no listener.
	Unhandled bool `json:"unhandled"`

	// OccurredAt is when the failure was observed.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewFailedEmission builds a record from an emission failure.
// Argument encoding is best effort; unencodable arguments are dropped.
func NewFailedEmission(emissionID, eventType string, args []any, cause error, unhandled bool) *FailedEmission {
	encoded, err := json.Marshal(args)
	if err != nil {
		encoded = nil
	}
	return &FailedEmission{
		EmissionID:   emissionID,
		EventType:    eventType,
		Args:         encoded,
		ErrorMessage: cause.Error(),
		Unhandled:    unhandled,
		OccurredAt:   time.Now().UTC(),
	}
}

// Store persists failed emissions.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record stores a failed emission.
	Record(ctx context.Context, failed *FailedEmission) error

	// Get retrieves a failed emission by emission ID.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, emissionID string) (*FailedEmission, error)

	// List returns failures for an event type, newest first. An empty
	// event type matches all types. limit <= 0 means no limit.
	List(ctx context.Context, eventType string, limit int) ([]*FailedEmission, error)

	// Count returns the number of stored failures.
	Count(ctx context.Context) (int, error)

	// Delete removes one failure.
	// Returns nil if it doesn't exist.
	Delete(ctx context.Context, emissionID string) error

	// Clear removes every stored failure.
	Clear(ctx context.Context) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for journal operations.
var (
	// ErrNotFound indicates a failure record doesn't exist.
	ErrNotFound = errors.New("failed emission not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)
