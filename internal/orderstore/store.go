// =============================================================================
// Order Export Converter - Order Store Module
// =============================================================================
//
// This module is the persistence boundary of the pipeline. Parsed records are
// written to a store and re-read through a filter before grouping; the store
// is deliberately a narrow interface so the transform core never depends on
// a concrete database and tests can run against the in-memory implementation.
//
// Two operations are all the pipeline needs:
//   - ReplaceAll: discard whatever a collection holds and store the new
//     records. After return the old state is gone and the new state present.
//   - Query: return the records of a collection matching a filter (order
//     date window plus cancellation-flag equality).
//
// Implementations: PostgresStore (production, GORM) and MemoryStore (tests
// and the "memory" driver).
//
// =============================================================================

package orderstore

import (
	"context"
	"errors"
	"time"

	"github.com/orderforge/order-export-conversion/internal/types"
)

// ErrStoreUnavailable indicates the persistence boundary cannot be reached.
// It is fatal for the current file; the orchestrator logs it and moves on.
var ErrStoreUnavailable = errors.New("order store unavailable")

// Filter selects records for report generation. Zero-valued bounds disable
// the corresponding predicate, so every part is parameterizable by the
// orchestrator rather than baked into the store.
type Filter struct {
	// PlacedAfter keeps records whose order date is strictly after this
	// instant.
	PlacedAfter time.Time

	// PlacedBefore keeps records whose order date is strictly before this
	// instant.
	PlacedBefore time.Time

	// CancellationFlag, when non-empty, keeps only records whose
	// is-buyer-requested-cancellation field equals this string. The export
	// carries the flag as the literal strings "true"/"false".
	CancellationFlag string
}

// Matches reports whether a record passes the filter. The concrete stores
// push these predicates down to the database where they can; this method is
// the reference semantics.
func (f Filter) Matches(record types.RawRecord) bool {
	if !f.PlacedAfter.IsZero() && !record.OrderDate.After(f.PlacedAfter) {
		return false
	}
	if !f.PlacedBefore.IsZero() && !record.OrderDate.Before(f.PlacedBefore) {
		return false
	}
	if f.CancellationFlag != "" && record.Field(types.FieldBuyerCancel) != f.CancellationFlag {
		return false
	}
	return true
}

// Store is the persistence boundary consumed by the pipeline.
type Store interface {
	// ReplaceAll atomically discards any existing records under the
	// collection key and stores the given sequence.
	ReplaceAll(ctx context.Context, collection string, records []types.RawRecord) error

	// Query returns all records under the collection key matching the
	// filter. Result order is insertion order for the bundled
	// implementations, but callers must not rely on it.
	Query(ctx context.Context, collection string, filter Filter) ([]types.RawRecord, error)
}
