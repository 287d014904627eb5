/*
store.go - Persistence interfaces for the payroll engine

PURPOSE:
  Defines what the engine needs from storage: source records queryable by
  owner, teacher, date and batch; payroll batches; and price definitions.
  Summaries and reportable items are never stored.

CONDITIONAL ASSIGNMENT:
  AssignBatch / UnassignBatch must evaluate CheckAssign / CheckUnassign and
  write in one step per record (a single-row conditional UPDATE in SQL, a
  held lock in memory). No partial mutation on failure.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - payroll/store/memory.go: In-memory for testing

SEE ALSO:
  - assignment.go: The rules the stores apply
  - pricing/catalog.go: pricing.Store
*/
package payroll

import (
	"context"
	"time"

	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/pricing"
)

// ItemFilter narrows record loads. Zero values mean "any".
type ItemFilter struct {
	OwnerID        pricing.OwnerID
	TeacherID      formula.TeacherID
	BatchID        formula.BatchID
	From           time.Time // inclusive
	To             time.Time // inclusive
	UnassignedOnly bool
}

// Match applies the filter to an item header. Stores may use it directly.
func (f ItemFilter) Match(h Header) bool {
	if h.OwnerID != f.OwnerID {
		return false
	}
	if f.TeacherID != "" && h.TeacherID != f.TeacherID {
		return false
	}
	if f.BatchID != "" && h.BatchID != f.BatchID {
		return false
	}
	if f.UnassignedOnly && h.BatchID != "" {
		return false
	}
	if !f.From.IsZero() && h.ReportDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && h.ReportDate.After(f.To) {
		return false
	}
	return true
}

// RecordStore loads the priced source records. Loaded reports carry their
// teacher's type; loaded answers carry their question's tariff.
type RecordStore interface {
	LoadReports(ctx context.Context, filter ItemFilter) ([]formula.ActivityReport, error)
	LoadAnswers(ctx context.Context, filter ItemFilter) ([]formula.AnswerRecord, error)

	// AssignBatch sets the record's batch under CheckAssign.
	AssignBatch(ctx context.Context, ref ItemRef, batch formula.BatchID) error

	// UnassignBatch clears the record's batch under CheckUnassign.
	UnassignBatch(ctx context.Context, ref ItemRef) error

	// Confirm freezes the record.
	Confirm(ctx context.Context, ref ItemRef) error
}

// BatchStore persists payroll batches.
type BatchStore interface {
	SaveBatch(ctx context.Context, b Batch) error
	GetBatch(ctx context.Context, id formula.BatchID) (*Batch, error)
	ListBatches(ctx context.Context, owner pricing.OwnerID) ([]Batch, error)
}

// Store is everything the Engine needs.
type Store interface {
	pricing.Store
	RecordStore
	BatchStore
}
