/*
errors.go - Error types for the payroll engine

ERROR CATEGORIES:
  1. Assignment errors - An item may not join or leave a batch
  2. Lookup errors - A referenced item or batch does not exist
  3. Input errors - Malformed references

Pricing never fails for data-shape reasons. Missing codes, teacher types and
metrics price as zero, so nothing here describes a pricing failure.

USAGE:
  err := engine.Assign(ctx, ref, batchID)
  if errors.Is(err, payroll.ErrAlreadyBatched) {
      // unassign first, or skip
  }
*/
package payroll

import (
	"errors"
	"fmt"

	"github.com/warp/teacher-payroll/formula"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAlreadyConfirmed is returned when the item's record is confirmed.
	ErrAlreadyConfirmed = errors.New("item already confirmed")

	// ErrAlreadyBatched is returned when the item sits in a different batch,
	// or when an upsert targets a record that is in a batch.
	ErrAlreadyBatched = errors.New("item already assigned to another batch")

	// ErrBatchOwnerMismatch is returned when the batch belongs to another owner.
	ErrBatchOwnerMismatch = errors.New("batch belongs to another owner")

	// ErrItemNotFound is returned when the referenced record does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrBatchNotFound is returned when the referenced batch does not exist.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrInvalidItemKind is returned for references that are neither report nor answer.
	ErrInvalidItemKind = errors.New("invalid item kind")

	// ErrEmptyBatchID is returned when assigning to an empty batch ID.
	ErrEmptyBatchID = errors.New("batch id is empty")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// AssignmentError explains why an assignment was refused.
type AssignmentError struct {
	Item      ItemRef
	Current   formula.BatchID
	Requested formula.BatchID
	Reason    error
}

func (e *AssignmentError) Error() string {
	if errors.Is(e.Reason, ErrAlreadyBatched) {
		return fmt.Sprintf("cannot assign %s to batch %s: already in batch %s",
			e.Item, e.Requested, e.Current)
	}
	return fmt.Sprintf("cannot assign %s to batch %q: %v", e.Item, e.Requested, e.Reason)
}

func (e *AssignmentError) Unwrap() error {
	return e.Reason
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsAssignmentConflict returns true when the item state forbids the change.
func IsAssignmentConflict(err error) bool {
	return errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrAlreadyBatched) ||
		errors.Is(err, ErrBatchOwnerMismatch)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidItemKind) || errors.Is(err, ErrEmptyBatchID)
}

// IsNotFound returns true if the error indicates a missing item or batch.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrBatchNotFound)
}
