package payroll

import (
	"fmt"

	"github.com/warp/teacher-payroll/formula"
)

// =============================================================================
// ASSIGNMENT RULES
// =============================================================================
//
// A record is frozen once it is confirmed. An unconfirmed record may join a
// batch of its own owner when it has none, and re-joining the same batch is
// a no-op. Moving to a different batch requires an explicit Unassign first.
// While a record sits in a batch its content cannot be rewritten.
//
// Stores apply these rules inside a single conditional write per record so
// two concurrent assignments cannot both succeed.

// CheckAssign decides whether the item may be assigned to batch.
// noop is true when the item already sits in that batch.
func CheckAssign(h Header, batch formula.BatchID) (noop bool, err error) {
	if batch == "" {
		return false, &AssignmentError{Item: h.Ref, Current: h.BatchID, Requested: batch, Reason: ErrEmptyBatchID}
	}
	if h.IsConfirmed {
		return false, &AssignmentError{Item: h.Ref, Current: h.BatchID, Requested: batch, Reason: ErrAlreadyConfirmed}
	}
	if h.BatchID == batch {
		return true, nil
	}
	if h.BatchID != "" {
		return false, &AssignmentError{Item: h.Ref, Current: h.BatchID, Requested: batch, Reason: ErrAlreadyBatched}
	}
	return false, nil
}

// CheckUnassign decides whether the item may leave its batch.
// noop is true when the item has no batch.
func CheckUnassign(h Header) (noop bool, err error) {
	if h.IsConfirmed {
		return false, &AssignmentError{Item: h.Ref, Current: h.BatchID, Reason: ErrAlreadyConfirmed}
	}
	return h.BatchID == "", nil
}

// CheckBatchOwner refuses a batch that does not exist or that belongs to
// another owner than the item.
func CheckBatchOwner(h Header, batch formula.BatchID, b *Batch) error {
	if b == nil {
		return &AssignmentError{Item: h.Ref, Current: h.BatchID, Requested: batch, Reason: ErrBatchNotFound}
	}
	if b.OwnerID != h.OwnerID {
		return &AssignmentError{Item: h.Ref, Current: h.BatchID, Requested: batch, Reason: ErrBatchOwnerMismatch}
	}
	return nil
}

// CheckRewrite decides whether a stored record may be replaced by an
// upsert. Confirmed and batched records are frozen.
func CheckRewrite(h Header) error {
	switch {
	case h.IsConfirmed:
		return fmt.Errorf("%s: %w", h.Ref, ErrAlreadyConfirmed)
	case h.BatchID != "":
		return fmt.Errorf("%s is in batch %s: %w", h.Ref, h.BatchID, ErrAlreadyBatched)
	}
	return nil
}

// Assign applies CheckAssign to an in-memory item. On failure the item is
// left untouched. The price is not recomputed.
func Assign(item *ReportableItem, batch formula.BatchID) error {
	noop, err := CheckAssign(item.Header, batch)
	if err != nil || noop {
		return err
	}
	setBatch(item, batch)
	return nil
}

// Unassign clears the item's batch.
func Unassign(item *ReportableItem) error {
	noop, err := CheckUnassign(item.Header)
	if err != nil || noop {
		return err
	}
	setBatch(item, "")
	return nil
}

func setBatch(item *ReportableItem, batch formula.BatchID) {
	item.BatchID = batch
	switch src := item.Source.(type) {
	case Report:
		src.BatchID = batch
		item.Source = src
	case Answer:
		src.BatchID = batch
		item.Source = src
	}
}
