/*
Package payroll turns priced activity into per-teacher, per-month payroll rows.

PURPOSE:
  Two unrelated record shapes earn money: activity reports (priced by the
  teacher-type formula) and answers to priced questions (answer x tariff).
  This package normalizes both into one ReportableItem, groups the items of
  a payroll batch by teacher and month, and guards which items may be put
  into (or taken out of) a batch.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: Tagged variant over the two sources (Report | Answer)
  - ReportableItem: The uniform priced shape the aggregator reads
  - Batch: A named payroll run items are assigned to
  - Summary: One (owner, batch, teacher, year, month) payroll row

LIVE PRICING:
  Nothing is frozen at assignment time. Items are always repriced from the
  current metrics and the current catalog, so a batch total follows price
  changes made after assignment.

SEE ALSO:
  - union.go: Union of reports and answers
  - aggregate.go: Summarize / BatchTotals
  - assignment.go: Assign / Unassign rules
  - engine.go: Store-backed service tying it together
*/
package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/pricing"
)

// =============================================================================
// ITEM IDENTITY
// =============================================================================

type ItemKind string

const (
	KindReport ItemKind = "report"
	KindAnswer ItemKind = "answer"
)

func (k ItemKind) Valid() bool { return k == KindReport || k == KindAnswer }

// ItemRef identifies a reportable item by its source kind and record ID.
type ItemRef struct {
	Kind ItemKind
	ID   string
}

func (r ItemRef) String() string { return string(r.Kind) + ":" + r.ID }

// Header is what every reportable item exposes regardless of its source.
type Header struct {
	Ref         ItemRef
	OwnerID     pricing.OwnerID
	TeacherID   formula.TeacherID
	ReportDate  time.Time
	BatchID     formula.BatchID
	IsConfirmed bool
}

// =============================================================================
// RECORD - Tagged variant over the two priced sources
// =============================================================================

// Record is implemented by Report and Answer only.
type Record interface {
	Kind() ItemKind
	Header() Header
	Price(pivot pricing.Pivot) decimal.Decimal
	sealed()
}

// Report wraps an activity report.
type Report struct{ formula.ActivityReport }

func (Report) Kind() ItemKind { return KindReport }
func (Report) sealed()        {}

func (r Report) Header() Header {
	return Header{
		Ref:         ItemRef{Kind: KindReport, ID: r.ID},
		OwnerID:     r.OwnerID,
		TeacherID:   r.TeacherID,
		ReportDate:  r.ReportDate,
		BatchID:     r.BatchID,
		IsConfirmed: r.IsConfirmed,
	}
}

func (r Report) Price(pivot pricing.Pivot) decimal.Decimal {
	return formula.Price(r.ActivityReport, pivot)
}

// Answer wraps an answer record.
type Answer struct{ formula.AnswerRecord }

func (Answer) Kind() ItemKind { return KindAnswer }
func (Answer) sealed()        {}

func (a Answer) Header() Header {
	return Header{
		Ref:         ItemRef{Kind: KindAnswer, ID: a.ID},
		OwnerID:     a.OwnerID,
		TeacherID:   a.TeacherID,
		ReportDate:  a.ReportDate,
		BatchID:     a.BatchID,
		IsConfirmed: a.IsConfirmed,
	}
}

// Price ignores the pivot; answers are priced by their question's tariff.
func (a Answer) Price(pricing.Pivot) decimal.Decimal {
	return a.AnswerRecord.Price()
}

// =============================================================================
// REPORTABLE ITEM - Uniform priced shape
// =============================================================================

// ReportableItem is derived at read time and never stored.
type ReportableItem struct {
	Header
	CalculatedPrice decimal.Decimal
	Source          Record
}

func (i ReportableItem) Kind() ItemKind { return i.Ref.Kind }

// NewItem prices one record.
func NewItem(rec Record, pivot pricing.Pivot) ReportableItem {
	return ReportableItem{
		Header:          rec.Header(),
		CalculatedPrice: rec.Price(pivot),
		Source:          rec,
	}
}

// =============================================================================
// BATCH
// =============================================================================

// Batch is a named payroll run.
type Batch struct {
	ID      formula.BatchID
	Name    string
	Date    time.Time
	OwnerID pricing.OwnerID
}

// =============================================================================
// SUMMARY - Derived payroll row
// =============================================================================

// GroupKey identifies one summary row.
type GroupKey struct {
	OwnerID   pricing.OwnerID
	BatchID   formula.BatchID
	TeacherID formula.TeacherID
	Year      int
	Month     time.Month
}

// Summary holds the counts and totals of one group.
type Summary struct {
	GroupKey
	ReportCount  int
	AnswerCount  int
	ReportsTotal decimal.Decimal
	AnswersTotal decimal.Decimal
	GrandTotal   decimal.Decimal
}

// BatchTotal rolls all summaries of one batch together.
type BatchTotal struct {
	OwnerID      pricing.OwnerID
	BatchID      formula.BatchID
	Teachers     int
	ReportCount  int
	AnswerCount  int
	ReportsTotal decimal.Decimal
	AnswersTotal decimal.Decimal
	GrandTotal   decimal.Decimal
}

// =============================================================================
// COLLABORATOR RECORDS
// =============================================================================

// Teacher supplies the teacher type of a teacher's reports.
type Teacher struct {
	ID      formula.TeacherID
	OwnerID pricing.OwnerID
	Name    string
	Type    formula.TeacherType
}

// Validate refuses type keys outside the known set. An unset type is allowed.
func (t Teacher) Validate() error {
	if t.Type != formula.TeacherTypeUnset && !t.Type.Known() {
		return fmt.Errorf("teacher %s: %w: %d", t.ID, formula.ErrUnknownTeacherType, int(t.Type))
	}
	return nil
}

// Question supplies the tariff of its answers.
type Question struct {
	ID      formula.QuestionID
	OwnerID pricing.OwnerID
	Text    string
	Tariff  decimal.Decimal
}
