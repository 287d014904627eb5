package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/pricing"
)

// DefaultWorkers bounds the per-teacher pricing fan-out.
const DefaultWorkers = 4

// =============================================================================
// ENGINE - Store-backed pricing, aggregation and assignment
// =============================================================================

// Engine loads records from a Store, prices them against the owner's pivot
// and aggregates the result. It holds no mutable state of its own.
type Engine struct {
	Store   Store
	Catalog *pricing.Catalog
	Log     *zap.Logger
	Workers int
}

func NewEngine(store Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Store:   store,
		Catalog: pricing.NewCatalog(store),
		Log:     log,
		Workers: DefaultWorkers,
	}
}

// Pivot resolves every price code for the owner. Codes the formulas
// reference but nobody has priced are listed at zero.
func (e *Engine) Pivot(ctx context.Context, owner pricing.OwnerID) (pricing.Pivot, error) {
	pivot, err := e.Catalog.ResolvePivot(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, code := range formula.Codes() {
		if !pivot.Has(code) {
			pivot[code] = decimal.Zero
		}
	}
	return pivot, nil
}

// Items loads and prices every report and answer matching the filter.
//
// The pivot is resolved once. Records are priced per teacher in parallel;
// the result is identical to Union over the same records.
func (e *Engine) Items(ctx context.Context, filter ItemFilter) ([]ReportableItem, error) {
	pivot, err := e.Pivot(ctx, filter.OwnerID)
	if err != nil {
		return nil, err
	}

	reports, err := e.Store.LoadReports(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	answers, err := e.Store.LoadAnswers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	return e.price(ctx, pivot, reports, answers)
}

// price fans out per teacher and concatenates the results.
func (e *Engine) price(ctx context.Context, pivot pricing.Pivot, reports []formula.ActivityReport, answers []formula.AnswerRecord) ([]ReportableItem, error) {
	type work struct {
		reports []formula.ActivityReport
		answers []formula.AnswerRecord
	}
	byTeacher := make(map[formula.TeacherID]*work)
	var order []formula.TeacherID
	get := func(id formula.TeacherID) *work {
		w, ok := byTeacher[id]
		if !ok {
			w = &work{}
			byTeacher[id] = w
			order = append(order, id)
		}
		return w
	}
	for _, r := range reports {
		w := get(r.TeacherID)
		w.reports = append(w.reports, r)
	}
	for _, a := range answers {
		w := get(a.TeacherID)
		w.answers = append(w.answers, a)
	}

	results := make([][]ReportableItem, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())

	for i, id := range order {
		i, w := i, byTeacher[id]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Union(pivot, w.reports, w.answers)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]ReportableItem, 0, len(reports)+len(answers))
	for _, r := range results {
		items = append(items, r...)
	}
	SortItems(items)

	e.Log.Debug("priced items",
		zap.Int("teachers", len(order)),
		zap.Int("reports", len(reports)),
		zap.Int("answers", len(answers)))
	return items, nil
}

func (e *Engine) workers() int {
	if e.Workers <= 0 {
		return DefaultWorkers
	}
	return e.Workers
}

// Summaries prices and aggregates the matching items.
func (e *Engine) Summaries(ctx context.Context, filter ItemFilter) ([]Summary, error) {
	items, err := e.Items(ctx, filter)
	if err != nil {
		return nil, err
	}
	return Summarize(items), nil
}

// BatchTotals returns one total row per batch of the owner.
func (e *Engine) BatchTotals(ctx context.Context, owner pricing.OwnerID) ([]BatchTotal, error) {
	summaries, err := e.Summaries(ctx, ItemFilter{OwnerID: owner})
	if err != nil {
		return nil, err
	}
	return BatchTotals(summaries), nil
}

// =============================================================================
// BATCHES
// =============================================================================

// CreateBatch stores a new batch, generating an ID and date when absent.
func (e *Engine) CreateBatch(ctx context.Context, b Batch) (Batch, error) {
	if b.ID == "" {
		b.ID = formula.BatchID(uuid.NewString())
	}
	if b.Date.IsZero() {
		b.Date = time.Now().UTC()
	}
	if err := e.Store.SaveBatch(ctx, b); err != nil {
		return Batch{}, fmt.Errorf("failed to save batch: %w", err)
	}
	e.Log.Info("batch created",
		zap.String("batch", string(b.ID)),
		zap.Int64("owner", int64(b.OwnerID)))
	return b, nil
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

// Assign puts an item into a batch of the same owner. Assigning to the
// batch the item is already in succeeds without change.
func (e *Engine) Assign(ctx context.Context, ref ItemRef, batch formula.BatchID) error {
	if !ref.Kind.Valid() {
		return ErrInvalidItemKind
	}
	if batch == "" {
		return ErrEmptyBatchID
	}
	b, err := e.Store.GetBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to load batch: %w", err)
	}
	if b == nil {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, batch)
	}

	if err := e.Store.AssignBatch(ctx, ref, batch); err != nil {
		e.Log.Debug("assignment refused",
			zap.Stringer("item", ref),
			zap.String("batch", string(batch)),
			zap.Error(err))
		return err
	}
	e.Log.Info("item assigned", zap.Stringer("item", ref), zap.String("batch", string(batch)))
	return nil
}

// Unassign takes an item out of its batch.
func (e *Engine) Unassign(ctx context.Context, ref ItemRef) error {
	if !ref.Kind.Valid() {
		return ErrInvalidItemKind
	}
	if err := e.Store.UnassignBatch(ctx, ref); err != nil {
		e.Log.Debug("unassignment refused", zap.Stringer("item", ref), zap.Error(err))
		return err
	}
	e.Log.Info("item unassigned", zap.Stringer("item", ref))
	return nil
}

// Confirm freezes an item's record.
func (e *Engine) Confirm(ctx context.Context, ref ItemRef) error {
	if !ref.Kind.Valid() {
		return ErrInvalidItemKind
	}
	return e.Store.Confirm(ctx, ref)
}
