// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/payroll"
	"github.com/warp/teacher-payroll/pricing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	prices    map[priceKey]pricing.PriceDefinition
	teachers  map[formula.TeacherID]payroll.Teacher
	questions map[formula.QuestionID]payroll.Question
	reports   map[string]formula.ActivityReport
	answers   map[string]formula.AnswerRecord
	batches   map[formula.BatchID]payroll.Batch
}

type priceKey struct {
	OwnerID pricing.OwnerID
	Code    pricing.Code
}

var _ payroll.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		prices:    make(map[priceKey]pricing.PriceDefinition),
		teachers:  make(map[formula.TeacherID]payroll.Teacher),
		questions: make(map[formula.QuestionID]payroll.Question),
		reports:   make(map[string]formula.ActivityReport),
		answers:   make(map[string]formula.AnswerRecord),
		batches:   make(map[formula.BatchID]payroll.Batch),
	}
}

// =============================================================================
// PRICES (pricing.Store)
// =============================================================================

func (m *Memory) LoadPrices(_ context.Context, owners ...pricing.OwnerID) ([]pricing.PriceDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[pricing.OwnerID]bool, len(owners))
	for _, o := range owners {
		want[o] = true
	}
	var result []pricing.PriceDefinition
	for k, d := range m.prices {
		if want[k.OwnerID] {
			result = append(result, d)
		}
	}
	return result, nil
}

// SavePrice upserts on (owner, code).
func (m *Memory) SavePrice(_ context.Context, def pricing.PriceDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[priceKey{OwnerID: def.OwnerID, Code: def.Code}] = def
	return nil
}

// =============================================================================
// COLLABORATOR RECORDS
// =============================================================================

func (m *Memory) SaveTeacher(_ context.Context, t payroll.Teacher) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teachers[t.ID] = t
	return nil
}

func (m *Memory) SaveQuestion(_ context.Context, q payroll.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[q.ID] = q
	return nil
}

// SaveReport upserts a report. The teacher type is taken from the teacher
// record at load time, not from the argument. A stored report that is
// batched or confirmed is not overwritten.
func (m *Memory) SaveReport(_ context.Context, r formula.ActivityReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.reports[r.ID]; ok {
		if err := payroll.CheckRewrite(payroll.Report{ActivityReport: old}.Header()); err != nil {
			return err
		}
		r.BatchID = old.BatchID
	}
	r.TeacherType = formula.TeacherTypeUnset
	m.reports[r.ID] = r
	return nil
}

// SaveAnswer upserts an answer like SaveReport. The tariff is taken from
// the question at load time.
func (m *Memory) SaveAnswer(_ context.Context, a formula.AnswerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.answers[a.ID]; ok {
		if err := payroll.CheckRewrite(payroll.Answer{AnswerRecord: old}.Header()); err != nil {
			return err
		}
		a.BatchID = old.BatchID
	}
	a.Tariff = decimal.NullDecimal{}
	m.answers[a.ID] = a
	return nil
}

// =============================================================================
// RECORDS (payroll.RecordStore)
// =============================================================================

func (m *Memory) LoadReports(_ context.Context, filter payroll.ItemFilter) ([]formula.ActivityReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []formula.ActivityReport
	for _, r := range m.reports {
		if !filter.Match(payroll.Report{ActivityReport: r}.Header()) {
			continue
		}
		if t, ok := m.teachers[r.TeacherID]; ok {
			r.TeacherType = t.Type
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) LoadAnswers(_ context.Context, filter payroll.ItemFilter) ([]formula.AnswerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []formula.AnswerRecord
	for _, a := range m.answers {
		if !filter.Match(payroll.Answer{AnswerRecord: a}.Header()) {
			continue
		}
		if q, ok := m.questions[a.QuestionID]; ok {
			a.Tariff = decimal.NewNullDecimal(q.Tariff)
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// AssignBatch checks and sets under the write lock. The batch must exist
// and belong to the item's owner.
func (m *Memory) AssignBatch(_ context.Context, ref payroll.ItemRef, batch formula.BatchID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.headerLocked(ref)
	if err != nil {
		return err
	}
	noop, err := payroll.CheckAssign(h, batch)
	if err != nil {
		return err
	}
	var b *payroll.Batch
	if found, ok := m.batches[batch]; ok {
		b = &found
	}
	if err := payroll.CheckBatchOwner(h, batch, b); err != nil || noop {
		return err
	}
	m.setBatchLocked(ref, batch)
	return nil
}

func (m *Memory) UnassignBatch(_ context.Context, ref payroll.ItemRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.headerLocked(ref)
	if err != nil {
		return err
	}
	noop, err := payroll.CheckUnassign(h)
	if err != nil || noop {
		return err
	}
	m.setBatchLocked(ref, "")
	return nil
}

func (m *Memory) Confirm(_ context.Context, ref payroll.ItemRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ref.Kind {
	case payroll.KindReport:
		r, ok := m.reports[ref.ID]
		if !ok {
			return payroll.ErrItemNotFound
		}
		r.IsConfirmed = true
		m.reports[ref.ID] = r
	case payroll.KindAnswer:
		a, ok := m.answers[ref.ID]
		if !ok {
			return payroll.ErrItemNotFound
		}
		a.IsConfirmed = true
		m.answers[ref.ID] = a
	default:
		return payroll.ErrInvalidItemKind
	}
	return nil
}

func (m *Memory) headerLocked(ref payroll.ItemRef) (payroll.Header, error) {
	switch ref.Kind {
	case payroll.KindReport:
		if r, ok := m.reports[ref.ID]; ok {
			return payroll.Report{ActivityReport: r}.Header(), nil
		}
	case payroll.KindAnswer:
		if a, ok := m.answers[ref.ID]; ok {
			return payroll.Answer{AnswerRecord: a}.Header(), nil
		}
	default:
		return payroll.Header{}, payroll.ErrInvalidItemKind
	}
	return payroll.Header{}, payroll.ErrItemNotFound
}

func (m *Memory) setBatchLocked(ref payroll.ItemRef, batch formula.BatchID) {
	switch ref.Kind {
	case payroll.KindReport:
		r := m.reports[ref.ID]
		r.BatchID = batch
		m.reports[ref.ID] = r
	case payroll.KindAnswer:
		a := m.answers[ref.ID]
		a.BatchID = batch
		m.answers[ref.ID] = a
	}
}

// =============================================================================
// BATCHES (payroll.BatchStore)
// =============================================================================

func (m *Memory) SaveBatch(_ context.Context, b payroll.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[b.ID] = b
	return nil
}

// GetBatch returns nil when the batch does not exist.
func (m *Memory) GetBatch(_ context.Context, id formula.BatchID) (*payroll.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) ListBatches(_ context.Context, owner pricing.OwnerID) ([]payroll.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.Batch
	for _, b := range m.batches {
		if b.OwnerID == owner {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
