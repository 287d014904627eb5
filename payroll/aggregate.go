package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARIZE - Group items into payroll rows
// =============================================================================

// Eligible reports whether an item takes part in summaries: it needs a
// batch, a teacher and a report date. Others are skipped, not errors.
func Eligible(item ReportableItem) bool {
	return item.BatchID != "" && item.TeacherID != "" && !item.ReportDate.IsZero()
}

// KeyOf returns the group an item belongs to. The month is the calendar
// month of the report date in UTC.
func KeyOf(item ReportableItem) GroupKey {
	d := item.ReportDate.UTC()
	return GroupKey{
		OwnerID:   item.OwnerID,
		BatchID:   item.BatchID,
		TeacherID: item.TeacherID,
		Year:      d.Year(),
		Month:     d.Month(),
	}
}

// Summarize groups eligible items by (owner, batch, teacher, year, month).
// Decimal addition is exact, so totals do not depend on input order; rows
// are returned sorted by key.
func Summarize(items []ReportableItem) []Summary {
	groups := make(map[GroupKey]*Summary)

	for _, item := range items {
		if !Eligible(item) {
			continue
		}
		key := KeyOf(item)
		s, ok := groups[key]
		if !ok {
			s = &Summary{
				GroupKey:     key,
				ReportsTotal: decimal.Zero,
				AnswersTotal: decimal.Zero,
			}
			groups[key] = s
		}

		switch item.Kind() {
		case KindReport:
			s.ReportCount++
			s.ReportsTotal = s.ReportsTotal.Add(item.CalculatedPrice)
		case KindAnswer:
			s.AnswerCount++
			s.AnswersTotal = s.AnswersTotal.Add(item.CalculatedPrice)
		}
	}

	out := make([]Summary, 0, len(groups))
	for _, s := range groups {
		s.GrandTotal = s.ReportsTotal.Add(s.AnswersTotal)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].GroupKey, out[j].GroupKey) })
	return out
}

func keyLess(a, b GroupKey) bool {
	if a.OwnerID != b.OwnerID {
		return a.OwnerID < b.OwnerID
	}
	if a.BatchID != b.BatchID {
		return a.BatchID < b.BatchID
	}
	if a.TeacherID != b.TeacherID {
		return a.TeacherID < b.TeacherID
	}
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}

// =============================================================================
// BATCH TOTALS
// =============================================================================

// BatchTotals rolls summaries up to one row per (owner, batch).
func BatchTotals(summaries []Summary) []BatchTotal {
	type batchKey struct {
		owner int64
		batch string
	}
	totals := make(map[batchKey]*BatchTotal)
	teachers := make(map[batchKey]map[string]bool)

	for _, s := range summaries {
		k := batchKey{owner: int64(s.OwnerID), batch: string(s.BatchID)}
		t, ok := totals[k]
		if !ok {
			t = &BatchTotal{
				OwnerID:      s.OwnerID,
				BatchID:      s.BatchID,
				ReportsTotal: decimal.Zero,
				AnswersTotal: decimal.Zero,
				GrandTotal:   decimal.Zero,
			}
			totals[k] = t
			teachers[k] = make(map[string]bool)
		}
		teachers[k][string(s.TeacherID)] = true
		t.ReportCount += s.ReportCount
		t.AnswerCount += s.AnswerCount
		t.ReportsTotal = t.ReportsTotal.Add(s.ReportsTotal)
		t.AnswersTotal = t.AnswersTotal.Add(s.AnswersTotal)
		t.GrandTotal = t.GrandTotal.Add(s.GrandTotal)
	}

	out := make([]BatchTotal, 0, len(totals))
	for k, t := range totals {
		t.Teachers = len(teachers[k])
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerID != out[j].OwnerID {
			return out[i].OwnerID < out[j].OwnerID
		}
		return out[i].BatchID < out[j].BatchID
	})
	return out
}
