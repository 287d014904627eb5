package payroll

import (
	"sort"

	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/pricing"
)

// Union concatenates reports and answers into priced items. It is a
// type-tagged concatenation, not a join: every input record yields exactly
// one item. The pivot must belong to the records' owner.
//
// Output is sorted (see SortItems) so it does not depend on input order.
func Union(pivot pricing.Pivot, reports []formula.ActivityReport, answers []formula.AnswerRecord) []ReportableItem {
	items := make([]ReportableItem, 0, len(reports)+len(answers))
	for _, r := range reports {
		items = append(items, NewItem(Report{r}, pivot))
	}
	for _, a := range answers {
		items = append(items, NewItem(Answer{a}, pivot))
	}
	SortItems(items)
	return items
}

// SortItems orders items by report date, then kind, then ID.
func SortItems(items []ReportableItem) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.ReportDate.Equal(b.ReportDate) {
			return a.ReportDate.Before(b.ReportDate)
		}
		if a.Ref.Kind != b.Ref.Kind {
			return a.Ref.Kind > b.Ref.Kind // reports before answers
		}
		return a.Ref.ID < b.Ref.ID
	})
}
