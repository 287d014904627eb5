package formula

import (
	"github.com/shopspring/decimal"
	"github.com/warp/teacher-payroll/pricing"
)

// =============================================================================
// REPORT PRICING
// =============================================================================

// Price computes the amount for one activity report:
//
//	max(0, pivot["lesson.base"] + Formulas[report.TeacherType].Sum(...))
//
// Unknown teacher types price at base.
func Price(report ActivityReport, pivot pricing.Pivot) decimal.Decimal {
	return Explain(report, pivot).Total
}

// TermAmount is one term's contribution in a Breakdown.
type TermAmount struct {
	Code    pricing.Code
	Metrics []Metric
	Amount  decimal.Decimal
}

// Breakdown shows how a report price was reached.
type Breakdown struct {
	TeacherType TeacherType
	Base        decimal.Decimal
	Terms       []TermAmount
	Unclamped   decimal.Decimal
	Total       decimal.Decimal
}

// Explain evaluates a report and keeps every intermediate amount.
func Explain(report ActivityReport, pivot pricing.Pivot) Breakdown {
	b := Breakdown{
		TeacherType: report.TeacherType,
		Base:        pivot.Get(CodeLessonBase),
	}

	sum := b.Base
	for _, t := range Formulas[report.TeacherType] {
		amount := t.Contribution(report.Metrics, pivot)
		b.Terms = append(b.Terms, TermAmount{Code: t.Code, Metrics: t.Metrics, Amount: amount})
		sum = sum.Add(amount)
	}

	b.Unclamped = sum
	b.Total = decimal.Max(decimal.Zero, sum)
	return b
}

// =============================================================================
// ANSWER PRICING
// =============================================================================

// Price is AnswerValue * Tariff, or zero when the question has no tariff.
// The catalog is not consulted.
func (a AnswerRecord) Price() decimal.Decimal {
	if !a.Tariff.Valid {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(a.AnswerValue)).Mul(a.Tariff.Decimal)
}
