package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/payroll"
	"github.com/warp/teacher-payroll/pricing"
)

func intp(v int) *int { return &v }

func seminarReport(id string, teacher formula.TeacherID, at time.Time, students int) formula.ActivityReport {
	return formula.ActivityReport{
		ID:          id,
		OwnerID:     1,
		TeacherID:   teacher,
		TeacherType: formula.TeacherTypeSeminarKita,
		ReportDate:  at,
		Metrics:     formula.Metrics{Students: intp(students)},
	}
}

func answer(id string, teacher formula.TeacherID, at time.Time, value int, tariff string) formula.AnswerRecord {
	return formula.AnswerRecord{
		ID:          id,
		OwnerID:     1,
		TeacherID:   teacher,
		QuestionID:  "q1",
		AnswerValue: value,
		Tariff:      decimal.NewNullDecimal(dec(tariff)),
		ReportDate:  at,
	}
}

func testPivot() pricing.Pivot {
	return pricing.Pivot{
		formula.CodeLessonBase:         dec("50"),
		formula.CodeSeminarStudentMult: dec("2"),
	}
}

func TestUnion_ReportShape(t *testing.T) {
	// GIVEN: One report assigned to a batch
	// WHEN: Union with no answers
	// THEN: One report item, price equal to formula.Price, header fields preserved

	r := seminarReport("r1", "t1", date(2025, time.May, 2), 10)
	r.BatchID = "b1"
	pivot := testPivot()

	items := payroll.Union(pivot, []formula.ActivityReport{r}, nil)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, payroll.KindReport, it.Kind())
	assert.Equal(t, payroll.ItemRef{Kind: payroll.KindReport, ID: "r1"}, it.Ref)
	assert.Equal(t, formula.TeacherID("t1"), it.TeacherID)
	assert.Equal(t, formula.BatchID("b1"), it.BatchID)
	assert.True(t, it.ReportDate.Equal(r.ReportDate))
	assert.True(t, it.CalculatedPrice.Equal(formula.Price(r, pivot)))
	assertDecimal(t, "70", it.CalculatedPrice, "price")

	src, ok := it.Source.(payroll.Report)
	require.True(t, ok)
	assert.Equal(t, "r1", src.ID)
}

func TestUnion_AnswerShape(t *testing.T) {
	a := answer("a1", "t1", date(2025, time.May, 2), 3, "12.50")
	a.BatchID = "b1"

	items := payroll.Union(testPivot(), nil, []formula.AnswerRecord{a})
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, payroll.KindAnswer, it.Kind())
	assert.Equal(t, formula.BatchID("b1"), it.BatchID)
	assertDecimal(t, "37.50", it.CalculatedPrice, "price")
	_, ok := it.Source.(payroll.Answer)
	assert.True(t, ok)
}

func TestUnion_ConcatenatesWithoutJoin(t *testing.T) {
	// Records sharing IDs across kinds stay separate items.
	reports := []formula.ActivityReport{
		seminarReport("x", "t1", date(2025, time.May, 2), 1),
		seminarReport("y", "t2", date(2025, time.May, 1), 1),
	}
	answers := []formula.AnswerRecord{
		answer("x", "t1", date(2025, time.May, 2), 1, "1"),
	}

	items := payroll.Union(testPivot(), reports, answers)
	require.Len(t, items, 3)

	assert.Equal(t, "y", items[0].Ref.ID)
	assert.Equal(t, payroll.ItemRef{Kind: payroll.KindReport, ID: "x"}, items[1].Ref)
	assert.Equal(t, payroll.ItemRef{Kind: payroll.KindAnswer, ID: "x"}, items[2].Ref)
}

func TestUnion_OrderIndependent(t *testing.T) {
	reports := []formula.ActivityReport{
		seminarReport("r1", "t1", date(2025, time.May, 2), 1),
		seminarReport("r2", "t1", date(2025, time.May, 2), 2),
		seminarReport("r3", "t1", date(2025, time.April, 2), 3),
	}
	reversed := []formula.ActivityReport{reports[2], reports[1], reports[0]}

	a := payroll.Union(testPivot(), reports, nil)
	b := payroll.Union(testPivot(), reversed, nil)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Ref, b[i].Ref)
	}
}
