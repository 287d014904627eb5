package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/payroll"
	"github.com/warp/teacher-payroll/pricing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestPrices_UpsertPerOwnerAndCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePrice(ctx, pricing.PriceDefinition{Code: "lesson.base", OwnerID: 0, Price: decimal.RequireFromString("50")}))
	require.NoError(t, s.SavePrice(ctx, pricing.PriceDefinition{Code: "lesson.base", OwnerID: 7, Price: decimal.RequireFromString("60.25")}))
	require.NoError(t, s.SavePrice(ctx, pricing.PriceDefinition{Code: "lesson.base", OwnerID: 7, Price: decimal.RequireFromString("61.5"), Description: "raised"}))
	require.NoError(t, s.SavePrice(ctx, pricing.PriceDefinition{Code: "lesson.base", OwnerID: 8, Price: decimal.RequireFromString("1")}))

	defs, err := s.LoadPrices(ctx, pricing.SystemOwner, 7)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, pricing.SystemOwner, defs[0].OwnerID)
	assert.True(t, decimal.RequireFromString("61.5").Equal(defs[1].Price))
	assert.Equal(t, "raised", defs[1].Description)
	assert.NotEmpty(t, defs[1].ID)

	pivot, err := pricing.NewCatalog(s).ResolvePivot(ctx, 7)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("61.5").Equal(pivot.Get("lesson.base")))
}

func TestReports_RoundTripMetricsAndTeacherType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTeacher(ctx, payroll.Teacher{ID: "t1", OwnerID: 1, Name: "Dana", Type: formula.TeacherTypeManha}))
	require.NoError(t, s.SaveReport(ctx, formula.ActivityReport{
		ID:         "r1",
		OwnerID:    1,
		TeacherID:  "t1",
		ReportDate: day(2025, time.April, 3),
		Metrics: formula.Metrics{
			StudentsTaught: intp(4),
			IsTaarifHulia2: boolp(true),
			WasKamal:       boolp(false),
		},
	}))
	require.NoError(t, s.SaveReport(ctx, formula.ActivityReport{
		ID: "r2", OwnerID: 1, TeacherID: "ghost", ReportDate: day(2025, time.April, 4),
	}))

	reports, err := s.LoadReports(ctx, payroll.ItemFilter{OwnerID: 1})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	r := reports[0]
	assert.Equal(t, formula.TeacherTypeManha, r.TeacherType)
	assert.True(t, r.ReportDate.Equal(day(2025, time.April, 3)))
	require.NotNil(t, r.Metrics.StudentsTaught)
	assert.Equal(t, 4, *r.Metrics.StudentsTaught)
	require.NotNil(t, r.Metrics.IsTaarifHulia2)
	assert.True(t, *r.Metrics.IsTaarifHulia2)
	require.NotNil(t, r.Metrics.WasKamal)
	assert.False(t, *r.Metrics.WasKamal)
	assert.Nil(t, r.Metrics.Students)
	assert.Equal(t, formula.BatchID(""), r.BatchID)

	assert.Equal(t, formula.TeacherTypeUnset, reports[1].TeacherType, "unknown teacher has no type")
}

func TestSchema_FlagColumnsHoldZeroOrOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	flag := formula.MetricWasKamal.String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO activity_reports (id, owner_id, teacher_id, report_date, "+flag+") VALUES ('x', 1, 't', '2025-01-01T00:00:00Z', 2)")
	assert.Error(t, err, "flag column rejects 2")

	count := formula.MetricStudents.String()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO activity_reports (id, owner_id, teacher_id, report_date, "+count+") VALUES ('y', 1, 't', '2025-01-01T00:00:00Z', 2)")
	assert.NoError(t, err)
}

func TestSaveTeacher_UnknownTypeKey(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveTeacher(context.Background(), payroll.Teacher{ID: "t1", OwnerID: 1, Type: formula.TeacherType(42)})
	assert.ErrorIs(t, err, formula.ErrUnknownTeacherType)
}

func TestAnswers_TariffJoinedFromQuestion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveQuestion(ctx, payroll.Question{ID: "q1", OwnerID: 1, Tariff: decimal.RequireFromString("12.50")}))
	require.NoError(t, s.SaveAnswer(ctx, formula.AnswerRecord{ID: "a1", OwnerID: 1, TeacherID: "t1", QuestionID: "q1", AnswerValue: 3, ReportDate: day(2025, time.May, 1)}))
	require.NoError(t, s.SaveAnswer(ctx, formula.AnswerRecord{ID: "a2", OwnerID: 1, TeacherID: "t1", QuestionID: "gone", AnswerValue: 3, ReportDate: day(2025, time.May, 1)}))

	answers, err := s.LoadAnswers(ctx, payroll.ItemFilter{OwnerID: 1})
	require.NoError(t, err)
	require.Len(t, answers, 2)

	require.True(t, answers[0].Tariff.Valid)
	assert.True(t, decimal.RequireFromString("37.5").Equal(payroll.Answer{AnswerRecord: answers[0]}.Price(nil)))
	assert.False(t, answers[1].Tariff.Valid)
	assert.True(t, payroll.Answer{AnswerRecord: answers[1]}.Price(nil).IsZero())
}

func TestLoad_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, r := range []formula.ActivityReport{
		{ID: "r1", OwnerID: 1, TeacherID: "t1", ReportDate: day(2025, time.January, 10), BatchID: "b1"},
		{ID: "r2", OwnerID: 1, TeacherID: "t2", ReportDate: day(2025, time.February, 10)},
		{ID: "r3", OwnerID: 1, TeacherID: "t1", ReportDate: day(2025, time.March, 10)},
		{ID: "r4", OwnerID: 2, TeacherID: "t1", ReportDate: day(2025, time.March, 10)},
	} {
		require.NoError(t, s.SaveReport(ctx, r))
	}

	ids := func(f payroll.ItemFilter) []string {
		reports, err := s.LoadReports(ctx, f)
		require.NoError(t, err)
		var out []string
		for _, r := range reports {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(payroll.ItemFilter{OwnerID: 1}))
	assert.Equal(t, []string{"r1", "r3"}, ids(payroll.ItemFilter{OwnerID: 1, TeacherID: "t1"}))
	assert.Equal(t, []string{"r1"}, ids(payroll.ItemFilter{OwnerID: 1, BatchID: "b1"}))
	assert.Equal(t, []string{"r2", "r3"}, ids(payroll.ItemFilter{OwnerID: 1, UnassignedOnly: true}))
	assert.Equal(t, []string{"r2"}, ids(payroll.ItemFilter{OwnerID: 1, From: day(2025, time.February, 1), To: day(2025, time.February, 28)}))
}

func TestAssignBatch_ConditionalUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, formula.ActivityReport{ID: "r1", OwnerID: 1, TeacherID: "t1", ReportDate: day(2025, time.May, 1)}))
	require.NoError(t, s.SaveAnswer(ctx, formula.AnswerRecord{ID: "a1", OwnerID: 1, TeacherID: "t1", QuestionID: "q", ReportDate: day(2025, time.May, 1), IsConfirmed: true}))
	require.NoError(t, s.SaveBatch(ctx, payroll.Batch{ID: "b1", Name: "one", OwnerID: 1, Date: day(2025, time.May, 31)}))
	require.NoError(t, s.SaveBatch(ctx, payroll.Batch{ID: "b2", Name: "two", OwnerID: 1, Date: day(2025, time.May, 31)}))
	r1 := payroll.ItemRef{Kind: payroll.KindReport, ID: "r1"}
	a1 := payroll.ItemRef{Kind: payroll.KindAnswer, ID: "a1"}

	require.NoError(t, s.AssignBatch(ctx, r1, "b1"))
	require.NoError(t, s.AssignBatch(ctx, r1, "b1"), "same batch is a no-op")

	err := s.AssignBatch(ctx, r1, "b2")
	assert.ErrorIs(t, err, payroll.ErrAlreadyBatched)

	assert.ErrorIs(t, s.AssignBatch(ctx, a1, "b1"), payroll.ErrAlreadyConfirmed)
	assert.ErrorIs(t, s.AssignBatch(ctx, payroll.ItemRef{Kind: payroll.KindReport, ID: "nope"}, "b1"), payroll.ErrItemNotFound)
	assert.ErrorIs(t, s.AssignBatch(ctx, payroll.ItemRef{Kind: "x", ID: "r1"}, "b1"), payroll.ErrInvalidItemKind)

	reports, err := s.LoadReports(ctx, payroll.ItemFilter{OwnerID: 1})
	require.NoError(t, err)
	assert.Equal(t, formula.BatchID("b1"), reports[0].BatchID)

	require.NoError(t, s.UnassignBatch(ctx, r1))
	require.NoError(t, s.AssignBatch(ctx, r1, "b2"))

	require.NoError(t, s.Confirm(ctx, r1))
	assert.ErrorIs(t, s.UnassignBatch(ctx, r1), payroll.ErrAlreadyConfirmed)
	assert.ErrorIs(t, s.Confirm(ctx, payroll.ItemRef{Kind: payroll.KindAnswer, ID: "nope"}), payroll.ErrItemNotFound)
}

func TestAssignBatch_OwnerMustMatch(t *testing.T) {
	// GIVEN: A report of owner 1 and batches of owners 1 and 2
	// WHEN: Assigning the report
	// THEN: Only the owner's own batch is accepted

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, formula.ActivityReport{ID: "r1", OwnerID: 1, TeacherID: "t1", ReportDate: day(2025, time.May, 1)}))
	require.NoError(t, s.SaveBatch(ctx, payroll.Batch{ID: "mine", Name: "mine", OwnerID: 1, Date: day(2025, time.May, 31)}))
	require.NoError(t, s.SaveBatch(ctx, payroll.Batch{ID: "theirs", Name: "theirs", OwnerID: 2, Date: day(2025, time.May, 31)}))
	r1 := payroll.ItemRef{Kind: payroll.KindReport, ID: "r1"}

	assert.ErrorIs(t, s.AssignBatch(ctx, r1, "theirs"), payroll.ErrBatchOwnerMismatch)
	assert.ErrorIs(t, s.AssignBatch(ctx, r1, "gone"), payroll.ErrBatchNotFound)

	reports, err := s.LoadReports(ctx, payroll.ItemFilter{OwnerID: 1, UnassignedOnly: true})
	require.NoError(t, err)
	assert.Len(t, reports, 1, "refused assignment leaves the report unassigned")

	require.NoError(t, s.AssignBatch(ctx, r1, "mine"))
}

func TestSaveRecord_BatchedAndConfirmedAreFrozen(t *testing.T) {
	// GIVEN: A batched report, a batched answer and a confirmed answer
	// WHEN: Saving them again with another teacher and a later date
	// THEN: Each upsert is refused with the matching error and nothing changes

	s := newTestStore(t)
	ctx := context.Background()

	jan := day(2024, time.January, 10)
	require.NoError(t, s.SaveBatch(ctx, payroll.Batch{ID: "b", Name: "Jan", OwnerID: 1, Date: jan}))
	require.NoError(t, s.SaveReport(ctx, formula.ActivityReport{ID: "r1", OwnerID: 1, TeacherID: "t1", ReportDate: jan}))
	require.NoError(t, s.SaveAnswer(ctx, formula.AnswerRecord{ID: "a1", OwnerID: 1, TeacherID: "t1", QuestionID: "q", ReportDate: jan}))
	require.NoError(t, s.SaveAnswer(ctx, formula.AnswerRecord{ID: "a2", OwnerID: 1, TeacherID: "t1", QuestionID: "q", ReportDate: jan}))
	require.NoError(t, s.AssignBatch(ctx, payroll.ItemRef{Kind: payroll.KindReport, ID: "r1"}, "b"))
	require.NoError(t, s.AssignBatch(ctx, payroll.ItemRef{Kind: payroll.KindAnswer, ID: "a1"}, "b"))
	require.NoError(t, s.Confirm(ctx, payroll.ItemRef{Kind: payroll.KindAnswer, ID: "a2"}))

	april := day(2024, time.April, 10)
	err := s.SaveReport(ctx, formula.ActivityReport{ID: "r1", OwnerID: 1, TeacherID: "t2", ReportDate: april})
	assert.ErrorIs(t, err, payroll.ErrAlreadyBatched)
	err = s.SaveAnswer(ctx, formula.AnswerRecord{ID: "a1", OwnerID: 1, TeacherID: "t2", QuestionID: "q", ReportDate: april})
	assert.ErrorIs(t, err, payroll.ErrAlreadyBatched)
	err = s.SaveAnswer(ctx, formula.AnswerRecord{ID: "a2", OwnerID: 1, TeacherID: "t2", QuestionID: "q", ReportDate: april})
	assert.ErrorIs(t, err, payroll.ErrAlreadyConfirmed)

	reports, err := s.LoadReports(ctx, payroll.ItemFilter{OwnerID: 1})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, formula.TeacherID("t1"), reports[0].TeacherID)
	assert.True(t, reports[0].ReportDate.Equal(jan))
	assert.Equal(t, formula.BatchID("b"), reports[0].BatchID)

	// An unbatched record is replaced; its batch is never set by the upsert.
	require.NoError(t, s.SaveReport(ctx, formula.ActivityReport{ID: "r2", OwnerID: 1, TeacherID: "t1", ReportDate: jan}))
	require.NoError(t, s.SaveReport(ctx, formula.ActivityReport{ID: "r2", OwnerID: 1, TeacherID: "t2", ReportDate: april, BatchID: "b"}))
	reports, err = s.LoadReports(ctx, payroll.ItemFilter{OwnerID: 1, TeacherID: "t2"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].BatchID)
}

func TestBatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing, err := s.GetBatch(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.SaveBatch(ctx, payroll.Batch{ID: "b2", Name: "Feb", OwnerID: 1, Date: day(2025, time.February, 28)}))
	require.NoError(t, s.SaveBatch(ctx, payroll.Batch{ID: "b1", Name: "Jan", OwnerID: 1, Date: day(2025, time.January, 31)}))

	b, err := s.GetBatch(ctx, "b2")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "Feb", b.Name)
	assert.True(t, b.Date.Equal(day(2025, time.February, 28)))

	list, err := s.ListBatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, formula.BatchID("b1"), list[0].ID)
}

func TestEngineOverSQLite(t *testing.T) {
	// GIVEN: A seminar teacher with two reports and an answer in one batch
	// WHEN: Summarizing through the engine on SQLite
	// THEN: The totals match the in-memory computation (100 + 50 + 25)

	s := newTestStore(t)
	ctx := context.Background()
	engine := payroll.NewEngine(s, zap.NewNop())

	require.NoError(t, engine.Catalog.SavePrice(ctx, pricing.PriceDefinition{Code: formula.CodeLessonBase, Price: decimal.RequireFromString("50")}))
	require.NoError(t, engine.Catalog.SavePrice(ctx, pricing.PriceDefinition{Code: formula.CodeSeminarStudentMult, Price: decimal.RequireFromString("2")}))
	require.NoError(t, s.SaveTeacher(ctx, payroll.Teacher{ID: "t1", OwnerID: 1, Type: formula.TeacherTypeSeminarKita}))
	require.NoError(t, s.SaveQuestion(ctx, payroll.Question{ID: "q1", OwnerID: 1, Tariff: decimal.RequireFromString("12.5")}))

	require.NoError(t, s.SaveReport(ctx, formula.ActivityReport{ID: "r1", OwnerID: 1, TeacherID: "t1", ReportDate: day(2025, time.March, 1), Metrics: formula.Metrics{Students: intp(25)}}))
	require.NoError(t, s.SaveReport(ctx, formula.ActivityReport{ID: "r2", OwnerID: 1, TeacherID: "t1", ReportDate: day(2025, time.March, 2)}))
	require.NoError(t, s.SaveAnswer(ctx, formula.AnswerRecord{ID: "a1", OwnerID: 1, TeacherID: "t1", QuestionID: "q1", AnswerValue: 2, ReportDate: day(2025, time.March, 3)}))

	b, err := engine.CreateBatch(ctx, payroll.Batch{Name: "March", OwnerID: 1})
	require.NoError(t, err)
	for _, ref := range []payroll.ItemRef{{Kind: payroll.KindReport, ID: "r1"}, {Kind: payroll.KindReport, ID: "r2"}, {Kind: payroll.KindAnswer, ID: "a1"}} {
		require.NoError(t, engine.Assign(ctx, ref, b.ID))
	}

	rows, err := engine.Summaries(ctx, payroll.ItemFilter{OwnerID: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].ReportCount)
	assert.Equal(t, 1, rows[0].AnswerCount)
	assert.True(t, decimal.RequireFromString("175").Equal(rows[0].GrandTotal), "got %s", rows[0].GrandTotal)
}
