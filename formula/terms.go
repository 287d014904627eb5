package formula

import (
	"github.com/shopspring/decimal"
	"github.com/warp/teacher-payroll/pricing"
)

// =============================================================================
// TERM - One (metric product x price code x weight) contribution
// =============================================================================

// Term contributes product(Metrics) * pivot[Code] * Weight.
// If any metric in the product is not reported the term contributes zero.
type Term struct {
	Metrics []Metric
	Code    pricing.Code
	Weight  decimal.Decimal
}

func term(code pricing.Code, metrics ...Metric) Term {
	return Term{Metrics: metrics, Code: code, Weight: decimal.NewFromInt(1)}
}

func (t Term) scaled(w string) Term {
	t.Weight = decimal.RequireFromString(w)
	return t
}

// Contribution evaluates the term against one report's metrics.
func (t Term) Contribution(m Metrics, pivot pricing.Pivot) decimal.Decimal {
	product := decimal.NewFromInt(1)
	for _, metric := range t.Metrics {
		v, ok := m.Value(metric)
		if !ok {
			return decimal.Zero
		}
		product = product.Mul(v)
	}
	return product.Mul(pivot.Get(t.Code)).Mul(t.Weight)
}

// Formula is the weighted sum for one teacher type.
type Formula []Term

// Sum adds every term's contribution. A nil formula sums to zero.
func (f Formula) Sum(m Metrics, pivot pricing.Pivot) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range f {
		sum = sum.Add(t.Contribution(m, pivot))
	}
	return sum
}

// =============================================================================
// TERM TABLES
// =============================================================================

// Formulas maps each teacher type to its terms. Types missing from the map
// price at base only.
var Formulas = map[TeacherType]Formula{
	TeacherTypeSeminarKita: {
		term(CodeSeminarStudentMult, MetricStudents),
		term(CodeSeminarLessonMult, MetricLessons),
		term(CodeSeminarDiscussMult, MetricDiscussingLessons, MetricStudents),
		term(CodeSeminarWatchMult, MetricWatchOrIndividual, MetricStudents),
		term(CodeSeminarInterfereMult, MetricTeachedOrInterfering, MetricStudents),
		term(CodeSeminarLessonMult, MetricLessonsAbsence).scaled("-0.5"),
		term(CodeSeminarKamalBonus, MetricWasKamal, MetricStudents),
	},
	TeacherTypeManha: {
		term(CodeManhaStudentMult, MetricStudentsTaught),
		term(CodeManhaHelpMult, MetricStudentsHelpTaught),
		term(CodeManhaYalkutMult, MetricYalkutLessons),
		term(CodeManhaDiscussMult, MetricDiscussingLessons),
		term(CodeManhaWatchedMult, MetricWatchedLessons),
		term(CodeManhaMethodicMult, MetricMethodic),
		term(CodeManhaHulia1Bonus, MetricIsTaarifHulia),
		term(CodeManhaHulia2Bonus, MetricIsTaarifHulia2),
		term(CodeManhaHulia3Bonus, MetricIsTaarifHulia3),
	},
	TeacherTypePDS: {
		term(CodePDSDiscussMult, MetricDiscussingLessons),
		term(CodePDSWatchMult, MetricWatchOrIndividual),
		term(CodePDSInterfereMult, MetricTeachedOrInterfering),
	},
	TeacherTypeKindergarten: {
		term(CodeKindergartenStudentMult, MetricStudents),
		term(CodeKindergartenCollectiveBonus, MetricWasCollectiveWatch),
	},
	TeacherTypeSpecialEducation: {
		term(CodeSpecialStudentMult, MetricStudentsTaught),
		term(CodeSpecialStudentMult, MetricStudentsWatched).scaled("0.5"),
		term(CodeSpecialLessonMult, MetricLessons),
		term(CodeSpecialPhoneBonus, MetricWasPhoneDiscussing),
	},
}
