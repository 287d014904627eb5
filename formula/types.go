/*
Package formula turns one activity report into one monetary amount.

PURPOSE:
  Teachers of different types report different things: a seminar teacher
  reports students and watched lessons, a kindergarten teacher reports
  students and whether a collective watch happened. Each teacher type has
  its own weighted formula over the metrics it reports.

KEY CONCEPTS IN THIS FILE (types.go):
  - TeacherType: Closed set of formula selectors with stable numeric keys
  - Metric: Names one optional metric field of a report
  - Metrics: The optional metric fields themselves
  - ActivityReport / AnswerRecord: The two priced source records

TOTALITY:
  Pricing is defined for every input. A missing metric, a missing price code
  or an unknown teacher type each contribute zero. Nothing here returns an
  error for data-shape reasons.

SEE ALSO:
  - terms.go: Per-type term tables
  - evaluator.go: Price / Explain
  - codes.go: Price codes referenced by the terms
*/
package formula

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teacher-payroll/pricing"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TeacherID string
type BatchID string
type QuestionID string

// =============================================================================
// TEACHER TYPE - Selects exactly one formula
// =============================================================================

// TeacherType keys are stable; they are stored on teacher records.
type TeacherType int

const (
	TeacherTypeUnset            TeacherType = 0
	TeacherTypeSeminarKita      TeacherType = 1
	TeacherTypeManha            TeacherType = 3
	TeacherTypePDS              TeacherType = 5
	TeacherTypeKindergarten     TeacherType = 6
	TeacherTypeSpecialEducation TeacherType = 7
)

var teacherTypeNames = map[TeacherType]string{
	TeacherTypeSeminarKita:      "seminar_kita",
	TeacherTypeManha:            "manha",
	TeacherTypePDS:              "pds",
	TeacherTypeKindergarten:     "kindergarten",
	TeacherTypeSpecialEducation: "special_education",
}

func (t TeacherType) String() string {
	if name, ok := teacherTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("teacher_type(%d)", int(t))
}

// Known reports whether the key selects a formula.
func (t TeacherType) Known() bool {
	_, ok := teacherTypeNames[t]
	return ok
}

// ErrUnknownTeacherType is returned by write paths that are given a type
// name or key outside the known set. Pricing never returns it.
var ErrUnknownTeacherType = errors.New("unknown teacher type")

// ParseTeacherType accepts a type name as produced by String.
func ParseTeacherType(s string) (TeacherType, bool) {
	for t, name := range teacherTypeNames {
		if name == s {
			return t, true
		}
	}
	return TeacherTypeUnset, false
}

// =============================================================================
// METRICS - Optional numeric/boolean report fields
// =============================================================================

// Metric names one optional field of Metrics.
type Metric int

const (
	MetricStudents Metric = iota + 1
	MetricLessons
	MetricDiscussingLessons
	MetricWatchOrIndividual
	MetricTeachedOrInterfering
	MetricLessonsAbsence
	MetricWasKamal
	MetricStudentsTaught
	MetricStudentsHelpTaught
	MetricYalkutLessons
	MetricWatchedLessons
	MetricMethodic
	MetricIsTaarifHulia
	MetricIsTaarifHulia2
	MetricIsTaarifHulia3
	MetricWasCollectiveWatch
	MetricStudentsWatched
	MetricWasPhoneDiscussing
)

// AllMetrics lists every metric in column order.
var AllMetrics = []Metric{
	MetricStudents, MetricLessons, MetricDiscussingLessons, MetricWatchOrIndividual,
	MetricTeachedOrInterfering, MetricLessonsAbsence, MetricWasKamal,
	MetricStudentsTaught, MetricStudentsHelpTaught, MetricYalkutLessons,
	MetricWatchedLessons, MetricMethodic, MetricIsTaarifHulia, MetricIsTaarifHulia2,
	MetricIsTaarifHulia3, MetricWasCollectiveWatch, MetricStudentsWatched,
	MetricWasPhoneDiscussing,
}

var metricNames = map[Metric]string{
	MetricStudents:             "students",
	MetricLessons:              "lessons",
	MetricDiscussingLessons:    "discussing_lessons",
	MetricWatchOrIndividual:    "watch_or_individual",
	MetricTeachedOrInterfering: "teached_or_interfering",
	MetricLessonsAbsence:       "lessons_absence",
	MetricWasKamal:             "was_kamal",
	MetricStudentsTaught:       "students_taught",
	MetricStudentsHelpTaught:   "students_help_taught",
	MetricYalkutLessons:        "yalkut_lessons",
	MetricWatchedLessons:       "watched_lessons",
	MetricMethodic:             "methodic",
	MetricIsTaarifHulia:        "is_taarif_hulia",
	MetricIsTaarifHulia2:       "is_taarif_hulia2",
	MetricIsTaarifHulia3:       "is_taarif_hulia3",
	MetricWasCollectiveWatch:   "was_collective_watch",
	MetricStudentsWatched:      "students_watched",
	MetricWasPhoneDiscussing:   "was_phone_discussing",
}

// String returns the snake_case field name (also the storage column name).
func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// Metrics holds the optional fields of a report. Only the subset relevant to
// the teacher's type is normally populated; nil means "not reported".
type Metrics struct {
	Students             *int  `json:"students,omitempty"`
	Lessons              *int  `json:"lessons,omitempty"`
	DiscussingLessons    *int  `json:"discussing_lessons,omitempty"`
	WatchOrIndividual    *int  `json:"watch_or_individual,omitempty"`
	TeachedOrInterfering *int  `json:"teached_or_interfering,omitempty"`
	LessonsAbsence       *int  `json:"lessons_absence,omitempty"`
	WasKamal             *bool `json:"was_kamal,omitempty"`
	StudentsTaught       *int  `json:"students_taught,omitempty"`
	StudentsHelpTaught   *int  `json:"students_help_taught,omitempty"`
	YalkutLessons        *int  `json:"yalkut_lessons,omitempty"`
	WatchedLessons       *int  `json:"watched_lessons,omitempty"`
	Methodic             *int  `json:"methodic,omitempty"`
	IsTaarifHulia        *bool `json:"is_taarif_hulia,omitempty"`
	IsTaarifHulia2       *bool `json:"is_taarif_hulia2,omitempty"`
	IsTaarifHulia3       *bool `json:"is_taarif_hulia3,omitempty"`
	WasCollectiveWatch   *bool `json:"was_collective_watch,omitempty"`
	StudentsWatched      *int  `json:"students_watched,omitempty"`
	WasPhoneDiscussing   *bool `json:"was_phone_discussing,omitempty"`
}

// fields returns the address of the pointer backing a metric. Exactly one
// of the two results is non-nil for a known metric.
func (m *Metrics) fields(metric Metric) (**int, **bool) {
	switch metric {
	case MetricStudents:
		return &m.Students, nil
	case MetricLessons:
		return &m.Lessons, nil
	case MetricDiscussingLessons:
		return &m.DiscussingLessons, nil
	case MetricWatchOrIndividual:
		return &m.WatchOrIndividual, nil
	case MetricTeachedOrInterfering:
		return &m.TeachedOrInterfering, nil
	case MetricLessonsAbsence:
		return &m.LessonsAbsence, nil
	case MetricWasKamal:
		return nil, &m.WasKamal
	case MetricStudentsTaught:
		return &m.StudentsTaught, nil
	case MetricStudentsHelpTaught:
		return &m.StudentsHelpTaught, nil
	case MetricYalkutLessons:
		return &m.YalkutLessons, nil
	case MetricWatchedLessons:
		return &m.WatchedLessons, nil
	case MetricMethodic:
		return &m.Methodic, nil
	case MetricIsTaarifHulia:
		return nil, &m.IsTaarifHulia
	case MetricIsTaarifHulia2:
		return nil, &m.IsTaarifHulia2
	case MetricIsTaarifHulia3:
		return nil, &m.IsTaarifHulia3
	case MetricWasCollectiveWatch:
		return nil, &m.WasCollectiveWatch
	case MetricStudentsWatched:
		return &m.StudentsWatched, nil
	case MetricWasPhoneDiscussing:
		return nil, &m.WasPhoneDiscussing
	}
	return nil, nil
}

// IsBool reports whether the metric is a yes/no flag.
func (m Metric) IsBool() bool {
	var zero Metrics
	_, b := zero.fields(m)
	return b != nil
}

// Value returns the metric as a decimal. Flags read as 1 or 0.
// ok is false when the field is not reported.
func (m Metrics) Value(metric Metric) (decimal.Decimal, bool) {
	raw := m.Raw(metric)
	if raw == nil {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(*raw), true
}

// Raw returns the metric as an integer pointer (flags as 1/0), nil when absent.
func (m Metrics) Raw(metric Metric) *int64 {
	ip, bp := m.fields(metric)
	switch {
	case ip != nil && *ip != nil:
		v := int64(**ip)
		return &v
	case bp != nil && *bp != nil:
		var v int64
		if **bp {
			v = 1
		}
		return &v
	}
	return nil
}

// Set stores a raw value. A nil value clears the field; for flags any
// non-zero value is true.
func (m *Metrics) Set(metric Metric, raw *int64) {
	ip, bp := m.fields(metric)
	switch {
	case ip != nil:
		if raw == nil {
			*ip = nil
			return
		}
		v := int(*raw)
		*ip = &v
	case bp != nil:
		if raw == nil {
			*bp = nil
			return
		}
		v := *raw != 0
		*bp = &v
	}
}

// Clear marks a metric as not reported.
func (m *Metrics) Clear(metric Metric) { m.Set(metric, nil) }

// =============================================================================
// SOURCE RECORDS
// =============================================================================

// ActivityReport is one submitted report for one teacher on one date.
type ActivityReport struct {
	ID        string
	OwnerID   pricing.OwnerID
	TeacherID TeacherID

	// TeacherType comes from the teacher record; TeacherTypeUnset when the
	// teacher has none.
	TeacherType TeacherType

	ReportDate  time.Time
	BatchID     BatchID // empty until assigned to payroll
	IsConfirmed bool

	Metrics Metrics
}

// AnswerRecord is one answer to one priced question.
type AnswerRecord struct {
	ID          string
	OwnerID     pricing.OwnerID
	TeacherID   TeacherID
	QuestionID  QuestionID
	AnswerValue int

	// Tariff comes from the question; invalid when the question is missing.
	Tariff decimal.NullDecimal

	ReportDate  time.Time
	BatchID     BatchID
	IsConfirmed bool
}
