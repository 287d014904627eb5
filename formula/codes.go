package formula

import "github.com/warp/teacher-payroll/pricing"

// Price codes referenced by the formulas. Each teacher type has its own
// namespace so owners can tune one type without touching another.
const (
	CodeLessonBase pricing.Code = "lesson.base"

	CodeSeminarStudentMult   pricing.Code = "seminar.student_mult"
	CodeSeminarLessonMult    pricing.Code = "seminar.lesson_mult"
	CodeSeminarDiscussMult   pricing.Code = "seminar.discuss_mult"
	CodeSeminarWatchMult     pricing.Code = "seminar.watch_mult"
	CodeSeminarInterfereMult pricing.Code = "seminar.interfere_mult"
	CodeSeminarKamalBonus    pricing.Code = "seminar.kamal_bonus"

	CodeManhaStudentMult  pricing.Code = "manha.student_mult"
	CodeManhaHelpMult     pricing.Code = "manha.help_mult"
	CodeManhaYalkutMult   pricing.Code = "manha.yalkut_mult"
	CodeManhaDiscussMult  pricing.Code = "manha.discuss_mult"
	CodeManhaWatchedMult  pricing.Code = "manha.watched_mult"
	CodeManhaMethodicMult pricing.Code = "manha.methodic_mult"
	CodeManhaHulia1Bonus  pricing.Code = "manha.hulia1_bonus"
	CodeManhaHulia2Bonus  pricing.Code = "manha.hulia2_bonus"
	CodeManhaHulia3Bonus  pricing.Code = "manha.hulia3_bonus"

	CodePDSDiscussMult   pricing.Code = "pds.discuss_mult"
	CodePDSWatchMult     pricing.Code = "pds.watch_mult"
	CodePDSInterfereMult pricing.Code = "pds.interfere_mult"

	CodeKindergartenStudentMult     pricing.Code = "kindergarten.student_mult"
	CodeKindergartenCollectiveBonus pricing.Code = "kindergarten.collective_bonus"

	CodeSpecialStudentMult pricing.Code = "special.student_mult"
	CodeSpecialLessonMult  pricing.Code = "special.lesson_mult"
	CodeSpecialPhoneBonus  pricing.Code = "special.phone_bonus"
)

// Codes returns every code the formulas can reference, base first.
func Codes() []pricing.Code {
	codes := []pricing.Code{CodeLessonBase}
	seen := map[pricing.Code]bool{CodeLessonBase: true}
	for _, t := range []TeacherType{
		TeacherTypeSeminarKita, TeacherTypeManha, TeacherTypePDS,
		TeacherTypeKindergarten, TeacherTypeSpecialEducation,
	} {
		for _, term := range Formulas[t] {
			if !seen[term.Code] {
				seen[term.Code] = true
				codes = append(codes, term.Code)
			}
		}
	}
	return codes
}
