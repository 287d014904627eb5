/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos. Each scenario creates prices, teachers, questions,
	reports and answers that exercise specific pricing paths.

AVAILABLE SCENARIOS:

	default-prices:   System default for every price code
	monthly-payroll:  One teacher per type, two months of reports, one batch
	owner-overrides:  monthly-payroll plus owner-specific price overrides

HOW SCENARIOS WORK:
 1. Store the system default price sheet
 2. Create teachers (one per teacher type) and questions for the owner
 3. Create reports and answers across two months
 4. Create a batch and assign the first month to it

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "monthly-payroll", "owner_id": 42}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, owner)
 3. Add case to LoadScenario handler

NOTE:

	Record IDs are derived from the owner ID. Loading a payroll scenario
	twice for the same owner fails when re-saving the first month, whose
	records are already batched. Use a fresh owner ID.

SEE ALSO:
  - handlers.go: Record upsert endpoints used by real clients
  - pricing/factory.go: Price sheet definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/payroll"
	"github.com/warp/teacher-payroll/pricing"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "default-prices",
		Name:        "Default Prices",
		Description: "System default price for every code used by the formulas",
	},
	{
		ID:          "monthly-payroll",
		Name:        "Monthly Payroll",
		Description: "One teacher per type with two months of reports and answers; first month batched",
	},
	{
		ID:          "owner-overrides",
		Name:        "Owner Overrides",
		Description: "Monthly payroll with owner-specific base and multiplier prices",
	},
}

// defaultPrices is the system sheet loaded by every scenario.
var defaultPrices = pricing.SheetJSON{
	OwnerID: pricing.SystemOwner,
	Prices: []pricing.PriceJSON{
		sheetPrice(formula.CodeLessonBase, "50", "base price per report"),

		sheetPrice(formula.CodeSeminarStudentMult, "2", ""),
		sheetPrice(formula.CodeSeminarLessonMult, "10", ""),
		sheetPrice(formula.CodeSeminarDiscussMult, "15", ""),
		sheetPrice(formula.CodeSeminarWatchMult, "20", ""),
		sheetPrice(formula.CodeSeminarInterfereMult, "25", ""),
		sheetPrice(formula.CodeSeminarKamalBonus, "30", ""),

		sheetPrice(formula.CodeManhaStudentMult, "3", ""),
		sheetPrice(formula.CodeManhaHelpMult, "1.5", ""),
		sheetPrice(formula.CodeManhaYalkutMult, "12", ""),
		sheetPrice(formula.CodeManhaDiscussMult, "15", ""),
		sheetPrice(formula.CodeManhaWatchedMult, "20", ""),
		sheetPrice(formula.CodeManhaMethodicMult, "8", ""),
		sheetPrice(formula.CodeManhaHulia1Bonus, "40", ""),
		sheetPrice(formula.CodeManhaHulia2Bonus, "60", ""),
		sheetPrice(formula.CodeManhaHulia3Bonus, "80", ""),

		sheetPrice(formula.CodePDSDiscussMult, "15", ""),
		sheetPrice(formula.CodePDSWatchMult, "20", ""),
		sheetPrice(formula.CodePDSInterfereMult, "25", ""),

		sheetPrice(formula.CodeKindergartenStudentMult, "1", ""),
		sheetPrice(formula.CodeKindergartenCollectiveBonus, "35", ""),

		sheetPrice(formula.CodeSpecialStudentMult, "4", ""),
		sheetPrice(formula.CodeSpecialLessonMult, "12", ""),
		sheetPrice(formula.CodeSpecialPhoneBonus, "10", ""),
	},
}

func sheetPrice(code pricing.Code, price, description string) pricing.PriceJSON {
	return pricing.PriceJSON{Code: string(code), Price: decimal.RequireFromString(price), Description: description}
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a predefined scenario for one owner.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if !h.canWrite(w) {
		return
	}
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	owner := pricing.OwnerID(req.OwnerID)
	if req.ScenarioID != "default-prices" && owner.IsSystem() {
		writeError(w, http.StatusBadRequest, "owner_id is required", nil)
		return
	}

	ctx := r.Context()

	var err error
	switch req.ScenarioID {
	case "default-prices":
		err = h.loadDefaultPrices(ctx)
	case "monthly-payroll":
		err = h.loadMonthlyPayrollScenario(ctx, owner)
	case "owner-overrides":
		err = h.loadOwnerOverridesScenario(ctx, owner)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.Log.Info("scenario loaded", zap.String("scenario", req.ScenarioID), zap.Int64("owner", int64(owner)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadDefaultPrices(ctx context.Context) error {
	defs, err := pricing.FromSheet(defaultPrices)
	if err != nil {
		return err
	}
	for _, d := range defs {
		if err := h.Engine.Catalog.SavePrice(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadMonthlyPayrollScenario(ctx context.Context, owner pricing.OwnerID) error {
	if err := h.loadDefaultPrices(ctx); err != nil {
		return err
	}

	prefix := fmt.Sprintf("o%d-", owner)
	tid := func(s string) formula.TeacherID { return formula.TeacherID(prefix + s) }

	teachers := []payroll.Teacher{
		{ID: tid("seminar"), OwnerID: owner, Name: "Seminar Teacher", Type: formula.TeacherTypeSeminarKita},
		{ID: tid("manha"), OwnerID: owner, Name: "Manha Teacher", Type: formula.TeacherTypeManha},
		{ID: tid("pds"), OwnerID: owner, Name: "PDS Teacher", Type: formula.TeacherTypePDS},
		{ID: tid("kinder"), OwnerID: owner, Name: "Kindergarten Teacher", Type: formula.TeacherTypeKindergarten},
		{ID: tid("special"), OwnerID: owner, Name: "Special Education Teacher", Type: formula.TeacherTypeSpecialEducation},
	}
	for _, t := range teachers {
		if err := h.Records.SaveTeacher(ctx, t); err != nil {
			return err
		}
	}

	question := payroll.Question{
		ID:      formula.QuestionID(prefix + "q-lessons-given"),
		OwnerID: owner,
		Text:    "How many extra lessons did you give?",
		Tariff:  decimal.RequireFromString("12.50"),
	}
	if err := h.Records.SaveQuestion(ctx, question); err != nil {
		return err
	}

	n := func(v int) *int { return &v }
	yes := func() *bool { v := true; return &v }

	metrics := map[formula.TeacherID]formula.Metrics{
		tid("seminar"): {Students: n(12), Lessons: n(2), WatchOrIndividual: n(1), WasKamal: yes()},
		tid("manha"):   {StudentsTaught: n(8), StudentsHelpTaught: n(4), Methodic: n(1), IsTaarifHulia2: yes()},
		tid("pds"):     {DiscussingLessons: n(1), WatchOrIndividual: n(2)},
		tid("kinder"):  {Students: n(20), WasCollectiveWatch: yes()},
		tid("special"): {StudentsTaught: n(3), StudentsWatched: n(4), Lessons: n(1), WasPhoneDiscussing: yes()},
	}

	first := time.Date(time.Now().UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	var januaryRefs []payroll.ItemRef

	for month := 0; month < 2; month++ {
		for _, t := range teachers {
			for week := 0; week < 4; week++ {
				r := formula.ActivityReport{
					ID:         fmt.Sprintf("%s-r-%d-%d", t.ID, month, week),
					OwnerID:    owner,
					TeacherID:  t.ID,
					ReportDate: first.AddDate(0, month, week*7),
					Metrics:    metrics[t.ID],
				}
				if err := h.Records.SaveReport(ctx, r); err != nil {
					return err
				}
				if month == 0 {
					januaryRefs = append(januaryRefs, payroll.ItemRef{Kind: payroll.KindReport, ID: r.ID})
				}
			}
			a := formula.AnswerRecord{
				ID:          fmt.Sprintf("%s-a-%d", t.ID, month),
				OwnerID:     owner,
				TeacherID:   t.ID,
				QuestionID:  question.ID,
				AnswerValue: 2 + month,
				ReportDate:  first.AddDate(0, month, 27),
			}
			if err := h.Records.SaveAnswer(ctx, a); err != nil {
				return err
			}
			if month == 0 {
				januaryRefs = append(januaryRefs, payroll.ItemRef{Kind: payroll.KindAnswer, ID: a.ID})
			}
		}
	}

	batch, err := h.Engine.CreateBatch(ctx, payroll.Batch{
		Name:    first.Format("January 2006"),
		Date:    first.AddDate(0, 1, -1),
		OwnerID: owner,
	})
	if err != nil {
		return err
	}
	for _, ref := range januaryRefs {
		if err := h.Engine.Assign(ctx, ref, batch.ID); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadOwnerOverridesScenario(ctx context.Context, owner pricing.OwnerID) error {
	if err := h.loadMonthlyPayrollScenario(ctx, owner); err != nil {
		return err
	}
	overrides := []pricing.PriceDefinition{
		{Code: formula.CodeLessonBase, OwnerID: owner, Price: decimal.RequireFromString("65"), Description: "negotiated base"},
		{Code: formula.CodeKindergartenStudentMult, OwnerID: owner, Price: decimal.RequireFromString("1.25")},
		{Code: formula.CodeManhaHulia2Bonus, OwnerID: owner, Price: decimal.RequireFromString("75")},
	}
	for _, d := range overrides {
		if err := h.Engine.Catalog.SavePrice(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
