/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Prices:
    PriceDTO, SetPriceRequest (sheets use pricing.SheetJSON directly)

  Items and summaries:
    ItemDTO, SummaryDTO, BatchTotalDTO

  Batches:
    BatchDTO, CreateBatchRequest, AssignRequest

  Collaborator records:
    TeacherRequest, QuestionRequest, ReportRequest, AnswerRequest

MONEY:
  Every amount is a decimal.Decimal and serializes as a JSON string
  ("37.5"), never as a float.

DATES:
  Dates are accepted as "2006-01-02" or RFC3339 and returned as RFC3339 UTC.

SEE ALSO:
  - handlers.go: Uses these types
  - pricing/factory.go: SheetJSON type
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/payroll"
	"github.com/warp/teacher-payroll/pricing"
)

// =============================================================================
// PRICES
// =============================================================================

// PriceDTO represents one price definition.
type PriceDTO struct {
	ID          string          `json:"id,omitempty"`
	OwnerID     int64           `json:"owner_id"`
	Code        string          `json:"code"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
}

// SetPriceRequest sets one code for one owner.
type SetPriceRequest struct {
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
}

// =============================================================================
// ITEMS AND SUMMARIES
// =============================================================================

// ItemDTO represents one priced report or answer.
type ItemDTO struct {
	Kind        string          `json:"kind"`
	ID          string          `json:"id"`
	OwnerID     int64           `json:"owner_id"`
	TeacherID   string          `json:"teacher_id"`
	ReportDate  string          `json:"report_date"`
	BatchID     string          `json:"batch_id,omitempty"`
	IsConfirmed bool            `json:"is_confirmed"`
	Price       decimal.Decimal `json:"price"`
}

func toItemDTO(it payroll.ReportableItem) ItemDTO {
	return ItemDTO{
		Kind:        string(it.Kind()),
		ID:          it.Ref.ID,
		OwnerID:     int64(it.OwnerID),
		TeacherID:   string(it.TeacherID),
		ReportDate:  formatDate(it.ReportDate),
		BatchID:     string(it.BatchID),
		IsConfirmed: it.IsConfirmed,
		Price:       it.CalculatedPrice,
	}
}

// SummaryDTO is one (owner, batch, teacher, month) payroll row.
type SummaryDTO struct {
	OwnerID      int64           `json:"owner_id"`
	BatchID      string          `json:"batch_id"`
	TeacherID    string          `json:"teacher_id"`
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	ReportCount  int             `json:"report_count"`
	AnswerCount  int             `json:"answer_count"`
	ReportsTotal decimal.Decimal `json:"reports_total"`
	AnswersTotal decimal.Decimal `json:"answers_total"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}

func toSummaryDTO(s payroll.Summary) SummaryDTO {
	return SummaryDTO{
		OwnerID:      int64(s.OwnerID),
		BatchID:      string(s.BatchID),
		TeacherID:    string(s.TeacherID),
		Year:         s.Year,
		Month:        int(s.Month),
		ReportCount:  s.ReportCount,
		AnswerCount:  s.AnswerCount,
		ReportsTotal: s.ReportsTotal,
		AnswersTotal: s.AnswersTotal,
		GrandTotal:   s.GrandTotal,
	}
}

// BatchTotalDTO is one batch rolled up across teachers and months.
type BatchTotalDTO struct {
	BatchID      string          `json:"batch_id"`
	Teachers     int             `json:"teachers"`
	ReportCount  int             `json:"report_count"`
	AnswerCount  int             `json:"answer_count"`
	ReportsTotal decimal.Decimal `json:"reports_total"`
	AnswersTotal decimal.Decimal `json:"answers_total"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}

// =============================================================================
// BATCHES
// =============================================================================

// BatchDTO represents a payroll batch.
type BatchDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	OwnerID int64  `json:"owner_id"`
}

func toBatchDTO(b payroll.Batch) BatchDTO {
	return BatchDTO{
		ID:      string(b.ID),
		Name:    b.Name,
		Date:    formatDate(b.Date),
		OwnerID: int64(b.OwnerID),
	}
}

// CreateBatchRequest creates a batch. ID and date are generated when empty.
type CreateBatchRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Date string `json:"date,omitempty"`
}

// AssignRequest names the target batch.
type AssignRequest struct {
	BatchID string `json:"batch_id"`
}

// =============================================================================
// COLLABORATOR RECORDS
// =============================================================================

// TeacherRequest upserts a teacher. Type is a name such as "seminar_kita".
type TeacherRequest struct {
	OwnerID int64  `json:"owner_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
}

// QuestionRequest upserts a priced question.
type QuestionRequest struct {
	OwnerID int64           `json:"owner_id"`
	Text    string          `json:"text"`
	Tariff  decimal.Decimal `json:"tariff"`
}

// ReportRequest upserts an activity report.
type ReportRequest struct {
	OwnerID     int64           `json:"owner_id"`
	TeacherID   string          `json:"teacher_id"`
	ReportDate  string          `json:"report_date"`
	IsConfirmed bool            `json:"is_confirmed"`
	Metrics     formula.Metrics `json:"metrics"`
}

// AnswerRequest upserts an answer.
type AnswerRequest struct {
	OwnerID     int64  `json:"owner_id"`
	TeacherID   string `json:"teacher_id"`
	QuestionID  string `json:"question_id"`
	AnswerValue int    `json:"answer_value"`
	ReportDate  string `json:"report_date"`
	IsConfirmed bool   `json:"is_confirmed"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// HELPERS
// =============================================================================

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseDate accepts a calendar date or an RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", s)
	}
	return t.UTC(), nil
}

func toPriceDTOs(defs []pricing.PriceDefinition) []PriceDTO {
	dtos := make([]PriceDTO, len(defs))
	for i, d := range defs {
		dtos[i] = PriceDTO{
			ID:          d.ID,
			OwnerID:     int64(d.OwnerID),
			Code:        string(d.Code),
			Price:       d.Price,
			Description: d.Description,
		}
	}
	return dtos
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario and the owner it is loaded for.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
	OwnerID    int64  `json:"owner_id"`
}
