/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the compensation engine via REST API for the report layer. Handles
  HTTP request/response and JSON serialization, and delegates to
  payroll.Engine for pricing, aggregation and assignment.

ENDPOINTS:
  Prices:
    GET    /api/owners/{owner}/pivot           Effective price of every code
    GET    /api/owners/{owner}/prices          The owner's own definitions
    PUT    /api/owners/{owner}/prices/{code}   Set one price
    POST   /api/owners/{owner}/prices          Import a JSON price sheet
    GET    /api/owners/{owner}/prices/sheet    Export the owner's prices as a sheet

  Payroll:
    GET    /api/owners/{owner}/items           Priced reports and answers
    GET    /api/owners/{owner}/summaries       Per (batch, teacher, month) rows
    GET    /api/owners/{owner}/batches         List batches
    POST   /api/owners/{owner}/batches         Create batch
    GET    /api/owners/{owner}/batches/totals  Per-batch totals

  Assignment:
    POST   /api/items/{kind}/{id}/assign       Put an item into a batch
    POST   /api/items/{kind}/{id}/unassign     Take it out again
    POST   /api/items/{kind}/{id}/confirm      Freeze the record

  Collaborator records:
    PUT    /api/teachers/{id}
    PUT    /api/questions/{id}
    PUT    /api/reports/{id}
    PUT    /api/answers/{id}

ITEM FILTERS (query string on items and summaries):
  teacher=<id>  batch=<id>  from=<date>  to=<date>  unassigned=true

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Item or batch not found
  - 409: Assignment refused (confirmed, or in another batch)
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. Owners are trusted path parameters.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/payroll"
	"github.com/warp/teacher-payroll/pricing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// RecordWriter persists the collaborator records the engine prices.
type RecordWriter interface {
	SaveTeacher(ctx context.Context, t payroll.Teacher) error
	SaveQuestion(ctx context.Context, q payroll.Question) error
	SaveReport(ctx context.Context, r formula.ActivityReport) error
	SaveAnswer(ctx context.Context, a formula.AnswerRecord) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *payroll.Engine
	Records RecordWriter
	Log     *zap.Logger
}

// NewHandler creates a handler over the engine. records may be nil, in
// which case the collaborator write endpoints answer 501.
func NewHandler(engine *payroll.Engine, records RecordWriter, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Engine: engine, Records: records, Log: log}
}

// =============================================================================
// PRICE HANDLERS
// =============================================================================

// GetPivot returns the effective price of every code for the owner.
// GET /api/owners/{owner}/pivot
func (h *Handler) GetPivot(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	pivot, err := h.Engine.Pivot(r.Context(), owner)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pivot)
}

// ListPrices returns the definitions stored for the owner itself.
// GET /api/owners/{owner}/prices
func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	defs, err := h.Engine.Store.LoadPrices(r.Context(), owner)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPriceDTOs(defs))
}

// SetPrice upserts one code for the owner.
// PUT /api/owners/{owner}/prices/{code}
func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req SetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	def := pricing.PriceDefinition{
		Code:        pricing.Code(chi.URLParam(r, "code")),
		OwnerID:     owner,
		Price:       req.Price,
		Description: req.Description,
	}
	if err := h.Engine.Catalog.SavePrice(r.Context(), def); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.Log.Info("price set",
		zap.Int64("owner", int64(owner)),
		zap.String("code", string(def.Code)),
		zap.Stringer("price", def.Price))
	writeJSON(w, http.StatusOK, toPriceDTOs([]pricing.PriceDefinition{def})[0])
}

// ImportSheet stores every entry of a JSON price sheet for the owner.
// The sheet's own owner_id is ignored in favor of the path.
// POST /api/owners/{owner}/prices
func (h *Handler) ImportSheet(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var sheet pricing.SheetJSON
	if err := json.NewDecoder(r.Body).Decode(&sheet); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	sheet.OwnerID = owner

	defs, err := pricing.FromSheet(sheet)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	for _, d := range defs {
		if err := h.Engine.Catalog.SavePrice(r.Context(), d); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}

	h.Log.Info("price sheet imported", zap.Int64("owner", int64(owner)), zap.Int("prices", len(defs)))
	writeJSON(w, http.StatusOK, toPriceDTOs(defs))
}

// ExportSheet returns the owner's own definitions as an importable sheet.
// GET /api/owners/{owner}/prices/sheet
func (h *Handler) ExportSheet(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	defs, err := h.Engine.Store.LoadPrices(r.Context(), owner)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Code < defs[j].Code })
	writeJSON(w, http.StatusOK, pricing.ToSheet(owner, defs))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// ListItems returns priced reports and answers.
// GET /api/owners/{owner}/items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	items, err := h.Engine.Items(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListSummaries returns the payroll rows.
// GET /api/owners/{owner}/summaries
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	rows, err := h.Engine.Summaries(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]SummaryDTO, len(rows))
	for i, s := range rows {
		dtos[i] = toSummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListBatches returns the owner's batches.
// GET /api/owners/{owner}/batches
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	batches, err := h.Engine.Store.ListBatches(r.Context(), owner)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]BatchDTO, len(batches))
	for i, b := range batches {
		dtos[i] = toBatchDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBatch creates a batch for the owner.
// POST /api/owners/{owner}/batches
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	b := payroll.Batch{ID: formula.BatchID(req.ID), Name: req.Name, OwnerID: owner}
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		b.Date = d
	}

	b, err := h.Engine.CreateBatch(r.Context(), b)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBatchDTO(b))
}

// ListBatchTotals returns one total row per batch.
// GET /api/owners/{owner}/batches/totals
func (h *Handler) ListBatchTotals(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	totals, err := h.Engine.BatchTotals(r.Context(), owner)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]BatchTotalDTO, len(totals))
	for i, t := range totals {
		dtos[i] = BatchTotalDTO{
			BatchID:      string(t.BatchID),
			Teachers:     t.Teachers,
			ReportCount:  t.ReportCount,
			AnswerCount:  t.AnswerCount,
			ReportsTotal: t.ReportsTotal,
			AnswersTotal: t.AnswersTotal,
			GrandTotal:   t.GrandTotal,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// AssignItem puts an item into a batch.
// POST /api/items/{kind}/{id}/assign
func (h *Handler) AssignItem(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	ref := itemRef(r)
	if err := h.Engine.Assign(r.Context(), ref, formula.BatchID(req.BatchID)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"item": ref.String(), "batch_id": req.BatchID})
}

// UnassignItem takes an item out of its batch.
// POST /api/items/{kind}/{id}/unassign
func (h *Handler) UnassignItem(w http.ResponseWriter, r *http.Request) {
	ref := itemRef(r)
	if err := h.Engine.Unassign(r.Context(), ref); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"item": ref.String()})
}

// ConfirmItem freezes an item's record.
// POST /api/items/{kind}/{id}/confirm
func (h *Handler) ConfirmItem(w http.ResponseWriter, r *http.Request) {
	ref := itemRef(r)
	if err := h.Engine.Confirm(r.Context(), ref); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"item": ref.String()})
}

// =============================================================================
// COLLABORATOR RECORD HANDLERS
// =============================================================================

// PutTeacher upserts a teacher.
// PUT /api/teachers/{id}
func (h *Handler) PutTeacher(w http.ResponseWriter, r *http.Request) {
	if !h.canWrite(w) {
		return
	}
	var req TeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	t := payroll.Teacher{
		ID:      formula.TeacherID(chi.URLParam(r, "id")),
		OwnerID: pricing.OwnerID(req.OwnerID),
		Name:    req.Name,
	}
	if req.Type != "" {
		tt, ok := formula.ParseTeacherType(req.Type)
		if !ok {
			h.writeDomainError(w, fmt.Errorf("%w: %q", formula.ErrUnknownTeacherType, req.Type))
			return
		}
		t.Type = tt
	}

	if err := h.Records.SaveTeacher(r.Context(), t); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": string(t.ID), "type": t.Type.String()})
}

// PutQuestion upserts a question.
// PUT /api/questions/{id}
func (h *Handler) PutQuestion(w http.ResponseWriter, r *http.Request) {
	if !h.canWrite(w) {
		return
	}
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if req.Tariff.IsNegative() {
		writeError(w, http.StatusBadRequest, "tariff must not be negative", nil)
		return
	}

	q := payroll.Question{
		ID:      formula.QuestionID(chi.URLParam(r, "id")),
		OwnerID: pricing.OwnerID(req.OwnerID),
		Text:    req.Text,
		Tariff:  req.Tariff,
	}
	if err := h.Records.SaveQuestion(r.Context(), q); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": string(q.ID)})
}

// PutReport upserts an activity report. Batch membership is not part of
// the body; use the assignment endpoints.
// PUT /api/reports/{id}
func (h *Handler) PutReport(w http.ResponseWriter, r *http.Request) {
	if !h.canWrite(w) {
		return
	}
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	date, err := parseDate(req.ReportDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report_date", err)
		return
	}

	rep := formula.ActivityReport{
		ID:          chi.URLParam(r, "id"),
		OwnerID:     pricing.OwnerID(req.OwnerID),
		TeacherID:   formula.TeacherID(req.TeacherID),
		ReportDate:  date,
		IsConfirmed: req.IsConfirmed,
		Metrics:     req.Metrics,
	}
	if err := h.Records.SaveReport(r.Context(), rep); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": rep.ID})
}

// PutAnswer upserts an answer.
// PUT /api/answers/{id}
func (h *Handler) PutAnswer(w http.ResponseWriter, r *http.Request) {
	if !h.canWrite(w) {
		return
	}
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	date, err := parseDate(req.ReportDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report_date", err)
		return
	}

	a := formula.AnswerRecord{
		ID:          chi.URLParam(r, "id"),
		OwnerID:     pricing.OwnerID(req.OwnerID),
		TeacherID:   formula.TeacherID(req.TeacherID),
		QuestionID:  formula.QuestionID(req.QuestionID),
		AnswerValue: req.AnswerValue,
		ReportDate:  date,
		IsConfirmed: req.IsConfirmed,
	}
	if err := h.Records.SaveAnswer(r.Context(), a); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": a.ID})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) canWrite(w http.ResponseWriter) bool {
	if h.Records == nil {
		writeError(w, http.StatusNotImplemented, "record writes are not enabled", nil)
		return false
	}
	return true
}

// owner parses the {owner} path parameter, writing a 400 on failure.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (pricing.OwnerID, bool) {
	raw := chi.URLParam(r, "owner")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "Invalid owner", fmt.Errorf("owner %q", raw))
		return 0, false
	}
	return pricing.OwnerID(id), true
}

// filter builds an ItemFilter from the owner path parameter and query string.
func (h *Handler) filter(w http.ResponseWriter, r *http.Request) (payroll.ItemFilter, bool) {
	owner, ok := h.owner(w, r)
	if !ok {
		return payroll.ItemFilter{}, false
	}

	q := r.URL.Query()
	f := payroll.ItemFilter{
		OwnerID:   owner,
		TeacherID: formula.TeacherID(q.Get("teacher")),
		BatchID:   formula.BatchID(q.Get("batch")),
	}
	if v := q.Get("unassigned"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid unassigned flag", err)
			return payroll.ItemFilter{}, false
		}
		f.UnassignedOnly = b
	}
	var err error
	if f.From, err = optionalDate(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from", err)
		return payroll.ItemFilter{}, false
	}
	if f.To, err = optionalDate(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to", err)
		return payroll.ItemFilter{}, false
	}
	return f, true
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseDate(s)
}

func itemRef(r *http.Request) payroll.ItemRef {
	return payroll.ItemRef{
		Kind: payroll.ItemKind(chi.URLParam(r, "kind")),
		ID:   chi.URLParam(r, "id"),
	}
}

// writeDomainError maps engine errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case payroll.IsAssignmentConflict(err):
		writeError(w, http.StatusConflict, "Assignment refused", err)
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case payroll.IsClientError(err),
		errors.Is(err, pricing.ErrNegativePrice),
		errors.Is(err, pricing.ErrDuplicatePrice),
		errors.Is(err, pricing.ErrEmptyCode),
		errors.Is(err, formula.ErrUnknownTeacherType):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		h.Log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
