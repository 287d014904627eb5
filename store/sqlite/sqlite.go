/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements payroll.Store (and with it pricing.Store) using SQLite. The
  same statements run on PostgreSQL with minor dialect changes.

INTERFACES IMPLEMENTED:
  pricing.Store:       Price definitions per owner
  payroll.RecordStore: Activity reports and answers
  payroll.BatchStore:  Payroll batches

KEY TABLES:
  price_definitions: One price per (owner_id, code); owner 0 holds defaults
  teachers:          Teacher records; teacher_type selects the formula
  questions:         Priced questions; tariff is per question
  activity_reports:  One row per report, one nullable column per metric
  answers:           One row per answer
  batches:           Payroll batches

CONDITIONAL ASSIGNMENT:
  Assigning an item is a single-row UPDATE guarded by the assignment rules:

    UPDATE activity_reports SET batch_id = ?
    WHERE id = ? AND is_confirmed = 0 AND (batch_id IS NULL OR batch_id = ?)
      AND owner_id = (SELECT owner_id FROM batches WHERE id = ?)

  Zero affected rows means the item is missing, confirmed, in another
  batch, or the batch is missing or owned by someone else; a follow-up
  read classifies which. Record upserts carry the same guard
  (is_confirmed = 0 AND batch_id IS NULL) on their ON CONFLICT clause.

DECIMALS:
  Prices and tariffs are stored as TEXT and scanned straight into
  decimal.Decimal / decimal.NullDecimal, so no float ever touches money.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := payroll.NewEngine(store, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/payroll"
	"github.com/warp/teacher-payroll/pricing"
)

const timeLayout = time.RFC3339

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payroll.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// metricColumns are the activity_reports metric columns in formula.AllMetrics order.
var metricColumns = func() []string {
	cols := make([]string, len(formula.AllMetrics))
	for i, m := range formula.AllMetrics {
		cols[i] = m.String()
	}
	return cols
}()

// migrate creates the database schema.
func (s *Store) migrate() error {
	var metricDDL strings.Builder
	for _, m := range formula.AllMetrics {
		col := m.String()
		if m.IsBool() {
			fmt.Fprintf(&metricDDL, "\t\t%s INTEGER CHECK (%s IN (0, 1)),\n", col, col)
			continue
		}
		fmt.Fprintf(&metricDDL, "\t\t%s INTEGER,\n", col)
	}

	schema := `
	-- Price definitions (owner 0 = system defaults)
	CREATE TABLE IF NOT EXISTS price_definitions (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL,
		code TEXT NOT NULL,
		price TEXT NOT NULL,
		description TEXT,
		updated_at TEXT NOT NULL,
		UNIQUE(owner_id, code)
	);

	CREATE INDEX IF NOT EXISTS idx_prices_owner
		ON price_definitions(owner_id);

	-- Teachers
	CREATE TABLE IF NOT EXISTS teachers (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL,
		name TEXT,
		teacher_type INTEGER NOT NULL DEFAULT 0
	);

	-- Questions
	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL,
		text TEXT,
		tariff TEXT NOT NULL
	);

	-- Activity reports
	CREATE TABLE IF NOT EXISTS activity_reports (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL,
		teacher_id TEXT NOT NULL,
		report_date TEXT NOT NULL,
` + metricDDL.String() + `		batch_id TEXT,
		is_confirmed INTEGER NOT NULL DEFAULT 0
	);

	-- Hot path: all records of an owner, optionally by teacher / batch
	CREATE INDEX IF NOT EXISTS idx_reports_owner_teacher_date
		ON activity_reports(owner_id, teacher_id, report_date);
	CREATE INDEX IF NOT EXISTS idx_reports_batch
		ON activity_reports(batch_id) WHERE batch_id IS NOT NULL;

	-- Answers
	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL,
		teacher_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		answer_value INTEGER NOT NULL,
		report_date TEXT NOT NULL,
		batch_id TEXT,
		is_confirmed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_answers_owner_teacher_date
		ON answers(owner_id, teacher_id, report_date);
	CREATE INDEX IF NOT EXISTS idx_answers_batch
		ON answers(batch_id) WHERE batch_id IS NOT NULL;

	-- Payroll batches
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		batch_date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batches_owner
		ON batches(owner_id, batch_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PRICE STORE (pricing.Store interface)
// =============================================================================

// LoadPrices returns every definition belonging to one of the owners.
func (s *Store) LoadPrices(ctx context.Context, owners ...pricing.OwnerID) ([]pricing.PriceDefinition, error) {
	if len(owners) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(owners)), ",")
	args := make([]any, len(owners))
	for i, o := range owners {
		args[i] = int64(o)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, code, price, description FROM price_definitions WHERE owner_id IN ("+placeholders+") ORDER BY owner_id, code",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var defs []pricing.PriceDefinition
	for rows.Next() {
		var (
			d           pricing.PriceDefinition
			owner       int64
			code        string
			description sql.NullString
		)
		if err := rows.Scan(&d.ID, &owner, &code, &d.Price, &description); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		d.OwnerID = pricing.OwnerID(owner)
		d.Code = pricing.Code(code)
		d.Description = description.String
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// SavePrice upserts on (owner_id, code). The row keeps its first ID.
func (s *Store) SavePrice(ctx context.Context, def pricing.PriceDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if def.ID == "" {
		def.ID = uuid.NewString()
	}

	query := `
		INSERT INTO price_definitions (id, owner_id, code, price, description, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, code) DO UPDATE SET
			price = excluded.price,
			description = excluded.description,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		def.ID, int64(def.OwnerID), string(def.Code), def.Price.String(),
		nullString(def.Description), time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save price: %w", err)
	}
	return nil
}

// =============================================================================
// COLLABORATOR RECORDS
// =============================================================================

// SaveTeacher upserts a teacher.
func (s *Store) SaveTeacher(ctx context.Context, t payroll.Teacher) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO teachers (id, owner_id, name, teacher_type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			teacher_type = excluded.teacher_type
	`
	_, err := s.db.ExecContext(ctx, query, string(t.ID), int64(t.OwnerID), t.Name, int(t.Type))
	return err
}

// SaveQuestion upserts a question.
func (s *Store) SaveQuestion(ctx context.Context, q payroll.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO questions (id, owner_id, text, tariff)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			text = excluded.text,
			tariff = excluded.tariff
	`
	_, err := s.db.ExecContext(ctx, query, string(q.ID), int64(q.OwnerID), q.Text, q.Tariff.String())
	return err
}

// SaveReport upserts a report. The teacher type is not stored on the
// report; it is joined from the teacher on load. A stored row that is
// batched or confirmed is not overwritten.
func (s *Store) SaveReport(ctx context.Context, r formula.ActivityReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols := append([]string{"id", "owner_id", "teacher_id", "report_date"}, metricColumns...)
	cols = append(cols, "batch_id", "is_confirmed")

	args := []any{r.ID, int64(r.OwnerID), string(r.TeacherID), r.ReportDate.UTC().Format(timeLayout)}
	for _, m := range formula.AllMetrics {
		args = append(args, nullInt(r.Metrics.Raw(m)))
	}
	args = append(args, nullString(string(r.BatchID)), r.IsConfirmed)

	// batch_id is only ever changed through AssignBatch / UnassignBatch.
	updates := make([]string, 0, len(cols))
	for _, c := range cols[1:] {
		if c != "batch_id" {
			updates = append(updates, c+" = excluded."+c)
		}
	}

	query := "INSERT INTO activity_reports (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ") ON CONFLICT(id) DO UPDATE SET " +
		strings.Join(updates, ", ") +
		" WHERE activity_reports.is_confirmed = 0 AND activity_reports.batch_id IS NULL"

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.refusedRewrite(ctx, "activity_reports", payroll.ItemRef{Kind: payroll.KindReport, ID: r.ID})
	}
	return nil
}

// SaveAnswer upserts an answer like SaveReport. The tariff is joined from
// the question on load.
func (s *Store) SaveAnswer(ctx context.Context, a formula.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO answers (id, owner_id, teacher_id, question_id, answer_value, report_date, batch_id, is_confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			teacher_id = excluded.teacher_id,
			question_id = excluded.question_id,
			answer_value = excluded.answer_value,
			report_date = excluded.report_date,
			is_confirmed = excluded.is_confirmed
		WHERE answers.is_confirmed = 0 AND answers.batch_id IS NULL
	`
	res, err := s.db.ExecContext(ctx, query,
		a.ID, int64(a.OwnerID), string(a.TeacherID), string(a.QuestionID), a.AnswerValue,
		a.ReportDate.UTC().Format(timeLayout), nullString(string(a.BatchID)), a.IsConfirmed,
	)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.refusedRewrite(ctx, "answers", payroll.ItemRef{Kind: payroll.KindAnswer, ID: a.ID})
	}
	return nil
}

// refusedRewrite explains an upsert that changed no row.
func (s *Store) refusedRewrite(ctx context.Context, table string, ref payroll.ItemRef) error {
	h, err := s.header(ctx, table, ref)
	if err != nil {
		return err
	}
	if err := payroll.CheckRewrite(h); err != nil {
		return err
	}
	return fmt.Errorf("%s was not saved", ref)
}

// =============================================================================
// RECORD STORE (payroll.RecordStore interface)
// =============================================================================

// LoadReports returns matching reports with their teacher's type joined in.
func (s *Store) LoadReports(ctx context.Context, filter payroll.ItemFilter) ([]formula.ActivityReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	selectCols := []string{"r.id", "r.owner_id", "r.teacher_id", "COALESCE(t.teacher_type, 0)", "r.report_date"}
	for _, c := range metricColumns {
		selectCols = append(selectCols, "r."+c)
	}
	selectCols = append(selectCols, "r.batch_id", "r.is_confirmed")

	where, args := filterClause("r", filter)
	query := "SELECT " + strings.Join(selectCols, ", ") +
		" FROM activity_reports r LEFT JOIN teachers t ON t.id = r.teacher_id" +
		where + " ORDER BY r.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []formula.ActivityReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func scanReport(rows *sql.Rows) (formula.ActivityReport, error) {
	var (
		r           formula.ActivityReport
		owner       int64
		teacherID   string
		teacherType int
		reportDate  string
		batchID     sql.NullString
		metrics     = make([]sql.NullInt64, len(formula.AllMetrics))
	)

	dest := []any{&r.ID, &owner, &teacherID, &teacherType, &reportDate}
	for i := range metrics {
		dest = append(dest, &metrics[i])
	}
	dest = append(dest, &batchID, &r.IsConfirmed)

	if err := rows.Scan(dest...); err != nil {
		return r, fmt.Errorf("failed to scan report: %w", err)
	}

	r.OwnerID = pricing.OwnerID(owner)
	r.TeacherID = formula.TeacherID(teacherID)
	r.TeacherType = formula.TeacherType(teacherType)
	r.ReportDate, _ = time.Parse(timeLayout, reportDate)
	r.BatchID = formula.BatchID(batchID.String)
	for i, m := range formula.AllMetrics {
		if metrics[i].Valid {
			v := metrics[i].Int64
			r.Metrics.Set(m, &v)
		}
	}
	return r, nil
}

// LoadAnswers returns matching answers with their question's tariff joined in.
func (s *Store) LoadAnswers(ctx context.Context, filter payroll.ItemFilter) ([]formula.AnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := filterClause("a", filter)
	query := `
		SELECT a.id, a.owner_id, a.teacher_id, a.question_id, a.answer_value, q.tariff,
		       a.report_date, a.batch_id, a.is_confirmed
		FROM answers a LEFT JOIN questions q ON q.id = a.question_id` + where + `
		ORDER BY a.id
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []formula.AnswerRecord
	for rows.Next() {
		var (
			a          formula.AnswerRecord
			owner      int64
			teacherID  string
			questionID string
			reportDate string
			batchID    sql.NullString
		)
		if err := rows.Scan(&a.ID, &owner, &teacherID, &questionID, &a.AnswerValue, &a.Tariff,
			&reportDate, &batchID, &a.IsConfirmed); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		a.OwnerID = pricing.OwnerID(owner)
		a.TeacherID = formula.TeacherID(teacherID)
		a.QuestionID = formula.QuestionID(questionID)
		a.ReportDate, _ = time.Parse(timeLayout, reportDate)
		a.BatchID = formula.BatchID(batchID.String)
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// filterClause renders an ItemFilter as a WHERE clause over the given alias.
func filterClause(alias string, f payroll.ItemFilter) (string, []any) {
	conds := []string{alias + ".owner_id = ?"}
	args := []any{int64(f.OwnerID)}

	if f.TeacherID != "" {
		conds = append(conds, alias+".teacher_id = ?")
		args = append(args, string(f.TeacherID))
	}
	if f.BatchID != "" {
		conds = append(conds, alias+".batch_id = ?")
		args = append(args, string(f.BatchID))
	}
	if f.UnassignedOnly {
		conds = append(conds, alias+".batch_id IS NULL")
	}
	if !f.From.IsZero() {
		conds = append(conds, alias+".report_date >= ?")
		args = append(args, f.From.UTC().Format(timeLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, alias+".report_date <= ?")
		args = append(args, f.To.UTC().Format(timeLayout))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// tableFor maps an item kind to its table.
func tableFor(kind payroll.ItemKind) (string, error) {
	switch kind {
	case payroll.KindReport:
		return "activity_reports", nil
	case payroll.KindAnswer:
		return "answers", nil
	}
	return "", payroll.ErrInvalidItemKind
}

// AssignBatch sets batch_id with a single conditional UPDATE. The batch
// must exist and belong to the record's owner.
func (s *Store) AssignBatch(ctx context.Context, ref payroll.ItemRef, batch formula.BatchID) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE "+table+" SET batch_id = ? WHERE id = ? AND is_confirmed = 0"+
			" AND (batch_id IS NULL OR batch_id = ?)"+
			" AND owner_id = (SELECT owner_id FROM batches WHERE id = ?)",
		string(batch), ref.ID, string(batch), string(batch),
	)
	if err != nil {
		return fmt.Errorf("failed to assign batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Nothing updated: explain why.
	h, err := s.header(ctx, table, ref)
	if err != nil {
		return err
	}
	if _, err := payroll.CheckAssign(h, batch); err != nil {
		return err
	}
	b, err := s.getBatch(ctx, batch)
	if err != nil {
		return err
	}
	return payroll.CheckBatchOwner(h, batch, b)
}

// UnassignBatch clears batch_id unless the record is confirmed.
func (s *Store) UnassignBatch(ctx context.Context, ref payroll.ItemRef) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE "+table+" SET batch_id = NULL WHERE id = ? AND is_confirmed = 0",
		ref.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to unassign batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	h, err := s.header(ctx, table, ref)
	if err != nil {
		return err
	}
	_, err = payroll.CheckUnassign(h)
	return err
}

// Confirm sets is_confirmed on the record.
func (s *Store) Confirm(ctx context.Context, ref payroll.ItemRef) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE "+table+" SET is_confirmed = 1 WHERE id = ?", ref.ID)
	if err != nil {
		return fmt.Errorf("failed to confirm: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrItemNotFound
	}
	return nil
}

// header reads the assignment-relevant state of one record.
func (s *Store) header(ctx context.Context, table string, ref payroll.ItemRef) (payroll.Header, error) {
	var (
		owner     int64
		batchID   sql.NullString
		confirmed bool
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT owner_id, batch_id, is_confirmed FROM "+table+" WHERE id = ?",
		ref.ID,
	).Scan(&owner, &batchID, &confirmed)

	if err == sql.ErrNoRows {
		return payroll.Header{}, payroll.ErrItemNotFound
	}
	if err != nil {
		return payroll.Header{}, err
	}
	return payroll.Header{
		Ref:         ref,
		OwnerID:     pricing.OwnerID(owner),
		BatchID:     formula.BatchID(batchID.String),
		IsConfirmed: confirmed,
	}, nil
}

// =============================================================================
// BATCH STORE (payroll.BatchStore interface)
// =============================================================================

// SaveBatch upserts a batch.
func (s *Store) SaveBatch(ctx context.Context, b payroll.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO batches (id, owner_id, name, batch_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			batch_date = excluded.batch_date
	`
	_, err := s.db.ExecContext(ctx, query,
		string(b.ID), int64(b.OwnerID), b.Name, b.Date.UTC().Format(timeLayout))
	return err
}

// GetBatch retrieves a batch by ID. Returns nil when it does not exist.
func (s *Store) GetBatch(ctx context.Context, id formula.BatchID) (*payroll.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBatch(ctx, id)
}

func (s *Store) getBatch(ctx context.Context, id formula.BatchID) (*payroll.Batch, error) {
	var (
		b     payroll.Batch
		bid   string
		owner int64
		date  string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, batch_date FROM batches WHERE id = ?",
		string(id),
	).Scan(&bid, &owner, &b.Name, &date)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.ID = formula.BatchID(bid)
	b.OwnerID = pricing.OwnerID(owner)
	b.Date, _ = time.Parse(timeLayout, date)
	return &b, nil
}

// ListBatches returns the owner's batches, oldest first.
func (s *Store) ListBatches(ctx context.Context, owner pricing.OwnerID) ([]payroll.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, name, batch_date FROM batches WHERE owner_id = ? ORDER BY batch_date, id",
		int64(owner),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []payroll.Batch
	for rows.Next() {
		var (
			b        payroll.Batch
			bid      string
			ownerCol int64
			date     string
		)
		if err := rows.Scan(&bid, &ownerCol, &b.Name, &date); err != nil {
			return nil, err
		}
		b.ID = formula.BatchID(bid)
		b.OwnerID = pricing.OwnerID(ownerCol)
		b.Date, _ = time.Parse(timeLayout, date)
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
