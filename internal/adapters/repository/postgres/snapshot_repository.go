package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/istakip/internal/core/finance"
	"github.com/ogurasousui/istakip/internal/core/ledger"
	pgdb "github.com/ogurasousui/istakip/internal/platform/db/postgres"
	"github.com/shopspring/decimal"
)

// SnapshotRepository は PostgreSQL から集計用スナップショットを読み込む finance.Repository の実装です。
// 金額は NUMERIC を text にキャストして読み込み、decimal に変換します。
// 列挙値や金種の不整合は行を落とさずに補正し、警告ログに残します。
type SnapshotRepository struct {
	pool   pgdb.Queryer
	logger *slog.Logger
}

var _ finance.Repository = (*SnapshotRepository)(nil)

// SnapshotOption は SnapshotRepository の設定を変更します。
type SnapshotOption func(*SnapshotRepository)

// WithLogger は不整合な行を記録するロガーを設定します。
func WithLogger(logger *slog.Logger) SnapshotOption {
	return func(r *SnapshotRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewSnapshotRepository は SnapshotRepository を生成します。
func NewSnapshotRepository(pool pgdb.Queryer, opts ...SnapshotOption) *SnapshotRepository {
	r := &SnapshotRepository{pool: pool, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListPersonnel は担当者の一覧を取得します。
func (r *SnapshotRepository) ListPersonnel(ctx context.Context) ([]ledger.Personnel, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, note, note_updated_at
          FROM personnel
         ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("postgres: list personnel: %w", err)
	}
	defer rows.Close()

	personnel := make([]ledger.Personnel, 0)
	for rows.Next() {
		var (
			p         ledger.Personnel
			note      sql.NullString
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Name, &note, &updatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan personnel: %w", err)
		}
		if note.Valid {
			p.Note = &ledger.Note{Text: note.String}
			if updatedAt.Valid {
				p.Note.UpdatedAt = updatedAt.Time
			}
		}
		personnel = append(personnel, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list personnel: %w", err)
	}

	return personnel, nil
}

// ListCustomers は顧客の一覧を取得します。
func (r *SnapshotRepository) ListCustomers(ctx context.Context) ([]ledger.Customer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, phone, address, description
          FROM customers
         ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("postgres: list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]ledger.Customer, 0)
	for rows.Next() {
		var c ledger.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Description); err != nil {
			return nil, fmt.Errorf("postgres: scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list customers: %w", err)
	}

	return customers, nil
}

// ListCustomerJobs は作業を担当者割り当て・資材とともに取得します。
func (r *SnapshotRepository) ListCustomerJobs(ctx context.Context, filter finance.JobFilter) ([]ledger.CustomerJob, error) {
	var where clauseBuilder
	if filter.JobID != nil {
		where.add("j.id = %s", *filter.JobID)
	}
	if filter.CustomerID != nil {
		where.add("j.customer_id = %s", *filter.CustomerID)
	}
	if filter.PersonnelID != nil {
		where.add("EXISTS (SELECT 1 FROM customer_job_personnel jp WHERE jp.job_id = j.id AND jp.personnel_id = %s)", *filter.PersonnelID)
	}
	if filter.From != nil {
		where.add("j.job_date >= %s", *filter.From)
	}
	if filter.To != nil {
		where.add("j.job_date <= %s", *filter.To)
	}

	query := `
        SELECT j.id, j.customer_id, j.job_date, j.location, j.description,
               j.income::text, j.income_payment_method, COALESCE(j.income_gold_type, '')
          FROM customer_jobs j` + where.clause() + `
         ORDER BY j.job_date, j.id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}

	jobs := make([]ledger.CustomerJob, 0)
	index := make(map[int64]int)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[job.ID] = len(jobs)
		jobs = append(jobs, job)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}

	if len(jobs) == 0 {
		return jobs, nil
	}

	ids := make([]int64, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}

	if err := r.attachPersonnel(ctx, exec, ids, jobs, index); err != nil {
		return nil, err
	}
	if err := r.attachMaterials(ctx, exec, ids, jobs, index); err != nil {
		return nil, err
	}

	for i := range jobs {
		jobs[i] = r.normalizeJob(ctx, jobs[i])
	}

	return jobs, nil
}

// normalizeJob は未知の支払方法をそのまま残し、金種の不整合を補正します。
func (r *SnapshotRepository) normalizeJob(ctx context.Context, job ledger.CustomerJob) ledger.CustomerJob {
	var issues []error
	if _, err := ledger.ParsePaymentMethod(string(job.IncomeMethod)); err != nil {
		issues = append(issues, fmt.Errorf("job %d income: %w", job.ID, err))
	}
	for _, p := range job.PersonnelPayments {
		if _, err := ledger.ParsePaymentMethod(string(p.Method)); err != nil {
			issues = append(issues, fmt.Errorf("job %d personnel %d: %w", job.ID, p.PersonnelID, err))
		}
	}

	normalized, err := ledger.NormalizeJob(job)
	if err != nil {
		issues = append(issues, err)
	}
	if len(issues) > 0 {
		r.logger.WarnContext(ctx, "irregular customer job",
			slog.Int64("job_id", job.ID),
			slog.String("error", errors.Join(issues...).Error()),
		)
	}
	return normalized
}

func (r *SnapshotRepository) attachPersonnel(ctx context.Context, exec pgdb.Queryer, ids []int64, jobs []ledger.CustomerJob, index map[int64]int) error {
	rows, err := exec.Query(ctx, `
        SELECT job_id, personnel_id, payment::text, payment_method, days_worked::text
          FROM customer_job_personnel
         WHERE job_id = ANY($1)
         ORDER BY job_id, personnel_id
    `, ids)
	if err != nil {
		return fmt.Errorf("postgres: list job personnel: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			jobID, personnelID int64
			payment            sql.NullString
			method             string
			daysWorked         string
		)
		if err := rows.Scan(&jobID, &personnelID, &payment, &method, &daysWorked); err != nil {
			return fmt.Errorf("postgres: scan job personnel: %w", err)
		}

		i, ok := index[jobID]
		if !ok {
			continue
		}
		jobs[i].PersonnelIDs = append(jobs[i].PersonnelIDs, personnelID)

		if !payment.Valid {
			continue
		}
		amount, err := parseAmount("payment", payment.String)
		if err != nil {
			return err
		}
		days, err := parseAmount("days_worked", daysWorked)
		if err != nil {
			return err
		}
		jobs[i].PersonnelPayments = append(jobs[i].PersonnelPayments, ledger.JobPersonnelPayment{
			PersonnelID: personnelID,
			Payment:     amount,
			Method:      ledger.PaymentMethod(method),
			DaysWorked:  days,
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: list job personnel: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) attachMaterials(ctx context.Context, exec pgdb.Queryer, ids []int64, jobs []ledger.CustomerJob, index map[int64]int) error {
	rows, err := exec.Query(ctx, `
        SELECT id, job_id, name, unit, quantity::text, unit_price::text
          FROM job_materials
         WHERE job_id = ANY($1)
         ORDER BY job_id, id
    `, ids)
	if err != nil {
		return fmt.Errorf("postgres: list materials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m                   ledger.Material
			jobID               int64
			quantity, unitPrice string
		)
		if err := rows.Scan(&m.ID, &jobID, &m.Name, &m.Unit, &quantity, &unitPrice); err != nil {
			return fmt.Errorf("postgres: scan material: %w", err)
		}

		if m.Quantity, err = parseAmount("quantity", quantity); err != nil {
			return err
		}
		if m.UnitPrice, err = parseAmount("unit_price", unitPrice); err != nil {
			return err
		}

		if i, ok := index[jobID]; ok {
			jobs[i].Materials = append(jobs[i].Materials, m)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: list materials: %w", err)
	}
	return nil
}

// ListPersonnelPayments は担当者への支払いを取得します。
func (r *SnapshotRepository) ListPersonnelPayments(ctx context.Context, filter finance.PaymentFilter) ([]ledger.PersonnelPayment, error) {
	var where clauseBuilder
	if filter.PersonnelID != nil {
		where.add("personnel_id = %s", *filter.PersonnelID)
	}
	if filter.From != nil {
		where.add("payment_date >= %s", *filter.From)
	}
	if filter.To != nil {
		where.add("payment_date <= %s", *filter.To)
	}

	query := `
        SELECT id, personnel_id, amount::text, payment_date, payer, payment_method, customer_job_id
          FROM personnel_payments` + where.clause() + `
         ORDER BY payment_date, id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]ledger.PersonnelPayment, 0)
	for rows.Next() {
		var (
			p      ledger.PersonnelPayment
			amount string
			payer  string
			method string
			jobID  sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.PersonnelID, &amount, &p.Date, &payer, &method, &jobID); err != nil {
			return nil, fmt.Errorf("postgres: scan payment: %w", err)
		}
		if p.Amount, err = parseAmount("amount", amount); err != nil {
			return nil, err
		}
		p.Payer, p.Method = r.decodePaymentEnums(ctx, p.ID, payer, method)
		if jobID.Valid {
			id := jobID.Int64
			p.CustomerJobID = &id
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list payments: %w", err)
	}

	return payments, nil
}

// ListIncomes は作業に紐づかない入金を取得します。
func (r *SnapshotRepository) ListIncomes(ctx context.Context, filter finance.MovementFilter) ([]ledger.Income, error) {
	movements, err := r.listMovements(ctx, "incomes", filter)
	if err != nil {
		return nil, err
	}
	incomes := make([]ledger.Income, 0, len(movements))
	for _, m := range movements {
		incomes = append(incomes, ledger.Income(m))
	}
	return incomes, nil
}

// ListExpenses は作業に紐づかない出金を取得します。
func (r *SnapshotRepository) ListExpenses(ctx context.Context, filter finance.MovementFilter) ([]ledger.Expense, error) {
	movements, err := r.listMovements(ctx, "expenses", filter)
	if err != nil {
		return nil, err
	}
	expenses := make([]ledger.Expense, 0, len(movements))
	for _, m := range movements {
		expenses = append(expenses, ledger.Expense(m))
	}
	return expenses, nil
}

type movement struct {
	ID          int64
	Description string
	Amount      decimal.Decimal
	Date        time.Time
}

// listMovements は incomes / expenses の共通読み込みです。table は固定値のみを受け付けます。
func (r *SnapshotRepository) listMovements(ctx context.Context, table string, filter finance.MovementFilter) ([]movement, error) {
	var where clauseBuilder
	if filter.From != nil {
		where.add("entry_date >= %s", *filter.From)
	}
	if filter.To != nil {
		where.add("entry_date <= %s", *filter.To)
	}

	query := `
        SELECT id, description, amount::text, entry_date
          FROM ` + table + where.clause() + `
         ORDER BY entry_date, id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", table, err)
	}
	defer rows.Close()

	movements := make([]movement, 0)
	for rows.Next() {
		var (
			m      movement
			amount string
		)
		if err := rows.Scan(&m.ID, &m.Description, &amount, &m.Date); err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", table, err)
		}
		if m.Amount, err = parseAmount("amount", amount); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", table, err)
	}

	return movements, nil
}

// decodePaymentEnums は支払元と支払方法を解釈します。未知の値は保存された文字列のまま残します。
func (r *SnapshotRepository) decodePaymentEnums(ctx context.Context, id int64, rawPayer, rawMethod string) (ledger.Payer, ledger.PaymentMethod) {
	var issues []error

	payer, err := ledger.NormalizePayer(rawPayer)
	if err != nil {
		payer = ledger.Payer(rawPayer)
		issues = append(issues, err)
	}
	method, err := ledger.ParsePaymentMethod(rawMethod)
	if err != nil {
		method = ledger.PaymentMethod(rawMethod)
		issues = append(issues, err)
	}

	if len(issues) > 0 {
		r.logger.WarnContext(ctx, "irregular personnel payment",
			slog.Int64("payment_id", id),
			slog.String("error", errors.Join(issues...).Error()),
		)
	}
	return payer, method
}

func scanJob(row pgx.Row) (ledger.CustomerJob, error) {
	var (
		job      ledger.CustomerJob
		income   string
		method   string
		goldType string
	)

	if err := row.Scan(&job.ID, &job.CustomerID, &job.Date, &job.Location, &job.Description, &income, &method, &goldType); err != nil {
		return ledger.CustomerJob{}, fmt.Errorf("postgres: scan job: %w", err)
	}

	amount, err := parseAmount("income", income)
	if err != nil {
		return ledger.CustomerJob{}, err
	}

	job.Income = amount
	job.IncomeMethod = ledger.PaymentMethod(method)
	job.IncomeGoldType = ledger.GoldType(goldType)
	return job, nil
}

func parseAmount(column, raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("postgres: parse %s %q: %w", column, raw, err)
	}
	return v, nil
}

// clauseBuilder は位置パラメータ付きの WHERE 句を組み立てます。
type clauseBuilder struct {
	conditions []string
	args       []any
}

func (b *clauseBuilder) add(expr string, arg any) {
	b.args = append(b.args, arg)
	b.conditions = append(b.conditions, fmt.Sprintf(expr, "$"+strconv.Itoa(len(b.args))))
}

func (b *clauseBuilder) clause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "\n         WHERE " + strings.Join(b.conditions, " AND ")
}
