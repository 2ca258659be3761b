package finance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogurasousui/istakip/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// 月次集計の取得範囲に前後 1 日の余裕を持たせ、タイムゾーン差による取りこぼしを防ぎます。
const monthQueryPadding = 24 * time.Hour

// Service は集計に関するユースケースをまとめます。
type Service struct {
	repo   Repository
	clock  Clock
	tx     TransactionManager
	logger *slog.Logger
}

// ServiceOption は Service の設定を変更します。
type ServiceOption func(*Service)

// WithLogger はスナップショット検証の警告を出力するロガーを設定します。
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// UseCase は集計ユースケースの公開インターフェースです。
type UseCase interface {
	GetPersonnelBalance(ctx context.Context, in PersonnelBalanceInput) (*PersonnelBalanceResult, error)
	GetJobSummary(ctx context.Context, in JobSummaryInput) (*JobSummary, error)
	GetCustomerSummary(ctx context.Context, in CustomerSummaryInput) (*CustomerSummary, error)
	GetMonthlyCashFlow(ctx context.Context, in MonthlyCashFlowInput) (*CashFlow, error)
	GetPeriodicReport(ctx context.Context, in PeriodicReportInput) (*Report, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, opts ...ServiceOption) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{repo: repo, clock: clock, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// checkSnapshot は不変条件の違反を警告として記録します。集計は違反があっても続行します。
func (s *Service) checkSnapshot(ctx context.Context, operation string, snap ledger.Snapshot) {
	if err := snap.Validate(); err != nil {
		s.logger.WarnContext(ctx, "ledger snapshot has violations",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	}
}

// PersonnelBalanceInput は担当者残高取得時の入力です。
type PersonnelBalanceInput struct {
	PersonnelID int64
}

// PersonnelBalanceResult は担当者残高です。
type PersonnelBalanceResult struct {
	PersonnelID int64
	Earnings    decimal.Decimal
	Paid        decimal.Decimal
	Balance     decimal.Decimal
	OpenJobs    []OpenJob
}

// JobSummaryInput は作業集計取得時の入力です。
type JobSummaryInput struct {
	JobID int64
}

// JobSummary は作業の費用と利益です。
type JobSummary struct {
	JobID         int64
	CustomerID    int64
	Income        decimal.Decimal
	PersonnelCost decimal.Decimal
	MaterialCost  decimal.Decimal
	Cost          decimal.Decimal
	Profit        decimal.Decimal
}

// CustomerSummaryInput は顧客集計取得時の入力です。
type CustomerSummaryInput struct {
	CustomerID int64
}

// CustomerSummary は顧客の集計です。
type CustomerSummary struct {
	Customer  ledger.Customer
	Totals    CustomerTotals
	Locations []LocationTotals
}

// MonthlyCashFlowInput は月次キャッシュフロー取得時の入力です。0 の場合は現在の年月を使用します。
type MonthlyCashFlowInput struct {
	Year  int
	Month time.Month
}

// PeriodicReportInput は期間レポート取得時の入力です。
type PeriodicReportInput struct {
	Start time.Time
	End   time.Time
}

// GetPersonnelBalance は担当者の報酬合計・支払い合計・残高と未清算の作業を返します。
func (s *Service) GetPersonnelBalance(ctx context.Context, in PersonnelBalanceInput) (*PersonnelBalanceResult, error) {
	if in.PersonnelID <= 0 {
		return nil, fmt.Errorf("personnel_id: %w", ErrInvalidPersonnelID)
	}

	var (
		jobs     []ledger.CustomerJob
		payments []ledger.PersonnelPayment
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		jobs, err = s.repo.ListCustomerJobs(txCtx, JobFilter{PersonnelID: &in.PersonnelID})
		if err != nil {
			return fmt.Errorf("finance: list jobs: %w", err)
		}
		payments, err = s.repo.ListPersonnelPayments(txCtx, PaymentFilter{PersonnelID: &in.PersonnelID})
		if err != nil {
			return fmt.Errorf("finance: list payments: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.checkSnapshot(ctx, "personnel_balance", ledger.Snapshot{Jobs: jobs, Payments: payments})

	earnings := PersonnelEarnings(in.PersonnelID, jobs)
	paid := PersonnelPaid(in.PersonnelID, payments)

	return &PersonnelBalanceResult{
		PersonnelID: in.PersonnelID,
		Earnings:    earnings,
		Paid:        paid,
		Balance:     earnings.Sub(paid),
		OpenJobs:    OpenJobs(in.PersonnelID, jobs, payments),
	}, nil
}

// GetJobSummary は作業の費用内訳と利益を返します。
func (s *Service) GetJobSummary(ctx context.Context, in JobSummaryInput) (*JobSummary, error) {
	if in.JobID <= 0 {
		return nil, fmt.Errorf("job_id: %w", ErrInvalidJobID)
	}

	var jobs []ledger.CustomerJob
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		jobs, err = s.repo.ListCustomerJobs(txCtx, JobFilter{JobID: &in.JobID})
		if err != nil {
			return fmt.Errorf("finance: list jobs: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, job := range jobs {
		if job.ID != in.JobID {
			continue
		}
		personnelCost := PersonnelCost(job)
		materialCost := MaterialCost(job)
		cost := personnelCost.Add(materialCost)
		return &JobSummary{
			JobID:         job.ID,
			CustomerID:    job.CustomerID,
			Income:        job.Income,
			PersonnelCost: personnelCost,
			MaterialCost:  materialCost,
			Cost:          cost,
			Profit:        job.Income.Sub(cost),
		}, nil
	}

	return nil, ErrJobNotFound
}

// GetCustomerSummary は顧客の集計と場所別の内訳を返します。
func (s *Service) GetCustomerSummary(ctx context.Context, in CustomerSummaryInput) (*CustomerSummary, error) {
	if in.CustomerID <= 0 {
		return nil, fmt.Errorf("customer_id: %w", ErrInvalidCustomerID)
	}

	var (
		customers []ledger.Customer
		jobs      []ledger.CustomerJob
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		customers, err = s.repo.ListCustomers(txCtx)
		if err != nil {
			return fmt.Errorf("finance: list customers: %w", err)
		}
		jobs, err = s.repo.ListCustomerJobs(txCtx, JobFilter{CustomerID: &in.CustomerID})
		if err != nil {
			return fmt.Errorf("finance: list jobs: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, c := range customers {
		if c.ID != in.CustomerID {
			continue
		}
		return &CustomerSummary{
			Customer:  c,
			Totals:    CustomerAggregate(c.ID, jobs),
			Locations: LocationBreakdown(c.ID, jobs),
		}, nil
	}

	return nil, ErrCustomerNotFound
}

// GetMonthlyCashFlow は指定月のキャッシュフローを返します。
func (s *Service) GetMonthlyCashFlow(ctx context.Context, in MonthlyCashFlowInput) (*CashFlow, error) {
	now := s.clock.Now()
	year, month := in.Year, in.Month
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month %d: %w", month, ErrInvalidMonth)
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	from := monthStart.Add(-monthQueryPadding)
	to := monthStart.AddDate(0, 1, 0).Add(monthQueryPadding)

	var snap ledger.Snapshot
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		snap.Personnel, err = s.repo.ListPersonnel(txCtx)
		if err != nil {
			return fmt.Errorf("finance: list personnel: %w", err)
		}
		snap.Payments, err = s.repo.ListPersonnelPayments(txCtx, PaymentFilter{From: &from, To: &to})
		if err != nil {
			return fmt.Errorf("finance: list payments: %w", err)
		}
		snap.Incomes, err = s.repo.ListIncomes(txCtx, MovementFilter{From: &from, To: &to})
		if err != nil {
			return fmt.Errorf("finance: list incomes: %w", err)
		}
		snap.Expenses, err = s.repo.ListExpenses(txCtx, MovementFilter{From: &from, To: &to})
		if err != nil {
			return fmt.Errorf("finance: list expenses: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.checkSnapshot(ctx, "monthly_cash_flow", snap)

	flow := MonthlyCashFlow(snap.Personnel, snap.Payments, snap.Incomes, snap.Expenses, month, year)
	return &flow, nil
}

// GetPeriodicReport は期間内の作業を顧客別・担当者別に集計します。
func (s *Service) GetPeriodicReport(ctx context.Context, in PeriodicReportInput) (*Report, error) {
	if in.Start.IsZero() || in.End.IsZero() {
		return nil, fmt.Errorf("start and end are required: %w", ErrInvalidDateRange)
	}
	from := StartOfDay(in.Start)
	to := EndOfDay(in.End)
	if to.Before(from) {
		return nil, fmt.Errorf("end before start: %w", ErrInvalidDateRange)
	}

	var snap ledger.Snapshot
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		snap.Jobs, err = s.repo.ListCustomerJobs(txCtx, JobFilter{From: &from, To: &to})
		if err != nil {
			return fmt.Errorf("finance: list jobs: %w", err)
		}
		snap.Customers, err = s.repo.ListCustomers(txCtx)
		if err != nil {
			return fmt.Errorf("finance: list customers: %w", err)
		}
		snap.Personnel, err = s.repo.ListPersonnel(txCtx)
		if err != nil {
			return fmt.Errorf("finance: list personnel: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.checkSnapshot(ctx, "periodic_report", snap)

	report := PeriodicReport(snap.Jobs, snap.Customers, snap.Personnel, in.Start, in.End)
	return &report, nil
}
