package finance

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/istakip/internal/core/ledger"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeRepo struct {
	snap ledger.Snapshot
	err  error

	jobFilters     []JobFilter
	paymentFilters []PaymentFilter
	incomeFilters  []MovementFilter
}

func (r *fakeRepo) ListPersonnel(context.Context) ([]ledger.Personnel, error) {
	return r.snap.Personnel, r.err
}

func (r *fakeRepo) ListCustomers(context.Context) ([]ledger.Customer, error) {
	return r.snap.Customers, r.err
}

// ListCustomerJobs はフィルタを記録し、全件を返します。絞り込みは集計関数側で行われることを確認するためです。
func (r *fakeRepo) ListCustomerJobs(_ context.Context, filter JobFilter) ([]ledger.CustomerJob, error) {
	r.jobFilters = append(r.jobFilters, filter)
	return r.snap.Jobs, r.err
}

func (r *fakeRepo) ListPersonnelPayments(_ context.Context, filter PaymentFilter) ([]ledger.PersonnelPayment, error) {
	r.paymentFilters = append(r.paymentFilters, filter)
	return r.snap.Payments, r.err
}

func (r *fakeRepo) ListIncomes(_ context.Context, filter MovementFilter) ([]ledger.Income, error) {
	r.incomeFilters = append(r.incomeFilters, filter)
	return r.snap.Incomes, r.err
}

func (r *fakeRepo) ListExpenses(context.Context, MovementFilter) ([]ledger.Expense, error) {
	return r.snap.Expenses, r.err
}

type countingTx struct {
	calls int
}

func (c *countingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	c.calls++
	return fn(ctx)
}

func newFixtureRepo() *fakeRepo {
	job := sampleJob()
	other := sampleJob()
	other.ID = 2
	other.CustomerID = 11
	other.Location = "Beşiktaş"

	return &fakeRepo{snap: ledger.Snapshot{
		Personnel: []ledger.Personnel{{ID: 1, Name: "Ahmet"}},
		Customers: []ledger.Customer{{ID: 10, Name: "Yılmaz"}, {ID: 11, Name: "Demir"}},
		Jobs:      []ledger.CustomerJob{job, other},
		Payments: []ledger.PersonnelPayment{
			{ID: 1, PersonnelID: 1, Amount: d("100"), Date: day(2024, time.March, 15), CustomerJobID: int64Ptr(1)},
		},
		Incomes:  []ledger.Income{{ID: 1, Amount: d("500"), Date: day(2024, time.March, 5)}},
		Expenses: []ledger.Expense{{ID: 1, Amount: d("200"), Date: day(2024, time.March, 10)}},
	}}
}

func TestService_GetPersonnelBalance(t *testing.T) {
	t.Parallel()

	repo := newFixtureRepo()
	tx := &countingTx{}
	svc := NewService(repo, nil, tx)

	result, err := svc.GetPersonnelBalance(context.Background(), PersonnelBalanceInput{PersonnelID: 1})
	if err != nil {
		t.Fatalf("GetPersonnelBalance returned error: %v", err)
	}

	if !result.Earnings.Equal(d("600")) || !result.Paid.Equal(d("100")) || !result.Balance.Equal(d("500")) {
		t.Fatalf("unexpected balance: %+v", result)
	}
	if len(result.OpenJobs) != 2 {
		t.Fatalf("expected 2 open jobs, got %d", len(result.OpenJobs))
	}
	if tx.calls != 1 {
		t.Fatalf("expected a single read-only transaction, got %d", tx.calls)
	}
	if len(repo.jobFilters) != 1 || repo.jobFilters[0].PersonnelID == nil || *repo.jobFilters[0].PersonnelID != 1 {
		t.Fatalf("expected personnel filter to be pushed down, got %+v", repo.jobFilters)
	}
}

func TestService_GetPersonnelBalance_InvalidID(t *testing.T) {
	t.Parallel()

	svc := NewService(newFixtureRepo(), nil, nil)
	if _, err := svc.GetPersonnelBalance(context.Background(), PersonnelBalanceInput{}); !errors.Is(err, ErrInvalidPersonnelID) {
		t.Fatalf("expected ErrInvalidPersonnelID, got %v", err)
	}
}

func TestService_GetPersonnelBalance_RepositoryError(t *testing.T) {
	t.Parallel()

	repoErr := errors.New("connection reset")
	repo := &fakeRepo{err: repoErr}
	svc := NewService(repo, nil, nil)

	if _, err := svc.GetPersonnelBalance(context.Background(), PersonnelBalanceInput{PersonnelID: 1}); !errors.Is(err, repoErr) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestService_GetJobSummary(t *testing.T) {
	t.Parallel()

	svc := NewService(newFixtureRepo(), nil, nil)

	summary, err := svc.GetJobSummary(context.Background(), JobSummaryInput{JobID: 2})
	if err != nil {
		t.Fatalf("GetJobSummary returned error: %v", err)
	}

	if summary.CustomerID != 11 || !summary.PersonnelCost.Equal(d("300")) || !summary.MaterialCost.Equal(d("100")) {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !summary.Cost.Equal(d("400")) || !summary.Profit.Equal(d("600")) {
		t.Fatalf("unexpected cost/profit: %s / %s", summary.Cost, summary.Profit)
	}
}

func TestService_GetJobSummary_NotFound(t *testing.T) {
	t.Parallel()

	svc := NewService(newFixtureRepo(), nil, nil)

	if _, err := svc.GetJobSummary(context.Background(), JobSummaryInput{JobID: 99}); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if _, err := svc.GetJobSummary(context.Background(), JobSummaryInput{JobID: -1}); !errors.Is(err, ErrInvalidJobID) {
		t.Fatalf("expected ErrInvalidJobID, got %v", err)
	}
}

func TestService_GetCustomerSummary(t *testing.T) {
	t.Parallel()

	svc := NewService(newFixtureRepo(), nil, nil)

	summary, err := svc.GetCustomerSummary(context.Background(), CustomerSummaryInput{CustomerID: 10})
	if err != nil {
		t.Fatalf("GetCustomerSummary returned error: %v", err)
	}

	if summary.Customer.Name != "Yılmaz" {
		t.Fatalf("unexpected customer: %+v", summary.Customer)
	}
	if summary.Totals.JobCount != 1 || !summary.Totals.NetProfit.Equal(d("600")) {
		t.Fatalf("unexpected totals: %+v", summary.Totals)
	}
	if len(summary.Locations) != 1 || summary.Locations[0].Location != "Kadıköy" {
		t.Fatalf("unexpected locations: %+v", summary.Locations)
	}
}

func TestService_GetCustomerSummary_NotFound(t *testing.T) {
	t.Parallel()

	svc := NewService(newFixtureRepo(), nil, nil)

	if _, err := svc.GetCustomerSummary(context.Background(), CustomerSummaryInput{CustomerID: 404}); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestService_GetMonthlyCashFlow_DefaultsToClock(t *testing.T) {
	t.Parallel()

	repo := newFixtureRepo()
	clk := &stubClock{now: time.Date(2024, time.March, 20, 8, 0, 0, 0, time.UTC)}
	svc := NewService(repo, clk, nil)

	flow, err := svc.GetMonthlyCashFlow(context.Background(), MonthlyCashFlowInput{})
	if err != nil {
		t.Fatalf("GetMonthlyCashFlow returned error: %v", err)
	}

	if flow.Year != 2024 || flow.Month != time.March {
		t.Fatalf("expected March 2024, got %d/%d", flow.Month, flow.Year)
	}
	if len(flow.Transactions) != 3 || !flow.NetFlow.Equal(d("200")) {
		t.Fatalf("unexpected flow: %d transactions, net %s", len(flow.Transactions), flow.NetFlow)
	}

	f := repo.incomeFilters[0]
	if f.From == nil || f.To == nil || !f.From.Before(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected padded month range, got %+v", f)
	}
}

func TestService_GetMonthlyCashFlow_InvalidMonth(t *testing.T) {
	t.Parallel()

	svc := NewService(newFixtureRepo(), nil, nil)

	if _, err := svc.GetMonthlyCashFlow(context.Background(), MonthlyCashFlowInput{Year: 2024, Month: 13}); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestService_GetPeriodicReport(t *testing.T) {
	t.Parallel()

	svc := NewService(newFixtureRepo(), nil, nil)

	report, err := svc.GetPeriodicReport(context.Background(), PeriodicReportInput{
		Start: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("GetPeriodicReport returned error: %v", err)
	}

	if report.JobCount != 2 || len(report.CustomerRows) != 2 || len(report.PersonnelRows) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !report.PersonnelRows[0].Earnings.Equal(d("600")) {
		t.Fatalf("expected earnings 600, got %s", report.PersonnelRows[0].Earnings)
	}
}

func TestService_GetPeriodicReport_InvalidRange(t *testing.T) {
	t.Parallel()

	svc := NewService(newFixtureRepo(), nil, nil)

	_, err := svc.GetPeriodicReport(context.Background(), PeriodicReportInput{
		Start: time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}

	if _, err := svc.GetPeriodicReport(context.Background(), PeriodicReportInput{}); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange for zero range, got %v", err)
	}
}

func TestService_GetPersonnelBalance_LogsSnapshotViolations(t *testing.T) {
	t.Parallel()

	repo := newFixtureRepo()
	repo.snap.Payments = append(repo.snap.Payments, ledger.PersonnelPayment{
		ID: 2, PersonnelID: 1, Amount: d("50"), Date: day(2024, time.March, 20), CustomerJobID: int64Ptr(3),
	})
	repo.snap.Jobs = append(repo.snap.Jobs, ledger.CustomerJob{ID: 3, CustomerID: 10, Income: d("0"), IncomeMethod: ledger.MethodCash})

	var logs bytes.Buffer
	svc := NewService(repo, nil, nil, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	result, err := svc.GetPersonnelBalance(context.Background(), PersonnelBalanceInput{PersonnelID: 1})
	if err != nil {
		t.Fatalf("GetPersonnelBalance returned error: %v", err)
	}

	if !result.Paid.Equal(d("150")) {
		t.Fatalf("expected mismatched payment to be counted, got %s", result.Paid)
	}
	if !strings.Contains(logs.String(), "ledger snapshot has violations") || !strings.Contains(logs.String(), "operation=personnel_balance") {
		t.Fatalf("expected snapshot warning, got %q", logs.String())
	}
}

func TestService_GetPeriodicReport_NoWarningForConsistentSnapshot(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	svc := NewService(newFixtureRepo(), nil, nil, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	if _, err := svc.GetPeriodicReport(context.Background(), PeriodicReportInput{
		Start: day(2024, time.March, 1),
		End:   day(2024, time.March, 31),
	}); err != nil {
		t.Fatalf("GetPeriodicReport returned error: %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no warnings, got %q", logs.String())
	}
}
