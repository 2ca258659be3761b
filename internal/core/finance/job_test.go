package finance

import (
	"testing"
	"time"

	"github.com/ogurasousui/istakip/internal/core/ledger"
	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sampleJob() ledger.CustomerJob {
	return ledger.CustomerJob{
		ID:           1,
		CustomerID:   10,
		Date:         time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		Location:     "Kadıköy",
		Income:       d("1000"),
		IncomeMethod: ledger.MethodCash,
		PersonnelIDs: []int64{1},
		PersonnelPayments: []ledger.JobPersonnelPayment{
			{PersonnelID: 1, Payment: d("300"), Method: ledger.MethodCash, DaysWorked: d("2")},
		},
		Materials: []ledger.Material{
			{ID: 1, Name: "Boya", Unit: "kg", Quantity: d("2"), UnitPrice: d("50")},
		},
	}
}

func TestJobCostAndProfit(t *testing.T) {
	t.Parallel()

	job := sampleJob()

	if got := JobCost(job); !got.Equal(d("400")) {
		t.Fatalf("expected cost 400, got %s", got)
	}

	if got := JobProfit(job); !got.Equal(d("600")) {
		t.Fatalf("expected profit 600, got %s", got)
	}

	if first, second := JobProfit(job), JobProfit(job); !first.Equal(second) {
		t.Fatalf("expected repeatable result, got %s and %s", first, second)
	}
}

func TestJobCost_EmptyCollections(t *testing.T) {
	t.Parallel()

	job := ledger.CustomerJob{ID: 2, Income: d("250")}

	if got := JobCost(job); !got.IsZero() {
		t.Fatalf("expected zero cost, got %s", got)
	}

	if got := JobProfit(job); !got.Equal(d("250")) {
		t.Fatalf("expected profit equal to income, got %s", got)
	}
}

func TestJobCost_FractionalMaterials(t *testing.T) {
	t.Parallel()

	job := ledger.CustomerJob{
		Materials: []ledger.Material{
			{Quantity: d("1.5"), UnitPrice: d("12.40")},
			{Quantity: d("3"), UnitPrice: d("0.10")},
		},
	}

	if got := MaterialCost(job); !got.Equal(d("18.9")) {
		t.Fatalf("expected material cost 18.9, got %s", got)
	}
}

func TestCustomerAggregate(t *testing.T) {
	t.Parallel()

	second := sampleJob()
	second.ID = 2
	second.Income = d("200")
	other := sampleJob()
	other.ID = 3
	other.CustomerID = 11

	totals := CustomerAggregate(10, []ledger.CustomerJob{sampleJob(), second, other})

	if totals.JobCount != 2 {
		t.Fatalf("expected 2 jobs, got %d", totals.JobCount)
	}
	if !totals.Income.Equal(d("1200")) {
		t.Fatalf("expected income 1200, got %s", totals.Income)
	}
	if !totals.Cost.Equal(d("800")) {
		t.Fatalf("expected cost 800, got %s", totals.Cost)
	}
	if !totals.NetProfit.Equal(d("400")) {
		t.Fatalf("expected net profit 400, got %s", totals.NetProfit)
	}
}

func TestCustomerAggregate_NoJobs(t *testing.T) {
	t.Parallel()

	totals := CustomerAggregate(99, nil)
	if totals.JobCount != 0 || !totals.Income.IsZero() || !totals.Cost.IsZero() || !totals.NetProfit.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestLocationBreakdown(t *testing.T) {
	t.Parallel()

	a := sampleJob()
	b := sampleJob()
	b.ID = 2
	b.Location = "Üsküdar"
	c := sampleJob()
	c.ID = 3

	groups := LocationBreakdown(10, []ledger.CustomerJob{a, b, c})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	if groups[0].Location != "Kadıköy" || groups[0].JobCount != 2 {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	if len(groups[0].JobIDs) != 2 || groups[0].JobIDs[1] != 3 {
		t.Fatalf("unexpected job ids: %v", groups[0].JobIDs)
	}
	if !groups[0].NetProfit.Equal(d("1200")) {
		t.Fatalf("expected net profit 1200, got %s", groups[0].NetProfit)
	}
	if groups[1].Location != "Üsküdar" {
		t.Fatalf("expected second group Üsküdar, got %s", groups[1].Location)
	}
}
