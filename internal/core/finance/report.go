package finance

import (
	"sort"
	"time"

	"github.com/ogurasousui/istakip/internal/core/ledger"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CustomerRow は期間レポートの顧客別行です。
type CustomerRow struct {
	CustomerID   int64
	Name         string
	JobCount     int
	Income       decimal.Decimal
	Cost         decimal.Decimal
	NetProfit    decimal.Decimal
	ProfitMargin decimal.Decimal
}

// PersonnelRow は期間レポートの担当者別行です。
type PersonnelRow struct {
	PersonnelID int64
	Name        string
	JobCount    int
	Earnings    decimal.Decimal
}

// Report は期間レポートです。
type Report struct {
	Start         time.Time
	End           time.Time
	TotalIncome   decimal.Decimal
	TotalCost     decimal.Decimal
	NetProfit     decimal.Decimal
	JobCount      int
	CustomerRows  []CustomerRow
	PersonnelRows []PersonnelRow
}

// StartOfDay は t と同じロケーションでのその日の 00:00:00 を返します。
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay は t と同じロケーションでのその日の最終時刻を返します。
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ProfitMargin は純利益 / 収入 × 100 を返します。収入が 0 の場合は 0 です。
func ProfitMargin(netProfit, income decimal.Decimal) decimal.Decimal {
	if income.IsZero() {
		return decimal.Zero
	}
	return netProfit.Div(income).Mul(hundred)
}

// PeriodicReport は [start 00:00:00, end 23:59:59] に含まれる作業を集計します。
// 顧客行は純利益の降順、担当者行は報酬の降順で、作業のない行は含みません。
func PeriodicReport(
	jobs []ledger.CustomerJob,
	customers []ledger.Customer,
	personnel []ledger.Personnel,
	start, end time.Time,
) Report {
	from := StartOfDay(start)
	to := EndOfDay(end)

	report := Report{
		Start:         from,
		End:           to,
		TotalIncome:   decimal.Zero,
		TotalCost:     decimal.Zero,
		NetProfit:     decimal.Zero,
		CustomerRows:  make([]CustomerRow, 0),
		PersonnelRows: make([]PersonnelRow, 0),
	}

	inRange := make([]ledger.CustomerJob, 0, len(jobs))
	for _, job := range jobs {
		if job.Date.Before(from) || job.Date.After(to) {
			continue
		}
		inRange = append(inRange, job)
		report.TotalIncome = report.TotalIncome.Add(job.Income)
		report.TotalCost = report.TotalCost.Add(JobCost(job))
	}
	report.NetProfit = report.TotalIncome.Sub(report.TotalCost)
	report.JobCount = len(inRange)

	for _, c := range customers {
		totals := CustomerAggregate(c.ID, inRange)
		if totals.JobCount == 0 {
			continue
		}
		report.CustomerRows = append(report.CustomerRows, CustomerRow{
			CustomerID:   c.ID,
			Name:         c.Name,
			JobCount:     totals.JobCount,
			Income:       totals.Income,
			Cost:         totals.Cost,
			NetProfit:    totals.NetProfit,
			ProfitMargin: ProfitMargin(totals.NetProfit, totals.Income),
		})
	}
	sort.SliceStable(report.CustomerRows, func(i, j int) bool {
		return report.CustomerRows[i].NetProfit.GreaterThan(report.CustomerRows[j].NetProfit)
	})

	for _, p := range personnel {
		row := PersonnelRow{PersonnelID: p.ID, Name: p.Name, Earnings: decimal.Zero}
		for _, job := range inRange {
			if !job.HasPersonnel(p.ID) {
				continue
			}
			row.JobCount++
			row.Earnings = row.Earnings.Add(PersonnelEarning(p.ID, job))
		}
		if row.JobCount == 0 {
			continue
		}
		report.PersonnelRows = append(report.PersonnelRows, row)
	}
	sort.SliceStable(report.PersonnelRows, func(i, j int) bool {
		return report.PersonnelRows[i].Earnings.GreaterThan(report.PersonnelRows[j].Earnings)
	})

	return report
}
