package finance

import (
	"github.com/ogurasousui/istakip/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// CustomerTotals は顧客 (または場所グループ) 単位の集計値です。
type CustomerTotals struct {
	Income    decimal.Decimal
	Cost      decimal.Decimal
	NetProfit decimal.Decimal
	JobCount  int
}

// LocationTotals は顧客内の場所ごとの集計値です。
type LocationTotals struct {
	Location string
	JobIDs   []int64
	CustomerTotals
}

// PersonnelCost は作業の担当者報酬の合計を返します。
func PersonnelCost(job ledger.CustomerJob) decimal.Decimal {
	total := decimal.Zero
	for _, p := range job.PersonnelPayments {
		total = total.Add(p.Payment)
	}
	return total
}

// MaterialCost は作業の資材費の合計を返します。
func MaterialCost(job ledger.CustomerJob) decimal.Decimal {
	total := decimal.Zero
	for _, m := range job.Materials {
		total = total.Add(m.Cost())
	}
	return total
}

// JobCost は担当者報酬と資材費の合計を返します。
func JobCost(job ledger.CustomerJob) decimal.Decimal {
	return PersonnelCost(job).Add(MaterialCost(job))
}

// JobProfit は作業収入から JobCost を差し引いた値を返します。
func JobProfit(job ledger.CustomerJob) decimal.Decimal {
	return job.Income.Sub(JobCost(job))
}

// CustomerAggregate は顧客の全作業の収入・費用・純利益を集計します。
func CustomerAggregate(customerID int64, jobs []ledger.CustomerJob) CustomerTotals {
	totals := zeroTotals()
	for _, job := range jobs {
		if job.CustomerID != customerID {
			continue
		}
		totals.add(job)
	}
	return totals
}

// LocationBreakdown は顧客の作業を場所ごとにまとめます。並び順は各場所が最初に現れた順です。
func LocationBreakdown(customerID int64, jobs []ledger.CustomerJob) []LocationTotals {
	index := make(map[string]int)
	groups := make([]LocationTotals, 0)

	for _, job := range jobs {
		if job.CustomerID != customerID {
			continue
		}

		i, ok := index[job.Location]
		if !ok {
			i = len(groups)
			index[job.Location] = i
			groups = append(groups, LocationTotals{Location: job.Location, CustomerTotals: zeroTotals()})
		}

		groups[i].JobIDs = append(groups[i].JobIDs, job.ID)
		groups[i].add(job)
	}

	return groups
}

func zeroTotals() CustomerTotals {
	return CustomerTotals{Income: decimal.Zero, Cost: decimal.Zero, NetProfit: decimal.Zero}
}

func (t *CustomerTotals) add(job ledger.CustomerJob) {
	t.Income = t.Income.Add(job.Income)
	t.Cost = t.Cost.Add(JobCost(job))
	t.NetProfit = t.Income.Sub(t.Cost)
	t.JobCount++
}
