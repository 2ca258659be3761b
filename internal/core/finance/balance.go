package finance

import (
	"time"

	"github.com/ogurasousui/istakip/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// OpenJob は担当者の作業ごとの未払い残高です。
type OpenJob struct {
	JobID   int64
	Date    time.Time
	Earning decimal.Decimal
	Paid    decimal.Decimal
	Balance decimal.Decimal
}

// PersonnelEarning は作業における担当者の報酬を返します。
// 割り当てられていない、または報酬エントリがない場合は 0 です。
func PersonnelEarning(personnelID int64, job ledger.CustomerJob) decimal.Decimal {
	if !job.HasPersonnel(personnelID) {
		return decimal.Zero
	}
	p, ok := job.PaymentFor(personnelID)
	if !ok {
		return decimal.Zero
	}
	return p.Payment
}

// PersonnelEarnings は全作業における担当者の報酬合計 (hakediş) を返します。
func PersonnelEarnings(personnelID int64, jobs []ledger.CustomerJob) decimal.Decimal {
	total := decimal.Zero
	for _, job := range jobs {
		total = total.Add(PersonnelEarning(personnelID, job))
	}
	return total
}

// PersonnelPaid は担当者への支払い合計を返します。
func PersonnelPaid(personnelID int64, payments []ledger.PersonnelPayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.PersonnelID == personnelID {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// PersonnelBalance は報酬合計から支払い合計を差し引いた残高を返します。
func PersonnelBalance(personnelID int64, jobs []ledger.CustomerJob, payments []ledger.PersonnelPayment) decimal.Decimal {
	return PersonnelEarnings(personnelID, jobs).Sub(PersonnelPaid(personnelID, payments))
}

// JobPaid は特定作業に紐づく担当者への支払い合計を返します。
func JobPaid(personnelID int64, job ledger.CustomerJob, payments []ledger.PersonnelPayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.PersonnelID != personnelID || p.CustomerJobID == nil || *p.CustomerJobID != job.ID {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total
}

// JobBalance は作業における担当者の報酬から、その作業に紐づく支払いを差し引いた値を返します。
func JobBalance(personnelID int64, job ledger.CustomerJob, payments []ledger.PersonnelPayment) decimal.Decimal {
	return PersonnelEarning(personnelID, job).Sub(JobPaid(personnelID, job, payments))
}

// OpenJobs は担当者が割り当てられ、残高が 0 でない作業を入力順に返します。
func OpenJobs(personnelID int64, jobs []ledger.CustomerJob, payments []ledger.PersonnelPayment) []OpenJob {
	open := make([]OpenJob, 0)
	for _, job := range jobs {
		if !job.HasPersonnel(personnelID) {
			continue
		}

		earning := PersonnelEarning(personnelID, job)
		paid := JobPaid(personnelID, job, payments)
		balance := earning.Sub(paid)
		if balance.IsZero() {
			continue
		}

		open = append(open, OpenJob{
			JobID:   job.ID,
			Date:    job.Date,
			Earning: earning,
			Paid:    paid,
			Balance: balance,
		})
	}
	return open
}
