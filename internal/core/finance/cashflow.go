package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/ogurasousui/istakip/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// TransactionType はキャッシュフロー明細の種別です。
type TransactionType string

const (
	TransactionIncome           TransactionType = "income"
	TransactionExpense          TransactionType = "expense"
	TransactionPersonnelPayment TransactionType = "personnel_payment"
)

const unknownPersonnelName = "Bilinmeyen personel"

// CashTransaction は入金・出金を共通形式にした明細です。AmountIn と AmountOut のどちらか一方のみが設定されます。
type CashTransaction struct {
	ID          string
	Date        time.Time
	Type        TransactionType
	Description string
	AmountIn    *decimal.Decimal
	AmountOut   *decimal.Decimal
}

// CashFlow は月次キャッシュフローです。
type CashFlow struct {
	Year         int
	Month        time.Month
	Transactions []CashTransaction
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetFlow      decimal.Decimal
}

// MonthlyCashFlow は指定月の入金・出金・担当者支払いを 1 つの明細に統合します。
// 月の判定は各日時が保持するロケーションでの年月で行います。
// 明細は日付の降順で、同日時の場合は入金、出金、担当者支払いの順を保ちます。
func MonthlyCashFlow(
	personnel []ledger.Personnel,
	payments []ledger.PersonnelPayment,
	incomes []ledger.Income,
	expenses []ledger.Expense,
	month time.Month,
	year int,
) CashFlow {
	inMonth := func(t time.Time) bool {
		return t.Year() == year && t.Month() == month
	}

	names := make(map[int64]string, len(personnel))
	for _, p := range personnel {
		names[p.ID] = p.Name
	}

	txs := make([]CashTransaction, 0, len(incomes)+len(expenses)+len(payments))

	for _, in := range incomes {
		if !inMonth(in.Date) {
			continue
		}
		amount := in.Amount
		txs = append(txs, CashTransaction{
			ID:          fmt.Sprintf("income-%d", in.ID),
			Date:        in.Date,
			Type:        TransactionIncome,
			Description: in.Description,
			AmountIn:    &amount,
		})
	}

	for _, ex := range expenses {
		if !inMonth(ex.Date) {
			continue
		}
		amount := ex.Amount
		txs = append(txs, CashTransaction{
			ID:          fmt.Sprintf("expense-%d", ex.ID),
			Date:        ex.Date,
			Type:        TransactionExpense,
			Description: ex.Description,
			AmountOut:   &amount,
		})
	}

	for _, p := range payments {
		if !inMonth(p.Date) {
			continue
		}
		name, ok := names[p.PersonnelID]
		if !ok {
			name = unknownPersonnelName
		}
		amount := p.Amount
		txs = append(txs, CashTransaction{
			ID:          fmt.Sprintf("payment-%d", p.ID),
			Date:        p.Date,
			Type:        TransactionPersonnelPayment,
			Description: "Personel ödemesi: " + name,
			AmountOut:   &amount,
		})
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})

	totalIn := decimal.Zero
	totalOut := decimal.Zero
	for _, tx := range txs {
		if tx.AmountIn != nil {
			totalIn = totalIn.Add(*tx.AmountIn)
		}
		if tx.AmountOut != nil {
			totalOut = totalOut.Add(*tx.AmountOut)
		}
	}

	return CashFlow{
		Year:         year,
		Month:        month,
		Transactions: txs,
		TotalIncome:  totalIn,
		TotalExpense: totalOut,
		NetFlow:      totalIn.Sub(totalOut),
	}
}
