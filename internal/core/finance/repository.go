package finance

import (
	"context"
	"time"

	"github.com/ogurasousui/istakip/internal/core/ledger"
)

// Repository は集計用スナップショットを読み込む読み取り専用のインターフェースです。
// フィルタは絞り込みのヒントであり、集計関数は自身でも条件を適用します。
type Repository interface {
	ListPersonnel(ctx context.Context) ([]ledger.Personnel, error)
	ListCustomers(ctx context.Context) ([]ledger.Customer, error)
	ListCustomerJobs(ctx context.Context, filter JobFilter) ([]ledger.CustomerJob, error)
	ListPersonnelPayments(ctx context.Context, filter PaymentFilter) ([]ledger.PersonnelPayment, error)
	ListIncomes(ctx context.Context, filter MovementFilter) ([]ledger.Income, error)
	ListExpenses(ctx context.Context, filter MovementFilter) ([]ledger.Expense, error)
}

// JobFilter は作業一覧取得時の検索条件です。
type JobFilter struct {
	JobID       *int64
	CustomerID  *int64
	PersonnelID *int64
	From        *time.Time
	To          *time.Time
}

// PaymentFilter は担当者支払い一覧取得時の検索条件です。
type PaymentFilter struct {
	PersonnelID *int64
	From        *time.Time
	To          *time.Time
}

// MovementFilter は入金・出金一覧取得時の検索条件です。
type MovementFilter struct {
	From *time.Time
	To   *time.Time
}
