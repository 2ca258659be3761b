package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payer は支払元を表します。
type Payer string

const (
	// PayerKasa は会社の現金 (kasa) からの支払いです。
	PayerKasa    Payer = "kasa"
	PayerOwner   Payer = "patron"
	PayerPartner Payer = "ortak"
)

// PaymentMethod は支払方法を表します。
type PaymentMethod string

const (
	MethodCash       PaymentMethod = "nakit"
	MethodTransfer   PaymentMethod = "havale"
	MethodCreditCard PaymentMethod = "kredi_karti"
	MethodGold       PaymentMethod = "altin"
)

// GoldType は金建て支払いの種別です。MethodGold の場合のみ意味を持ちます。
type GoldType string

const (
	GoldGram    GoldType = "gram"
	GoldQuarter GoldType = "ceyrek"
	GoldHalf    GoldType = "yarim"
	GoldFull    GoldType = "tam"
)

// Note は担当者に付与されるメモです。
type Note struct {
	Text      string
	UpdatedAt time.Time
}

// Personnel は作業員エンティティです。
type Personnel struct {
	ID   int64
	Name string
	Note *Note
}

// Customer は顧客エンティティです。
type Customer struct {
	ID          int64
	Name        string
	Phone       string
	Address     string
	Description string
}

// Material は作業で消費された資材です。
type Material struct {
	ID        int64
	Name      string
	Unit      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Cost は数量 × 単価を返します。
func (m Material) Cost() decimal.Decimal {
	return m.Quantity.Mul(m.UnitPrice)
}

// JobPersonnelPayment は作業ごとの担当者への報酬 (hakediş) です。
type JobPersonnelPayment struct {
	PersonnelID int64
	Payment     decimal.Decimal
	Method      PaymentMethod
	DaysWorked  decimal.Decimal
}

// CustomerJob は顧客に対して実施した作業です。
type CustomerJob struct {
	ID                int64
	CustomerID        int64
	Date              time.Time
	Location          string
	Description       string
	Income            decimal.Decimal
	IncomeMethod      PaymentMethod
	IncomeGoldType    GoldType
	PersonnelIDs      []int64
	PersonnelPayments []JobPersonnelPayment
	Materials         []Material
}

// HasPersonnel は担当者が作業に割り当てられているかを返します。
func (j CustomerJob) HasPersonnel(personnelID int64) bool {
	for _, id := range j.PersonnelIDs {
		if id == personnelID {
			return true
		}
	}
	return false
}

// PaymentFor は担当者の報酬エントリを返します。存在しない場合は false を返します。
func (j CustomerJob) PaymentFor(personnelID int64) (JobPersonnelPayment, bool) {
	for _, p := range j.PersonnelPayments {
		if p.PersonnelID == personnelID {
			return p, true
		}
	}
	return JobPersonnelPayment{}, false
}

// PersonnelPayment は担当者への支払いです。CustomerJobID が設定されている場合は特定作業の報酬に対する支払いです。
type PersonnelPayment struct {
	ID            int64
	PersonnelID   int64
	Amount        decimal.Decimal
	Date          time.Time
	Payer         Payer
	Method        PaymentMethod
	CustomerJobID *int64
}

// Income は作業に紐づかない入金です。
type Income struct {
	ID          int64
	Description string
	Amount      decimal.Decimal
	Date        time.Time
}

// Expense は作業に紐づかない出金です。
type Expense struct {
	ID          int64
	Description string
	Amount      decimal.Decimal
	Date        time.Time
}

// Snapshot は集計に使用する読み取り専用のコレクション一式です。
type Snapshot struct {
	Personnel []Personnel
	Customers []Customer
	Jobs      []CustomerJob
	Payments  []PersonnelPayment
	Incomes   []Income
	Expenses  []Expense
}
