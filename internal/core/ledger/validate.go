package ledger

import (
	"errors"
	"fmt"
)

// NormalizePayer は支払元を検証します。空文字は PayerKasa として扱います。
func NormalizePayer(raw string) (Payer, error) {
	switch p := Payer(raw); p {
	case "":
		return PayerKasa, nil
	case PayerKasa, PayerOwner, PayerPartner:
		return p, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidPayer)
	}
}

// ParsePaymentMethod は支払方法を検証します。
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch m := PaymentMethod(raw); m {
	case MethodCash, MethodTransfer, MethodCreditCard, MethodGold:
		return m, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidPaymentMethod)
	}
}

func isValidGoldType(g GoldType) bool {
	switch g {
	case GoldGram, GoldQuarter, GoldHalf, GoldFull:
		return true
	default:
		return false
	}
}

// ValidateJob は作業の不変条件を検証します。
// 報酬エントリは割り当て済み担当者のみ、金額は負でないことを確認します。
func ValidateJob(job CustomerJob) error {
	if job.Income.IsNegative() {
		return fmt.Errorf("job %d income: %w", job.ID, ErrInvalidAmount)
	}

	if job.IncomeMethod == MethodGold {
		if !isValidGoldType(job.IncomeGoldType) {
			return fmt.Errorf("job %d: %w", job.ID, ErrInvalidGoldType)
		}
	} else if job.IncomeGoldType != "" {
		return fmt.Errorf("job %d: gold type without gold method: %w", job.ID, ErrInvalidGoldType)
	}

	for _, p := range job.PersonnelPayments {
		if !job.HasPersonnel(p.PersonnelID) {
			return fmt.Errorf("job %d personnel %d: %w", job.ID, p.PersonnelID, ErrUnassignedPersonnelPayment)
		}
		if p.Payment.IsNegative() {
			return fmt.Errorf("job %d personnel %d payment: %w", job.ID, p.PersonnelID, ErrInvalidAmount)
		}
	}

	for _, m := range job.Materials {
		if m.Quantity.IsNegative() || m.UnitPrice.IsNegative() {
			return fmt.Errorf("job %d material %d: %w", job.ID, m.ID, ErrInvalidAmount)
		}
	}

	return nil
}

// NormalizeJob は金建て以外の支払方法に残った金種を破棄し、補正後の作業を返します。
// 補正内容と補正できない違反はエラーとして返しますが、作業自体は常に集計に使用できます。
func NormalizeJob(job CustomerJob) (CustomerJob, error) {
	var issues []error
	if job.IncomeMethod != MethodGold && job.IncomeGoldType != "" {
		issues = append(issues, fmt.Errorf("job %d: gold type %q dropped for method %q: %w", job.ID, job.IncomeGoldType, job.IncomeMethod, ErrInvalidGoldType))
		job.IncomeGoldType = ""
	}
	if err := ValidateJob(job); err != nil {
		issues = append(issues, err)
	}
	return job, errors.Join(issues...)
}

// ValidatePayment は支払いが参照する作業に担当者が含まれているかを検証します。
// 作業が jobs に見つからない場合は参照整合性の外部責務として扱い、エラーにしません。
func ValidatePayment(payment PersonnelPayment, jobs []CustomerJob) error {
	if payment.Amount.IsNegative() {
		return fmt.Errorf("payment %d amount: %w", payment.ID, ErrInvalidAmount)
	}
	if payment.CustomerJobID == nil {
		return nil
	}

	for _, job := range jobs {
		if job.ID != *payment.CustomerJobID {
			continue
		}
		if !job.HasPersonnel(payment.PersonnelID) {
			return fmt.Errorf("payment %d job %d: %w", payment.ID, job.ID, ErrPaymentJobMismatch)
		}
		return nil
	}

	return nil
}

// Validate はスナップショット内の全作業と支払いを検証し、すべての違反をまとめて返します。
func (s Snapshot) Validate() error {
	var issues []error
	for _, job := range s.Jobs {
		if err := ValidateJob(job); err != nil {
			issues = append(issues, err)
		}
	}
	for _, p := range s.Payments {
		if err := ValidatePayment(p, s.Jobs); err != nil {
			issues = append(issues, err)
		}
	}
	return errors.Join(issues...)
}
