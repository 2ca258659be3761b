package ledger

import "errors"

var (
	ErrInvalidAmount              = errors.New("ledger: invalid amount")
	ErrInvalidPaymentMethod       = errors.New("ledger: invalid payment method")
	ErrInvalidGoldType            = errors.New("ledger: invalid gold type")
	ErrInvalidPayer               = errors.New("ledger: invalid payer")
	ErrUnassignedPersonnelPayment = errors.New("ledger: payment for unassigned personnel")
	ErrPaymentJobMismatch         = errors.New("ledger: payment job does not include personnel")
)
