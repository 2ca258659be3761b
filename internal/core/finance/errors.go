package finance

import "errors"

var (
	// ErrInvalidPersonnelID は担当者 ID が不正な場合に返却されます。
	ErrInvalidPersonnelID = errors.New("finance: invalid personnel id")
	// ErrInvalidCustomerID は顧客 ID が不正な場合に返却されます。
	ErrInvalidCustomerID = errors.New("finance: invalid customer id")
	// ErrInvalidJobID は作業 ID が不正な場合に返却されます。
	ErrInvalidJobID = errors.New("finance: invalid job id")
	// ErrInvalidMonth は月の指定が不正な場合に返却されます。
	ErrInvalidMonth = errors.New("finance: invalid month")
	// ErrInvalidDateRange は期間の指定が不正な場合に返却されます。
	ErrInvalidDateRange = errors.New("finance: invalid date range")
	// ErrCustomerNotFound は顧客が存在しない場合に返却されます。
	ErrCustomerNotFound = errors.New("finance: customer not found")
	// ErrJobNotFound は作業が存在しない場合に返却されます。
	ErrJobNotFound = errors.New("finance: job not found")
)
