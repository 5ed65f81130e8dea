package types

import (
	ierr "github.com/marketpay/marketpay/internal/errors"
)

// InvoiceStatus is the payment state of an invoice as a whole
type InvoiceStatus string

const (
	InvoiceStatusUnpaid        InvoiceStatus = "unpaid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
)

func (s InvoiceStatus) Validate() error {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPartiallyPaid, InvoiceStatusPaid:
		return nil
	}
	return ierr.NewError("invalid invoice status").
		WithHintf("Invoice status %s is not supported", s).
		Mark(ierr.ErrValidation)
}

// LedgerCategory identifies one of the four sub-ledgers of an invoice
type LedgerCategory string

const (
	LedgerCategoryFine         LedgerCategory = "fine"
	LedgerCategoryRent         LedgerCategory = "rent"
	LedgerCategoryVAT          LedgerCategory = "vat"
	LedgerCategoryOperationFee LedgerCategory = "operation_fee"
)

func (c LedgerCategory) Validate() error {
	switch c {
	case LedgerCategoryFine, LedgerCategoryRent, LedgerCategoryVAT, LedgerCategoryOperationFee:
		return nil
	}
	return ierr.NewError("invalid ledger category").
		WithHintf("Ledger category %s is not supported", c).
		Mark(ierr.ErrValidation)
}

// LedgerCategories lists the sub-ledger categories in reporting order
func LedgerCategories() []LedgerCategory {
	return []LedgerCategory{
		LedgerCategoryFine,
		LedgerCategoryRent,
		LedgerCategoryVAT,
		LedgerCategoryOperationFee,
	}
}

// LedgerRecordStatus is the payment state of a single sub-ledger record
type LedgerRecordStatus string

const (
	LedgerRecordStatusUnpaid  LedgerRecordStatus = "unpaid"
	LedgerRecordStatusPartial LedgerRecordStatus = "partial"
	LedgerRecordStatusPaid    LedgerRecordStatus = "paid"
)

// DefaultCurrency is the currency all amounts are denominated in
const DefaultCurrency = "LKR"
