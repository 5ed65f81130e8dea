package types

import (
	ierr "github.com/marketpay/marketpay/internal/errors"
)

// PaymentMethod defines how a payment was collected
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOnline       PaymentMethod = "online"
)

func (m PaymentMethod) Validate() error {
	switch m {
	case PaymentMethodCash, PaymentMethodCheque, PaymentMethodBankTransfer, PaymentMethodOnline:
		return nil
	}
	return ierr.NewError("invalid payment method").
		WithHintf("Payment method %s is not supported", m).
		Mark(ierr.ErrValidation)
}
