package shop

import (
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/types"
)

// Shop is the tenant being billed. Only the fields the payment core needs
// are modeled here; everything else about shops lives in the front office.
type Shop struct {
	ID        string `json:"id" db:"id"`
	Code      string `json:"code" db:"code"`
	Name      string `json:"name" db:"name"`
	OwnerName string `json:"owner_name" db:"owner_name"`
	Phone     string `json:"phone" db:"phone"`

	types.BaseModel
}

func (s *Shop) Validate() error {
	if s.Code == "" {
		return ierr.NewError("shop code is required").
			WithHint("Shop code is required").
			Mark(ierr.ErrValidation)
	}
	if s.Name == "" {
		return ierr.NewError("shop name is required").
			WithHint("Shop name is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (s *Shop) TableName() string {
	return "shops"
}
