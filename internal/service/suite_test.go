package service

import (
	"github.com/marketpay/marketpay/internal/testutil"
)

func newTestServiceParams(base *testutil.BaseServiceTestSuite) ServiceParams {
	return ServiceParams{
		Logger:      base.GetLogger(),
		Config:      base.GetConfig(),
		DB:          base.GetDB(),
		Locker:      base.GetLocker(),
		Cache:       base.GetCache(),
		ShopRepo:    base.GetStores().ShopRepo,
		InvoiceRepo: base.GetStores().InvoiceRepo,
		PaymentRepo: base.GetStores().PaymentRepo,
	}
}
