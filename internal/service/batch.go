package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/marketpay/marketpay/internal/api/dto"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/idempotency"
	"github.com/marketpay/marketpay/internal/types"
)

// BatchService processes a payment file: each row runs the full payment
// protocol independently, so one shop's failure never blocks the others and
// the batch always completes a full pass.
type BatchService interface {
	ProcessPaymentFile(ctx context.Context, fileContent []byte, concurrency int) (*dto.BatchPaymentResponse, error)
}

type batchService struct {
	ServiceParams
	payments PaymentService
	idempGen *idempotency.Generator
}

// NewBatchService creates a new batch payment service
func NewBatchService(params ServiceParams, payments PaymentService) BatchService {
	return &batchService{
		ServiceParams: params,
		payments:      payments,
		idempGen:      idempotency.NewGenerator(),
	}
}

type batchEntry struct {
	line        int
	shopCode    string
	periodMonth int
	periodYear  int
	category    types.LedgerCategory
	amount      decimal.Decimal
	method      types.PaymentMethod
	date        string
}

var batchColumns = []string{
	"shop_code", "period_month", "period_year", "category",
	"amount", "payment_method", "payment_date",
}

func (s *batchService) ProcessPaymentFile(ctx context.Context, fileContent []byte, concurrency int) (*dto.BatchPaymentResponse, error) {
	if concurrency <= 0 {
		concurrency = s.Config.Batch.Concurrency
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	reader := csv.NewReader(bytes.NewReader(fileContent))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment file is empty or not valid CSV").
			Mark(ierr.ErrValidation)
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	resp := &dto.BatchPaymentResponse{}
	var entries []batchEntry

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// malformed row, report it and keep reading
			resp.Results = append(resp.Results, dto.BatchRowResult{
				Line:    line,
				Success: false,
				Message: "malformed CSV row",
			})
			resp.Failed++
			continue
		}

		entry, ok, rowErr := s.parseRow(columns, row, line)
		if rowErr != nil {
			resp.Results = append(resp.Results, dto.BatchRowResult{
				Line:     line,
				ShopCode: field(columns, row, "shop_code"),
				Success:  false,
				Message:  rowErr.Error(),
			})
			resp.Failed++
			continue
		}
		if !ok {
			// rows without a shop, amount or date are filtered before
			// submission, matching the file-import contract
			resp.Filtered++
			continue
		}
		entries = append(entries, entry)
	}

	results := make([]dto.BatchRowResult, len(entries))
	workers := pool.New().WithMaxGoroutines(concurrency)
	for i, entry := range entries {
		workers.Go(func() {
			results[i] = s.processEntry(ctx, entry)
		})
	}
	workers.Wait()

	for _, r := range results {
		resp.Results = append(resp.Results, r)
		switch {
		case r.Skipped:
			resp.Skipped++
		case r.Success:
			resp.Succeeded++
		default:
			resp.Failed++
		}
	}
	resp.Processed = len(entries)

	s.Logger.Infow("payment batch completed",
		"processed", resp.Processed,
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
		"skipped", resp.Skipped,
		"filtered", resp.Filtered,
	)
	return resp, nil
}

func (s *batchService) processEntry(ctx context.Context, entry batchEntry) dto.BatchRowResult {
	result := dto.BatchRowResult{Line: entry.line, ShopCode: entry.shopCode}

	shop, err := s.ShopRepo.GetByCode(ctx, entry.shopCode)
	if err != nil {
		s.Logger.Errorw("batch payment failed",
			"shop_code", entry.shopCode,
			"line", entry.line,
			"error", err,
		)
		result.Message = "unknown shop code"
		return result
	}

	// deterministic key: re-running the same file must not double-apply
	key := s.idempGen.GenerateKey(idempotency.ScopeBatchPayment, map[string]interface{}{
		"shop_code": entry.shopCode,
		"month":     entry.periodMonth,
		"year":      entry.periodYear,
		"category":  entry.category,
		"amount":    entry.amount.String(),
		"date":      entry.date,
	})

	applied, err := s.payments.ApplyPayment(ctx, &dto.ApplyPaymentRequest{
		ShopID:         shop.ID,
		PeriodMonth:    entry.periodMonth,
		PeriodYear:     entry.periodYear,
		Category:       entry.category,
		AmountPaid:     entry.amount,
		PaymentMethod:  entry.method,
		PaymentDate:    entry.date,
		IdempotencyKey: key,
	})
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			result.Skipped = true
			result.Message = "already applied"
			return result
		}
		// isolated failure: log with the shop key and move on
		s.Logger.Errorw("batch payment failed",
			"shop_code", entry.shopCode,
			"shop_id", shop.ID,
			"line", entry.line,
			"error", err,
		)
		result.Message = err.Error()
		return result
	}

	result.Success = true
	result.ReceiptNumber = applied.ReceiptNumber
	return result
}

func (s *batchService) parseRow(columns map[string]int, row []string, line int) (batchEntry, bool, error) {
	shopCode := field(columns, row, "shop_code")
	amountRaw := field(columns, row, "amount")
	date := field(columns, row, "payment_date")

	// pre-submission filter: skip rows without the identifying fields
	if shopCode == "" || amountRaw == "" || date == "" {
		return batchEntry{}, false, nil
	}

	amount, ok, err := types.ParseAmount(amountRaw)
	if err != nil || !ok {
		return batchEntry{}, false, ierr.NewError("invalid amount").
			WithHintf("Amount %q on line %d is not a valid decimal", amountRaw, line).
			Mark(ierr.ErrValidation)
	}

	month, err := strconv.Atoi(field(columns, row, "period_month"))
	if err != nil {
		return batchEntry{}, false, ierr.NewError("invalid period month").
			WithHintf("Period month on line %d is not a number", line).
			Mark(ierr.ErrValidation)
	}
	year, err := strconv.Atoi(field(columns, row, "period_year"))
	if err != nil {
		return batchEntry{}, false, ierr.NewError("invalid period year").
			WithHintf("Period year on line %d is not a number", line).
			Mark(ierr.ErrValidation)
	}

	category := types.LedgerCategory(field(columns, row, "category"))
	if category == "" {
		category = types.LedgerCategoryRent
	}
	if err := category.Validate(); err != nil {
		return batchEntry{}, false, err
	}

	method := types.PaymentMethod(field(columns, row, "payment_method"))
	if method == "" {
		method = types.PaymentMethodCash
	}
	if err := method.Validate(); err != nil {
		return batchEntry{}, false, err
	}

	return batchEntry{
		line:        line,
		shopCode:    shopCode,
		periodMonth: month,
		periodYear:  year,
		category:    category,
		amount:      amount,
		method:      method,
		date:        date,
	}, true, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range batchColumns[:3] {
		if _, ok := columns[required]; !ok {
			return nil, ierr.NewError("missing column").
				WithHintf("Payment file is missing the %s column", required).
				Mark(ierr.ErrValidation)
		}
	}
	if _, ok := columns["amount"]; !ok {
		return nil, ierr.NewError("missing column").
			WithHint("Payment file is missing the amount column").
			Mark(ierr.ErrValidation)
	}
	if _, ok := columns["payment_date"]; !ok {
		return nil, ierr.NewError("missing column").
			WithHint("Payment file is missing the payment_date column").
			Mark(ierr.ErrValidation)
	}
	return columns, nil
}

func field(columns map[string]int, row []string, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
