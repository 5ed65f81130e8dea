package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketpay/marketpay/internal/cache"
	"github.com/marketpay/marketpay/internal/config"
	"github.com/marketpay/marketpay/internal/locker"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/postgres"
	"github.com/marketpay/marketpay/internal/repository"
	"github.com/marketpay/marketpay/internal/service"
	"github.com/marketpay/marketpay/internal/validator"
)

var (
	filePath    string
	concurrency int
)

var rootCmd = &cobra.Command{
	Use:   "marketpay-batch",
	Short: "Bulk payment processing for the produce market rent collection",
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Apply a CSV payment file against open invoices",
	Long: `Process a CSV payment file. Each row is applied as an independent
payment: a failing row is logged with its shop code and does not stop
the rows after it, and re-running the same file does not double-apply.

Expected header:
  shop_code,period_month,period_year,category,amount,payment_method,payment_date`,
	Example: `  marketpay-batch process --file payments.csv
  marketpay-batch process --file payments.csv --concurrency 8`,
	RunE: runProcess,
}

func init() {
	time.Local = time.UTC

	processCmd.Flags().StringVar(&filePath, "file", "", "Path to the CSV payment file [REQUIRED]")
	processCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel workers (default from config)")
	_ = processCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(processCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	validator.NewValidator()

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()

	params := service.NewServiceParams(
		log,
		cfg,
		postgres.NewClient(db, log),
		locker.NewManager(cfg, log),
		cache.NewInMemoryCache(cfg),
		repository.NewShopRepository(db, log),
		repository.NewInvoiceRepository(db, log),
		repository.NewPaymentRepository(db, log),
	)
	payments := service.NewPaymentService(params)
	batch := service.NewBatchService(params, payments)

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read payment file: %w", err)
	}

	resp, err := batch.ProcessPaymentFile(cmd.Context(), content, concurrency)
	if err != nil {
		return err
	}

	for _, row := range resp.Results {
		switch {
		case row.Success:
			fmt.Printf("line %d  %-10s applied  receipt=%s\n", row.Line, row.ShopCode, row.ReceiptNumber)
		case row.Skipped:
			fmt.Printf("line %d  %-10s skipped  %s\n", row.Line, row.ShopCode, row.Message)
		default:
			fmt.Printf("line %d  %-10s FAILED   %s\n", row.Line, row.ShopCode, row.Message)
		}
	}
	fmt.Printf("\nprocessed=%d succeeded=%d failed=%d skipped=%d filtered=%d\n",
		resp.Processed, resp.Succeeded, resp.Failed, resp.Skipped, resp.Filtered)

	if resp.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
