package postgres

import (
	"context"

	"github.com/marketpay/marketpay/internal/logger"
)

// IClient defines the interface for postgres client operations
type IClient interface {
	// WithTx wraps the given function in a transaction; nested calls reuse
	// the transaction in context via savepoints
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// Client wraps DB to provide transaction management
type Client struct {
	db     *DB
	logger *logger.Logger
}

// NewClient creates a new postgres client
func NewClient(db *DB, logger *logger.Logger) IClient {
	return &Client{db: db, logger: logger}
}

// WithTx executes the given function within a transaction
func (c *Client) WithTx(ctx context.Context, fn func(context.Context) error) error {
	txCtx, _, err := c.db.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		if rbErr := c.db.RollbackTx(txCtx); rbErr != nil {
			c.logger.Errorw("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	return c.db.CommitTx(txCtx)
}
