// internal/service/tx.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rewardvault/internal/repository"
	"rewardvault/internal/util"
	"rewardvault/pkg/db"
)

const defaultTxAttempts = 3

// TxRunner owns the begin/commit/rollback lifecycle shared by all services.
// Transactions that fail with a lock conflict are replayed from the start.
type TxRunner struct {
	beginner    db.DBTxBeginner
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
	maxAttempts int
	logger      *slog.Logger
}

// NewTxRunner creates a TxRunner. maxAttempts <= 0 selects the default.
func NewTxRunner(
	beginner db.DBTxBeginner,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	maxAttempts int,
	logger *slog.Logger,
) *TxRunner {
	if maxAttempts <= 0 {
		maxAttempts = defaultTxAttempts
	}
	return &TxRunner{
		beginner:    beginner,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// InTx runs fn inside a transaction and commits when fn returns nil.
func (r *TxRunner) InTx(ctx context.Context, op string, fn func(q repository.DBExecutor) error) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.once(ctx, op, fn)
		if err == nil || !retryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		r.logger.Warn("Retrying transaction after conflict", "op", op, "attempt", attempt, "error", err)
	}
	return fmt.Errorf("%s: gave up after %d attempts: %w", op, r.maxAttempts, err)
}

func (r *TxRunner) once(ctx context.Context, op string, fn func(q repository.DBExecutor) error) error {
	txController, err := r.beginTx(ctx, r.beginner)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer r.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	if err := fn(txExecutor); err != nil {
		return err
	}

	if err := r.commitTx(txController); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}

func retryable(err error) bool {
	return errors.Is(err, util.ErrConcurrentModification) || db.IsRetryable(err)
}
