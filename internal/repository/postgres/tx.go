package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sahelpay/momo/internal/domain/payment"
)

// transition applies a state change to one payment inside a transaction.
// The row is pinned with SELECT ... FOR UPDATE before apply runs, so
// concurrent transitions for the same id queue on the row lock and the
// legality check always sees the latest committed state. Only the columns a
// transition may touch are written back.
func (r *PaymentRepository) transition(ctx context.Context, id uuid.UUID, apply func(*payment.Payment) error) (*payment.Payment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	// No-op once the transaction has committed.
	defer tx.Rollback(ctx)

	p, err := r.scanPayment(tx.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := apply(p); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE payments SET
		  status=$1, transaction_id=$2, provider_ref=$3, failure_reason=$4,
		  refunded_amount=$5, updated_at=$6, completed_at=$7
		 WHERE id=$8`,
		string(p.Status), p.TransactionID, p.ProviderRef, p.FailureReason,
		p.RefundedAmount, p.UpdatedAt, p.CompletedAt, p.ID,
	); err != nil {
		return nil, fmt.Errorf("write transition: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return p, nil
}
