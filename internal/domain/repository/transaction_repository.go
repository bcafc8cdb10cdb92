package repository

import (
	"context"
	"time"

	"tradesafe/internal/domain/entity"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *entity.Transaction) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)

	// ListByUserID returns transactions where the user is buyer, seller, or
	// either ("all"), most recent first.
	ListByUserID(ctx context.Context, userID, role string, limit, offset int) ([]*entity.Transaction, int64, error)

	// Transition loads the transaction, verifies its version still equals
	// expectedVersion, applies the mutation and persists the result — all
	// under a single serialization point per transaction id. A version
	// mismatch yields a CONFLICT error and apply is not invoked.
	Transition(ctx context.Context, id string, expectedVersion int, apply func(*entity.Transaction) error) (*entity.Transaction, error)

	// ListDeliveredBefore returns transactions sitting in "delivered" since
	// before the cutoff, oldest first. Used by the auto-confirm job.
	ListDeliveredBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Transaction, error)
}
