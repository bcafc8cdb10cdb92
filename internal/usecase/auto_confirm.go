package usecase

import (
	"context"
	"time"

	"tradesafe/internal/domain/entity"
	"tradesafe/internal/domain/repository"
	"tradesafe/pkg/errors"
	"tradesafe/pkg/logger"
)

const autoConfirmBatchSize = 100

// AutoConfirmUseCase completes delivered transactions on the buyer's behalf
// after a grace period. Each completion goes through the same optimistic
// transition path as user actions, so a concurrent buyer dispute wins.
type AutoConfirmUseCase struct {
	transactionRepo repository.TransactionRepository
	gracePeriod     time.Duration
	interval        time.Duration
}

func NewAutoConfirmUseCase(
	transactionRepo repository.TransactionRepository,
	gracePeriod time.Duration,
	interval time.Duration,
) *AutoConfirmUseCase {
	return &AutoConfirmUseCase{
		transactionRepo: transactionRepo,
		gracePeriod:     gracePeriod,
		interval:        interval,
	}
}

// Start runs the confirmation loop until the context is cancelled. A zero or
// negative grace period disables the job entirely.
func (uc *AutoConfirmUseCase) Start(ctx context.Context) {
	if uc.gracePeriod <= 0 {
		logger.Info("Auto-confirm job disabled")
		return
	}

	ticker := time.NewTicker(uc.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := uc.ProcessDue(ctx); err != nil {
					logger.Error("Auto-confirm job error: %v", err)
				}
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	logger.Info("Auto-confirm job started (grace %s, every %s)", uc.gracePeriod, uc.interval)
}

// ProcessDue completes every transaction that has been sitting in
// "delivered" for longer than the grace period.
func (uc *AutoConfirmUseCase) ProcessDue(ctx context.Context) error {
	cutoff := time.Now().Add(-uc.gracePeriod)

	transactions, err := uc.transactionRepo.ListDeliveredBefore(ctx, cutoff, autoConfirmBatchSize)
	if err != nil {
		return err
	}

	for _, transaction := range transactions {
		_, err := uc.transactionRepo.Transition(ctx, transaction.ID, transaction.Version(), func(t *entity.Transaction) error {
			if t.CurrentStatus() != entity.StatusDelivered {
				return errors.InvalidTransition("Transaction is no longer delivered", nil)
			}
			t.Apply(entity.StatusChange{
				Status:    entity.StatusCompleted,
				Actor:     entity.SystemActorID,
				CreatedAt: time.Now(),
			})
			return nil
		})
		if err != nil {
			// A conflict means one of the parties acted in the meantime;
			// the next tick re-evaluates.
			if errors.Is(err, "CONFLICT") {
				logger.Warn("Auto-confirm skipped transaction %s: concurrent update", transaction.ID)
				continue
			}
			logger.Error("Auto-confirm failed for transaction %s: %v", transaction.ID, err)
			continue
		}

		logger.Info("Auto-confirmed transaction %s after grace period", transaction.ID)
	}

	return nil
}
