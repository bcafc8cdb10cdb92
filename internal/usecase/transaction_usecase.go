package usecase

import (
	"context"
	"fmt"
	"time"

	"tradesafe/internal/domain/entity"
	"tradesafe/internal/domain/repository"
	"tradesafe/pkg/errors"
	"tradesafe/pkg/utils"
)

type TransactionUseCase struct {
	transactionRepo repository.TransactionRepository
	listingRepo     repository.ListingRepository
	userRepo        repository.UserRepository
}

func NewTransactionUseCase(
	transactionRepo repository.TransactionRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
) *TransactionUseCase {
	return &TransactionUseCase{
		transactionRepo: transactionRepo,
		listingRepo:     listingRepo,
		userRepo:        userRepo,
	}
}

type CreateTransactionInput struct {
	ListingID string
	Amount    int64
}

type TransitionInput struct {
	TargetStatus    entity.Status
	ExpectedVersion int
	TrackingNumber  string
}

type TransactionResponse struct {
	*entity.Transaction
	Version int `json:"version"`
}

func (uc *TransactionUseCase) prepareTransactionResponse(transaction *entity.Transaction) *TransactionResponse {
	return &TransactionResponse{
		Transaction: transaction,
		Version:     transaction.Version(),
	}
}

func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, buyerID string, input CreateTransactionInput) (*TransactionResponse, error) {
	if input.Amount <= 0 {
		return nil, errors.BadRequest("Amount must be a positive number of minor currency units", nil)
	}

	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}

	if !listing.Active() {
		return nil, errors.BadRequest("Listing is not available", nil)
	}

	if listing.SellerID == buyerID {
		return nil, errors.BadRequest("Cannot buy your own listing", nil)
	}

	transaction := &entity.Transaction{
		ListingID: input.ListingID,
		BuyerID:   buyerID,
		SellerID:  listing.SellerID,
		Amount:    input.Amount,
	}
	transaction.Apply(entity.StatusChange{
		Status:    entity.StatusPending,
		Actor:     buyerID,
		CreatedAt: time.Now(),
	})

	if err := uc.transactionRepo.Create(ctx, transaction); err != nil {
		return nil, err
	}

	return uc.prepareTransactionResponse(transaction), nil
}

// Transition validates the requested status edge and the actor's role
// against the transaction's own buyer/seller ids, then applies the change
// under the repository's per-transaction version check. The audit trail is
// append-only; the caller's ExpectedVersion must equal the trail length it
// last observed or the call fails with a conflict.
func (uc *TransactionUseCase) Transition(ctx context.Context, actorID, transactionID string, input TransitionInput) (*TransactionResponse, error) {
	if !entity.ValidStatus(input.TargetStatus) {
		return nil, errors.BadRequest(fmt.Sprintf("Unknown target status %q", input.TargetStatus), nil)
	}
	if input.ExpectedVersion < 1 {
		return nil, errors.BadRequest("expected_version is required", nil)
	}

	arbitrator, err := uc.resolveArbitrator(ctx, actorID)
	if err != nil {
		return nil, err
	}

	transaction, err := uc.transactionRepo.Transition(ctx, transactionID, input.ExpectedVersion, func(t *entity.Transaction) error {
		from := t.CurrentStatus()

		if !entity.CanTransition(from, input.TargetStatus) {
			return errors.InvalidTransition(fmt.Sprintf("Cannot transition from %s to %s", from, input.TargetStatus), nil)
		}

		roles := t.ActorRoles(actorID, arbitrator)
		if !entity.RoleAllowed(from, input.TargetStatus, roles) {
			return errors.Forbidden("You are not allowed to perform this transition", nil)
		}

		if input.TargetStatus == entity.StatusShipped && input.TrackingNumber != "" {
			t.TrackingNumber = input.TrackingNumber
		}

		t.Apply(entity.StatusChange{
			Status:    input.TargetStatus,
			Actor:     actorID,
			CreatedAt: time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return uc.prepareTransactionResponse(transaction), nil
}

func (uc *TransactionUseCase) GetTransactionByID(ctx context.Context, userID, transactionID string) (*TransactionResponse, error) {
	transaction, err := uc.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := uc.checkAccess(ctx, userID, transaction); err != nil {
		return nil, err
	}

	return uc.prepareTransactionResponse(transaction), nil
}

func (uc *TransactionUseCase) ListTransactions(ctx context.Context, userID, role string, page, limit int) ([]*TransactionResponse, int64, error) {
	if role != "buyer" && role != "seller" && role != "all" {
		role = "all"
	}

	pagination := utils.NewPaginationParams(page, limit)

	transactions, total, err := uc.transactionRepo.ListByUserID(ctx, userID, role, pagination.PageSize, pagination.Offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*TransactionResponse, len(transactions))
	for i, transaction := range transactions {
		responses[i] = uc.prepareTransactionResponse(transaction)
	}

	return responses, total, nil
}

// GetStatusHistory returns the transaction's append-only audit trail.
func (uc *TransactionUseCase) GetStatusHistory(ctx context.Context, userID, transactionID string) ([]entity.StatusChange, error) {
	transaction, err := uc.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := uc.checkAccess(ctx, userID, transaction); err != nil {
		return nil, err
	}

	return transaction.StatusHistory, nil
}

func (uc *TransactionUseCase) checkAccess(ctx context.Context, userID string, transaction *entity.Transaction) error {
	if transaction.BuyerID == userID || transaction.SellerID == userID {
		return nil
	}

	arbitrator, err := uc.resolveArbitrator(ctx, userID)
	if err != nil {
		return err
	}
	if arbitrator {
		return nil
	}

	return errors.Forbidden("You don't have permission to view this transaction", nil)
}

// resolveArbitrator resolves the arbitration capability from the identity
// record. Unknown users simply lack the capability; buyer/seller roles are
// derived from the transaction itself.
func (uc *TransactionUseCase) resolveArbitrator(ctx context.Context, actorID string) (bool, error) {
	if actorID == entity.SystemActorID {
		return false, nil
	}

	user, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return false, nil
		}
		return false, err
	}

	return user.IsArbitrator(), nil
}
