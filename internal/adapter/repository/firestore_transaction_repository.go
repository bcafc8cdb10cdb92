package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradesafe/internal/domain/entity"
	"tradesafe/internal/domain/repository"
	"tradesafe/pkg/errors"
)

type firestoreTransactionRepository struct {
	client *firestore.Client
}

func NewFirestoreTransactionRepository(client *firestore.Client) repository.TransactionRepository {
	return &firestoreTransactionRepository{
		client: client,
	}
}

func (r *firestoreTransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}

	now := time.Now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now

	_, err := r.client.Collection("transactions").Doc(transaction.ID).Set(ctx, transaction)
	if err != nil {
		return errors.Internal("Failed to create transaction", err)
	}

	return nil
}

func (r *firestoreTransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	doc, err := r.client.Collection("transactions").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Transaction", err)
		}
		return nil, errors.Internal("Failed to get transaction", err)
	}

	var transaction entity.Transaction
	if err := doc.DataTo(&transaction); err != nil {
		return nil, errors.Internal("Failed to parse transaction data", err)
	}

	return &transaction, nil
}

func (r *firestoreTransactionRepository) ListByUserID(ctx context.Context, userID, role string, limit, offset int) ([]*entity.Transaction, int64, error) {
	var fields []string
	switch role {
	case "buyer":
		fields = []string{"buyerId"}
	case "seller":
		fields = []string{"sellerId"}
	case "all", "":
		fields = []string{"buyerId", "sellerId"}
	default:
		return nil, 0, errors.BadRequest("Invalid role", nil)
	}

	var transactions []*entity.Transaction
	for _, field := range fields {
		query := r.client.Collection("transactions").Where(field, "==", userID)

		iter := query.Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, 0, errors.Internal("Failed to iterate transactions", err)
			}

			var transaction entity.Transaction
			if err := doc.DataTo(&transaction); err != nil {
				return nil, 0, errors.Internal("Failed to parse transaction data", err)
			}
			transactions = append(transactions, &transaction)
		}
	}

	sort.Slice(transactions, func(i, j int) bool {
		if !transactions[i].CreatedAt.Equal(transactions[j].CreatedAt) {
			return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
		}
		return transactions[i].ID < transactions[j].ID
	})

	total := int64(len(transactions))

	// Paginate in memory; the per-user cardinality is small.
	start := offset
	if start > len(transactions) {
		start = len(transactions)
	}
	end := len(transactions)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return transactions[start:end], total, nil
}

func (r *firestoreTransactionRepository) Transition(ctx context.Context, id string, expectedVersion int, apply func(*entity.Transaction) error) (*entity.Transaction, error) {
	ref := r.client.Collection("transactions").Doc(id)

	var updated *entity.Transaction
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Transaction", err)
			}
			return errors.Internal("Failed to get transaction", err)
		}

		var transaction entity.Transaction
		if err := doc.DataTo(&transaction); err != nil {
			return errors.Internal("Failed to parse transaction data", err)
		}

		if transaction.Version() != expectedVersion {
			return errors.Conflict("Transaction was modified concurrently, re-read and retry", nil)
		}

		if err := apply(&transaction); err != nil {
			return err
		}

		transaction.UpdatedAt = time.Now()
		if err := tx.Set(ref, &transaction); err != nil {
			return errors.Internal("Failed to update transaction", err)
		}

		updated = &transaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *firestoreTransactionRepository) ListDeliveredBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Transaction, error) {
	query := r.client.Collection("transactions").
		Where("status", "==", string(entity.StatusDelivered)).
		Where("statusChangedAt", "<=", cutoff).
		OrderBy("statusChangedAt", firestore.Asc)

	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	var transactions []*entity.Transaction

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate delivered transactions", err)
		}

		var transaction entity.Transaction
		if err := doc.DataTo(&transaction); err != nil {
			return nil, errors.Internal("Failed to parse transaction data", err)
		}
		transactions = append(transactions, &transaction)
	}

	return transactions, nil
}
