package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tradesafe/internal/domain/entity"
	"tradesafe/pkg/errors"
)

// In-memory repository fakes. They reproduce the persistence contracts the
// use cases rely on (version-checked transitions, atomic message appends,
// floored unread decrements) without a Firestore emulator.

type mockTransactionRepo struct {
	mu           sync.Mutex
	transactions map[string]*entity.Transaction
	nextID       int
}

func newMockTransactionRepo() *mockTransactionRepo {
	return &mockTransactionRepo{transactions: make(map[string]*entity.Transaction)}
}

func cloneTransaction(t *entity.Transaction) *entity.Transaction {
	clone := *t
	clone.StatusHistory = append([]entity.StatusChange(nil), t.StatusHistory...)
	return &clone
}

func (m *mockTransactionRepo) Create(ctx context.Context, transaction *entity.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	transaction.ID = fmt.Sprintf("txn-%d", m.nextID)
	now := time.Now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now

	m.transactions[transaction.ID] = cloneTransaction(transaction)
	return nil
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transaction, ok := m.transactions[id]
	if !ok {
		return nil, errors.NotFound("Transaction", nil)
	}
	return cloneTransaction(transaction), nil
}

func (m *mockTransactionRepo) ListByUserID(ctx context.Context, userID, role string, limit, offset int) ([]*entity.Transaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*entity.Transaction
	for _, transaction := range m.transactions {
		asBuyer := transaction.BuyerID == userID
		asSeller := transaction.SellerID == userID
		switch role {
		case "buyer":
			if !asBuyer {
				continue
			}
		case "seller":
			if !asSeller {
				continue
			}
		default:
			if !asBuyer && !asSeller {
				continue
			}
		}
		matched = append(matched, cloneTransaction(transaction))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *mockTransactionRepo) Transition(ctx context.Context, id string, expectedVersion int, apply func(*entity.Transaction) error) (*entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.transactions[id]
	if !ok {
		return nil, errors.NotFound("Transaction", nil)
	}

	if stored.Version() != expectedVersion {
		return nil, errors.Conflict("Transaction was modified concurrently", nil)
	}

	clone := cloneTransaction(stored)
	if err := apply(clone); err != nil {
		return nil, err
	}
	clone.UpdatedAt = time.Now()

	m.transactions[id] = cloneTransaction(clone)
	return clone, nil
}

func (m *mockTransactionRepo) ListDeliveredBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*entity.Transaction
	for _, transaction := range m.transactions {
		if transaction.Status == entity.StatusDelivered && !transaction.StatusChangedAt.After(cutoff) {
			matched = append(matched, cloneTransaction(transaction))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StatusChangedAt.Before(matched[j].StatusChangedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

type mockChatRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	nextConvID    int
	nextMsgID     int
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
	}
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	clone := *c
	clone.Participants = append([]string(nil), c.Participants...)
	clone.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		clone.UnreadCount[k] = v
	}
	if c.LastMessage != nil {
		snapshot := *c.LastMessage
		clone.LastMessage = &snapshot
	}
	return &clone
}

func (m *mockChatRepo) GetOrCreateConversation(ctx context.Context, candidate *entity.Conversation) (*entity.Conversation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, conversation := range m.conversations {
		if conversation.ListingID == candidate.ListingID && conversation.PairKey == candidate.PairKey {
			return cloneConversation(conversation), false, nil
		}
	}

	m.nextConvID++
	stored := cloneConversation(candidate)
	stored.ID = fmt.Sprintf("conv-%d", m.nextConvID)
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.conversations[stored.ID] = stored
	return cloneConversation(stored), true, nil
}

func (m *mockChatRepo) GetConversationByID(ctx context.Context, id string) (*entity.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conversation, ok := m.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(conversation), nil
}

func (m *mockChatRepo) ListConversationsByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*entity.Conversation
	for _, conversation := range m.conversations {
		if conversation.HasParticipant(userID) {
			matched = append(matched, cloneConversation(conversation))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		ti, tj := matched[i].LastActivityAt(), matched[j].LastActivityAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

func (m *mockChatRepo) AppendMessage(ctx context.Context, conversationID, senderID, text string) (*entity.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conversation, ok := m.conversations[conversationID]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}

	m.nextMsgID++
	now := time.Now()
	message := &entity.Message{
		ID:             fmt.Sprintf("msg-%d", m.nextMsgID),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Seq:            conversation.LastSeq + 1,
		CreatedAt:      now,
	}
	m.messages[conversationID] = append(m.messages[conversationID], message)

	conversation.LastSeq = message.Seq
	conversation.LastMessage = &entity.MessageSnapshot{
		Text:      text,
		SenderID:  senderID,
		CreatedAt: now,
	}
	conversation.UpdatedAt = now
	conversation.UnreadCount[conversation.OtherParticipant(senderID)]++

	clone := *message
	return &clone, nil
}

func (m *mockChatRepo) ListMessagesSince(ctx context.Context, conversationID string, cursor int64, limit int) ([]*entity.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*entity.Message
	for _, message := range m.messages[conversationID] {
		if message.Seq > cursor {
			clone := *message
			matched = append(matched, &clone)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Seq < matched[j].Seq
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *mockChatRepo) MarkReadUpTo(ctx context.Context, conversationID, readerID string, uptoSeq int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conversation, ok := m.conversations[conversationID]
	if !ok {
		return 0, errors.NotFound("Conversation", nil)
	}

	marked := 0
	for _, message := range m.messages[conversationID] {
		if message.Read || message.Seq > uptoSeq || message.SenderID == readerID {
			continue
		}
		message.Read = true
		marked++
	}

	conversation.UnreadCount[readerID] -= marked
	if conversation.UnreadCount[readerID] < 0 {
		conversation.UnreadCount[readerID] = 0
	}
	return marked, nil
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMockUserRepo(users ...*entity.User) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[string]*entity.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	clone := *user
	return &clone, nil
}

type mockListingRepo struct {
	mu       sync.Mutex
	listings map[string]*entity.Listing
}

func newMockListingRepo(listings ...*entity.Listing) *mockListingRepo {
	repo := &mockListingRepo{listings: make(map[string]*entity.Listing)}
	for _, listing := range listings {
		repo.listings[listing.ID] = listing
	}
	return repo
}

func (m *mockListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	clone := *listing
	return &clone, nil
}
