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

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) GetOrCreateConversation(ctx context.Context, candidate *entity.Conversation) (*entity.Conversation, bool, error) {
	var result *entity.Conversation
	created := false

	// Lookup and create run in one Firestore transaction so two concurrent
	// first messages for the same (listing, pair) cannot both create one.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := r.client.Collection("conversations").
			Where("listingId", "==", candidate.ListingID).
			Where("pairKey", "==", candidate.PairKey).
			Limit(1)

		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return errors.Internal("Failed to query conversations", err)
		}

		if len(docs) > 0 {
			var conversation entity.Conversation
			if err := docs[0].DataTo(&conversation); err != nil {
				return errors.Internal("Failed to parse conversation data", err)
			}
			result = &conversation
			created = false
			return nil
		}

		conversation := *candidate
		conversation.ID = uuid.New().String()
		now := time.Now()
		conversation.CreatedAt = now
		conversation.UpdatedAt = now

		ref := r.client.Collection("conversations").Doc(conversation.ID)
		if err := tx.Set(ref, &conversation); err != nil {
			return errors.Internal("Failed to create conversation", err)
		}

		result = &conversation
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, created, nil
}

func (r *firestoreChatRepository) GetConversationByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreChatRepository) ListConversationsByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	query := r.client.Collection("conversations").Where("participants", "array-contains", userID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch conversations", err)
	}

	var conversations []*entity.Conversation
	for _, doc := range docs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return nil, errors.Internal("Failed to parse conversation data", err)
		}
		conversations = append(conversations, &conversation)
	}

	// Most recent activity first; ties broken by id for a stable order
	// across repeated polls.
	sort.Slice(conversations, func(i, j int) bool {
		ai, aj := conversations[i].LastActivityAt(), conversations[j].LastActivityAt()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return conversations[i].ID < conversations[j].ID
	})

	return conversations, nil
}

func (r *firestoreChatRepository) AppendMessage(ctx context.Context, conversationID, senderID, text string) (*entity.Message, error) {
	convRef := r.client.Collection("conversations").Doc(conversationID)

	var message *entity.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(convRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", err)
			}
			return errors.Internal("Failed to get conversation", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return errors.Internal("Failed to parse conversation data", err)
		}

		seq := conversation.LastSeq + 1
		now := time.Now()

		m := &entity.Message{
			ID:             uuid.New().String(),
			ConversationID: conversationID,
			SenderID:       senderID,
			Text:           text,
			Seq:            seq,
			Read:           false,
			CreatedAt:      now,
		}

		msgRef := convRef.Collection("messages").Doc(m.ID)
		if err := tx.Set(msgRef, m); err != nil {
			return errors.Internal("Failed to create message", err)
		}

		recipient := conversation.OtherParticipant(senderID)
		updates := []firestore.Update{
			{Path: "lastSeq", Value: seq},
			{Path: "lastMessage", Value: &entity.MessageSnapshot{Text: text, SenderID: senderID, CreatedAt: now}},
			{Path: "updatedAt", Value: now},
			{FieldPath: firestore.FieldPath{"unreadCount", recipient}, Value: firestore.Increment(1)},
		}
		if err := tx.Update(convRef, updates); err != nil {
			return errors.Internal("Failed to update conversation", err)
		}

		message = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

func (r *firestoreChatRepository) ListMessagesSince(ctx context.Context, conversationID string, cursor int64, limit int) ([]*entity.Message, error) {
	query := r.client.Collection("conversations").Doc(conversationID).Collection("messages").
		Where("seq", ">", cursor).
		OrderBy("seq", firestore.Asc)

	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreChatRepository) MarkReadUpTo(ctx context.Context, conversationID, readerID string, uptoSeq int64) (int, error) {
	convRef := r.client.Collection("conversations").Doc(conversationID)

	flipped := 0
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		flipped = 0

		doc, err := tx.Get(convRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", err)
			}
			return errors.Internal("Failed to get conversation", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return errors.Internal("Failed to parse conversation data", err)
		}

		query := convRef.Collection("messages").
			Where("read", "==", false).
			Where("seq", "<=", uptoSeq)

		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return errors.Internal("Failed to query unread messages", err)
		}

		var refs []*firestore.DocumentRef
		for _, d := range docs {
			var message entity.Message
			if err := d.DataTo(&message); err != nil {
				return errors.Internal("Failed to parse message data", err)
			}
			if message.SenderID == readerID {
				continue
			}
			refs = append(refs, d.Ref)
		}

		for _, ref := range refs {
			if err := tx.Update(ref, []firestore.Update{{Path: "read", Value: true}}); err != nil {
				return errors.Internal("Failed to update message read flag", err)
			}
		}
		flipped = len(refs)

		if flipped == 0 {
			return nil
		}

		// Decrement by the number actually flipped, floored at zero, so a
		// second poll applying the same range is a no-op.
		remaining := conversation.UnreadCount[readerID] - flipped
		if remaining < 0 {
			remaining = 0
		}

		updates := []firestore.Update{
			{FieldPath: firestore.FieldPath{"unreadCount", readerID}, Value: remaining},
			{Path: "updatedAt", Value: time.Now()},
		}
		if err := tx.Update(convRef, updates); err != nil {
			return errors.Internal("Failed to update conversation", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return flipped, nil
}
