package repository

import (
	"context"

	"tradesafe/internal/domain/entity"
)

type ChatRepository interface {
	// GetOrCreateConversation returns the conversation for the candidate's
	// (listingId, pairKey), creating it when absent. Deterministic under
	// concurrent callers: exactly one conversation exists per key. The bool
	// reports whether a new conversation was created.
	GetOrCreateConversation(ctx context.Context, candidate *entity.Conversation) (*entity.Conversation, bool, error)

	GetConversationByID(ctx context.Context, id string) (*entity.Conversation, error)

	// ListConversationsByUserID returns the user's conversations ordered by
	// last activity, most recent first, ties broken by conversation id.
	ListConversationsByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error)

	// AppendMessage assigns the next per-conversation sequence number,
	// stores the message, and updates the conversation's last-message
	// snapshot and the recipient's unread counter as one atomic unit.
	AppendMessage(ctx context.Context, conversationID, senderID, text string) (*entity.Message, error)

	// ListMessagesSince returns messages with sequence > cursor, oldest
	// first, capped at limit.
	ListMessagesSince(ctx context.Context, conversationID string, cursor int64, limit int) ([]*entity.Message, error)

	// MarkReadUpTo flips read=true on messages authored by someone other
	// than readerID with sequence <= uptoSeq and decrements the reader's
	// unread counter by the number of messages actually flipped, floored at
	// zero. Idempotent. Returns the flip count.
	MarkReadUpTo(ctx context.Context, conversationID, readerID string, uptoSeq int64) (int, error)
}
