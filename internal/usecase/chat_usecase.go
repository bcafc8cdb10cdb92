package usecase

import (
	"context"
	"strings"

	"tradesafe/internal/domain/entity"
	"tradesafe/internal/domain/repository"
	"tradesafe/internal/infrastructure/ratelimit"
	"tradesafe/pkg/errors"
	"tradesafe/pkg/logger"
)

const defaultMessagePageSize = 100

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		rateLimiter: rateLimiter,
	}
}

type StartConversationInput struct {
	ListingID      string
	RecipientID    string
	InitialMessage string
}

type SendMessageInput struct {
	ConversationID string
	Text           string
}

type ConversationResponse struct {
	*entity.Conversation
	OtherUser *entity.User `json:"other_user,omitempty"`
}

type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// MessagePage is one cursor-bounded slice of a conversation. Feeding
// NextCursor back in yields the following slice; repeating until empty
// reproduces the full ordered sequence without gaps or duplicates.
type MessagePage struct {
	Messages   []*entity.Message `json:"messages"`
	NextCursor int64             `json:"next_cursor"`
}

// StartConversation returns the conversation for (listing, caller,
// recipient), creating it if needed. The recipient defaults to the listing's
// seller. Deterministic: repeated calls return the same conversation.
func (uc *ChatUseCase) StartConversation(ctx context.Context, userID string, input StartConversationInput) (*ConversationResponse, error) {
	allowed, _ := uc.rateLimiter.Allow(userID, "create_conversation")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another conversation")
	}

	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}

	recipientID := input.RecipientID
	if recipientID == "" {
		recipientID = listing.SellerID
	}

	if userID == recipientID {
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	recipient, err := uc.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	conversation, created, err := uc.chatRepo.GetOrCreateConversation(ctx, entity.NewConversation(listing.ID, userID, recipientID))
	if err != nil {
		return nil, err
	}
	if created {
		logger.Debug("Created conversation %s for listing %s", conversation.ID, listing.ID)
	}

	if strings.TrimSpace(input.InitialMessage) != "" {
		if _, err := uc.SendMessage(ctx, userID, SendMessageInput{
			ConversationID: conversation.ID,
			Text:           input.InitialMessage,
		}); err != nil {
			return nil, err
		}

		conversation, err = uc.chatRepo.GetConversationByID(ctx, conversation.ID)
		if err != nil {
			return nil, err
		}
	}

	return &ConversationResponse{
		Conversation: conversation,
		OtherUser:    recipient,
	}, nil
}

// SendMessage appends a message and updates the recipient's unread counter
// and the conversation's last-message snapshot as one unit: a poller never
// observes one without the other.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*MessageResponse, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.BadRequest("Message text cannot be empty", nil)
	}

	allowed, _ := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	conversation, err := uc.chatRepo.GetConversationByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(senderID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	message, err := uc.chatRepo.AppendMessage(ctx, conversation.ID, senderID, text)
	if err != nil {
		return nil, err
	}

	resp := &MessageResponse{Message: message}
	if sender, err := uc.userRepo.GetByID(ctx, senderID); err == nil {
		resp.Sender = sender
	}

	return resp, nil
}

// ListConversations returns the caller's full conversation snapshot, most
// recent activity first. Read-only and idempotent; safe to re-poll.
func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string) ([]*ConversationResponse, error) {
	conversations, err := uc.chatRepo.ListConversationsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		resp := &ConversationResponse{Conversation: conversation}

		otherID := conversation.OtherParticipant(userID)
		if otherID != "" {
			otherUser, err := uc.userRepo.GetByID(ctx, otherID)
			if err == nil {
				resp.OtherUser = otherUser
			} else {
				logger.Warn("Other user %s not found for conversation %s: %v", otherID, conversation.ID, err)
			}
		}

		responses = append(responses, resp)
	}

	return responses, nil
}

// ListMessages returns messages with sequence greater than cursor, oldest
// first. Cursor 0 reads from the beginning. Read-only.
func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, conversationID string, cursor int64, limit int) (*MessagePage, error) {
	conversation, err := uc.chatRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	if cursor < 0 {
		cursor = 0
	}
	if limit <= 0 || limit > defaultMessagePageSize {
		limit = defaultMessagePageSize
	}

	messages, err := uc.chatRepo.ListMessagesSince(ctx, conversationID, cursor, limit)
	if err != nil {
		return nil, err
	}

	nextCursor := cursor
	if len(messages) > 0 {
		nextCursor = messages[len(messages)-1].Seq
	}

	return &MessagePage{
		Messages:   messages,
		NextCursor: nextCursor,
	}, nil
}

// MarkRead flips the read flag on the other participant's messages up to and
// including uptoSeq and reconciles the reader's unread counter. Idempotent:
// re-applying the same or a smaller bound changes nothing. Returns the
// number of messages newly marked.
func (uc *ChatUseCase) MarkRead(ctx context.Context, readerID, conversationID string, uptoSeq int64) (int, error) {
	if uptoSeq < 0 {
		return 0, errors.BadRequest("upto_seq must not be negative", nil)
	}

	conversation, err := uc.chatRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}

	if !conversation.HasParticipant(readerID) {
		return 0, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	return uc.chatRepo.MarkReadUpTo(ctx, conversationID, readerID, uptoSeq)
}
