package entity

import (
	"strings"
	"time"
)

// Conversation is a chat thread scoped to one listing and one buyer/seller
// pair. It is created lazily on first contact and never deleted.
type Conversation struct {
	ID           string   `json:"id" firestore:"id"`
	ListingID    string   `json:"listing_id" firestore:"listingId"`
	Participants []string `json:"participants" firestore:"participants"`

	// PairKey is the sorted participant pair joined with "|"; together with
	// ListingID it uniquely identifies the conversation.
	PairKey string `json:"-" firestore:"pairKey"`

	// LastMessage is a denormalized snapshot maintained by the message append
	// path only.
	LastMessage *MessageSnapshot `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`

	// UnreadCount maps participant id to the number of messages authored by
	// the other participant that the participant has not read yet.
	UnreadCount map[string]int `json:"unread_count" firestore:"unreadCount"`

	// LastSeq is the per-conversation message sequence counter; message
	// sequence numbers are assigned from it under a serialized update.
	LastSeq int64 `json:"last_seq" firestore:"lastSeq"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

type MessageSnapshot struct {
	Text      string    `json:"text" firestore:"text"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// PairKey builds the canonical key for an unordered participant pair.
func PairKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + "|" + userB
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID. Callers check
// HasParticipant first.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// LastActivityAt is the ordering key for conversation lists: last message
// time when present, otherwise creation time.
func (c *Conversation) LastActivityAt() time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return c.CreatedAt
}

func sortedPair(userA, userB string) []string {
	if strings.Compare(userA, userB) > 0 {
		return []string{userB, userA}
	}
	return []string{userA, userB}
}

// NewConversation builds an empty conversation for a listing and pair with
// zeroed unread counters. Participants are stored sorted for determinism.
func NewConversation(listingID, userA, userB string) *Conversation {
	pair := sortedPair(userA, userB)
	return &Conversation{
		ListingID:    listingID,
		Participants: pair,
		PairKey:      PairKey(userA, userB),
		UnreadCount:  map[string]int{pair[0]: 0, pair[1]: 0},
	}
}
