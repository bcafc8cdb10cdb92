package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	assert.Equal(t, "alice|bob", PairKey("bob", "alice"))
}

func TestNewConversation(t *testing.T) {
	conversation := NewConversation("listing-1", "bob", "alice")

	assert.Equal(t, []string{"alice", "bob"}, conversation.Participants)
	assert.Equal(t, "alice|bob", conversation.PairKey)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 0}, conversation.UnreadCount)
	assert.Zero(t, conversation.LastSeq)
	assert.Nil(t, conversation.LastMessage)
}

func TestConversationParticipants(t *testing.T) {
	conversation := NewConversation("listing-1", "alice", "bob")

	assert.True(t, conversation.HasParticipant("alice"))
	assert.True(t, conversation.HasParticipant("bob"))
	assert.False(t, conversation.HasParticipant("carol"))

	assert.Equal(t, "bob", conversation.OtherParticipant("alice"))
	assert.Equal(t, "alice", conversation.OtherParticipant("bob"))
}

func TestLastActivityAt(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	conversation := NewConversation("listing-1", "alice", "bob")
	conversation.CreatedAt = created

	assert.Equal(t, created, conversation.LastActivityAt())

	sent := created.Add(time.Hour)
	conversation.LastMessage = &MessageSnapshot{Text: "hi", SenderID: "alice", CreatedAt: sent}
	assert.Equal(t, sent, conversation.LastActivityAt())
}
