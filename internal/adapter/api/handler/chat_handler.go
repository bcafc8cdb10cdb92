package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"tradesafe/internal/usecase"
	"tradesafe/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type startConversationRequest struct {
	ListingID      string `json:"listing_id" validate:"required"`
	RecipientID    string `json:"recipient_id,omitempty"`
	InitialMessage string `json:"initial_message,omitempty"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type markReadRequest struct {
	UptoSeq int64 `json:"upto_seq" validate:"min=0"`
}

// StartConversation gets or creates the conversation between the caller and
// the recipient about a listing. Calling it twice returns the same
// conversation.
func (h *ChatHandler) StartConversation(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	conversation, err := h.chatUseCase.StartConversation(c.Request().Context(), userID, usecase.StartConversationInput{
		ListingID:      req.ListingID,
		RecipientID:    req.RecipientID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ChatHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversations, err := h.chatUseCase.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

// ListMessages returns messages newer than the cursor, oldest first, along
// with the cursor for the next poll.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	var cursor int64
	if cursorStr := c.QueryParam("cursor"); cursorStr != "" {
		if parsedCursor, err := strconv.ParseInt(cursorStr, 10, 64); err == nil {
			cursor = parsedCursor
		}
	}

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil {
			limit = parsedLimit
		}
	}

	page, err := h.chatUseCase.ListMessages(c.Request().Context(), userID, conversationID, cursor, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, page)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	senderID := c.Get("uid").(string)
	conversationID := c.Param("id")

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), senderID, usecase.SendMessageInput{
		ConversationID: conversationID,
		Text:           req.Text,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// MarkRead acknowledges messages up to a sequence number and returns how many
// were newly marked. Safe to repeat.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	readerID := c.Get("uid").(string)
	conversationID := c.Param("id")

	marked, err := h.chatUseCase.MarkRead(c.Request().Context(), readerID, conversationID, req.UptoSeq)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"marked_read": marked,
	})
}
