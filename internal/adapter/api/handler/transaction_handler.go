package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"tradesafe/internal/domain/entity"
	"tradesafe/internal/usecase"
	"tradesafe/pkg/response"
)

type TransactionHandler struct {
	transactionUseCase *usecase.TransactionUseCase
}

func NewTransactionHandler(transactionUseCase *usecase.TransactionUseCase) *TransactionHandler {
	return &TransactionHandler{
		transactionUseCase: transactionUseCase,
	}
}

type createTransactionRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
}

type transitionRequest struct {
	TargetStatus    string `json:"target_status" validate:"required"`
	ExpectedVersion int    `json:"expected_version" validate:"required,min=1"`
	TrackingNumber  string `json:"tracking_number,omitempty"`
}

// CreateTransaction opens an escrow transaction; the caller is the buyer and
// the seller is resolved from the listing.
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	var req createTransactionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	buyerID := c.Get("uid").(string)

	transaction, err := h.transactionUseCase.CreateTransaction(c.Request().Context(), buyerID, usecase.CreateTransactionInput{
		ListingID: req.ListingID,
		Amount:    req.Amount,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, transaction)
}

// Transition applies one status change. A stale expected_version yields 409,
// an edge outside the table 422, an unauthorized actor 403.
func (h *TransactionHandler) Transition(c echo.Context) error {
	transactionID := c.Param("id")
	actorID := c.Get("uid").(string)

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	transaction, err := h.transactionUseCase.Transition(c.Request().Context(), actorID, transactionID, usecase.TransitionInput{
		TargetStatus:    entity.Status(req.TargetStatus),
		ExpectedVersion: req.ExpectedVersion,
		TrackingNumber:  req.TrackingNumber,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, transaction)
}

func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	transactionID := c.Param("id")
	userID := c.Get("uid").(string)

	transaction, err := h.transactionUseCase.GetTransactionByID(c.Request().Context(), userID, transactionID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, transaction)
}

func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID := c.Get("uid").(string)
	role := c.QueryParam("role")

	page := 1
	limit := 20

	if pageStr := c.QueryParam("page"); pageStr != "" {
		if parsedPage, err := strconv.Atoi(pageStr); err == nil && parsedPage > 0 {
			page = parsedPage
		}
	}

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	transactions, total, err := h.transactionUseCase.ListTransactions(c.Request().Context(), userID, role, page, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, transactions, total, page, limit)
}

// GetStatusHistory exposes the append-only audit trail.
func (h *TransactionHandler) GetStatusHistory(c echo.Context) error {
	transactionID := c.Param("id")
	userID := c.Get("uid").(string)

	history, err := h.transactionUseCase.GetStatusHistory(c.Request().Context(), userID, transactionID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, history)
}
