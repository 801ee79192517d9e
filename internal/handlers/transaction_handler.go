package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "monedero/internal/errors"
	"monedero/internal/models"
	"monedero/internal/pagination"
	"monedero/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	PocketID    string  `json:"pocket_id" binding:"required"`
	CategoryID  *string `json:"category_id"`
	Type        string  `json:"type" binding:"required,category_type"`
	Amount      int64   `json:"amount" binding:"required,gt=0"`
	Date        *string `json:"date"`
	Description string  `json:"description" binding:"max=500"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
type UpdateTransactionRequest struct {
	PocketID    *string `json:"pocket_id"`
	CategoryID  *string `json:"category_id"`
	Type        *string `json:"type" binding:"omitempty,category_type"`
	Amount      *int64  `json:"amount" binding:"omitempty,gt=0"`
	Date        *string `json:"date"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// CreateTransferRequest represents the request payload for a pocket transfer.
type CreateTransferRequest struct {
	FromPocketID string `json:"from_pocket_id" binding:"required"`
	ToPocketID   string `json:"to_pocket_id" binding:"required"`
	Amount       int64  `json:"amount" binding:"required,gt=0"`
	Description  string `json:"description" binding:"max=500"`
}

// parseDate accepts dates as "2006-01-02" or RFC 3339.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date format, expected YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}

// CreateTransaction handles the creation of a new income or expense
// @Summary     Create a transaction
// @Description Record an income or expense against a pocket; the pocket balance is adjusted atomically
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       group_id query string false "Group context"
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Pocket or category not found"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var date time.Time
	if req.Date != nil && *req.Date != "" {
		date, err = parseDate(*req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	transaction, err := h.transactionService.CreateTransaction(
		scope,
		req.PocketID,
		req.CategoryID,
		models.TransactionType(req.Type),
		req.Amount,
		date,
		req.Description,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions lists transactions of the active context
// @Summary     List transactions
// @Description List incomes and expenses of the context, newest first; transfers only when type=transfer
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       group_id query string false "Group context"
// @Param       type query string false "Type filter (income|expense|transfer)"
// @Param       pocket_id query string false "Pocket filter"
// @Param       category_id query string false "Category filter"
// @Param       from_date query string false "Start date (YYYY-MM-DD)"
// @Param       to_date query string false "End date (YYYY-MM-DD)"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.TransactionFilter
	if t := c.Query("type"); t != "" {
		transactionType := models.TransactionType(t)
		switch transactionType {
		case models.TransactionTypeIncome, models.TransactionTypeExpense, models.TransactionTypeTransfer:
			filter.Type = &transactionType
		default:
			respondWithError(c, apperrors.ErrInvalidTransactionType)
			return
		}
	}
	if pocketID := c.Query("pocket_id"); pocketID != "" {
		filter.PocketID = &pocketID
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filter.CategoryID = &categoryID
	}
	if from := c.Query("from_date"); from != "" {
		date, err := parseDate(from)
		if err != nil {
			respondWithError(c, err)
			return
		}
		filter.FromDate = &date
	}
	if to := c.Query("to_date"); to != "" {
		date, err := parseDate(to)
		if err != nil {
			respondWithError(c, err)
			return
		}
		filter.ToDate = &date
	}

	response, err := h.transactionService.GetTransactions(scope, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetTransaction returns a single transaction
// @Summary     Get a transaction
// @Description Get one transaction of the active context by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       group_id query string false "Group context"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(scope, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction edits an income or expense
// @Summary     Update a transaction
// @Description Edit a transaction; its old balance effect is reversed and the new one applied atomically
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       group_id query string false "Group context"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input or transfer row"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.TransactionUpdate{
		Amount:      req.Amount,
		PocketID:    req.PocketID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
	}
	if req.Type != nil {
		transactionType := models.TransactionType(*req.Type)
		update.Type = &transactionType
	}
	if req.Date != nil && *req.Date != "" {
		date, err := parseDate(*req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
		update.Date = &date
	}

	transaction, err := h.transactionService.UpdateTransaction(scope, c.Param("id"), update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction deletes a transaction
// @Summary     Delete a transaction
// @Description Delete a transaction and reverse its balance effect; transfers reverse both pockets
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       group_id query string false "Group context"
// @Success     204 "Transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(scope, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateTransfer moves money between two pockets of the same context
// @Summary     Transfer between pockets
// @Description Move an amount between two pockets of the same context; both balances change atomically
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       group_id query string false "Group context"
// @Param       request body CreateTransferRequest true "Transfer details"
// @Success     201 {object} models.Transaction "Transfer recorded"
// @Failure     400 {object} ErrorResponse "Invalid input, same pocket, cross-context or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Pocket not found"
// @Router      /transfers [post]
func (h *TransactionHandler) CreateTransfer(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.transactionService.CreateTransfer(scope, req.FromPocketID, req.ToPocketID, req.Amount, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction": result.Transaction,
		"from_pocket": pocketResponse(result.From),
		"to_pocket":   pocketResponse(result.To),
	})
}
