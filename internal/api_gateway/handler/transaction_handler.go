package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/starkbank-ledger/internal/api_gateway/middleware"
	"github.com/starkbank-ledger/internal/api_gateway/service"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
)

// TransactionHandler handles HTTP requests for queued transactions and history
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Create queues a deposit, withdrawal or transfer for the transaction processor
func (h *TransactionHandler) Create(c *gin.Context) {
	var req SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := shared.ParseAmount(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	transactionType := shared.TransactionType(req.Type)
	if transactionType == shared.TransactionTypeTransfer && req.ToAccountID == "" {
		RespondBadRequest(c, "to_account_id is required for transfers")
		return
	}

	transactionRequest := &shared.TransactionRequest{
		TransactionID:  uuid.New(),
		AccountID:      req.AccountID,
		CounterpartyID: req.ToAccountID,
		Type:           transactionType,
		Amount:         amount,
		CorrelationID:  middleware.GetCorrelationID(c),
		Timestamp:      time.Now().UTC(),
	}

	transactionID, err := h.transactionService.SubmitTransaction(c.Request.Context(), transactionRequest)
	if err != nil {
		respondError(c, h.logger, "submit transaction", err)
		return
	}

	RespondAccepted(c, gin.H{
		"transaction_id": transactionID,
		"status":         "PENDING",
	})
}

// GetByAccountID retrieves paginated transaction history for an account
func (h *TransactionHandler) GetByAccountID(c *gin.Context) {
	accountID := c.Param("id")

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.transactionService.GetTransactionsByAccountID(
		c.Request.Context(),
		accountID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		respondError(c, h.logger, "get transactions", err)
		return
	}

	transactions := make([]TransactionResponse, 0, len(entries))
	for _, entry := range entries {
		transactions = append(transactions, mapLedgerEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, transactions, pagination.Page, pagination.PerPage, total)
}

func mapLedgerEntryToResponse(entry *ledger.Entry) TransactionResponse {
	response := TransactionResponse{
		TransactionID:  entry.TransactionID.String(),
		AccountID:      entry.AccountID,
		Type:           string(entry.Type),
		Amount:         shared.FormatAmount(entry.Amount),
		CounterpartyID: entry.CounterpartyID,
		BalanceAfter:   shared.FormatAmount(entry.BalanceAfter),
		Description:    entry.Description(),
		CreatedAt:      entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.TransferID != uuid.Nil {
		response.TransferID = entry.TransferID.String()
	}
	return response
}
