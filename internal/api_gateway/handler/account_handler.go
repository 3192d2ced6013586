package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/starkbank-ledger/internal/api_gateway/service"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/shared"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create opens a new account together with its login
func (h *AccountHandler) Create(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	initialBalance, err := shared.ParseAmount(req.InitialBalance)
	if err != nil {
		RespondBadRequest(c, "Invalid initial balance")
		return
	}
	accountType, err := account.ParseType(req.AccountType)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	acc, err := h.accountService.Signup(c.Request.Context(), service.SignupInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Username:       req.Username,
		Password:       req.Password,
		InitialBalance: initialBalance,
		AccountType:    accountType,
	})
	if err != nil {
		respondError(c, h.logger, "signup", err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its account number, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	acc, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get account", err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:          acc.ID,
		FirstName:   acc.FirstName,
		LastName:    acc.LastName,
		AccountType: string(acc.Type),
		Balance:     shared.FormatAmount(acc.Balance),
	}
}
