package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/api_gateway/service"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/session"
)

// SessionHandler handles login and the operations of a logged-in customer
type SessionHandler struct {
	sessions service.SessionService
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(logger *slog.Logger, sessions service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Login opens a session for a username and password
func (h *SessionHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	s, err := h.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	RespondCreated(c, mapSessionToResponse(s))
}

// Get returns the session's cached account view without touching the store
func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	RespondOK(c, mapSessionToResponse(s))
}

// Refresh reloads the cached view from the account store
func (h *SessionHandler) Refresh(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := s.Customer.Refresh(c.Request.Context()); err != nil {
		respondError(c, h.logger, "refresh", err)
		return
	}
	RespondOK(c, mapSessionToResponse(s))
}

// Logout closes the session
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Param("id")); err != nil {
		respondError(c, h.logger, "logout", err)
		return
	}
	RespondNoContent(c)
}

func (h *SessionHandler) Deposit(c *gin.Context) {
	s, amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	entry, err := s.Customer.Deposit(c.Request.Context(), amount)
	if err != nil {
		respondError(c, h.logger, "deposit", err)
		return
	}
	RespondCreated(c, OperationResponse{
		Entry:   mapLedgerEntryToResponse(entry),
		Balance: shared.FormatAmount(s.Customer.Balance()),
	})
}

func (h *SessionHandler) Withdraw(c *gin.Context) {
	s, amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	entry, err := s.Customer.Withdraw(c.Request.Context(), amount)
	if err != nil {
		respondError(c, h.logger, "withdraw", err)
		return
	}
	RespondCreated(c, OperationResponse{
		Entry:   mapLedgerEntryToResponse(entry),
		Balance: shared.FormatAmount(s.Customer.Balance()),
	})
}

// Transfer moves money from the session's account to another account
func (h *SessionHandler) Transfer(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := shared.ParseAmount(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	result, err := s.Customer.Transfer(c.Request.Context(), req.ToAccountID, amount)
	if err != nil {
		respondError(c, h.logger, "transfer", err)
		return
	}
	RespondCreated(c, TransferResponse{
		TransferID: result.TransferID.String(),
		Incoming:   mapLedgerEntryToResponse(result.Incoming),
		Outgoing:   mapLedgerEntryToResponse(result.Outgoing),
		Balance:    shared.FormatAmount(s.Customer.Balance()),
	})
}

func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get session", err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) bindAmount(c *gin.Context) (*session.Session, decimal.Decimal, bool) {
	s, ok := h.lookup(c)
	if !ok {
		return nil, decimal.Zero, false
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return nil, decimal.Zero, false
	}
	amount, err := shared.ParseAmount(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return nil, decimal.Zero, false
	}
	return s, amount, true
}

func mapSessionToResponse(s *session.Session) SessionResponse {
	v := s.Customer.View()
	return SessionResponse{
		SessionID: s.ID,
		Customer: CustomerResponse{
			AccountID:   v.AccountID,
			FirstName:   v.FirstName,
			LastName:    v.LastName,
			AccountType: string(v.AccountType),
			Balance:     shared.FormatAmount(v.Balance),
			SyncedAt:    v.SyncedAt.Format(time.RFC3339),
			Details:     s.Customer.Details(),
		},
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}
