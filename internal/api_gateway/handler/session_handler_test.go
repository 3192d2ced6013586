package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/data/memory"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/credential"
	"github.com/starkbank-ledger/internal/session"
	"github.com/starkbank-ledger/internal/transaction_processor/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	router   *gin.Engine
	accounts *memory.AccountRepository
	registry *session.Registry
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := discardLogger()
	cfg := &config.Config{Ledger: config.LedgerConfig{TransferPolicy: config.TransferPolicyReport, LockTimeout: time.Second}}

	accounts := memory.NewAccountRepository()
	credentials := memory.NewCredentialRepository()
	engine := components.CreateLedgerService(accounts, memory.NewLedgerRepository(), nil, nil, logger, cfg)
	registry := session.NewRegistry(logger, credentials, accounts, engine)

	for _, seed := range []struct{ id, user, balance string }{
		{"1000000001", "ada", "100.00"},
		{"1000000002", "linus", "5.00"},
	} {
		require.NoError(t, accounts.Create(ctx, &account.Account{
			ID: seed.id, FirstName: seed.user, LastName: "Tester",
			Balance: decimal.RequireFromString(seed.balance), Type: account.TypeChecking,
		}))
		cred, err := credential.NewCredential(seed.user, "secret", seed.id)
		require.NoError(t, err)
		require.NoError(t, credentials.Add(ctx, cred))
	}

	h := NewSessionHandler(logger, registry)
	router := gin.New()
	router.POST("/sessions", h.Login)
	router.GET("/sessions/:id", h.Get)
	router.POST("/sessions/:id/refresh", h.Refresh)
	router.DELETE("/sessions/:id", h.Logout)
	router.POST("/sessions/:id/deposits", h.Deposit)
	router.POST("/sessions/:id/withdrawals", h.Withdraw)
	router.POST("/sessions/:id/transfers", h.Transfer)

	return &sessionFixture{router: router, accounts: accounts, registry: registry}
}

func (f *sessionFixture) login(t *testing.T, username string) string {
	t.Helper()
	rr := serve(f.router, http.MethodPost, "/sessions", LoginRequest{Username: username, Password: "secret"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[SessionResponse](t, rr).Data.SessionID
}

func TestSessionHandler_Login(t *testing.T) {
	f := newSessionFixture(t)

	rr := serve(f.router, http.MethodPost, "/sessions", LoginRequest{Username: "ada", Password: "secret"})
	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decode[SessionResponse](t, rr)
	assert.NotEmpty(t, resp.Data.SessionID)
	assert.Equal(t, "1000000001", resp.Data.Customer.AccountID)
	assert.Equal(t, "100.00", resp.Data.Customer.Balance)
	assert.Contains(t, resp.Data.Customer.Details, "Account Balance: $100.00")

	rr = serve(f.router, http.MethodPost, "/sessions", LoginRequest{Username: "ada", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(f.router, http.MethodPost, "/sessions", LoginRequest{Username: "nobody", Password: "secret"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(f.router, http.MethodPost, "/sessions", `{"username":"ada"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_Operations(t *testing.T) {
	f := newSessionFixture(t)
	ada := f.login(t, "ada")
	base := "/sessions/" + ada

	rr := serve(f.router, http.MethodPost, base+"/deposits", AmountRequest{Amount: "50"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	op := decode[OperationResponse](t, rr)
	assert.Equal(t, "150.00", op.Data.Balance)
	assert.Equal(t, "Deposit $50.00", op.Data.Entry.Description)

	rr = serve(f.router, http.MethodPost, base+"/withdrawals", AmountRequest{Amount: "30"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "120.00", decode[OperationResponse](t, rr).Data.Balance)

	rr = serve(f.router, http.MethodPost, base+"/transfers", TransferRequest{ToAccountID: "1000000002", Amount: "20"})
	require.Equal(t, http.StatusCreated, rr.Code)
	tr := decode[TransferResponse](t, rr)
	assert.Equal(t, "100.00", tr.Data.Balance)
	assert.Equal(t, "25.00", tr.Data.Incoming.BalanceAfter)
	assert.Equal(t, tr.Data.TransferID, tr.Data.Incoming.TransferID)
	assert.Equal(t, tr.Data.TransferID, tr.Data.Outgoing.TransferID)

	rr = serve(f.router, http.MethodPost, base+"/withdrawals", AmountRequest{Amount: "1000"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", decode[any](t, rr).Error.Code)

	rr = serve(f.router, http.MethodPost, base+"/deposits", AmountRequest{Amount: "-5"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(f.router, http.MethodPost, base+"/deposits", AmountRequest{Amount: "0.001"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(f.router, http.MethodPost, base+"/transfers", TransferRequest{ToAccountID: "1000000001", Amount: "1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(f.router, http.MethodPost, base+"/transfers", TransferRequest{ToAccountID: "1000000009", Amount: "1"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(f.router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "100.00", decode[SessionResponse](t, rr).Data.Customer.Balance)
}

func TestSessionHandler_RefreshPicksUpIncomingTransfers(t *testing.T) {
	f := newSessionFixture(t)
	ada := f.login(t, "ada")
	linus := f.login(t, "linus")

	rr := serve(f.router, http.MethodPost, "/sessions/"+ada+"/transfers", TransferRequest{ToAccountID: "1000000002", Amount: "40"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = serve(f.router, http.MethodGet, "/sessions/"+linus, nil)
	assert.Equal(t, "5.00", decode[SessionResponse](t, rr).Data.Customer.Balance)

	rr = serve(f.router, http.MethodPost, "/sessions/"+linus+"/refresh", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "45.00", decode[SessionResponse](t, rr).Data.Customer.Balance)
}

func TestSessionHandler_Logout(t *testing.T) {
	f := newSessionFixture(t)
	ada := f.login(t, "ada")

	rr := serve(f.router, http.MethodDelete, "/sessions/"+ada, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, f.registry.Count())

	rr = serve(f.router, http.MethodDelete, "/sessions/"+ada, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(f.router, http.MethodPost, "/sessions/"+ada+"/deposits", AmountRequest{Amount: "1"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
