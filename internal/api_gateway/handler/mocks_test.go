package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/starkbank-ledger/internal/api_gateway/service"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// envelope is a generic version of Envelope for decoding test bodies
type envelope[T any] struct {
	Data          T         `json:"data"`
	Error         *APIError `json:"error,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Meta          *PageMeta `json:"meta,omitempty"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func serve(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewBuffer(payload)
	}
	req, _ := http.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Signup(ctx context.Context, input service.SignupInput) (*account.Account, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, id string) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) SubmitTransaction(ctx context.Context, transactionRequest *shared.TransactionRequest) (string, error) {
	args := m.Called(ctx, transactionRequest)
	return args.String(0), args.Error(1)
}

func (m *MockTransactionService) GetTransactionsByAccountID(ctx context.Context, accountID string, page, perPage int) ([]*ledger.Entry, int, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Int(1), args.Error(2)
}
