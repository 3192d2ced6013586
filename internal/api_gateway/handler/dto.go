package handler

// Amounts travel as decimal strings such as "150.00" so no precision is lost to floats.

// SignupRequest represents a request to open a new account with its login
type SignupRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	Username       string `json:"username" binding:"required"`
	Password       string `json:"password" binding:"required"`
	InitialBalance string `json:"initial_balance" binding:"required"`
	AccountType    string `json:"account_type" binding:"required"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	AccountType string `json:"account_type"`
	Balance     string `json:"balance"`
}

// SubmitTransactionRequest represents a request queued for asynchronous processing
type SubmitTransactionRequest struct {
	AccountID   string `json:"account_id" binding:"required"`
	ToAccountID string `json:"to_account_id,omitempty"`
	Type        string `json:"type" binding:"required,oneof=DEPOSIT WITHDRAWAL TRANSFER"`
	Amount      string `json:"amount" binding:"required"`
}

// TransactionResponse represents a history entry in API responses
type TransactionResponse struct {
	TransactionID  string `json:"transaction_id"`
	TransferID     string `json:"transfer_id,omitempty"`
	AccountID      string `json:"account_id"`
	Type           string `json:"type"`
	Amount         string `json:"amount"`
	CounterpartyID string `json:"counterparty_id,omitempty"`
	BalanceAfter   string `json:"balance_after"`
	Description    string `json:"description"`
	CreatedAt      string `json:"created_at"`
}

// LoginRequest represents a request to open a session
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AmountRequest is the body of session deposits and withdrawals
type AmountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// TransferRequest is the body of a session transfer
type TransferRequest struct {
	ToAccountID string `json:"to_account_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
}

// SessionResponse represents an open session and its cached account view
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	Customer  CustomerResponse `json:"customer"`
	CreatedAt string           `json:"created_at"`
}

// CustomerResponse is the cached view held by a session
type CustomerResponse struct {
	AccountID   string `json:"account_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	AccountType string `json:"account_type"`
	Balance     string `json:"balance"`
	SyncedAt    string `json:"synced_at"`
	Details     string `json:"details"`
}

// OperationResponse reports a completed session operation and the new cached balance
type OperationResponse struct {
	Entry   TransactionResponse `json:"entry"`
	Balance string              `json:"balance"`
}

// TransferResponse reports both legs of a completed transfer
type TransferResponse struct {
	TransferID string              `json:"transfer_id"`
	Incoming   TransactionResponse `json:"incoming"`
	Outgoing   TransactionResponse `json:"outgoing"`
	Balance    string              `json:"balance"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
