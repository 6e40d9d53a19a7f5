package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"bankcore/internal/auth"
	"bankcore/internal/config"
	"bankcore/internal/services"
	"bankcore/internal/store"
	"bankcore/internal/validator"
	"bankcore/internal/websocket"
)

// stubBackend implements every handler dependency with overridable function
// fields; nil fields fail loudly via the zero result.
type stubBackend struct {
	submitDeposit    func(ctx context.Context, req services.DepositRequest) (services.TransactionResult, error)
	submitWithdrawal func(ctx context.Context, req services.WithdrawalRequest) (services.TransactionResult, error)
	submitTransfer   func(ctx context.Context, req services.TransferRequest) (services.TransactionResult, error)
	cancel           func(ctx context.Context, transactionID, requesterID string) (services.TransactionResult, error)
	getTransaction   func(ctx context.Context, transactionID string) (store.Transaction, error)
	listByAccount    func(ctx context.Context, accountID string, limit, offset int) ([]store.Transaction, error)
	decide           func(ctx context.Context, req services.DecisionRequest) (services.TransactionResult, error)
	listPending      func(ctx context.Context, branchID string) ([]store.Transaction, error)
	reverse          func(ctx context.Context, transactionID, requesterID, reason string) (services.TransactionResult, error)
	getBalance       func(ctx context.Context, accountID string) (services.BalanceView, error)
	statement        func(ctx context.Context, accountID string, limit, offset int) ([]store.LedgerEntry, error)
	auditTrail       func(ctx context.Context, transactionID string, limit, offset int) ([]store.AuditLog, error)
	reconcile        func(ctx context.Context, accountID string) (services.ReconciliationView, error)
	createAccount    func(ctx context.Context, account store.Account) error
	getByNumber      func(ctx context.Context, accountNumber string) (store.Account, error)
	getByOwner       func(ctx context.Context, ownerID string) ([]store.AccountBalanceSummary, error)
	getRole          func(ctx context.Context, userID string) (string, string, error)
	assignRole       func(ctx context.Context, userID, role, branchID string) error
}

func (s *stubBackend) SubmitDeposit(ctx context.Context, req services.DepositRequest) (services.TransactionResult, error) {
	return s.submitDeposit(ctx, req)
}

func (s *stubBackend) SubmitWithdrawal(ctx context.Context, req services.WithdrawalRequest) (services.TransactionResult, error) {
	return s.submitWithdrawal(ctx, req)
}

func (s *stubBackend) SubmitTransfer(ctx context.Context, req services.TransferRequest) (services.TransactionResult, error) {
	return s.submitTransfer(ctx, req)
}

func (s *stubBackend) Cancel(ctx context.Context, transactionID, requesterID string) (services.TransactionResult, error) {
	return s.cancel(ctx, transactionID, requesterID)
}

func (s *stubBackend) GetTransaction(ctx context.Context, transactionID string) (store.Transaction, error) {
	return s.getTransaction(ctx, transactionID)
}

func (s *stubBackend) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.Transaction, error) {
	return s.listByAccount(ctx, accountID, limit, offset)
}

func (s *stubBackend) Decide(ctx context.Context, req services.DecisionRequest) (services.TransactionResult, error) {
	return s.decide(ctx, req)
}

func (s *stubBackend) ListPending(ctx context.Context, branchID string) ([]store.Transaction, error) {
	return s.listPending(ctx, branchID)
}

func (s *stubBackend) Reverse(ctx context.Context, transactionID, requesterID, reason string) (services.TransactionResult, error) {
	return s.reverse(ctx, transactionID, requesterID, reason)
}

func (s *stubBackend) GetBalance(ctx context.Context, accountID string) (services.BalanceView, error) {
	return s.getBalance(ctx, accountID)
}

func (s *stubBackend) Statement(ctx context.Context, accountID string, limit, offset int) ([]store.LedgerEntry, error) {
	return s.statement(ctx, accountID, limit, offset)
}

func (s *stubBackend) AuditTrail(ctx context.Context, transactionID string, limit, offset int) ([]store.AuditLog, error) {
	return s.auditTrail(ctx, transactionID, limit, offset)
}

func (s *stubBackend) Reconcile(ctx context.Context, accountID string) (services.ReconciliationView, error) {
	return s.reconcile(ctx, accountID)
}

func (s *stubBackend) Create(ctx context.Context, account store.Account) error {
	return s.createAccount(ctx, account)
}

func (s *stubBackend) Assign(ctx context.Context, userID, role, branchID string) error {
	if s.assignRole == nil {
		return nil
	}
	return s.assignRole(ctx, userID, role, branchID)
}

func (s *stubBackend) GetByNumber(ctx context.Context, accountNumber string) (store.Account, error) {
	return s.getByNumber(ctx, accountNumber)
}

func (s *stubBackend) GetByOwner(ctx context.Context, ownerID string) ([]store.AccountBalanceSummary, error) {
	return s.getByOwner(ctx, ownerID)
}

func (s *stubBackend) GetRole(ctx context.Context, userID string) (string, string, error) {
	if s.getRole == nil {
		return "", "", nil
	}
	return s.getRole(ctx, userID)
}

const testJWTSecret = "handler-test-secret"

func newTestServer(backend *stubBackend) *httptest.Server {
	cfg := config.Config{
		JWTSecret:      testJWTSecret,
		AllowedOrigins: "*",
	}
	h := New(cfg, validator.New(), backend, backend, backend, backend, backend, backend, websocket.NewHub(), nil)
	return httptest.NewServer(h.Routes())
}

func authHeader(userID string) string {
	token, _ := auth.GenerateToken(testJWTSecret, userID, time.Hour)
	return "Bearer " + token
}

func authedRequest(method, url, userID string, body *string) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, url, strings.NewReader(*body))
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authHeader(userID))
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
