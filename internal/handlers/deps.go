package handlers

import (
	"context"

	"bankcore/internal/services"
	"bankcore/internal/store"
)

type TransactionService interface {
	SubmitDeposit(ctx context.Context, req services.DepositRequest) (services.TransactionResult, error)
	SubmitWithdrawal(ctx context.Context, req services.WithdrawalRequest) (services.TransactionResult, error)
	SubmitTransfer(ctx context.Context, req services.TransferRequest) (services.TransactionResult, error)
	Cancel(ctx context.Context, transactionID, requesterID string) (services.TransactionResult, error)
	GetTransaction(ctx context.Context, transactionID string) (store.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.Transaction, error)
	AuditTrail(ctx context.Context, transactionID string, limit, offset int) ([]store.AuditLog, error)
}

type ApprovalService interface {
	Decide(ctx context.Context, req services.DecisionRequest) (services.TransactionResult, error)
	ListPending(ctx context.Context, branchID string) ([]store.Transaction, error)
}

type ReversalService interface {
	Reverse(ctx context.Context, transactionID, requesterID, reason string) (services.TransactionResult, error)
}

type LedgerService interface {
	GetBalance(ctx context.Context, accountID string) (services.BalanceView, error)
	Statement(ctx context.Context, accountID string, limit, offset int) ([]store.LedgerEntry, error)
	Reconcile(ctx context.Context, accountID string) (services.ReconciliationView, error)
}

type AccountStore interface {
	Create(ctx context.Context, account store.Account) error
	GetByNumber(ctx context.Context, accountNumber string) (store.Account, error)
	GetByOwner(ctx context.Context, ownerID string) ([]store.AccountBalanceSummary, error)
}

type StaffStore interface {
	GetRole(ctx context.Context, userID string) (string, string, error)
	Assign(ctx context.Context, userID, role, branchID string) error
}
