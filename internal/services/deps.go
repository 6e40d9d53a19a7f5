package services

import (
	"context"

	"bankcore/internal/models"
	"bankcore/internal/store"
	"bankcore/internal/websocket"
)

type AccountStore interface {
	GetByID(ctx context.Context, accountID string) (store.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (store.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance, version int64) (int64, error)
	GetVault(ctx context.Context, branchID string) (store.Account, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	GetByID(ctx context.Context, transactionID string) (store.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx store.Getter, transactionID string) (store.Transaction, error)
	GetByReference(ctx context.Context, reference string) (store.Transaction, error)
	UpdateStatus(ctx context.Context, tx store.Execer, transactionID string, status models.TransactionStatus, failureReason *string) error
	RecordDecision(ctx context.Context, tx store.Execer, transactionID string, status models.TransactionStatus, approverID string, remarks *string) error
	MarkReversed(ctx context.Context, tx store.Execer, transactionID, reversalID string) error
	ListPendingByBranch(ctx context.Context, branchID string) ([]store.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.Transaction, error)
}

type LedgerStore interface {
	InsertEntries(ctx context.Context, tx store.Execer, entries []store.LedgerEntryInput) error
	SumByAccount(ctx context.Context, accountID string) (int64, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.LedgerEntry, error)
}

type HoldStore interface {
	Create(ctx context.Context, tx store.Execer, input store.HoldInput) error
	Release(ctx context.Context, tx store.Execer, transactionID string) (int64, error)
	ActiveSum(ctx context.Context, tx store.Getter, accountID string) (int64, error)
	ActiveSumView(ctx context.Context, accountID string) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]store.AuditLog, error)
}

type UpdateHub interface {
	BroadcastTransaction(keys []string, update websocket.TransactionUpdate)
}

type BalanceCache interface {
	GetBalance(ctx context.Context, accountID string) (int64, bool)
	SetBalance(ctx context.Context, accountID string, balancePaise int64)
	Invalidate(ctx context.Context, accountIDs ...string)
}
