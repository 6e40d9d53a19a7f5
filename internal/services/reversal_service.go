package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"bankcore/internal/db"
	"bankcore/internal/metrics"
	"bankcore/internal/models"
	"bankcore/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReversalService backs out a completed transaction by posting a new
// reversal-type transaction with the legs swapped. The original row is never
// edited beyond the status flip to Reversed.
type ReversalService struct {
	txRunner db.TxRunner
	ledger   *LedgerService
	txStore  TransactionStore
	audits   AuditStore
	hub      UpdateHub
	cache    BalanceCache
	metrics  *metrics.Metrics
}

func NewReversalService(txRunner db.TxRunner, ledger *LedgerService, txStore TransactionStore, audits AuditStore, hub UpdateHub, cache BalanceCache, m *metrics.Metrics) *ReversalService {
	return &ReversalService{
		txRunner: txRunner,
		ledger:   ledger,
		txStore:  txStore,
		audits:   audits,
		hub:      hub,
		cache:    cache,
		metrics:  m,
	}
}

// ReversalReference derives the fixed reference for a reversal, which doubles
// as the idempotency key: a second reversal attempt trips the unique index.
func ReversalReference(originalID string) string {
	return "REV-" + originalID
}

func (s *ReversalService) Reverse(ctx context.Context, transactionID, requesterID, reason string) (TransactionResult, error) {
	var reversalID string
	var touched []string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		original, err := s.txStore.GetByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if original.Status == models.StatusReversed {
			return ErrAlreadyReversed
		}
		if original.Status != models.StatusCompleted || original.Type == models.TypeReversal {
			return ErrNotReversible
		}
		reversalID = uuid.NewString()
		input := store.TransactionInput{
			ID:            reversalID,
			Reference:     ReversalReference(original.ID),
			Type:          models.TypeReversal,
			Status:        models.StatusPending,
			Amount:        original.Amount,
			FromAccountID: original.ToAccountID,
			ToAccountID:   original.FromAccountID,
			BranchID:      original.BranchID,
			InitiatorID:   requesterID,
			Description:   reason,
		}
		if err := s.txStore.Create(ctx, tx, input); err != nil {
			return err
		}
		reversal, err := s.txStore.GetByIDForUpdate(ctx, tx, reversalID)
		if err != nil {
			return err
		}
		ids, err := s.ledger.Apply(ctx, tx, reversal)
		if err != nil {
			return err
		}
		touched = ids
		if err := s.txStore.UpdateStatus(ctx, tx, reversalID, models.StatusCompleted, nil); err != nil {
			return err
		}
		if err := s.txStore.MarkReversed(ctx, tx, original.ID, reversalID); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"reversal_id": reversalID,
			"reason":      reason,
		})
		return s.audits.Log(ctx, tx, requesterID, "transaction.reversed", "transaction", original.ID, string(data))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return TransactionResult{}, ErrAlreadyReversed
		}
		return TransactionResult{}, err
	}

	s.cache.Invalidate(ctx, touched...)
	if s.metrics != nil {
		s.metrics.Reversals.Inc()
	}
	reversal, err := s.txStore.GetByID(ctx, reversalID)
	if err != nil {
		return TransactionResult{}, err
	}
	notifyTransaction(s.hub, reversal, reason)
	return TransactionResult{Transaction: reversal}, nil
}
