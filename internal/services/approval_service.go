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

	"github.com/jmoiron/sqlx"
)

// ApprovalService decides queued transactions. The queue is nothing but the
// set of rows in RequiresApproval for a branch; there is no separate queue
// store to drift out of sync.
type ApprovalService struct {
	txRunner db.TxRunner
	ledger   *LedgerService
	txStore  TransactionStore
	holds    HoldStore
	audits   AuditStore
	hub      UpdateHub
	cache    BalanceCache
	metrics  *metrics.Metrics
}

func NewApprovalService(txRunner db.TxRunner, ledger *LedgerService, txStore TransactionStore, holds HoldStore, audits AuditStore, hub UpdateHub, cache BalanceCache, m *metrics.Metrics) *ApprovalService {
	return &ApprovalService{
		txRunner: txRunner,
		ledger:   ledger,
		txStore:  txStore,
		holds:    holds,
		audits:   audits,
		hub:      hub,
		cache:    cache,
		metrics:  m,
	}
}

type DecisionRequest struct {
	TransactionID string
	ApproverID    string
	Approve       bool
	Remarks       *string
}

// Decide records exactly one decision per transaction. A duplicate submission
// for an already-decided transaction replays the recorded outcome instead of
// erroring, so a retried approval is safe. Approval releases the hold and
// applies the ledger movement in the same database transaction; if the
// movement fails for a business reason the decision is still recorded, with
// the record parked in Failed.
func (s *ApprovalService) Decide(ctx context.Context, req DecisionRequest) (TransactionResult, error) {
	var replayed store.Transaction
	var isReplay bool
	var touched []string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		txn, err := s.txStore.GetByIDForUpdate(ctx, tx, req.TransactionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if txn.Status != models.StatusRequiresApproval {
			if txn.ApproverID != nil {
				replayed = txn
				isReplay = true
				return nil
			}
			return ErrAlreadyDecided
		}
		if txn.InitiatorID == req.ApproverID {
			return ErrSelfApproval
		}
		if _, err := s.holds.Release(ctx, tx, txn.ID); err != nil {
			return err
		}
		if !req.Approve {
			if err := s.txStore.RecordDecision(ctx, tx, txn.ID, models.StatusRejected, req.ApproverID, req.Remarks); err != nil {
				return err
			}
			return s.logDecision(ctx, tx, req, "transaction.rejected_by_approver")
		}
		ids, err := s.ledger.Apply(ctx, tx, txn)
		if err != nil {
			return err
		}
		touched = ids
		if err := s.txStore.RecordDecision(ctx, tx, txn.ID, models.StatusCompleted, req.ApproverID, req.Remarks); err != nil {
			return err
		}
		return s.logDecision(ctx, tx, req, "transaction.approved")
	})
	if err != nil {
		if req.Approve && isLedgerFailure(err) {
			return s.recordFailedApproval(ctx, req, err)
		}
		return TransactionResult{}, err
	}
	if isReplay {
		return TransactionResult{Transaction: replayed, Replayed: true}, nil
	}

	s.gaugePendingApprovals(-1)
	s.cache.Invalidate(ctx, touched...)
	txn, err := s.txStore.GetByID(ctx, req.TransactionID)
	if err != nil {
		return TransactionResult{}, err
	}
	s.countDecision(txn.Status)
	s.notifyDecision(txn, req)
	return TransactionResult{Transaction: txn}, nil
}

// recordFailedApproval runs after the decision transaction rolled back on a
// ledger failure. The decision itself must still stick, so a second
// transaction parks the record in Failed with the reason.
func (s *ApprovalService) recordFailedApproval(ctx context.Context, req DecisionRequest, cause error) (TransactionResult, error) {
	reason := cause.Error()
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		txn, err := s.txStore.GetByIDForUpdate(ctx, tx, req.TransactionID)
		if err != nil {
			return err
		}
		if txn.Status != models.StatusRequiresApproval {
			// Lost a race with another decision; nothing to record.
			return nil
		}
		if _, err := s.holds.Release(ctx, tx, txn.ID); err != nil {
			return err
		}
		if err := s.txStore.RecordDecision(ctx, tx, txn.ID, models.StatusFailed, req.ApproverID, req.Remarks); err != nil {
			return err
		}
		if err := s.txStore.UpdateStatus(ctx, tx, txn.ID, models.StatusFailed, &reason); err != nil {
			return err
		}
		return s.logDecision(ctx, tx, req, "transaction.approval_failed")
	})
	if err != nil {
		return TransactionResult{}, err
	}
	s.gaugePendingApprovals(-1)
	txn, err := s.txStore.GetByID(ctx, req.TransactionID)
	if err != nil {
		return TransactionResult{}, err
	}
	s.countDecision(txn.Status)
	s.notifyDecision(txn, req)
	return TransactionResult{Transaction: txn}, nil
}

// ListPending returns the branch's approval queue, oldest first.
func (s *ApprovalService) ListPending(ctx context.Context, branchID string) ([]store.Transaction, error) {
	return s.txStore.ListPendingByBranch(ctx, branchID)
}

func (s *ApprovalService) logDecision(ctx context.Context, tx store.Execer, req DecisionRequest, action string) error {
	data, _ := json.Marshal(map[string]any{
		"approve": req.Approve,
		"remarks": req.Remarks,
	})
	return s.audits.Log(ctx, tx, req.ApproverID, action, "transaction", req.TransactionID, string(data))
}

func (s *ApprovalService) notifyDecision(txn store.Transaction, req DecisionRequest) {
	reason := ""
	if req.Remarks != nil {
		reason = *req.Remarks
	}
	if txn.FailureReason != nil {
		reason = *txn.FailureReason
	}
	notifyTransaction(s.hub, txn, reason)
}

func (s *ApprovalService) gaugePendingApprovals(delta float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.PendingApprovals.Add(delta)
}

func (s *ApprovalService) countDecision(status models.TransactionStatus) {
	if s.metrics == nil {
		return
	}
	outcome := "approved"
	switch status {
	case models.StatusRejected:
		outcome = "rejected"
	case models.StatusFailed:
		outcome = "failed"
	}
	s.metrics.TransactionsDecided.WithLabelValues(outcome).Inc()
}
