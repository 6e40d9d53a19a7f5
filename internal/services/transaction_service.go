package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bankcore/internal/db"
	"bankcore/internal/metrics"
	"bankcore/internal/models"
	"bankcore/internal/money"
	"bankcore/internal/policy"
	"bankcore/internal/store"
	"bankcore/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TransactionService is the intake side of the engine: it validates a
// submission, runs it through the approval policy, and either applies the
// movement, parks it for a branch decision, or records the rejection.
type TransactionService struct {
	txRunner db.TxRunner
	ledger   *LedgerService
	accounts AccountStore
	txStore  TransactionStore
	holds    HoldStore
	audits   AuditStore
	hub      UpdateHub
	cache    BalanceCache
	metrics  *metrics.Metrics
}

func NewTransactionService(txRunner db.TxRunner, ledger *LedgerService, accounts AccountStore, txStore TransactionStore, holds HoldStore, audits AuditStore, hub UpdateHub, cache BalanceCache, m *metrics.Metrics) *TransactionService {
	return &TransactionService{
		txRunner: txRunner,
		ledger:   ledger,
		accounts: accounts,
		txStore:  txStore,
		holds:    holds,
		audits:   audits,
		hub:      hub,
		cache:    cache,
		metrics:  m,
	}
}

// TransactionResult is the authoritative post-state of a mutating call.
// Replayed marks an idempotent resubmission that changed nothing.
type TransactionResult struct {
	Transaction store.Transaction
	Replayed    bool
}

type DepositRequest struct {
	Reference     string
	AccountID     string
	AmountPaise   int64
	Mode          models.TransactionMode
	InitiatorID   string
	DepositorName *string
	Description   string
}

type WithdrawalRequest struct {
	Reference   string
	AccountID   string
	AmountPaise int64
	Mode        models.TransactionMode
	InitiatorID string
	Description string
}

type TransferRequest struct {
	Reference     string
	FromAccountID string
	ToAccountID   string
	AmountPaise   int64
	InitiatorID   string
	Description   string
}

func (s *TransactionService) SubmitDeposit(ctx context.Context, req DepositRequest) (TransactionResult, error) {
	if req.AmountPaise <= 0 {
		return TransactionResult{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !models.IsDepositMode(req.Mode) {
		return TransactionResult{}, fmt.Errorf("%w: %q is not a deposit mode", ErrValidation, req.Mode)
	}
	account, err := s.lookupAccount(ctx, req.AccountID)
	if err != nil {
		return TransactionResult{}, err
	}
	input := store.TransactionInput{
		ID:            uuid.NewString(),
		Reference:     req.Reference,
		Type:          models.TypeDeposit,
		Mode:          &req.Mode,
		Amount:        req.AmountPaise,
		ToAccountID:   &req.AccountID,
		BranchID:      account.BranchID,
		InitiatorID:   req.InitiatorID,
		Description:   req.Description,
		DepositorName: req.DepositorName,
	}
	return s.submit(ctx, input, policy.Evaluate(models.TypeDeposit, req.Mode, req.AmountPaise))
}

func (s *TransactionService) SubmitWithdrawal(ctx context.Context, req WithdrawalRequest) (TransactionResult, error) {
	if req.AmountPaise <= 0 {
		return TransactionResult{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !models.IsWithdrawalMode(req.Mode) {
		return TransactionResult{}, fmt.Errorf("%w: %q is not a withdrawal mode", ErrValidation, req.Mode)
	}
	account, err := s.lookupAccount(ctx, req.AccountID)
	if err != nil {
		return TransactionResult{}, err
	}
	if account.OwnerID == nil || *account.OwnerID != req.InitiatorID {
		return TransactionResult{}, ErrUnauthorizedAccount
	}
	input := store.TransactionInput{
		ID:            uuid.NewString(),
		Reference:     req.Reference,
		Type:          models.TypeWithdrawal,
		Mode:          &req.Mode,
		Amount:        req.AmountPaise,
		FromAccountID: &req.AccountID,
		BranchID:      account.BranchID,
		InitiatorID:   req.InitiatorID,
		Description:   req.Description,
	}
	return s.submit(ctx, input, policy.Evaluate(models.TypeWithdrawal, req.Mode, req.AmountPaise))
}

func (s *TransactionService) SubmitTransfer(ctx context.Context, req TransferRequest) (TransactionResult, error) {
	if req.AmountPaise <= 0 {
		return TransactionResult{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.FromAccountID == req.ToAccountID {
		return TransactionResult{}, ErrSameAccountTransfer
	}
	from, err := s.lookupAccount(ctx, req.FromAccountID)
	if err != nil {
		return TransactionResult{}, err
	}
	if from.OwnerID == nil || *from.OwnerID != req.InitiatorID {
		return TransactionResult{}, ErrUnauthorizedAccount
	}
	if _, err := s.lookupAccount(ctx, req.ToAccountID); err != nil {
		return TransactionResult{}, err
	}
	input := store.TransactionInput{
		ID:            uuid.NewString(),
		Reference:     req.Reference,
		Type:          models.TypeTransfer,
		Amount:        req.AmountPaise,
		FromAccountID: &req.FromAccountID,
		ToAccountID:   &req.ToAccountID,
		BranchID:      from.BranchID,
		InitiatorID:   req.InitiatorID,
		Description:   req.Description,
	}
	return s.submit(ctx, input, policy.Evaluate(models.TypeTransfer, "", req.AmountPaise))
}

// submit runs the shared post-policy path. The reference is checked first so
// a clean resubmission never re-evaluates policy; the unique index remains
// the arbiter under concurrent duplicates.
func (s *TransactionService) submit(ctx context.Context, input store.TransactionInput, decision policy.Decision) (TransactionResult, error) {
	started := time.Now()
	if input.Reference == "" {
		return TransactionResult{}, fmt.Errorf("%w: reference is required", ErrValidation)
	}
	if result, done, err := s.replayByReference(ctx, input); done {
		return result, err
	}
	s.countPolicyOutcome(decision.Outcome)

	var touched []string
	switch decision.Outcome {
	case policy.Reject:
		input.Status = models.StatusRejected
		input.FailureReason = &decision.Reason
		err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			if err := s.txStore.Create(ctx, tx, input); err != nil {
				return err
			}
			return s.logSubmission(ctx, tx, input, "transaction.rejected")
		})
		if err != nil {
			return s.recoverDuplicate(ctx, input, err)
		}
	case policy.RequiresApproval:
		input.Status = models.StatusRequiresApproval
		err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			if input.FromAccountID != nil {
				if err := s.checkAvailable(ctx, tx, input); err != nil {
					return err
				}
			}
			if err := s.txStore.Create(ctx, tx, input); err != nil {
				return err
			}
			if input.FromAccountID != nil {
				if err := s.holds.Create(ctx, tx, store.HoldInput{
					ID:            uuid.NewString(),
					TransactionID: input.ID,
					AccountID:     *input.FromAccountID,
					Amount:        input.Amount,
				}); err != nil {
					return err
				}
			}
			return s.logSubmission(ctx, tx, input, "transaction.queued")
		})
		if err != nil {
			return s.recoverDuplicate(ctx, input, err)
		}
		s.gaugePendingApprovals(1)
	default:
		input.Status = models.StatusPending
		err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			if err := s.txStore.Create(ctx, tx, input); err != nil {
				return err
			}
			pending, err := s.txStore.GetByIDForUpdate(ctx, tx, input.ID)
			if err != nil {
				return err
			}
			ids, err := s.ledger.Apply(ctx, tx, pending)
			if err != nil {
				return err
			}
			touched = ids
			if err := s.txStore.UpdateStatus(ctx, tx, input.ID, models.StatusCompleted, nil); err != nil {
				return err
			}
			return s.logSubmission(ctx, tx, input, "transaction.completed")
		})
		if err != nil {
			return s.recoverDuplicate(ctx, input, err)
		}
	}

	s.cache.Invalidate(ctx, touched...)
	txn, err := s.txStore.GetByID(ctx, input.ID)
	if err != nil {
		return TransactionResult{}, err
	}
	s.observeSubmission(txn, started)
	s.notify(txn, decision.Reason)
	return TransactionResult{Transaction: txn}, nil
}

// checkAvailable verifies funds under the debit account's row lock before a
// reservation is written.
func (s *TransactionService) checkAvailable(ctx context.Context, tx store.Tx, input store.TransactionInput) error {
	account, err := s.accounts.GetForUpdate(ctx, tx, *input.FromAccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if account.Status != models.AccountActive {
		return ErrAccountNotActive
	}
	held, err := s.holds.ActiveSum(ctx, tx, account.ID)
	if err != nil {
		return err
	}
	if account.Balance-held < input.Amount {
		return ErrInsufficientFunds
	}
	return nil
}

// Cancel withdraws a submission before any decision has been taken. Only the
// initiator may cancel, and only while the record is still Pending or
// RequiresApproval.
func (s *TransactionService) Cancel(ctx context.Context, transactionID, requesterID string) (TransactionResult, error) {
	var wasQueued bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		txn, err := s.txStore.GetByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if txn.InitiatorID != requesterID {
			return ErrUnauthorizedAccount
		}
		if txn.Status != models.StatusPending && txn.Status != models.StatusRequiresApproval {
			return ErrNotCancellable
		}
		wasQueued = txn.Status == models.StatusRequiresApproval
		if _, err := s.holds.Release(ctx, tx, txn.ID); err != nil {
			return err
		}
		if err := s.txStore.UpdateStatus(ctx, tx, txn.ID, models.StatusCancelled, nil); err != nil {
			return err
		}
		return s.audits.Log(ctx, tx, requesterID, "transaction.cancelled", "transaction", txn.ID, "{}")
	})
	if err != nil {
		return TransactionResult{}, err
	}
	if wasQueued {
		s.gaugePendingApprovals(-1)
	}
	txn, err := s.txStore.GetByID(ctx, transactionID)
	if err != nil {
		return TransactionResult{}, err
	}
	s.notify(txn, "cancelled by initiator")
	return TransactionResult{Transaction: txn}, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, transactionID string) (store.Transaction, error) {
	txn, err := s.txStore.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Transaction{}, ErrNotFound
		}
		return store.Transaction{}, err
	}
	return txn, nil
}

func (s *TransactionService) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.txStore.ListByAccount(ctx, accountID, limit, offset)
}

// AuditTrail lists the audit entries recorded for a transaction, newest first.
func (s *TransactionService) AuditTrail(ctx context.Context, transactionID string, limit, offset int) ([]store.AuditLog, error) {
	if _, err := s.txStore.GetByID(ctx, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.audits.ListByEntity(ctx, "transaction", transactionID, limit, offset)
}

func (s *TransactionService) lookupAccount(ctx context.Context, accountID string) (store.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Account{}, ErrNotFound
		}
		return store.Account{}, err
	}
	if account.IsVault {
		return store.Account{}, fmt.Errorf("%w: vault accounts cannot be addressed directly", ErrValidation)
	}
	if account.Status != models.AccountActive {
		return store.Account{}, ErrAccountNotActive
	}
	return account, nil
}

// replayByReference implements idempotent resubmission: the same reference
// with the same payload returns the existing record's current state; a
// different payload is a hard conflict.
func (s *TransactionService) replayByReference(ctx context.Context, input store.TransactionInput) (TransactionResult, bool, error) {
	existing, err := s.txStore.GetByReference(ctx, input.Reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransactionResult{}, false, nil
		}
		return TransactionResult{}, true, err
	}
	if !sameSubmission(existing, input) {
		return TransactionResult{}, true, ErrDuplicateReference
	}
	return TransactionResult{Transaction: existing, Replayed: true}, true, nil
}

// recoverDuplicate handles the race where two submissions with one reference
// pass the precheck together; the unique index rejects the loser, which then
// replays the winner's record.
func (s *TransactionService) recoverDuplicate(ctx context.Context, input store.TransactionInput, cause error) (TransactionResult, error) {
	if !isUniqueViolation(cause) {
		return TransactionResult{}, cause
	}
	existing, err := s.txStore.GetByReference(ctx, input.Reference)
	if err != nil {
		return TransactionResult{}, cause
	}
	if !sameSubmission(existing, input) {
		return TransactionResult{}, ErrDuplicateReference
	}
	return TransactionResult{Transaction: existing, Replayed: true}, nil
}

func sameSubmission(existing store.Transaction, input store.TransactionInput) bool {
	return existing.Type == input.Type &&
		existing.Amount == input.Amount &&
		equalPtr(existing.FromAccountID, input.FromAccountID) &&
		equalPtr(existing.ToAccountID, input.ToAccountID) &&
		equalPtr(existing.Mode, input.Mode) &&
		equalPtr(existing.DepositorName, input.DepositorName)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *TransactionService) logSubmission(ctx context.Context, tx store.Execer, input store.TransactionInput, action string) error {
	data, _ := json.Marshal(map[string]any{
		"reference": input.Reference,
		"type":      input.Type.String(),
		"amount":    input.Amount,
	})
	return s.audits.Log(ctx, tx, input.InitiatorID, action, "transaction", input.ID, string(data))
}

func (s *TransactionService) notify(txn store.Transaction, reason string) {
	notifyTransaction(s.hub, txn, reason)
}

// notifyTransaction fans the post-state out to the initiator and the branch
// dashboard channel.
func notifyTransaction(hub UpdateHub, txn store.Transaction, reason string) {
	update := websocket.TransactionUpdate{
		TransactionID: txn.ID,
		Reference:     txn.Reference,
		Type:          int(txn.Type),
		Status:        int(txn.Status),
		StatusLabel:   txn.Status.String(),
		Amount:        money.FormatPaise(txn.Amount),
		Reason:        reason,
	}
	if txn.FromAccountID != nil {
		update.FromAccountID = *txn.FromAccountID
	}
	if txn.ToAccountID != nil {
		update.ToAccountID = *txn.ToAccountID
	}
	hub.BroadcastTransaction([]string{txn.InitiatorID, websocket.BranchChannel(txn.BranchID)}, update)
}

func (s *TransactionService) countPolicyOutcome(outcome policy.Outcome) {
	if s.metrics == nil {
		return
	}
	s.metrics.PolicyOutcomes.WithLabelValues(outcome.String()).Inc()
}

func (s *TransactionService) gaugePendingApprovals(delta float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.PendingApprovals.Add(delta)
}

func (s *TransactionService) observeSubmission(txn store.Transaction, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.TransactionsSubmitted.WithLabelValues(txn.Type.String(), txn.Status.String()).Inc()
	s.metrics.ProcessingDuration.WithLabelValues(txn.Type.String()).Observe(time.Since(started).Seconds())
}
