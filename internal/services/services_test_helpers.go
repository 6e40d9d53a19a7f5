package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"bankcore/internal/models"
	"bankcore/internal/store"
	"bankcore/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// In-memory doubles for the store layer. The fake runner serializes
// transactions and restores a snapshot on error, mirroring commit/rollback
// closely enough for the state-machine and concurrency tests.

type fakeHold struct {
	id            string
	transactionID string
	accountID     string
	amount        int64
	released      bool
}

type fakeAudit struct {
	actorID    string
	action     string
	entityType string
	entityID   string
	data       string
}

type fakeState struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	accounts map[string]store.Account
	txns     map[string]store.Transaction
	entries  []store.LedgerEntryInput
	holds    []fakeHold
	audits   []fakeAudit
}

func newFakeState() *fakeState {
	return &fakeState{
		accounts: make(map[string]store.Account),
		txns:     make(map[string]store.Transaction),
	}
}

type stateSnapshot struct {
	accounts map[string]store.Account
	txns     map[string]store.Transaction
	entries  []store.LedgerEntryInput
	holds    []fakeHold
	audits   []fakeAudit
}

func (st *fakeState) snapshot() stateSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	snap := stateSnapshot{
		accounts: make(map[string]store.Account, len(st.accounts)),
		txns:     make(map[string]store.Transaction, len(st.txns)),
		entries:  append([]store.LedgerEntryInput(nil), st.entries...),
		holds:    append([]fakeHold(nil), st.holds...),
		audits:   append([]fakeAudit(nil), st.audits...),
	}
	for k, v := range st.accounts {
		snap.accounts[k] = v
	}
	for k, v := range st.txns {
		snap.txns[k] = v
	}
	return snap
}

func (st *fakeState) restore(snap stateSnapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.accounts = snap.accounts
	st.txns = snap.txns
	st.entries = snap.entries
	st.holds = snap.holds
	st.audits = snap.audits
}

type fakeTxRunner struct {
	st *fakeState
}

func (r *fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	r.st.txMu.Lock()
	defer r.st.txMu.Unlock()
	snap := r.st.snapshot()
	if err := fn(nil); err != nil {
		r.st.restore(snap)
		return err
	}
	return nil
}

type fakeAccounts struct {
	st *fakeState
}

func (f *fakeAccounts) GetByID(ctx context.Context, accountID string) (store.Account, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	account, ok := f.st.accounts[accountID]
	if !ok {
		return store.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (f *fakeAccounts) GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (store.Account, error) {
	return f.GetByID(ctx, accountID)
}

func (f *fakeAccounts) UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance, version int64) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	account, ok := f.st.accounts[accountID]
	if !ok || account.Version != version {
		return 0, nil
	}
	account.Balance = balance
	account.Version++
	f.st.accounts[accountID] = account
	return 1, nil
}

func (f *fakeAccounts) GetVault(ctx context.Context, branchID string) (store.Account, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, account := range f.st.accounts {
		if account.IsVault && account.BranchID == branchID {
			return account, nil
		}
	}
	return store.Account{}, sql.ErrNoRows
}

type fakeTxns struct {
	st *fakeState
}

func (f *fakeTxns) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, existing := range f.st.txns {
		if existing.Reference == input.Reference {
			return &pq.Error{Code: "23505"}
		}
	}
	f.st.txns[input.ID] = store.Transaction{
		ID:            input.ID,
		Reference:     input.Reference,
		Type:          input.Type,
		Mode:          input.Mode,
		Status:        input.Status,
		Amount:        input.Amount,
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		BranchID:      input.BranchID,
		InitiatorID:   input.InitiatorID,
		Description:   input.Description,
		DepositorName: input.DepositorName,
		FailureReason: input.FailureReason,
		CreatedAt:     time.Now(),
	}
	return nil
}

func (f *fakeTxns) GetByID(ctx context.Context, transactionID string) (store.Transaction, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	txn, ok := f.st.txns[transactionID]
	if !ok {
		return store.Transaction{}, sql.ErrNoRows
	}
	return txn, nil
}

func (f *fakeTxns) GetByIDForUpdate(ctx context.Context, tx store.Getter, transactionID string) (store.Transaction, error) {
	return f.GetByID(ctx, transactionID)
}

func (f *fakeTxns) GetByReference(ctx context.Context, reference string) (store.Transaction, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, txn := range f.st.txns {
		if txn.Reference == reference {
			return txn, nil
		}
	}
	return store.Transaction{}, sql.ErrNoRows
}

func (f *fakeTxns) UpdateStatus(ctx context.Context, tx store.Execer, transactionID string, status models.TransactionStatus, failureReason *string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	txn := f.st.txns[transactionID]
	txn.Status = status
	txn.FailureReason = failureReason
	f.st.txns[transactionID] = txn
	return nil
}

func (f *fakeTxns) RecordDecision(ctx context.Context, tx store.Execer, transactionID string, status models.TransactionStatus, approverID string, remarks *string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	txn := f.st.txns[transactionID]
	now := time.Now()
	txn.Status = status
	txn.ApproverID = &approverID
	txn.ApprovalRemarks = remarks
	txn.DecidedAt = &now
	f.st.txns[transactionID] = txn
	return nil
}

func (f *fakeTxns) MarkReversed(ctx context.Context, tx store.Execer, transactionID, reversalID string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	txn := f.st.txns[transactionID]
	txn.Status = models.StatusReversed
	txn.ReversedBy = &reversalID
	f.st.txns[transactionID] = txn
	return nil
}

func (f *fakeTxns) ListPendingByBranch(ctx context.Context, branchID string) ([]store.Transaction, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []store.Transaction
	for _, txn := range f.st.txns {
		if txn.BranchID == branchID && txn.Status == models.StatusRequiresApproval {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeTxns) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.Transaction, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []store.Transaction
	for _, txn := range f.st.txns {
		if (txn.FromAccountID != nil && *txn.FromAccountID == accountID) ||
			(txn.ToAccountID != nil && *txn.ToAccountID == accountID) {
			out = append(out, txn)
		}
	}
	return out, nil
}

type fakeLedger struct {
	st *fakeState
}

func (f *fakeLedger) InsertEntries(ctx context.Context, tx store.Execer, entries []store.LedgerEntryInput) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.entries = append(f.st.entries, entries...)
	return nil
}

func (f *fakeLedger) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var sum int64
	for _, entry := range f.st.entries {
		if entry.AccountID == accountID {
			sum += entry.Amount
		}
	}
	return sum, nil
}

func (f *fakeLedger) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.LedgerEntry, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []store.LedgerEntry
	for _, entry := range f.st.entries {
		if entry.AccountID == accountID {
			out = append(out, store.LedgerEntry{
				ID:            entry.ID,
				TransactionID: entry.TransactionID,
				AccountID:     entry.AccountID,
				Amount:        entry.Amount,
				Description:   entry.Description,
			})
		}
	}
	return out, nil
}

type fakeHolds struct {
	st *fakeState
}

func (f *fakeHolds) Create(ctx context.Context, tx store.Execer, input store.HoldInput) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.holds = append(f.st.holds, fakeHold{
		id:            input.ID,
		transactionID: input.TransactionID,
		accountID:     input.AccountID,
		amount:        input.Amount,
	})
	return nil
}

func (f *fakeHolds) Release(ctx context.Context, tx store.Execer, transactionID string) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var released int64
	for i := range f.st.holds {
		if f.st.holds[i].transactionID == transactionID && !f.st.holds[i].released {
			f.st.holds[i].released = true
			released++
		}
	}
	return released, nil
}

func (f *fakeHolds) ActiveSum(ctx context.Context, tx store.Getter, accountID string) (int64, error) {
	return f.ActiveSumView(ctx, accountID)
}

func (f *fakeHolds) ActiveSumView(ctx context.Context, accountID string) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var sum int64
	for _, hold := range f.st.holds {
		if hold.accountID == accountID && !hold.released {
			sum += hold.amount
		}
	}
	return sum, nil
}

type fakeAudits struct {
	st *fakeState
}

func (f *fakeAudits) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.audits = append(f.st.audits, fakeAudit{
		actorID:    actorID,
		action:     action,
		entityType: entityType,
		entityID:   entityID,
		data:       data,
	})
	return nil
}

func (f *fakeAudits) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]store.AuditLog, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []store.AuditLog
	for i := len(f.st.audits) - 1; i >= 0; i-- {
		entry := f.st.audits[i]
		if entry.entityType != entityType || entry.entityID != entityID {
			continue
		}
		actor := entry.actorID
		out = append(out, store.AuditLog{
			ActorUserID: &actor,
			Action:      entry.action,
			EntityType:  entry.entityType,
			EntityID:    entry.entityID,
			Data:        entry.data,
		})
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeHub struct {
	mu      sync.Mutex
	updates []websocket.TransactionUpdate
}

func (f *fakeHub) BroadcastTransaction(keys []string, update websocket.TransactionUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
}

type fakeCache struct {
	mu       sync.Mutex
	balances map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{balances: make(map[string]int64)}
}

func (f *fakeCache) GetBalance(ctx context.Context, accountID string) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[accountID]
	return balance, ok
}

func (f *fakeCache) SetBalance(ctx context.Context, accountID string, balancePaise int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[accountID] = balancePaise
}

func (f *fakeCache) Invalidate(ctx context.Context, accountIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range accountIDs {
		delete(f.balances, id)
	}
}

// fixture wires the full service stack over the in-memory doubles.
type fixture struct {
	st        *fakeState
	accounts  *fakeAccounts
	txns      *fakeTxns
	holds     *fakeHolds
	hub       *fakeHub
	cache     *fakeCache
	ledger    *LedgerService
	txService *TransactionService
	approvals *ApprovalService
	reversals *ReversalService
}

func newFixture() *fixture {
	st := newFakeState()
	runner := &fakeTxRunner{st: st}
	accounts := &fakeAccounts{st: st}
	txns := &fakeTxns{st: st}
	ledgerStore := &fakeLedger{st: st}
	holds := &fakeHolds{st: st}
	audits := &fakeAudits{st: st}
	hub := &fakeHub{}
	cache := newFakeCache()
	ledger := NewLedgerService(accounts, ledgerStore, holds, cache, nil)
	return &fixture{
		st:        st,
		accounts:  accounts,
		txns:      txns,
		holds:     holds,
		hub:       hub,
		cache:     cache,
		ledger:    ledger,
		txService: NewTransactionService(runner, ledger, accounts, txns, holds, audits, hub, cache, nil),
		approvals: NewApprovalService(runner, ledger, txns, holds, audits, hub, cache, nil),
		reversals: NewReversalService(runner, ledger, txns, audits, hub, cache, nil),
	}
}

func (f *fixture) addAccount(id, branchID, ownerID string, balance int64) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	owner := ownerID
	f.st.accounts[id] = store.Account{
		ID:            id,
		AccountNumber: "AN-" + id,
		Type:          models.AccountSavings,
		Status:        models.AccountActive,
		Balance:       balance,
		BranchID:      branchID,
		OwnerID:       &owner,
	}
}

func (f *fixture) addVault(id, branchID string) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.accounts[id] = store.Account{
		ID:            id,
		AccountNumber: "VAULT-" + branchID,
		Type:          models.AccountCurrent,
		Status:        models.AccountActive,
		BranchID:      branchID,
		IsVault:       true,
	}
}

func (f *fixture) setAccountStatus(id string, status models.AccountStatus) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	account := f.st.accounts[id]
	account.Status = status
	f.st.accounts[id] = account
}

func (f *fixture) accountBalance(id string) int64 {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.st.accounts[id].Balance
}
