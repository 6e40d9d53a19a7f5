package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bankcore/internal/metrics"
	"bankcore/internal/models"
	"bankcore/internal/money"
	"bankcore/internal/store"

	"github.com/google/uuid"
)

// LedgerService owns balance reads and the double-entry movement primitive
// every other service posts through. Movements run under the caller's
// database transaction so a failed leg rolls the whole operation back.
type LedgerService struct {
	accounts AccountStore
	ledger   LedgerStore
	holds    HoldStore
	cache    BalanceCache
	metrics  *metrics.Metrics
}

func NewLedgerService(accounts AccountStore, ledger LedgerStore, holds HoldStore, cache BalanceCache, m *metrics.Metrics) *LedgerService {
	return &LedgerService{
		accounts: accounts,
		ledger:   ledger,
		holds:    holds,
		cache:    cache,
		metrics:  m,
	}
}

type BalanceView struct {
	AccountID      string `json:"account_id"`
	BalancePaise   int64  `json:"balance_paise"`
	Balance        string `json:"balance"`
	HeldPaise      int64  `json:"held_paise"`
	AvailablePaise int64  `json:"available_paise"`
	Available      string `json:"available"`
}

// GetBalance serves a point-in-time snapshot, read-through from the cache.
// Holds are always read from the database; they change with every approval
// decision and caching them stale would overstate available funds.
func (s *LedgerService) GetBalance(ctx context.Context, accountID string) (BalanceView, error) {
	balance, ok := s.cache.GetBalance(ctx, accountID)
	if ok {
		s.countCacheLookup("hit")
	} else {
		s.countCacheLookup("miss")
		account, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return BalanceView{}, ErrNotFound
			}
			return BalanceView{}, err
		}
		balance = account.Balance
		s.cache.SetBalance(ctx, accountID, balance)
	}
	held, err := s.holds.ActiveSumView(ctx, accountID)
	if err != nil {
		return BalanceView{}, err
	}
	available := balance - held
	return BalanceView{
		AccountID:      accountID,
		BalancePaise:   balance,
		Balance:        money.FormatPaise(balance),
		HeldPaise:      held,
		AvailablePaise: available,
		Available:      money.FormatPaise(available),
	}, nil
}

type ReconciliationView struct {
	AccountID   string `json:"account_id"`
	StoredPaise int64  `json:"stored_paise"`
	LedgerPaise int64  `json:"ledger_paise"`
	DriftPaise  int64  `json:"drift_paise"`
}

// Reconcile compares the stored balance against the sum of ledger entries.
// A non-zero drift means a balance write landed without its entry pair.
func (s *LedgerService) Reconcile(ctx context.Context, accountID string) (ReconciliationView, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReconciliationView{}, ErrNotFound
		}
		return ReconciliationView{}, err
	}
	sum, err := s.ledger.SumByAccount(ctx, accountID)
	if err != nil {
		return ReconciliationView{}, err
	}
	return ReconciliationView{
		AccountID:   accountID,
		StoredPaise: account.Balance,
		LedgerPaise: sum,
		DriftPaise:  account.Balance - sum,
	}, nil
}

// Statement lists ledger entries for an account, newest first.
func (s *LedgerService) Statement(ctx context.Context, accountID string, limit, offset int) ([]store.LedgerEntry, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
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
	return s.ledger.ListByAccount(ctx, accountID, limit, offset)
}

// Apply posts the transaction's movement as a balanced double-entry pair.
// A missing leg is filled in with the branch vault account, so single-sided
// operations (cash in, cash out) still sum to zero. It must run inside the
// caller's serializable transaction; it returns the account IDs it touched
// so the caller can invalidate cached balances after commit.
func (s *LedgerService) Apply(ctx context.Context, tx store.Tx, txn store.Transaction) ([]string, error) {
	debitID, creditID, err := s.resolveLegs(ctx, txn)
	if err != nil {
		return nil, err
	}
	debit, credit, err := lockTwoAccounts(ctx, tx, s.accounts, debitID, creditID)
	if err != nil {
		return nil, err
	}
	if !debit.IsVault && debit.Status != models.AccountActive {
		return nil, ErrAccountNotActive
	}
	if !credit.IsVault && credit.Status != models.AccountActive {
		return nil, ErrAccountNotActive
	}
	// The vault is a contra account and may go negative; customer accounts
	// never may, net of their active holds.
	if !debit.IsVault {
		held, err := s.holds.ActiveSum(ctx, tx, debit.ID)
		if err != nil {
			return nil, err
		}
		if debit.Balance-held < txn.Amount {
			return nil, ErrInsufficientFunds
		}
	}
	if err := s.writeBalance(ctx, tx, debit, debit.Balance-txn.Amount); err != nil {
		return nil, err
	}
	if err := s.writeBalance(ctx, tx, credit, credit.Balance+txn.Amount); err != nil {
		return nil, err
	}
	entries := []store.LedgerEntryInput{
		{
			ID:            uuid.NewString(),
			TransactionID: txn.ID,
			AccountID:     debit.ID,
			Amount:        -txn.Amount,
			Description:   fmt.Sprintf("%s debit", txn.Type),
		},
		{
			ID:            uuid.NewString(),
			TransactionID: txn.ID,
			AccountID:     credit.ID,
			Amount:        txn.Amount,
			Description:   fmt.Sprintf("%s credit", txn.Type),
		},
	}
	if err := ensureBalanced(entries); err != nil {
		return nil, err
	}
	if err := s.ledger.InsertEntries(ctx, tx, entries); err != nil {
		return nil, err
	}
	return []string{debit.ID, credit.ID}, nil
}

// resolveLegs maps the transaction's from/to sides to debit and credit
// account IDs, substituting the branch vault for an absent side. The vault
// lookup does not lock; the row is locked later in ID order with the rest.
func (s *LedgerService) resolveLegs(ctx context.Context, txn store.Transaction) (debitID, creditID string, err error) {
	switch {
	case txn.FromAccountID != nil && txn.ToAccountID != nil:
		return *txn.FromAccountID, *txn.ToAccountID, nil
	case txn.ToAccountID != nil:
		vault, err := s.accounts.GetVault(ctx, txn.BranchID)
		if err != nil {
			return "", "", err
		}
		return vault.ID, *txn.ToAccountID, nil
	case txn.FromAccountID != nil:
		vault, err := s.accounts.GetVault(ctx, txn.BranchID)
		if err != nil {
			return "", "", err
		}
		return *txn.FromAccountID, vault.ID, nil
	}
	return "", "", fmt.Errorf("%w: transaction %s has no accounts", ErrValidation, txn.ID)
}

func (s *LedgerService) writeBalance(ctx context.Context, tx store.Execer, account store.Account, newBalance int64) error {
	rows, err := s.accounts.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (s *LedgerService) countCacheLookup(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CacheLookups.WithLabelValues(result).Inc()
}

func ensureBalanced(entries []store.LedgerEntryInput) error {
	var sum int64
	for _, entry := range entries {
		sum += entry.Amount
	}
	if sum != 0 {
		return errors.New("ledger entries are not balanced")
	}
	return nil
}

func lockTwoAccounts(ctx context.Context, tx store.Getter, accounts AccountStore, firstID, secondID string) (store.Account, store.Account, error) {
	leftID, rightID := orderedIDs(firstID, secondID)
	left, err := accounts.GetForUpdate(ctx, tx, leftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Account{}, store.Account{}, ErrNotFound
		}
		return store.Account{}, store.Account{}, err
	}
	right, err := accounts.GetForUpdate(ctx, tx, rightID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Account{}, store.Account{}, ErrNotFound
		}
		return store.Account{}, store.Account{}, err
	}
	if firstID == leftID {
		return left, right, nil
	}
	return right, left, nil
}

func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}
