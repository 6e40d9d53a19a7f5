package store

import (
	"context"

	"bankcore/internal/models"
)

type AccountStore struct {
	db DB
}

type Account struct {
	ID             string               `db:"id"`
	AccountNumber  string               `db:"account_number"`
	Type           models.AccountType   `db:"type"`
	Status         models.AccountStatus `db:"status"`
	Balance        int64                `db:"balance"`
	Version        int64                `db:"version"`
	BranchID       string               `db:"branch_id"`
	OwnerID        *string              `db:"owner_id"`
	IsVault        bool                 `db:"is_vault"`
	LastActivityAt any                  `db:"last_activity_at"`
	CreatedAt      any                  `db:"created_at"`
}

type AccountBalanceSummary struct {
	ID                string  `db:"id"`
	AccountNumber     string  `db:"account_number"`
	OwnerID           *string `db:"owner_id"`
	StoredBalance     int64   `db:"stored_balance"`
	CalculatedBalance int64   `db:"calculated_balance"`
	Difference        int64   `db:"difference"`
	HeldAmount        int64   `db:"held_amount"`
	CreatedAt         any     `db:"created_at"`
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, account Account) error {
	query := `
		INSERT INTO accounts (id, account_number, type, status, balance, version, branch_id, owner_id, is_vault)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		account.ID, account.AccountNumber, account.Type, account.Status,
		account.Balance, account.BranchID, account.OwnerID, account.IsVault,
	)
	return err
}

func (s *AccountStore) GetByID(ctx context.Context, accountID string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, account_number, type, status, balance, version, branch_id, owner_id, is_vault, last_activity_at, created_at
		FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetByNumber(ctx context.Context, accountNumber string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, account_number, type, status, balance, version, branch_id, owner_id, is_vault, last_activity_at, created_at
		FROM accounts
		WHERE account_number = $1
	`, accountNumber)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID string) (Account, error) {
	var row Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, account_number, type, status, balance, version, branch_id, owner_id, is_vault
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

// UpdateBalance writes the new balance guarded by the version the caller read
// under its row lock. Zero rows affected means a lost update.
func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance, version int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, version = version + 1, last_activity_at = NOW()
		WHERE id = $2 AND version = $3
	`, balance, accountID, version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetVault resolves a branch's vault account without locking it; callers lock
// it later through GetForUpdate in ascending-ID order with the other accounts
// they touch.
func (s *AccountStore) GetVault(ctx context.Context, branchID string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, account_number, type, status, balance, version, branch_id, owner_id, is_vault, last_activity_at, created_at
		FROM accounts
		WHERE branch_id = $1 AND is_vault = TRUE
	`, branchID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetByOwner(ctx context.Context, ownerID string) ([]AccountBalanceSummary, error) {
	var rows []AccountBalanceSummary
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id,
		       a.account_number,
		       a.owner_id,
		       a.balance AS stored_balance,
		       COALESCE(SUM(l.amount), 0) AS calculated_balance,
		       (a.balance - COALESCE(SUM(l.amount), 0)) AS difference,
		       COALESCE((SELECT SUM(h.amount) FROM holds h WHERE h.account_id = a.id AND h.released_at IS NULL), 0) AS held_amount,
		       a.created_at
		FROM accounts a
		LEFT JOIN ledger_entries l ON l.account_id = a.id
		WHERE a.owner_id = $1
		GROUP BY a.id, a.account_number, a.owner_id, a.balance, a.created_at
		ORDER BY a.account_number
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
