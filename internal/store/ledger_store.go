package store

import "context"

type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

type LedgerEntryInput struct {
	ID            string
	TransactionID string
	AccountID     string
	Amount        int64
	Description   string
}

type LedgerEntry struct {
	ID            string `db:"id"`
	TransactionID string `db:"transaction_id"`
	AccountID     string `db:"account_id"`
	Amount        int64  `db:"amount"`
	Description   string `db:"description"`
	CreatedAt     any    `db:"created_at"`
}

func (s *LedgerStore) InsertEntries(ctx context.Context, tx Execer, entries []LedgerEntryInput) error {
	query := `
		INSERT INTO ledger_entries (id, transaction_id, account_id, amount, description)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, query, entry.ID, entry.TransactionID, entry.AccountID, entry.Amount, entry.Description); err != nil {
			return err
		}
	}
	return nil
}

func (s *LedgerStore) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`, accountID)
	return sum, err
}

func (s *LedgerStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]LedgerEntry, error) {
	var rows []LedgerEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, transaction_id, account_id, amount, description, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
