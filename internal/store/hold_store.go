package store

import "context"

// HoldStore persists advisory fund reservations. Holds are only created and
// released inside the same database transaction that holds the account row
// lock, which keeps available balance consistent for concurrent debits.
type HoldStore struct {
	db DB
}

func NewHoldStore(db DB) *HoldStore {
	return &HoldStore{db: db}
}

type HoldInput struct {
	ID            string
	TransactionID string
	AccountID     string
	Amount        int64
}

func (s *HoldStore) Create(ctx context.Context, tx Execer, input HoldInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO holds (id, transaction_id, account_id, amount)
		VALUES ($1, $2, $3, $4)
	`, input.ID, input.TransactionID, input.AccountID, input.Amount)
	return err
}

// Release marks the hold for a transaction as released and reports how many
// rows changed; zero means there was no active hold.
func (s *HoldStore) Release(ctx context.Context, tx Execer, transactionID string) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE holds
		SET released_at = NOW()
		WHERE transaction_id = $1 AND released_at IS NULL
	`, transactionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ActiveSum reads the total held against an account. Callers must already
// hold the account row lock in the same transaction.
func (s *HoldStore) ActiveSum(ctx context.Context, tx Getter, accountID string) (int64, error) {
	return activeSum(ctx, tx, accountID)
}

// ActiveSumView is the unlocked variant for read-side snapshots.
func (s *HoldStore) ActiveSumView(ctx context.Context, accountID string) (int64, error) {
	return activeSum(ctx, s.db, accountID)
}

func activeSum(ctx context.Context, g Getter, accountID string) (int64, error) {
	var sum int64
	err := g.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM holds
		WHERE account_id = $1 AND released_at IS NULL
	`, accountID)
	return sum, err
}
