package store

import (
	"context"
	"testing"

	"bankcore/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestAccountStoreGetByNumber(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewAccountStore(db)

	mock.ExpectQuery("SELECT (.+) FROM accounts\\s+WHERE account_number = \\$1").
		WithArgs("1002003001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_number", "type", "status", "balance", "version", "branch_id", "owner_id", "is_vault", "last_activity_at", "created_at"}).
			AddRow("acc-1", "1002003001", "savings", "active", int64(100000), int64(3), "branch-1", nil, false, nil, nil))

	account, err := store.GetByNumber(context.Background(), "1002003001")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)
	assert.Equal(t, models.AccountActive, account.Status)
	assert.Equal(t, int64(100000), account.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountStoreGetForUpdateLocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewAccountStore(db)

	mock.ExpectQuery("SELECT (.+) FROM accounts\\s+WHERE id = \\$1\\s+FOR UPDATE").
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_number", "type", "status", "balance", "version", "branch_id", "owner_id", "is_vault"}).
			AddRow("acc-1", "1002003001", "savings", "active", int64(50000), int64(0), "branch-1", nil, false))

	account, err := store.GetForUpdate(context.Background(), db, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), account.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountStoreUpdateBalanceVersionCheck(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewAccountStore(db)

	mock.ExpectExec("UPDATE accounts\\s+SET balance = \\$1, version = version \\+ 1, last_activity_at = NOW\\(\\)\\s+WHERE id = \\$2 AND version = \\$3").
		WithArgs(int64(40000), "acc-1", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := store.UpdateBalance(context.Background(), db, "acc-1", 40000, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountStoreUpdateBalanceStaleVersion(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewAccountStore(db)

	mock.ExpectExec("UPDATE accounts").
		WithArgs(int64(40000), "acc-1", int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := store.UpdateBalance(context.Background(), db, "acc-1", 40000, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestAccountStoreGetVault(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewAccountStore(db)

	mock.ExpectQuery("SELECT (.+) FROM accounts\\s+WHERE branch_id = \\$1 AND is_vault = TRUE").
		WithArgs("branch-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_number", "type", "status", "balance", "version", "branch_id", "owner_id", "is_vault", "last_activity_at", "created_at"}).
			AddRow("vault-1", "0000000001", "current", "active", int64(-250000), int64(12), "branch-1", nil, true, nil, nil))

	vault, err := store.GetVault(context.Background(), "branch-1")
	require.NoError(t, err)
	assert.True(t, vault.IsVault)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountStoreCreate(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewAccountStore(db)

	owner := "user-9"
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("acc-9", "1002003009", "savings", "active", int64(0), "branch-1", &owner, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Create(context.Background(), Account{
		ID:            "acc-9",
		AccountNumber: "1002003009",
		Type:          models.AccountSavings,
		Status:        models.AccountActive,
		BranchID:      "branch-1",
		OwnerID:       &owner,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
