package store

import (
	"context"
	"testing"

	"bankcore/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionColumns = []string{
	"id", "reference", "type", "mode", "status", "amount", "from_account_id",
	"to_account_id", "branch_id", "initiator_id", "description", "depositor_name",
	"approver_id", "approval_remarks", "failure_reason", "reversed_by", "decided_at", "created_at",
}

func TestTransactionStoreCreate(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewTransactionStore(db)

	mode := models.ModeCash
	to := "acc-1"
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs("tx-1", "DEP-1", models.TypeDeposit, &mode, models.StatusCompleted, int64(100000),
			nil, &to, "branch-1", "user-1", "cash deposit", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Create(context.Background(), db, TransactionInput{
		ID:          "tx-1",
		Reference:   "DEP-1",
		Type:        models.TypeDeposit,
		Mode:        &mode,
		Status:      models.StatusCompleted,
		Amount:      100000,
		ToAccountID: &to,
		BranchID:    "branch-1",
		InitiatorID: "user-1",
		Description: "cash deposit",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionStoreGetByReference(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewTransactionStore(db)

	mock.ExpectQuery("SELECT (.+) FROM transactions\\s+WHERE reference = \\$1").
		WithArgs("DEP-1").
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow("tx-1", "DEP-1", int(models.TypeDeposit), "cash", int(models.StatusRequiresApproval), int64(6000000),
				nil, "acc-1", "branch-1", "user-1", "", nil, nil, nil, nil, nil, nil, nil))

	tx, err := store.GetByReference(context.Background(), "DEP-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequiresApproval, tx.Status)
	assert.Equal(t, int64(6000000), tx.Amount)
}

func TestTransactionStoreRecordDecision(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewTransactionStore(db)

	remarks := "verified depositor identity"
	mock.ExpectExec("UPDATE transactions\\s+SET status = \\$1, approver_id = \\$2, approval_remarks = \\$3, decided_at = NOW\\(\\)").
		WithArgs(models.StatusCompleted, "mgr-1", &remarks, "tx-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.RecordDecision(context.Background(), db, "tx-1", models.StatusCompleted, "mgr-1", &remarks)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionStoreListPendingByBranch(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewTransactionStore(db)

	mock.ExpectQuery("SELECT (.+) FROM transactions\\s+WHERE branch_id = \\$1 AND status = \\$2").
		WithArgs("branch-1", models.StatusRequiresApproval).
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow("tx-1", "DEP-1", int(models.TypeDeposit), "cash", int(models.StatusRequiresApproval), int64(6000000),
				nil, "acc-1", "branch-1", "user-1", "", nil, nil, nil, nil, nil, nil, nil).
			AddRow("tx-2", "TRF-9", int(models.TypeTransfer), nil, int(models.StatusRequiresApproval), int64(15000000),
				"acc-2", "acc-3", "branch-1", "user-2", "", nil, nil, nil, nil, nil, nil, nil))

	rows, err := store.ListPendingByBranch(context.Background(), "branch-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.TypeTransfer, rows[1].Type)
}
