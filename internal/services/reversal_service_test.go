package services

import (
	"context"
	"testing"

	"bankcore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeTransfer(t *testing.T, f *fixture) string {
	t.Helper()
	result, err := f.txService.SubmitTransfer(context.Background(), TransferRequest{
		Reference:     "TRF-001",
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		AmountPaise:   10_000_00,
		InitiatorID:   "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, result.Transaction.Status)
	return result.Transaction.ID
}

func TestReverseCompletedTransferRestoresBalances(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 50_000_00)
	f.addAccount("acc-2", "branch-1", "user-2", 0)
	id := completeTransfer(t, f)

	result, err := f.reversals.Reverse(context.Background(), id, "manager-1", "customer dispute upheld")
	require.NoError(t, err)
	assert.Equal(t, models.TypeReversal, result.Transaction.Type)
	assert.Equal(t, models.StatusCompleted, result.Transaction.Status)
	assert.Equal(t, ReversalReference(id), result.Transaction.Reference)

	assert.Equal(t, int64(50_000_00), f.accountBalance("acc-1"))
	assert.Zero(t, f.accountBalance("acc-2"))

	original, err := f.txService.GetTransaction(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReversed, original.Status)
	require.NotNil(t, original.ReversedBy)
	assert.Equal(t, result.Transaction.ID, *original.ReversedBy)
}

func TestReverseTwice(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 50_000_00)
	f.addAccount("acc-2", "branch-1", "user-2", 0)
	id := completeTransfer(t, f)

	_, err := f.reversals.Reverse(context.Background(), id, "manager-1", "dispute")
	require.NoError(t, err)

	_, err = f.reversals.Reverse(context.Background(), id, "manager-1", "dispute")
	assert.ErrorIs(t, err, ErrAlreadyReversed)
	// Second attempt moved nothing.
	assert.Equal(t, int64(50_000_00), f.accountBalance("acc-1"))
}

func TestReversePendingTransaction(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 150_000_00)
	f.addAccount("acc-2", "branch-1", "user-2", 0)

	queued, err := f.txService.SubmitTransfer(context.Background(), TransferRequest{
		Reference:     "TRF-001",
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		AmountPaise:   100_000_00,
		InitiatorID:   "user-1",
	})
	require.NoError(t, err)

	_, err = f.reversals.Reverse(context.Background(), queued.Transaction.ID, "manager-1", "dispute")
	assert.ErrorIs(t, err, ErrNotReversible)
}

func TestReverseAReversal(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 50_000_00)
	f.addAccount("acc-2", "branch-1", "user-2", 0)
	id := completeTransfer(t, f)

	reversal, err := f.reversals.Reverse(context.Background(), id, "manager-1", "dispute")
	require.NoError(t, err)

	_, err = f.reversals.Reverse(context.Background(), reversal.Transaction.ID, "manager-1", "undo")
	assert.ErrorIs(t, err, ErrNotReversible)
}

func TestReverseDepositDebitsCustomer(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	deposit, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 10_000_00,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)

	_, err = f.reversals.Reverse(context.Background(), deposit.Transaction.ID, "manager-1", "counterfeit notes")
	require.NoError(t, err)
	assert.Zero(t, f.accountBalance("acc-1"))
	assert.Zero(t, f.accountBalance("vault-1"))
}

func TestReverseUnknownTransaction(t *testing.T) {
	f := newFixture()

	_, err := f.reversals.Reverse(context.Background(), "missing", "manager-1", "dispute")
	assert.ErrorIs(t, err, ErrNotFound)
}
