package services

import (
	"context"
	"sync"
	"testing"

	"bankcore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDepositAutoCompletes(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	result, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 10_000_00,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, models.StatusCompleted, result.Transaction.Status)
	assert.Equal(t, int64(10_000_00), f.accountBalance("acc-1"))
	assert.Equal(t, int64(-10_000_00), f.accountBalance("vault-1"))
}

func TestSubmitDepositLedgerEntriesBalance(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	_, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 5_000_00,
		Mode:        models.ModeUPI,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)

	var sum int64
	for _, entry := range f.st.entries {
		sum += entry.Amount
	}
	assert.Zero(t, sum)
	assert.Len(t, f.st.entries, 2)
}

func TestSubmitDepositAboveThresholdQueues(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	result, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 60_000_00,
		Mode:        models.ModeCheque,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequiresApproval, result.Transaction.Status)
	// No movement and no hold until the branch decides; deposits reserve nothing.
	assert.Zero(t, f.accountBalance("acc-1"))
	assert.Empty(t, f.st.holds)
}

func TestSubmitCashDepositAboveCapRejected(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	result, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 200_000_01,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, result.Transaction.Status)
	require.NotNil(t, result.Transaction.FailureReason)
	assert.Zero(t, f.accountBalance("acc-1"))
}

func TestSubmitDepositValidation(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	_, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 0,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-002",
		AccountID:   "acc-1",
		AmountPaise: 100_00,
		Mode:        models.ModeBankCounter,
		InitiatorID: "user-1",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-003",
		AccountID:   "missing",
		AmountPaise: 100_00,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitDepositInactiveAccount(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)
	f.setAccountStatus("acc-1", models.AccountDormant)

	_, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 100_00,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	assert.ErrorIs(t, err, ErrAccountNotActive)
}

func TestSubmitReplaySameReference(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	req := DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 10_000_00,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	}
	first, err := f.txService.SubmitDeposit(context.Background(), req)
	require.NoError(t, err)

	second, err := f.txService.SubmitDeposit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
	// The balance moved once.
	assert.Equal(t, int64(10_000_00), f.accountBalance("acc-1"))
}

func TestSubmitSameReferenceDifferentPayload(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	_, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 10_000_00,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)

	_, err = f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 20_000_00,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	assert.ErrorIs(t, err, ErrDuplicateReference)
}

func TestSubmitSameReferenceDifferentMode(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	first, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 30_000_00,
		Mode:        models.ModeCheque,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, first.Transaction.Status)

	// Cash at this amount would queue for approval; the changed mode must
	// surface as a conflict, not replay the cheque outcome.
	_, err = f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 30_000_00,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.Equal(t, int64(30_000_00), f.accountBalance("acc-1"))
}

func TestSubmitWithdrawalHappyPath(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 1_000_00)

	result, err := f.txService.SubmitWithdrawal(context.Background(), WithdrawalRequest{
		Reference:   "WDL-001",
		AccountID:   "acc-1",
		AmountPaise: 600_00,
		Mode:        models.ModeBankCounter,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, result.Transaction.Status)
	assert.Equal(t, int64(400_00), f.accountBalance("acc-1"))
}

func TestSubmitWithdrawalInsufficientFunds(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 500_00)

	_, err := f.txService.SubmitWithdrawal(context.Background(), WithdrawalRequest{
		Reference:   "WDL-001",
		AccountID:   "acc-1",
		AmountPaise: 600_00,
		Mode:        models.ModeBankCounter,
		InitiatorID: "user-1",
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(500_00), f.accountBalance("acc-1"))
}

func TestSubmitWithdrawalRequiresOwnership(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 1_000_00)

	_, err := f.txService.SubmitWithdrawal(context.Background(), WithdrawalRequest{
		Reference:   "WDL-001",
		AccountID:   "acc-1",
		AmountPaise: 100_00,
		Mode:        models.ModeBankCounter,
		InitiatorID: "someone-else",
	})
	assert.ErrorIs(t, err, ErrUnauthorizedAccount)
}

func TestConcurrentWithdrawalsOnlyOneSucceeds(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 1_000_00)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	amounts := []int64{600_00, 500_00}
	for i := range amounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.txService.SubmitWithdrawal(context.Background(), WithdrawalRequest{
				Reference:   "WDL-" + string(rune('A'+i)),
				AccountID:   "acc-1",
				AmountPaise: amounts[i],
				Mode:        models.ModeBankCounter,
				InitiatorID: "user-1",
			})
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientFunds)
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	balance := f.accountBalance("acc-1")
	assert.True(t, balance == 400_00 || balance == 500_00, "balance %d", balance)
}

func TestSubmitTransferQueuesLargeAmountWithHold(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 150_000_00)
	f.addAccount("acc-2", "branch-1", "user-2", 0)

	result, err := f.txService.SubmitTransfer(context.Background(), TransferRequest{
		Reference:     "TRF-001",
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		AmountPaise:   100_000_00,
		InitiatorID:   "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequiresApproval, result.Transaction.Status)
	require.Len(t, f.st.holds, 1)
	assert.Equal(t, int64(100_000_00), f.st.holds[0].amount)
	// Funds stay put until the decision.
	assert.Equal(t, int64(150_000_00), f.accountBalance("acc-1"))

	// Held funds are not available for a second debit.
	_, err = f.txService.SubmitWithdrawal(context.Background(), WithdrawalRequest{
		Reference:   "WDL-001",
		AccountID:   "acc-1",
		AmountPaise: 60_000_00,
		Mode:        models.ModeBankCounter,
		InitiatorID: "user-1",
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSubmitTransferSmallAutoCompletes(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 50_000_00)
	f.addAccount("acc-2", "branch-1", "user-2", 0)

	result, err := f.txService.SubmitTransfer(context.Background(), TransferRequest{
		Reference:     "TRF-001",
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		AmountPaise:   10_000_00,
		InitiatorID:   "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, result.Transaction.Status)
	assert.Equal(t, int64(40_000_00), f.accountBalance("acc-1"))
	assert.Equal(t, int64(10_000_00), f.accountBalance("acc-2"))
}

func TestSubmitTransferSameAccount(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 50_000_00)

	_, err := f.txService.SubmitTransfer(context.Background(), TransferRequest{
		Reference:     "TRF-001",
		FromAccountID: "acc-1",
		ToAccountID:   "acc-1",
		AmountPaise:   10_000_00,
		InitiatorID:   "user-1",
	})
	assert.ErrorIs(t, err, ErrSameAccountTransfer)
}

func TestCancelQueuedTransactionReleasesHold(t *testing.T) {
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

	cancelled, err := f.txService.Cancel(context.Background(), queued.Transaction.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Transaction.Status)

	held, err := f.holds.ActiveSumView(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Zero(t, held)
}

func TestCancelRequiresInitiator(t *testing.T) {
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

	_, err = f.txService.Cancel(context.Background(), queued.Transaction.ID, "user-2")
	assert.ErrorIs(t, err, ErrUnauthorizedAccount)
}

func TestCancelCompletedTransaction(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 1_000_00)

	done, err := f.txService.SubmitWithdrawal(context.Background(), WithdrawalRequest{
		Reference:   "WDL-001",
		AccountID:   "acc-1",
		AmountPaise: 100_00,
		Mode:        models.ModeBankCounter,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)

	_, err = f.txService.Cancel(context.Background(), done.Transaction.ID, "user-1")
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestSubmissionBroadcastsUpdate(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	_, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 100_00,
		Mode:        models.ModeCash,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)
	require.Len(t, f.hub.updates, 1)
	assert.Equal(t, int(models.StatusCompleted), f.hub.updates[0].Status)
}

func TestAuditTrailListsTransactionHistory(t *testing.T) {
	f := newFixture()
	f.addVault("vault-1", "branch-1")
	f.addAccount("acc-1", "branch-1", "user-1", 0)

	result, err := f.txService.SubmitDeposit(context.Background(), DepositRequest{
		Reference:   "DEP-001",
		AccountID:   "acc-1",
		AmountPaise: 1_000_00,
		Mode:        models.ModeUPI,
		InitiatorID: "user-1",
	})
	require.NoError(t, err)

	logs, err := f.txService.AuditTrail(context.Background(), result.Transaction.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "transaction.completed", logs[0].Action)
	require.NotNil(t, logs[0].ActorUserID)
	assert.Equal(t, "user-1", *logs[0].ActorUserID)
}

func TestAuditTrailUnknownTransaction(t *testing.T) {
	f := newFixture()

	_, err := f.txService.AuditTrail(context.Background(), "missing", 50, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}
