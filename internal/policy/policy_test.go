package policy

import (
	"testing"

	"bankcore/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCashDepositBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		want   Outcome
	}{
		{"at auto-approve boundary", 25_000_00, AutoApprove},
		{"just above approval threshold", 25_000_01, RequiresApproval},
		{"well above approval threshold", 49_000_00, RequiresApproval},
		{"at regulatory cap", 200_000_00, RequiresApproval},
		{"above regulatory cap", 200_000_01, Reject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := Evaluate(models.TypeDeposit, models.ModeCash, tc.amount)
			assert.Equal(t, tc.want, decision.Outcome)
		})
	}
}

func TestNonCashDepositBoundaries(t *testing.T) {
	decision := Evaluate(models.TypeDeposit, models.ModeNEFT, 50_000_00)
	assert.Equal(t, AutoApprove, decision.Outcome)

	decision = Evaluate(models.TypeDeposit, models.ModeNEFT, 50_000_01)
	assert.Equal(t, RequiresApproval, decision.Outcome)

	// the cash cap does not apply to other modes
	decision = Evaluate(models.TypeDeposit, models.ModeRTGS, 500_000_00)
	assert.Equal(t, RequiresApproval, decision.Outcome)
}

func TestDemandDraftRules(t *testing.T) {
	decision := Evaluate(models.TypeDeposit, models.ModeDemandDraft, 999_00)
	assert.Equal(t, Reject, decision.Outcome)

	// at or above the minimum a demand draft always needs a decision
	decision = Evaluate(models.TypeDeposit, models.ModeDemandDraft, 1_000_00)
	assert.Equal(t, RequiresApproval, decision.Outcome)

	decision = Evaluate(models.TypeDeposit, models.ModeDemandDraft, 60_000_00)
	assert.Equal(t, RequiresApproval, decision.Outcome)
}

func TestTransferBoundaries(t *testing.T) {
	decision := Evaluate(models.TypeTransfer, "", 99_999_00)
	assert.Equal(t, AutoApprove, decision.Outcome)

	decision = Evaluate(models.TypeTransfer, "", 100_000_00)
	assert.Equal(t, RequiresApproval, decision.Outcome)
}

func TestWithdrawalsAutoApprove(t *testing.T) {
	decision := Evaluate(models.TypeWithdrawal, models.ModeBankCounter, 300_000_00)
	assert.Equal(t, AutoApprove, decision.Outcome)
}

func TestRejectionsCarryReasons(t *testing.T) {
	decision := Evaluate(models.TypeDeposit, models.ModeCash, 250_000_00)
	assert.Equal(t, Reject, decision.Outcome)
	assert.NotEmpty(t, decision.Reason)
}
