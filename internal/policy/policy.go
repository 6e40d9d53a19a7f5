// Package policy decides whether a money movement can auto-complete, must be
// queued for a branch-manager decision, or is blocked outright. It is pure
// computation with no store access.
package policy

import "bankcore/internal/models"

type Outcome int

const (
	AutoApprove Outcome = iota
	RequiresApproval
	Reject
)

func (o Outcome) String() string {
	switch o {
	case AutoApprove:
		return "auto_approve"
	case RequiresApproval:
		return "requires_approval"
	case Reject:
		return "reject"
	}
	return "unknown"
}

type Decision struct {
	Outcome Outcome
	Reason  string
}

// Published thresholds, in paise.
const (
	CashDepositCap           = 200_000_00
	DepositApprovalThreshold = 50_000_00
	CashApprovalThreshold    = 25_000_00
	DemandDraftMinimum       = 1_000_00
	TransferApprovalFloor    = 100_000_00
)

type rule struct {
	matches  func(txType models.TransactionType, mode models.TransactionMode, amount int64) bool
	decision Decision
}

// Hard caps and instrument minimums come first, then approval thresholds.
// The first matching rule wins.
var rules = []rule{
	{
		matches: func(t models.TransactionType, m models.TransactionMode, amount int64) bool {
			return t == models.TypeDeposit && m == models.ModeCash && amount > CashDepositCap
		},
		decision: Decision{Reject, "cash deposits above 2,00,000 are not accepted"},
	},
	{
		matches: func(t models.TransactionType, m models.TransactionMode, amount int64) bool {
			return t == models.TypeDeposit && m == models.ModeDemandDraft && amount < DemandDraftMinimum
		},
		decision: Decision{Reject, "demand draft deposits below 1,000 are not accepted"},
	},
	{
		matches: func(t models.TransactionType, m models.TransactionMode, amount int64) bool {
			return t == models.TypeDeposit && amount > DepositApprovalThreshold
		},
		decision: Decision{RequiresApproval, "deposit above 50,000 requires branch approval"},
	},
	{
		matches: func(t models.TransactionType, m models.TransactionMode, amount int64) bool {
			return t == models.TypeDeposit && m == models.ModeCash && amount > CashApprovalThreshold
		},
		decision: Decision{RequiresApproval, "cash deposit above 25,000 requires branch approval"},
	},
	{
		matches: func(t models.TransactionType, m models.TransactionMode, amount int64) bool {
			return t == models.TypeDeposit && m == models.ModeDemandDraft
		},
		decision: Decision{RequiresApproval, "demand draft deposits require branch approval"},
	},
	{
		matches: func(t models.TransactionType, m models.TransactionMode, amount int64) bool {
			return t == models.TypeTransfer && amount >= TransferApprovalFloor
		},
		decision: Decision{RequiresApproval, "transfer of 1,00,000 or more requires branch approval"},
	},
}

// Evaluate applies the threshold table in fixed precedence order.
func Evaluate(txType models.TransactionType, mode models.TransactionMode, amountPaise int64) Decision {
	for _, r := range rules {
		if r.matches(txType, mode, amountPaise) {
			return r.decision
		}
	}
	return Decision{Outcome: AutoApprove}
}
