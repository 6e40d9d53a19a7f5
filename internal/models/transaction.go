package models

// TransactionType values are stable ordinals exposed to API callers.
// Do not reorder.
type TransactionType int

const (
	TypeDeposit TransactionType = iota
	TypeWithdrawal
	TypeTransfer
	TypeBillPayment
	TypeLoanPayment
	TypePayment
	TypeRefund
	TypeInterest
	TypeFee
	TypeServiceCharge
	TypeReversal
)

var typeNames = map[TransactionType]string{
	TypeDeposit:       "deposit",
	TypeWithdrawal:    "withdrawal",
	TypeTransfer:      "transfer",
	TypeBillPayment:   "bill_payment",
	TypeLoanPayment:   "loan_payment",
	TypePayment:       "payment",
	TypeRefund:        "refund",
	TypeInterest:      "interest",
	TypeFee:           "fee",
	TypeServiceCharge: "service_charge",
	TypeReversal:      "reversal",
}

func (t TransactionType) String() string {
	name, ok := typeNames[t]
	if !ok {
		return "unknown"
	}
	return name
}

// TransactionMode identifies the instrument used for a deposit or withdrawal.
type TransactionMode string

const (
	ModeCash           TransactionMode = "cash"
	ModeCheque         TransactionMode = "cheque"
	ModeOnlineTransfer TransactionMode = "online_transfer"
	ModeDemandDraft    TransactionMode = "demand_draft"
	ModeNEFT           TransactionMode = "neft"
	ModeRTGS           TransactionMode = "rtgs"
	ModeUPI            TransactionMode = "upi"
	ModeIMPS           TransactionMode = "imps"
	ModeBankCounter    TransactionMode = "bank_counter"
)

var depositModes = map[TransactionMode]struct{}{
	ModeCash:           {},
	ModeCheque:         {},
	ModeOnlineTransfer: {},
	ModeDemandDraft:    {},
	ModeNEFT:           {},
	ModeRTGS:           {},
	ModeUPI:            {},
	ModeIMPS:           {},
}

var withdrawalModes = map[TransactionMode]struct{}{
	ModeBankCounter: {},
	ModeCheque:      {},
}

func IsDepositMode(mode TransactionMode) bool {
	_, ok := depositModes[mode]
	return ok
}

func IsWithdrawalMode(mode TransactionMode) bool {
	_, ok := withdrawalModes[mode]
	return ok
}
