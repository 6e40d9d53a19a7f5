package services

import "errors"

var (
	ErrValidation             = errors.New("invalid request")
	ErrNotFound               = errors.New("not found")
	ErrAccountNotActive       = errors.New("account is not active")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrSameAccountTransfer    = errors.New("cannot transfer to same account")
	ErrUnauthorizedAccount    = errors.New("account does not belong to user")
	ErrDuplicateReference     = errors.New("reference already used for a different transaction")
	ErrNotCancellable         = errors.New("transaction can no longer be cancelled")
	ErrAlreadyDecided         = errors.New("transaction already decided")
	ErrSelfApproval           = errors.New("initiator cannot decide own transaction")
	ErrNotReversible          = errors.New("transaction cannot be reversed")
	ErrAlreadyReversed        = errors.New("transaction already reversed")
	ErrConcurrentModification = errors.New("account was modified concurrently")
)

// isLedgerFailure reports whether applying a movement failed for a business
// reason that should be recorded on the transaction rather than bubbled up as
// an infrastructure error.
func isLedgerFailure(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrAccountNotActive) ||
		errors.Is(err, ErrConcurrentModification)
}
