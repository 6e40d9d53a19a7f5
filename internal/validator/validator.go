// Package validator wraps go-playground/validator with the domain rules the
// API payloads use.
package validator

import (
	"regexp"

	"bankcore/internal/models"

	playground "github.com/go-playground/validator/v10"
)

var accountNumberRegex = regexp.MustCompile(`^[0-9]{10,16}$`)

// New returns a validator with the custom tags registered:
//
//	accnum - 10 to 16 digit account number
//	txmode - a known transaction mode
func New() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())
	_ = v.RegisterValidation("accnum", func(fl playground.FieldLevel) bool {
		return accountNumberRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("txmode", func(fl playground.FieldLevel) bool {
		mode := models.TransactionMode(fl.Field().String())
		return models.IsDepositMode(mode) || models.IsWithdrawalMode(mode)
	})
	return v
}
