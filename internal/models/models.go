package models

type AccountStatus string

const (
	AccountPending  AccountStatus = "pending"
	AccountActive   AccountStatus = "active"
	AccountDormant  AccountStatus = "dormant"
	AccountClosed   AccountStatus = "closed"
	AccountRejected AccountStatus = "rejected"
)

type AccountType string

const (
	AccountSavings      AccountType = "savings"
	AccountCurrent      AccountType = "current"
	AccountMinor        AccountType = "minor"
	AccountSalary       AccountType = "salary"
	AccountFixedDeposit AccountType = "fixed_deposit"
)
