package common

import (
	"errors"
	"strings"
)

// Category is the closed set of user-facing failure classes for vault
// transactions.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryUserRejected
	CategoryInsufficientBalance
	CategoryInsufficientGas
	CategoryFunctionNotFound
	CategoryVaultUninitialized
)

func (c Category) String() string {
	switch c {
	case CategoryUserRejected:
		return "user-rejected"
	case CategoryInsufficientBalance:
		return "insufficient-balance"
	case CategoryInsufficientGas:
		return "insufficient-gas-balance"
	case CategoryFunctionNotFound:
		return "function-not-found"
	case CategoryVaultUninitialized:
		return "vault-uninitialized"
	default:
		return "generic"
	}
}

// Message returns the fixed text shown to the user for c.
func (c Category) Message() string {
	switch c {
	case CategoryUserRejected:
		return "Transaction was cancelled by user."
	case CategoryInsufficientBalance:
		return "Insufficient balance for this transaction."
	case CategoryInsufficientGas:
		return "Insufficient APT balance for gas fees."
	case CategoryFunctionNotFound:
		return "Contract function not found. Please check if the vault is properly deployed."
	case CategoryVaultUninitialized:
		return "Vault not initialized. Please contact the administrator to initialize the vault."
	default:
		return "Transaction failed. Please try again."
	}
}

// classifier rules are evaluated in order; the gas rule must precede the
// plain balance rule.
var classifier = []struct {
	needle   string
	category Category
}{
	{"rejected the request", CategoryUserRejected},
	{"user rejected", CategoryUserRejected},
	{"insufficient_balance_for_transaction_fee", CategoryInsufficientGas},
	{"eobject_does_not_exist", CategoryVaultUninitialized},
	{"function_resolution_failure", CategoryFunctionNotFound},
	{"insufficient balance", CategoryInsufficientBalance},
	{"einsufficient_balance", CategoryInsufficientBalance},
}

// Classify maps raw provider or signer error text to a Category. Unknown
// text yields CategoryGeneric.
func Classify(text string) Category {
	lower := strings.ToLower(text)
	for _, rule := range classifier {
		if strings.Contains(lower, rule.needle) {
			return rule.category
		}
	}
	return CategoryGeneric
}

// ClassifyError is Classify over err's text. A nil error is generic.
func ClassifyError(err error) Category {
	if err == nil {
		return CategoryGeneric
	}
	if errors.Is(err, ErrUserRejected) {
		return CategoryUserRejected
	}
	return Classify(err.Error())
}

// UserMessage converts any error produced by the client into a single
// human-readable line. Unrecognised errors get the generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation *ValidationError
		auth       *AuthError
		submission *SubmissionError
		chain      *ChainError
		timeout    *ConfirmationTimeout
		inProgress *OperationInProgressError
	)

	switch {
	case errors.As(err, &validation):
		return validation.Reason
	case errors.As(err, &auth):
		return "Login failed (" + auth.Reason + "). Please sign in again."
	case errors.As(err, &submission):
		return submission.Category.Message()
	case errors.As(err, &chain):
		return chain.Category.Message()
	case errors.As(err, &timeout):
		return "Transaction " + timeout.Hash + " was submitted but is not confirmed yet. Check your position before trying again."
	case errors.As(err, &inProgress):
		return "Another transaction is still in progress. Please wait for it to finish."
	case errors.Is(err, ErrNoSession):
		return "Please log in first."
	default:
		return CategoryGeneric.Message()
	}
}
