package domain

import "errors"

// Validation failures. Rejected before any mutation.
var (
	ErrNegativeAmount        = errors.New("Amount cannot be negative")
	ErrInvalidAmount         = errors.New("Amount is not a valid decimal")
	ErrCurrencyRequired      = errors.New("Currency is required")
	ErrCurrencyMismatch      = errors.New("Currency mismatch")
	ErrInvalidInitialDeposit = errors.New("Initial deposit cannot be negative")
	ErrOverdraftNotPermitted = errors.New("Account type does not permit an overdraft")
	ErrInvalidAccountNumber  = errors.New("Account number must be exactly 8 digits")
	ErrInvalidSortCode       = errors.New("Sort code must be in format XX-XX-XX")
	ErrNonPositiveAmount     = errors.New("Amount must be greater than zero")
)

// State conflicts. Business-rule violations, never retried automatically.
var (
	ErrAccountNotActive            = errors.New("Account is not active")
	ErrAccountAlreadyClosed        = errors.New("Account is already closed")
	ErrAccountNotFrozen            = errors.New("Account is not frozen")
	ErrNonZeroBalance              = errors.New("Account balance must be zero to close")
	ErrTransactionAlreadyCompleted = errors.New("Transaction is already completed")
)

// Expected operational outcomes.
var (
	ErrInsufficientFunds          = errors.New("Insufficient funds")
	ErrRecordNotFound             = errors.New("Record not found")
	ErrDestinationAccountNotFound = errors.New("Destination account not found")
)

// Transient concurrency failures. Safe to retry, with a fresh reference
// where applicable.
var (
	ErrLockTimeout        = errors.New("Timed out waiting for account lock")
	ErrDuplicateReference = errors.New("Transaction reference already exists")
	ErrIdentifierTaken    = errors.New("Account identifier already exists")
)

// ErrReferenceSpaceExhausted means the account number space is close to
// saturated. Operator-visible, not retryable.
var ErrReferenceSpaceExhausted = errors.New("Reference space exhausted")
