package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-ledger/internal/domain"
)

type OpenAccountRequest struct {
	CustomerRef    string             `json:"customerRef"`
	AccountType    domain.AccountType `json:"accountType"`
	Currency       string             `json:"currency"`
	InitialDeposit *decimal.Decimal   `json:"initialDeposit"`
	OverdraftLimit *decimal.Decimal   `json:"overdraftLimit"`
}

func (r OpenAccountRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.CustomerRef) == "" {
		errs = append(errs, "customerRef is required")
	}
	if !isKnownAccountType(r.AccountType) {
		errs = append(errs, "accountType is not supported")
	}
	if currency := strings.TrimSpace(r.Currency); currency != "" && len(currency) != 3 {
		errs = append(errs, "currency must be 3 characters")
	}
	if r.OverdraftLimit != nil && r.OverdraftLimit.IsNegative() {
		errs = append(errs, "overdraftLimit cannot be negative")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type AccountResponse struct {
	ID             string `json:"id"`
	CustomerRef    string `json:"customerRef"`
	AccountNumber  string `json:"accountNumber"`
	SortCode       string `json:"sortCode"`
	AccountType    string `json:"accountType"`
	Currency       string `json:"currency"`
	Balance        string `json:"balance"`
	OverdraftLimit string `json:"overdraftLimit,omitempty"`
	Status         string `json:"status"`
	OpenedAt       string `json:"openedAt"`
	ClosedAt       string `json:"closedAt,omitempty"`
}

type DepositRequest struct {
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

func (r DepositRequest) Validate() error {
	return validateMovement(r.AccountID, r.Amount)
}

type WithdrawRequest struct {
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

func (r WithdrawRequest) Validate() error {
	return validateMovement(r.AccountID, r.Amount)
}

type TransactionResponse struct {
	ID             string `json:"id"`
	Reference      string `json:"reference"`
	AccountID      string `json:"accountId"`
	Type           string `json:"type"`
	Amount         string `json:"amount"`
	BalanceAfter   string `json:"balanceAfter"`
	Description    string `json:"description"`
	CorrelationRef string `json:"correlationRef,omitempty"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

func validateMovement(accountID string, amount decimal.Decimal) error {
	var errs []string

	if strings.TrimSpace(accountID) == "" {
		errs = append(errs, "accountId is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isKnownAccountType(accountType domain.AccountType) bool {
	switch accountType {
	case domain.AccountTypeCurrent, domain.AccountTypeSavings, domain.AccountTypeISA,
		domain.AccountTypeBusiness, domain.AccountTypeJoint:
		return true
	}
	return false
}
