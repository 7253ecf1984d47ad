package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type TransferRequest struct {
	FromAccountID   string          `json:"fromAccountId"`
	ToAccountNumber string          `json:"toAccountNumber"`
	ToSortCode      string          `json:"toSortCode"`
	Amount          decimal.Decimal `json:"amount"`
	Reference       string          `json:"reference"`
	PayeeName       string          `json:"payeeName"`
}

func (r TransferRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.FromAccountID) == "" {
		errs = append(errs, "fromAccountId is required")
	}
	if !isEightDigits(r.ToAccountNumber) {
		errs = append(errs, "toAccountNumber must be exactly 8 digits")
	}
	if !isSortCodeFormat(r.ToSortCode) {
		errs = append(errs, "toSortCode must be in format XX-XX-XX")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if strings.TrimSpace(r.PayeeName) == "" {
		errs = append(errs, "payeeName is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type TransferResponse struct {
	CorrelationRef  string `json:"correlationRef"`
	FromAccountID   string `json:"fromAccountId"`
	ToAccountNumber string `json:"toAccountNumber"`
	ToSortCode      string `json:"toSortCode"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	PayeeName       string `json:"payeeName"`
	DebitReference  string `json:"debitReference"`
	CreditReference string `json:"creditReference"`
	Status          string `json:"status"`
}

func isEightDigits(value string) bool {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != 8 {
		return false
	}
	for _, ch := range trimmed {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func isSortCodeFormat(value string) bool {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != 8 {
		return false
	}
	for idx, ch := range trimmed {
		if idx == 2 || idx == 5 {
			if ch != '-' {
				return false
			}
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
