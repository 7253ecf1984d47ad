package domain

import "strings"

// AccountIdentifier pairs an 8-digit account number with a branch sort code.
// The pair is globally unique across the bank.
type AccountIdentifier struct {
	AccountNumber string
	SortCode      string
}

func NewAccountIdentifier(accountNumber string, sortCode string) (AccountIdentifier, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	sortCode = strings.TrimSpace(sortCode)

	if !isEightDigitAccountNumber(accountNumber) {
		return AccountIdentifier{}, ErrInvalidAccountNumber
	}
	if !isSortCode(sortCode) {
		return AccountIdentifier{}, ErrInvalidSortCode
	}

	return AccountIdentifier{AccountNumber: accountNumber, SortCode: sortCode}, nil
}

func (i AccountIdentifier) String() string {
	return i.SortCode + " " + i.AccountNumber
}

func isEightDigitAccountNumber(value string) bool {
	return len(value) == 8 && digitsOnly(value)
}

func isSortCode(value string) bool {
	if len(value) != 8 {
		return false
	}
	for idx, ch := range value {
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

func digitsOnly(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
