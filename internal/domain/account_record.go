package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountRecord is the persistence shape of an Account. Only stores use it;
// everything else works against the aggregate.
type AccountRecord struct {
	ID             string
	CustomerRef    string
	AccountNumber  string
	SortCode       string
	AccountType    AccountType
	Currency       string
	Balance        decimal.Decimal
	OverdraftLimit *decimal.Decimal
	InterestRate   decimal.Decimal
	Status         AccountStatus
	OpenedAt       time.Time
	ClosedAt       *time.Time
}

func (a *Account) Snapshot() AccountRecord {
	record := AccountRecord{
		ID:            a.id,
		CustomerRef:   a.customerRef,
		AccountNumber: a.identifier.AccountNumber,
		SortCode:      a.identifier.SortCode,
		AccountType:   a.accountType,
		Currency:      a.balance.Currency(),
		Balance:       a.balance.Amount(),
		InterestRate:  a.interestRate,
		Status:        a.status,
		OpenedAt:      a.openedAt,
	}
	if a.overdraftLimit != nil {
		limit := a.overdraftLimit.Amount()
		record.OverdraftLimit = &limit
	}
	if a.closedAt != nil {
		closed := *a.closedAt
		record.ClosedAt = &closed
	}
	return record
}

// AccountFromRecord rehydrates a stored account without re-running opening
// validation; the record is trusted to have come from Snapshot.
func AccountFromRecord(record AccountRecord) (*Account, error) {
	identifier, err := NewAccountIdentifier(record.AccountNumber, record.SortCode)
	if err != nil {
		return nil, err
	}

	account := &Account{
		id:           record.ID,
		customerRef:  record.CustomerRef,
		identifier:   identifier,
		accountType:  record.AccountType,
		balance:      Money{amount: record.Balance.RoundBank(2), currency: record.Currency},
		interestRate: record.InterestRate,
		status:       record.Status,
		openedAt:     record.OpenedAt,
	}
	if record.OverdraftLimit != nil {
		limit, err := NewMoney(*record.OverdraftLimit, record.Currency)
		if err != nil {
			return nil, err
		}
		account.overdraftLimit = &limit
	}
	if record.ClosedAt != nil {
		closed := *record.ClosedAt
		account.closedAt = &closed
	}
	return account, nil
}
