package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

type AccountType string

const (
	AccountTypeCurrent  AccountType = "CURRENT"
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeISA      AccountType = "ISA"
	AccountTypeBusiness AccountType = "BUSINESS"
	AccountTypeJoint    AccountType = "JOINT"
)

var overdraftEligible = map[AccountType]bool{
	AccountTypeCurrent:  true,
	AccountTypeBusiness: true,
	AccountTypeJoint:    true,
}

var defaultInterestRates = map[AccountType]decimal.Decimal{
	AccountTypeSavings: decimal.RequireFromString("0.0125"),
	AccountTypeISA:     decimal.RequireFromString("0.015"),
}

// Account is the aggregate owning a balance, overdraft headroom and
// lifecycle status. Balance and status are never set from outside the
// aggregate; every mutation goes through Debit, Credit, Freeze, Unfreeze or
// Close so the invariant balance+overdraft >= 0 holds while the account is
// active.
type Account struct {
	id             string
	customerRef    string
	identifier     AccountIdentifier
	accountType    AccountType
	balance        Money
	overdraftLimit *Money
	interestRate   decimal.Decimal
	status         AccountStatus
	openedAt       time.Time
	closedAt       *time.Time
}

func OpenAccount(customerRef string, accountType AccountType, identifier AccountIdentifier, initialDeposit Money, overdraftLimit *Money) (*Account, error) {
	customerRef = strings.TrimSpace(customerRef)

	if initialDeposit.IsNegative() {
		return nil, ErrInvalidInitialDeposit
	}
	if overdraftLimit != nil {
		if !overdraftEligible[accountType] {
			return nil, ErrOverdraftNotPermitted
		}
		if overdraftLimit.IsNegative() {
			return nil, ErrNegativeAmount
		}
		if overdraftLimit.Currency() != initialDeposit.Currency() {
			return nil, ErrCurrencyMismatch
		}
	}

	return &Account{
		id:             uuid.NewString(),
		customerRef:    customerRef,
		identifier:     identifier,
		accountType:    accountType,
		balance:        initialDeposit,
		overdraftLimit: overdraftLimit,
		interestRate:   defaultInterestRates[accountType],
		status:         AccountStatusActive,
		openedAt:       time.Now().UTC(),
	}, nil
}

// Debit is the single authority for whether this account can afford an
// amount. Callers never check available funds themselves.
func (a *Account) Debit(amount Money, detail TransactionDetail) (Transaction, error) {
	if err := a.requireActive(); err != nil {
		return Transaction{}, err
	}
	if err := a.requireSameCurrency(amount); err != nil {
		return Transaction{}, err
	}
	if !amount.IsPositive() {
		return Transaction{}, ErrNonPositiveAmount
	}

	available := a.availableBalance()
	if amount.Amount().GreaterThan(available) {
		return Transaction{}, ErrInsufficientFunds
	}

	newBalance, err := a.balance.Subtract(amount)
	if err != nil {
		return Transaction{}, err
	}
	a.balance = newBalance

	return newTransaction(a.id, TransactionTypeDebit, amount, a.balance, detail), nil
}

func (a *Account) Credit(amount Money, detail TransactionDetail) (Transaction, error) {
	if err := a.requireActive(); err != nil {
		return Transaction{}, err
	}
	if err := a.requireSameCurrency(amount); err != nil {
		return Transaction{}, err
	}
	if !amount.IsPositive() {
		return Transaction{}, ErrNonPositiveAmount
	}

	newBalance, err := a.balance.Add(amount)
	if err != nil {
		return Transaction{}, err
	}
	a.balance = newBalance

	return newTransaction(a.id, TransactionTypeCredit, amount, a.balance, detail), nil
}

func (a *Account) Freeze() error {
	if a.status == AccountStatusClosed {
		return ErrAccountAlreadyClosed
	}
	a.status = AccountStatusFrozen
	return nil
}

func (a *Account) Unfreeze() error {
	if a.status == AccountStatusClosed {
		return ErrAccountAlreadyClosed
	}
	if a.status != AccountStatusFrozen {
		return ErrAccountNotFrozen
	}
	a.status = AccountStatusActive
	return nil
}

// Close is terminal. A closed account keeps a zero balance forever.
func (a *Account) Close() error {
	if a.status == AccountStatusClosed {
		return ErrAccountAlreadyClosed
	}
	if !a.balance.IsZero() {
		return ErrNonZeroBalance
	}
	now := time.Now().UTC()
	a.status = AccountStatusClosed
	a.closedAt = &now
	return nil
}

func (a *Account) ID() string                    { return a.id }
func (a *Account) CustomerRef() string           { return a.customerRef }
func (a *Account) Identifier() AccountIdentifier { return a.identifier }
func (a *Account) Type() AccountType             { return a.accountType }
func (a *Account) Balance() Money                { return a.balance }
func (a *Account) InterestRate() decimal.Decimal { return a.interestRate }
func (a *Account) Status() AccountStatus         { return a.status }
func (a *Account) OpenedAt() time.Time           { return a.openedAt }
func (a *Account) ClosedAt() *time.Time          { return a.closedAt }

func (a *Account) OverdraftLimit() *Money {
	if a.overdraftLimit == nil {
		return nil
	}
	limit := *a.overdraftLimit
	return &limit
}

func (a *Account) availableBalance() decimal.Decimal {
	available := a.balance.Amount()
	if a.overdraftLimit != nil && a.overdraftLimit.IsPositive() {
		available = available.Add(a.overdraftLimit.Amount())
	}
	return available
}

func (a *Account) requireActive() error {
	if a.status != AccountStatusActive {
		return ErrAccountNotActive
	}
	return nil
}

func (a *Account) requireSameCurrency(amount Money) error {
	if amount.Currency() != a.balance.Currency() {
		return ErrCurrencyMismatch
	}
	return nil
}
