package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Counterparty identifies the other side of a transfer entry.
type Counterparty struct {
	AccountNumber string
	SortCode      string
	PayeeName     string
}

// TransactionDetail carries the caller-facing attributes of a ledger entry.
// Reference is the globally unique ledger reference; CorrelationRef links the
// two entries of a transfer and may repeat across entries.
type TransactionDetail struct {
	Description    string
	Reference      string
	CorrelationRef string
	Counterparty   *Counterparty
}

// Transaction is an append-only ledger entry. It is created exclusively by
// Account.Debit and Account.Credit so BalanceAfter always matches the
// mutation that produced it. Rows are never deleted and never mutated once
// completed.
type Transaction struct {
	ID             string
	Reference      string
	AccountID      string
	Type           TransactionType
	Amount         Money
	BalanceAfter   Money
	Description    string
	CorrelationRef string
	Counterparty   *Counterparty
	Status         TransactionStatus
	CreatedAt      time.Time
	ProcessedAt    *time.Time
}

func newTransaction(accountID string, txType TransactionType, amount Money, balanceAfter Money, detail TransactionDetail) Transaction {
	now := time.Now().UTC()
	return Transaction{
		ID:             uuid.NewString(),
		Reference:      strings.TrimSpace(detail.Reference),
		AccountID:      accountID,
		Type:           txType,
		Amount:         amount,
		BalanceAfter:   balanceAfter,
		Description:    strings.TrimSpace(detail.Description),
		CorrelationRef: strings.TrimSpace(detail.CorrelationRef),
		Counterparty:   detail.Counterparty,
		Status:         TransactionStatusCompleted,
		CreatedAt:      now,
		ProcessedAt:    &now,
	}
}

// Cancel is only valid while the transaction is pending external clearing.
func (t *Transaction) Cancel() error {
	if t.Status == TransactionStatusCompleted {
		return ErrTransactionAlreadyCompleted
	}
	t.Status = TransactionStatusCancelled
	return nil
}

func (t *Transaction) MarkFailed() error {
	if t.Status == TransactionStatusCompleted {
		return ErrTransactionAlreadyCompleted
	}
	t.Status = TransactionStatusFailed
	return nil
}
