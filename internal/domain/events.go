package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the audit-trail record emitted after a committed operation.
// Publication is fire-and-forget; the core never blocks on delivery.
type DomainEvent interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
}

type baseEvent struct {
	id         string
	eventType  string
	occurredAt time.Time
}

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		id:         uuid.NewString(),
		eventType:  eventType,
		occurredAt: time.Now().UTC(),
	}
}

func (e baseEvent) EventID() string       { return e.id }
func (e baseEvent) EventType() string     { return e.eventType }
func (e baseEvent) OccurredAt() time.Time { return e.occurredAt }

type AccountOpenedEvent struct {
	baseEvent
	AccountID     string
	CustomerRef   string
	AccountNumber string
	SortCode      string
	AccountType   AccountType
}

func NewAccountOpenedEvent(account *Account) AccountOpenedEvent {
	return AccountOpenedEvent{
		baseEvent:     newBaseEvent("ACCOUNT_OPENED"),
		AccountID:     account.ID(),
		CustomerRef:   account.CustomerRef(),
		AccountNumber: account.Identifier().AccountNumber,
		SortCode:      account.Identifier().SortCode,
		AccountType:   account.Type(),
	}
}

type TransactionProcessedEvent struct {
	baseEvent
	AccountID    string
	Reference    string
	Type         TransactionType
	Amount       Money
	BalanceAfter Money
}

func NewTransactionProcessedEvent(transaction Transaction) TransactionProcessedEvent {
	return TransactionProcessedEvent{
		baseEvent:    newBaseEvent("TRANSACTION_PROCESSED"),
		AccountID:    transaction.AccountID,
		Reference:    transaction.Reference,
		Type:         transaction.Type,
		Amount:       transaction.Amount,
		BalanceAfter: transaction.BalanceAfter,
	}
}

type TransferCompletedEvent struct {
	baseEvent
	FromAccountID  string
	ToAccountID    string
	CorrelationRef string
	Amount         Money
	PayeeName      string
}

func NewTransferCompletedEvent(fromAccountID, toAccountID, correlationRef string, amount Money, payeeName string) TransferCompletedEvent {
	return TransferCompletedEvent{
		baseEvent:      newBaseEvent("TRANSFER_COMPLETED"),
		FromAccountID:  fromAccountID,
		ToAccountID:    toAccountID,
		CorrelationRef: correlationRef,
		Amount:         amount,
		PayeeName:      payeeName,
	}
}

type AccountClosedEvent struct {
	baseEvent
	AccountID string
}

func NewAccountClosedEvent(accountID string) AccountClosedEvent {
	return AccountClosedEvent{
		baseEvent: newBaseEvent("ACCOUNT_CLOSED"),
		AccountID: accountID,
	}
}

// EventPublisher accepts events for delivery elsewhere. Implementations must
// not block the calling operation.
type EventPublisher interface {
	Publish(event DomainEvent)
}
