package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/api-sage/core-ledger/internal/commons"
	"github.com/api-sage/core-ledger/internal/domain"
	"github.com/api-sage/core-ledger/internal/logger"
	"github.com/api-sage/core-ledger/internal/usecase/models"
	"github.com/api-sage/core-ledger/internal/usecase/refgen"
)

type TransferService struct {
	store     domain.AccountStore
	publisher domain.EventPublisher
	refs      *refgen.Generator
	lockWait  time.Duration
}

func NewTransferService(
	store domain.AccountStore,
	publisher domain.EventPublisher,
	refs *refgen.Generator,
	lockWait time.Duration,
) *TransferService {
	return &TransferService{
		store:     store,
		publisher: publisher,
		refs:      refs,
		lockWait:  lockWait,
	}
}

type transferOutcome struct {
	from        *domain.Account
	to          *domain.Account
	debitEntry  domain.Transaction
	creditEntry domain.Transaction
}

// Transfer debits one account and credits another as a single atomic unit.
// Both ledger rows land together or not at all; the debit account is never
// left lighter without the credit account getting heavier.
func (s *TransferService) Transfer(ctx context.Context, req models.TransferRequest) (commons.Response[models.TransferResponse], error) {
	logger.Info("transfer service transfer request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("transfer service transfer validation failed", err, nil)
		return commons.ErrorResponse[models.TransferResponse]("validation failed", err.Error()), err
	}

	fromAccountID := strings.TrimSpace(req.FromAccountID)
	toAccountNumber := strings.TrimSpace(req.ToAccountNumber)
	toSortCode := strings.TrimSpace(req.ToSortCode)
	payeeName := strings.TrimSpace(req.PayeeName)
	correlationRef := strings.TrimSpace(req.Reference)
	if correlationRef == "" {
		correlationRef = s.refs.TransactionReference()
	}

	toAccountID, err := s.store.ResolveIdentifier(ctx, toAccountNumber, toSortCode)
	if err != nil {
		logger.Error("transfer service destination lookup failed", err, logger.Fields{
			"toAccountNumber": toAccountNumber,
			"toSortCode":      toSortCode,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransferResponse]("Destination account not found"), domain.ErrDestinationAccountNotFound
		}
		return commons.ErrorResponse[models.TransferResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}

	var outcome transferOutcome
	for attempt := 0; attempt < commitAttempts; attempt++ {
		lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
		outcome, err = s.transferOnce(lockCtx, fromAccountID, toAccountID, req, correlationRef, payeeName)
		cancel()
		if err == nil {
			break
		}
		// Only a reference collision is worth another round trip.
		if !errors.Is(err, domain.ErrDuplicateReference) {
			return s.transferErrorResponse(err), err
		}
	}
	if err != nil {
		return s.transferErrorResponse(err), err
	}

	s.publisher.Publish(domain.NewTransferCompletedEvent(
		outcome.from.ID(),
		outcome.to.ID(),
		correlationRef,
		outcome.debitEntry.Amount,
		payeeName,
	))

	response := models.TransferResponse{
		CorrelationRef:  correlationRef,
		FromAccountID:   outcome.from.ID(),
		ToAccountNumber: toAccountNumber,
		ToSortCode:      toSortCode,
		Amount:          outcome.debitEntry.Amount.Amount().StringFixed(2),
		Currency:        outcome.debitEntry.Amount.Currency(),
		PayeeName:       payeeName,
		DebitReference:  outcome.debitEntry.Reference,
		CreditReference: outcome.creditEntry.Reference,
		Status:          string(domain.TransactionStatusCompleted),
	}

	logger.Info("transfer service transfer success", logger.Fields{
		"correlationRef": correlationRef,
		"fromAccountId":  response.FromAccountID,
		"toAccountId":    outcome.to.ID(),
	})

	return commons.SuccessResponse("transfer completed successfully", response), nil
}

func (s *TransferService) transferOnce(ctx context.Context, fromAccountID string, toAccountID string, req models.TransferRequest, correlationRef string, payeeName string) (transferOutcome, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return transferOutcome{}, err
	}

	// Locks always go in ascending account-id order so two opposite
	// transfers over the same pair cannot deadlock.
	lockOrder := []string{fromAccountID, toAccountID}
	sort.Strings(lockOrder)

	loaded := make(map[string]*domain.Account, 2)
	for _, accountID := range lockOrder {
		if _, ok := loaded[accountID]; ok {
			continue
		}
		account, err := tx.LoadForUpdate(ctx, accountID)
		if err != nil {
			_ = tx.Rollback()
			return transferOutcome{}, err
		}
		loaded[accountID] = account
	}

	from := loaded[fromAccountID]
	to := loaded[toAccountID]

	amount, err := domain.NewMoney(req.Amount, from.Balance().Currency())
	if err != nil {
		_ = tx.Rollback()
		return transferOutcome{}, err
	}

	debitEntry, err := from.Debit(amount, domain.TransactionDetail{
		Description:    "Transfer to " + payeeName,
		Reference:      s.refs.TransactionReference(),
		CorrelationRef: correlationRef,
		Counterparty: &domain.Counterparty{
			AccountNumber: to.Identifier().AccountNumber,
			SortCode:      to.Identifier().SortCode,
			PayeeName:     payeeName,
		},
	})
	if err != nil {
		_ = tx.Rollback()
		return transferOutcome{}, err
	}

	creditEntry, err := to.Credit(amount, domain.TransactionDetail{
		Description:    "Transfer from " + from.Identifier().String(),
		Reference:      s.refs.TransactionReference(),
		CorrelationRef: correlationRef,
		Counterparty: &domain.Counterparty{
			AccountNumber: from.Identifier().AccountNumber,
			SortCode:      from.Identifier().SortCode,
		},
	})
	if err != nil {
		_ = tx.Rollback()
		return transferOutcome{}, err
	}

	accounts := []*domain.Account{from}
	if to != from {
		accounts = append(accounts, to)
	}

	if err := tx.Commit(ctx, accounts, []domain.Transaction{debitEntry, creditEntry}); err != nil {
		return transferOutcome{}, err
	}

	return transferOutcome{from: from, to: to, debitEntry: debitEntry, creditEntry: creditEntry}, nil
}

func (s *TransferService) transferErrorResponse(err error) commons.Response[models.TransferResponse] {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return commons.ErrorResponse[models.TransferResponse]("Insufficient funds", err.Error())
	case errors.Is(err, domain.ErrAccountNotActive):
		return commons.ErrorResponse[models.TransferResponse]("validation failed", err.Error())
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return commons.ErrorResponse[models.TransferResponse]("validation failed", err.Error())
	case errors.Is(err, domain.ErrRecordNotFound):
		return commons.ErrorResponse[models.TransferResponse]("Account not found")
	case errors.Is(err, domain.ErrLockTimeout):
		return commons.ErrorResponse[models.TransferResponse]("failed to process transfer", "Accounts are busy, try again")
	case errors.Is(err, domain.ErrDuplicateReference):
		return commons.ErrorResponse[models.TransferResponse]("failed to process transfer", "Could not allocate a unique reference")
	default:
		return commons.ErrorResponse[models.TransferResponse]("failed to process transfer", "Unable to process transfer right now")
	}
}
