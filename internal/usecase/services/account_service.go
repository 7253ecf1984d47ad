package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-ledger/internal/commons"
	"github.com/api-sage/core-ledger/internal/domain"
	"github.com/api-sage/core-ledger/internal/logger"
	"github.com/api-sage/core-ledger/internal/usecase/models"
	"github.com/api-sage/core-ledger/internal/usecase/refgen"
)

const commitAttempts = 5

type AccountService struct {
	store     domain.AccountStore
	publisher domain.EventPublisher
	refs      *refgen.Generator
	sortCode  string
	currency  string
	lockWait  time.Duration
}

func NewAccountService(
	store domain.AccountStore,
	publisher domain.EventPublisher,
	refs *refgen.Generator,
	sortCode string,
	currency string,
	lockWait time.Duration,
) *AccountService {
	return &AccountService{
		store:     store,
		publisher: publisher,
		refs:      refs,
		sortCode:  strings.TrimSpace(sortCode),
		currency:  strings.ToUpper(strings.TrimSpace(currency)),
		lockWait:  lockWait,
	}
}

func (s *AccountService) OpenAccount(ctx context.Context, req models.OpenAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service open account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service open account validation failed", err, nil)
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}

	initialDeposit := domain.ZeroMoney(currency)
	if req.InitialDeposit != nil {
		deposit, err := domain.NewMoney(*req.InitialDeposit, currency)
		if err != nil {
			if errors.Is(err, domain.ErrNegativeAmount) {
				err = domain.ErrInvalidInitialDeposit
			}
			logger.Error("account service open account rejected", err, nil)
			return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
		}
		initialDeposit = deposit
	}

	var overdraftLimit *domain.Money
	if req.OverdraftLimit != nil {
		limit, err := domain.NewMoney(*req.OverdraftLimit, currency)
		if err != nil {
			return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
		}
		overdraftLimit = &limit
	}

	var account *domain.Account
	var err error
	for attempt := 0; attempt < commitAttempts; attempt++ {
		var accountNumber string
		accountNumber, err = s.refs.AccountNumber(ctx)
		if err != nil {
			logger.Error("account service open account number generation failed", err, nil)
			if errors.Is(err, domain.ErrReferenceSpaceExhausted) {
				return commons.ErrorResponse[models.AccountResponse]("failed to open account", "Account number space is exhausted"), err
			}
			return commons.ErrorResponse[models.AccountResponse]("failed to open account", "Unable to open account right now"), err
		}

		var identifier domain.AccountIdentifier
		identifier, err = domain.NewAccountIdentifier(accountNumber, s.sortCode)
		if err != nil {
			return commons.ErrorResponse[models.AccountResponse]("failed to open account", "Unable to open account right now"), err
		}

		account, err = domain.OpenAccount(req.CustomerRef, req.AccountType, identifier, initialDeposit, overdraftLimit)
		if err != nil {
			logger.Error("account service open account rejected", err, nil)
			return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
		}

		err = s.store.CreateAccount(ctx, account)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrIdentifierTaken) {
			logger.Error("account service open account store failed", err, nil)
			return commons.ErrorResponse[models.AccountResponse]("failed to open account", "Unable to open account right now"), err
		}
	}
	if err != nil {
		return commons.ErrorResponse[models.AccountResponse]("failed to open account", "Unable to open account right now"), err
	}

	s.publisher.Publish(domain.NewAccountOpenedEvent(account))

	response := mapAccountToResponse(account)
	logger.Info("account service open account success", logger.Fields{
		"accountId":     response.ID,
		"accountNumber": response.AccountNumber,
		"customerRef":   response.CustomerRef,
	})

	return commons.SuccessResponse("account opened successfully", response), nil
}

func (s *AccountService) Deposit(ctx context.Context, req models.DepositRequest) (commons.Response[models.TransactionResponse], error) {
	logger.Info("account service deposit request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service deposit validation failed", err, nil)
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Deposit"
	}

	transaction, err := s.applyMovement(ctx, strings.TrimSpace(req.AccountID), req.Amount, description, strings.TrimSpace(req.Reference), domain.TransactionTypeCredit)
	if err != nil {
		return s.movementErrorResponse("deposit", err), err
	}

	logger.Info("account service deposit success", logger.Fields{
		"accountId": transaction.AccountID,
		"reference": transaction.Reference,
	})

	return commons.SuccessResponse("funds deposited successfully", mapTransactionToResponse(transaction)), nil
}

func (s *AccountService) Withdraw(ctx context.Context, req models.WithdrawRequest) (commons.Response[models.TransactionResponse], error) {
	logger.Info("account service withdraw request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service withdraw validation failed", err, nil)
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Withdrawal"
	}

	transaction, err := s.applyMovement(ctx, strings.TrimSpace(req.AccountID), req.Amount, description, strings.TrimSpace(req.Reference), domain.TransactionTypeDebit)
	if err != nil {
		return s.movementErrorResponse("withdraw", err), err
	}

	logger.Info("account service withdraw success", logger.Fields{
		"accountId": transaction.AccountID,
		"reference": transaction.Reference,
	})

	return commons.SuccessResponse("funds withdrawn successfully", mapTransactionToResponse(transaction)), nil
}

func (s *AccountService) FreezeAccount(ctx context.Context, accountID string) (commons.Response[models.AccountResponse], error) {
	return s.transitionAccount(ctx, accountID, "freeze", func(account *domain.Account) error {
		return account.Freeze()
	})
}

func (s *AccountService) UnfreezeAccount(ctx context.Context, accountID string) (commons.Response[models.AccountResponse], error) {
	return s.transitionAccount(ctx, accountID, "unfreeze", func(account *domain.Account) error {
		return account.Unfreeze()
	})
}

func (s *AccountService) CloseAccount(ctx context.Context, accountID string) (commons.Response[models.AccountResponse], error) {
	response, err := s.transitionAccount(ctx, accountID, "close", func(account *domain.Account) error {
		return account.Close()
	})
	if err == nil {
		s.publisher.Publish(domain.NewAccountClosedEvent(strings.TrimSpace(accountID)))
	}
	return response, err
}

// applyMovement runs one single-account unit of work. A duplicate ledger
// reference loses the commit race and the whole operation is retried with a
// fresh reference.
func (s *AccountService) applyMovement(ctx context.Context, accountID string, amount decimal.Decimal, description string, correlationRef string, movement domain.TransactionType) (domain.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < commitAttempts; attempt++ {
		lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
		transaction, err := s.applyMovementOnce(lockCtx, accountID, amount, description, correlationRef, movement)
		cancel()
		if err == nil {
			s.publisher.Publish(domain.NewTransactionProcessedEvent(transaction))
			return transaction, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrDuplicateReference) {
			return domain.Transaction{}, err
		}
	}
	return domain.Transaction{}, lastErr
}

func (s *AccountService) applyMovementOnce(ctx context.Context, accountID string, amount decimal.Decimal, description string, correlationRef string, movement domain.TransactionType) (domain.Transaction, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}

	account, err := tx.LoadForUpdate(ctx, accountID)
	if err != nil {
		_ = tx.Rollback()
		return domain.Transaction{}, err
	}

	money, err := domain.NewMoney(amount, account.Balance().Currency())
	if err != nil {
		_ = tx.Rollback()
		return domain.Transaction{}, err
	}

	detail := domain.TransactionDetail{
		Description:    description,
		Reference:      s.refs.TransactionReference(),
		CorrelationRef: correlationRef,
	}

	var transaction domain.Transaction
	switch movement {
	case domain.TransactionTypeCredit:
		transaction, err = account.Credit(money, detail)
	default:
		transaction, err = account.Debit(money, detail)
	}
	if err != nil {
		_ = tx.Rollback()
		return domain.Transaction{}, err
	}

	if err := tx.Commit(ctx, []*domain.Account{account}, []domain.Transaction{transaction}); err != nil {
		return domain.Transaction{}, err
	}

	return transaction, nil
}

func (s *AccountService) transitionAccount(ctx context.Context, accountID string, action string, mutate func(*domain.Account) error) (commons.Response[models.AccountResponse], error) {
	accountID = strings.TrimSpace(accountID)
	logger.Info("account service "+action+" request", logger.Fields{
		"accountId": accountID,
	})

	if accountID == "" {
		err := errors.New("accountId is required")
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	tx, err := s.store.Begin(lockCtx)
	if err != nil {
		return commons.ErrorResponse[models.AccountResponse]("failed to "+action+" account", "Unable to update account right now"), err
	}

	account, err := tx.LoadForUpdate(lockCtx, accountID)
	if err != nil {
		_ = tx.Rollback()
		logger.Error("account service "+action+" load failed", err, logger.Fields{
			"accountId": accountID,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		if errors.Is(err, domain.ErrLockTimeout) {
			return commons.ErrorResponse[models.AccountResponse]("failed to "+action+" account", "Account is busy, try again"), err
		}
		return commons.ErrorResponse[models.AccountResponse]("failed to "+action+" account", "Unable to update account right now"), err
	}

	if err := mutate(account); err != nil {
		_ = tx.Rollback()
		logger.Error("account service "+action+" rejected", err, logger.Fields{
			"accountId": accountID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to "+action+" account", err.Error()), err
	}

	if err := tx.Commit(lockCtx, []*domain.Account{account}, nil); err != nil {
		logger.Error("account service "+action+" commit failed", err, logger.Fields{
			"accountId": accountID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to "+action+" account", "Unable to update account right now"), err
	}

	logger.Info("account service "+action+" success", logger.Fields{
		"accountId": accountID,
	})

	return commons.SuccessResponse("account updated successfully", mapAccountToResponse(account)), nil
}

func (s *AccountService) movementErrorResponse(action string, err error) commons.Response[models.TransactionResponse] {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return commons.ErrorResponse[models.TransactionResponse]("Account not found")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return commons.ErrorResponse[models.TransactionResponse]("Insufficient funds", err.Error())
	case errors.Is(err, domain.ErrAccountNotActive):
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error())
	case errors.Is(err, domain.ErrLockTimeout):
		return commons.ErrorResponse[models.TransactionResponse]("failed to "+action, "Account is busy, try again")
	default:
		return commons.ErrorResponse[models.TransactionResponse]("failed to "+action, "Unable to process request right now")
	}
}

func mapAccountToResponse(account *domain.Account) models.AccountResponse {
	response := models.AccountResponse{
		ID:            account.ID(),
		CustomerRef:   account.CustomerRef(),
		AccountNumber: account.Identifier().AccountNumber,
		SortCode:      account.Identifier().SortCode,
		AccountType:   string(account.Type()),
		Currency:      account.Balance().Currency(),
		Balance:       account.Balance().Amount().StringFixed(2),
		Status:        string(account.Status()),
		OpenedAt:      account.OpenedAt().Format(time.RFC3339),
	}
	if limit := account.OverdraftLimit(); limit != nil {
		response.OverdraftLimit = limit.Amount().StringFixed(2)
	}
	if closedAt := account.ClosedAt(); closedAt != nil {
		response.ClosedAt = closedAt.Format(time.RFC3339)
	}
	return response
}

func mapTransactionToResponse(transaction domain.Transaction) models.TransactionResponse {
	return models.TransactionResponse{
		ID:             transaction.ID,
		Reference:      transaction.Reference,
		AccountID:      transaction.AccountID,
		Type:           string(transaction.Type),
		Amount:         transaction.Amount.Amount().StringFixed(2),
		BalanceAfter:   transaction.BalanceAfter.Amount().StringFixed(2),
		Description:    transaction.Description,
		CorrelationRef: transaction.CorrelationRef,
		Status:         string(transaction.Status),
		CreatedAt:      transaction.CreatedAt.Format(time.RFC3339),
	}
}
