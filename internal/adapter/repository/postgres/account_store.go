package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/api-sage/core-ledger/internal/domain"
)

// AccountStore implements the store contract on postgres. Row locks taken
// with SELECT ... FOR UPDATE give each unit of work exclusive access to its
// accounts; the unique constraints on (account_number, sort_code) and on
// transactions.reference arbitrate races the application loses.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	const query = `
INSERT INTO accounts (
	id,
	customer_ref,
	account_number,
	sort_code,
	account_type,
	currency,
	balance,
	overdraft_limit,
	interest_rate,
	status,
	opened_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	record := account.Snapshot()

	var overdraft *string
	if record.OverdraftLimit != nil {
		v := record.OverdraftLimit.StringFixed(2)
		overdraft = &v
	}

	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.CustomerRef,
		record.AccountNumber,
		record.SortCode,
		record.AccountType,
		record.Currency,
		record.Balance.StringFixed(2),
		overdraft,
		record.InterestRate.String(),
		record.Status,
		record.OpenedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdentifierTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *AccountStore) Begin(ctx context.Context) (domain.AccountTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin unit of work: %w", err)
	}
	return &accountTx{tx: tx}, nil
}

func (s *AccountStore) ResolveIdentifier(ctx context.Context, accountNumber string, sortCode string) (string, error) {
	const query = `SELECT id FROM accounts WHERE account_number = $1 AND sort_code = $2`

	var id string
	err := s.db.QueryRowContext(ctx, query, accountNumber, sortCode).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrRecordNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve identifier: %w", err)
	}
	return id, nil
}

func (s *AccountStore) ExistsByIdentifier(ctx context.Context, accountNumber string, sortCode string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1 AND sort_code = $2)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, accountNumber, sortCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("check identifier: %w", err)
	}
	return exists, nil
}

func (s *AccountStore) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM transactions WHERE reference = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, reference).Scan(&exists); err != nil {
		return false, fmt.Errorf("check reference: %w", err)
	}
	return exists, nil
}

type accountTx struct {
	tx *sql.Tx
}

func (t *accountTx) LoadForUpdate(ctx context.Context, accountID string) (*domain.Account, error) {
	const query = `
SELECT
	id,
	customer_ref,
	account_number,
	sort_code,
	account_type,
	currency,
	balance,
	overdraft_limit,
	interest_rate,
	status,
	opened_at,
	closed_at
FROM accounts
WHERE id = $1
FOR UPDATE`

	return t.scanAccount(t.tx.QueryRowContext(ctx, query, accountID))
}

func (t *accountTx) LoadForUpdateByIdentifier(ctx context.Context, accountNumber string, sortCode string) (*domain.Account, error) {
	const query = `
SELECT
	id,
	customer_ref,
	account_number,
	sort_code,
	account_type,
	currency,
	balance,
	overdraft_limit,
	interest_rate,
	status,
	opened_at,
	closed_at
FROM accounts
WHERE account_number = $1 AND sort_code = $2
FOR UPDATE`

	return t.scanAccount(t.tx.QueryRowContext(ctx, query, accountNumber, sortCode))
}

func (t *accountTx) Commit(ctx context.Context, accounts []*domain.Account, transactions []domain.Transaction) error {
	const updateAccount = `
UPDATE accounts
SET balance = $1, status = $2, closed_at = $3, updated_at = NOW()
WHERE id = $4`

	const insertTransaction = `
INSERT INTO transactions (
	id,
	reference,
	account_id,
	type,
	currency,
	amount,
	balance_after,
	description,
	correlation_ref,
	counterparty_account_number,
	counterparty_sort_code,
	payee_name,
	status,
	created_at,
	processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	for _, account := range accounts {
		record := account.Snapshot()
		if _, err := t.tx.ExecContext(ctx, updateAccount, record.Balance.StringFixed(2), record.Status, record.ClosedAt, record.ID); err != nil {
			_ = t.tx.Rollback()
			return fmt.Errorf("persist account %s: %w", record.ID, err)
		}
	}

	for _, transaction := range transactions {
		var counterpartyNumber, counterpartySortCode, payeeName *string
		if transaction.Counterparty != nil {
			counterpartyNumber = &transaction.Counterparty.AccountNumber
			counterpartySortCode = &transaction.Counterparty.SortCode
			if transaction.Counterparty.PayeeName != "" {
				payeeName = &transaction.Counterparty.PayeeName
			}
		}

		_, err := t.tx.ExecContext(
			ctx,
			insertTransaction,
			transaction.ID,
			transaction.Reference,
			transaction.AccountID,
			transaction.Type,
			transaction.Amount.Currency(),
			transaction.Amount.Amount().StringFixed(2),
			transaction.BalanceAfter.Amount().StringFixed(2),
			transaction.Description,
			nullable(transaction.CorrelationRef),
			counterpartyNumber,
			counterpartySortCode,
			payeeName,
			transaction.Status,
			transaction.CreatedAt,
			transaction.ProcessedAt,
		)
		if err != nil {
			_ = t.tx.Rollback()
			if isUniqueViolation(err) {
				return domain.ErrDuplicateReference
			}
			return fmt.Errorf("append ledger entry %s: %w", transaction.Reference, err)
		}
	}

	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	return nil
}

func (t *accountTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (t *accountTx) scanAccount(row *sql.Row) (*domain.Account, error) {
	var record domain.AccountRecord
	var balance string
	var overdraft sql.NullString
	var interestRate string
	var closedAt sql.NullTime

	err := row.Scan(
		&record.ID,
		&record.CustomerRef,
		&record.AccountNumber,
		&record.SortCode,
		&record.AccountType,
		&record.Currency,
		&balance,
		&overdraft,
		&interestRate,
		&record.Status,
		&record.OpenedAt,
		&closedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		if isLockNotAvailable(err) || errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrLockTimeout
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	record.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	record.InterestRate, err = decimal.NewFromString(interestRate)
	if err != nil {
		return nil, fmt.Errorf("parse interest rate: %w", err)
	}
	if overdraft.Valid {
		limit, err := decimal.NewFromString(overdraft.String)
		if err != nil {
			return nil, fmt.Errorf("parse overdraft limit: %w", err)
		}
		record.OverdraftLimit = &limit
	}
	if closedAt.Valid {
		record.ClosedAt = &closedAt.Time
	}

	return domain.AccountFromRecord(record)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}

func isLockNotAvailable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "55P03"
	}
	return false
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
