package domain

import "context"

// AccountStore owns the authoritative copy of every account and its ledger.
// Begin opens a unit of work; accounts loaded through it are exclusively
// held until Commit or Rollback.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *Account) error
	Begin(ctx context.Context) (AccountTx, error)
	ResolveIdentifier(ctx context.Context, accountNumber string, sortCode string) (string, error)
	ExistsByIdentifier(ctx context.Context, accountNumber string, sortCode string) (bool, error)
	ExistsByReference(ctx context.Context, reference string) (bool, error)
}

// AccountTx is one atomic load-mutate-commit scope. Commit persists every
// account snapshot and ledger row passed to it, or none of them. A failed or
// abandoned unit of work leaves no partial effects.
type AccountTx interface {
	LoadForUpdate(ctx context.Context, accountID string) (*Account, error)
	LoadForUpdateByIdentifier(ctx context.Context, accountNumber string, sortCode string) (*Account, error)
	Commit(ctx context.Context, accounts []*Account, transactions []Transaction) error
	Rollback() error
}
