package memory

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/api-sage/core-ledger/internal/domain"
)

// AccountStore is the in-memory reference implementation of the store
// contract. Accounts are handed out as rehydrated copies; the authoritative
// record only changes on Commit, so an abandoned unit of work leaves no
// trace. One weighted semaphore per account linearizes all operations that
// touch it.
type AccountStore struct {
	mu           sync.Mutex
	accounts     map[string]domain.AccountRecord
	byIdentifier map[string]string
	ledger       map[string][]domain.Transaction
	references   map[string]struct{}
	locks        map[string]*semaphore.Weighted
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts:     make(map[string]domain.AccountRecord),
		byIdentifier: make(map[string]string),
		ledger:       make(map[string][]domain.Transaction),
		references:   make(map[string]struct{}),
		locks:        make(map[string]*semaphore.Weighted),
	}
}

func (s *AccountStore) CreateAccount(_ context.Context, account *domain.Account) error {
	record := account.Snapshot()
	key := identifierKey(record.AccountNumber, record.SortCode)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byIdentifier[key]; exists {
		return domain.ErrIdentifierTaken
	}

	s.accounts[record.ID] = record
	s.byIdentifier[key] = record.ID
	return nil
}

func (s *AccountStore) Begin(_ context.Context) (domain.AccountTx, error) {
	return &accountTx{store: s, held: make(map[string]*semaphore.Weighted)}, nil
}

func (s *AccountStore) ResolveIdentifier(_ context.Context, accountNumber string, sortCode string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byIdentifier[identifierKey(accountNumber, sortCode)]
	if !ok {
		return "", domain.ErrRecordNotFound
	}
	return id, nil
}

func (s *AccountStore) ExistsByIdentifier(_ context.Context, accountNumber string, sortCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byIdentifier[identifierKey(accountNumber, sortCode)]
	return ok, nil
}

func (s *AccountStore) ExistsByReference(_ context.Context, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.references[reference]
	return ok, nil
}

// TransactionsForAccount returns the ledger rows of one account in creation
// order. Read-side only; tests and projections use it.
func (s *AccountStore) TransactionsForAccount(accountID string) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.ledger[accountID]
	out := make([]domain.Transaction, len(rows))
	copy(out, rows)
	return out
}

func (s *AccountStore) lockFor(accountID string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[accountID]
	if !ok {
		lock = semaphore.NewWeighted(1)
		s.locks[accountID] = lock
	}
	return lock
}

type accountTx struct {
	store *AccountStore
	held  map[string]*semaphore.Weighted
	done  bool
}

func (t *accountTx) LoadForUpdate(ctx context.Context, accountID string) (*domain.Account, error) {
	if err := t.acquire(ctx, accountID); err != nil {
		return nil, err
	}

	t.store.mu.Lock()
	record, ok := t.store.accounts[accountID]
	t.store.mu.Unlock()
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return domain.AccountFromRecord(record)
}

func (t *accountTx) LoadForUpdateByIdentifier(ctx context.Context, accountNumber string, sortCode string) (*domain.Account, error) {
	accountID, err := t.store.ResolveIdentifier(ctx, accountNumber, sortCode)
	if err != nil {
		return nil, err
	}
	return t.LoadForUpdate(ctx, accountID)
}

func (t *accountTx) Commit(_ context.Context, accounts []*domain.Account, transactions []domain.Transaction) error {
	if t.done {
		return errors.New("unit of work already finished")
	}

	t.store.mu.Lock()
	seen := make(map[string]struct{}, len(transactions))
	for _, transaction := range transactions {
		_, stored := t.store.references[transaction.Reference]
		_, inBatch := seen[transaction.Reference]
		if stored || inBatch {
			t.store.mu.Unlock()
			t.release()
			return domain.ErrDuplicateReference
		}
		seen[transaction.Reference] = struct{}{}
	}
	for _, account := range accounts {
		t.store.accounts[account.ID()] = account.Snapshot()
	}
	for _, transaction := range transactions {
		t.store.references[transaction.Reference] = struct{}{}
		t.store.ledger[transaction.AccountID] = append(t.store.ledger[transaction.AccountID], transaction)
	}
	t.store.mu.Unlock()

	t.release()
	return nil
}

func (t *accountTx) Rollback() error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *accountTx) acquire(ctx context.Context, accountID string) error {
	if _, already := t.held[accountID]; already {
		return nil
	}

	lock := t.store.lockFor(accountID)
	if err := lock.Acquire(ctx, 1); err != nil {
		return domain.ErrLockTimeout
	}
	t.held[accountID] = lock
	return nil
}

func (t *accountTx) release() {
	for _, lock := range t.held {
		lock.Release(1)
	}
	t.held = make(map[string]*semaphore.Weighted)
	t.done = true
}

func identifierKey(accountNumber string, sortCode string) string {
	return sortCode + "|" + accountNumber
}
