package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/core-ledger/internal/domain"
	"github.com/api-sage/core-ledger/internal/usecase/models"
	"github.com/api-sage/core-ledger/internal/usecase/refgen"
	"github.com/api-sage/core-ledger/internal/usecase/service_interfaces"
	"github.com/api-sage/core-ledger/internal/usecase/services"
)

const testSortCode = "40-00-01"

type capturePublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (p *capturePublisher) Publish(event domain.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.EventType())
	}
	return types
}

type harness struct {
	store     *memory.AccountStore
	publisher *capturePublisher
	accounts  service_interfaces.AccountService
	transfers service_interfaces.TransferService
}

func newHarness() *harness {
	store := memory.NewAccountStore()
	publisher := &capturePublisher{}
	refs := refgen.NewGenerator(store, testSortCode, 50)

	return &harness{
		store:     store,
		publisher: publisher,
		accounts:  services.NewAccountService(store, publisher, refs, testSortCode, "GBP", 2*time.Second),
		transfers: services.NewTransferService(store, publisher, refs, 2*time.Second),
	}
}

func (h *harness) openAccount(t *testing.T, balance string, overdraft string, accountType domain.AccountType) models.AccountResponse {
	t.Helper()

	deposit := decimal.RequireFromString(balance)
	req := models.OpenAccountRequest{
		CustomerRef:    "CUST-001",
		AccountType:    accountType,
		InitialDeposit: &deposit,
	}
	if overdraft != "" {
		limit := decimal.RequireFromString(overdraft)
		req.OverdraftLimit = &limit
	}

	resp, err := h.accounts.OpenAccount(context.Background(), req)
	if err != nil {
		t.Fatalf("open account: %v", err)
	}
	if resp.Data == nil {
		t.Fatal("open account returned no data")
	}
	return *resp.Data
}

func (h *harness) balanceOf(t *testing.T, accountID string) string {
	t.Helper()

	ctx := context.Background()
	tx, err := h.store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	account, err := tx.LoadForUpdate(ctx, accountID)
	if err != nil {
		t.Fatalf("load %s: %v", accountID, err)
	}
	_ = tx.Rollback()
	return account.Balance().Amount().StringFixed(2)
}
