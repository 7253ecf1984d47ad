package coreledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	coreledger "github.com/api-sage/core-ledger"
	"github.com/api-sage/core-ledger/internal/domain"
	"github.com/api-sage/core-ledger/internal/usecase/models"
)

func testConfig() coreledger.Config {
	return coreledger.Config{
		SortCode:          "40-00-01",
		Currency:          "GBP",
		LockWait:          2 * time.Second,
		ReferenceAttempts: 50,
	}
}

func TestEngineEndToEnd(t *testing.T) {
	engine := coreledger.NewInMemory(testConfig())
	ctx := context.Background()

	deposit := decimal.RequireFromString("100.00")
	opened, err := engine.Accounts.OpenAccount(ctx, models.OpenAccountRequest{
		CustomerRef:    "CUST-001",
		AccountType:    domain.AccountTypeCurrent,
		InitialDeposit: &deposit,
	})
	if err != nil {
		t.Fatalf("open account: %v", err)
	}
	source := *opened.Data

	opened, err = engine.Accounts.OpenAccount(ctx, models.OpenAccountRequest{
		CustomerRef: "CUST-002",
		AccountType: domain.AccountTypeSavings,
	})
	if err != nil {
		t.Fatalf("open second account: %v", err)
	}
	destination := *opened.Data

	resp, err := engine.Transfers.Transfer(ctx, models.TransferRequest{
		FromAccountID:   source.ID,
		ToAccountNumber: destination.AccountNumber,
		ToSortCode:      destination.SortCode,
		Amount:          decimal.RequireFromString("25.00"),
		PayeeName:       "CUST-002",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if resp.Data.Amount != "25.00" || resp.Data.Currency != "GBP" {
		t.Fatalf("transfer response: %+v", resp.Data)
	}

	withdrawn, err := engine.Accounts.Withdraw(ctx, models.WithdrawRequest{
		AccountID: source.ID,
		Amount:    decimal.RequireFromString("75.00"),
	})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawn.Data.BalanceAfter != "0.00" {
		t.Fatalf("balance after withdraw: got %s, want 0.00", withdrawn.Data.BalanceAfter)
	}

	if _, err := engine.Accounts.CloseAccount(ctx, source.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("engine close: %v", err)
	}
}
