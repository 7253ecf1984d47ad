package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/api-sage/core-ledger/internal/domain"
	"github.com/api-sage/core-ledger/internal/usecase/models"
)

func TestTransferServiceValidationError(t *testing.T) {
	h := newHarness()

	_, err := h.transfers.Transfer(context.Background(), models.TransferRequest{})
	if err == nil {
		t.Fatal("expected validation error for empty transfer request")
	}
}

func TestTransferMovesFundsAndAppendsTwoEntries(t *testing.T) {
	h := newHarness()
	source := h.openAccount(t, "100.00", "", domain.AccountTypeCurrent)
	destination := h.openAccount(t, "10.00", "", domain.AccountTypeSavings)

	resp, err := h.transfers.Transfer(context.Background(), models.TransferRequest{
		FromAccountID:   source.ID,
		ToAccountNumber: destination.AccountNumber,
		ToSortCode:      destination.SortCode,
		Amount:          decimal.RequireFromString("40.00"),
		Reference:       "RENT-AUG",
		PayeeName:       "J Smith",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got := h.balanceOf(t, source.ID); got != "60.00" {
		t.Fatalf("source balance: got %s, want 60.00", got)
	}
	if got := h.balanceOf(t, destination.ID); got != "50.00" {
		t.Fatalf("destination balance: got %s, want 50.00", got)
	}

	debitRows := h.store.TransactionsForAccount(source.ID)
	creditRows := h.store.TransactionsForAccount(destination.ID)
	if len(debitRows) != 1 || len(creditRows) != 1 {
		t.Fatalf("ledger rows: got %d debit-side, %d credit-side", len(debitRows), len(creditRows))
	}

	debit := debitRows[0]
	credit := creditRows[0]
	if debit.Type != domain.TransactionTypeDebit || credit.Type != domain.TransactionTypeCredit {
		t.Fatalf("entry types: got %s and %s", debit.Type, credit.Type)
	}
	if debit.Status != domain.TransactionStatusCompleted || credit.Status != domain.TransactionStatusCompleted {
		t.Fatalf("entry statuses: got %s and %s", debit.Status, credit.Status)
	}
	if debit.CorrelationRef != "RENT-AUG" || credit.CorrelationRef != "RENT-AUG" {
		t.Fatalf("correlation refs: got %q and %q", debit.CorrelationRef, credit.CorrelationRef)
	}
	if debit.Reference == credit.Reference {
		t.Fatal("each ledger row needs its own unique reference")
	}
	if debit.Counterparty == nil || debit.Counterparty.PayeeName != "J Smith" {
		t.Fatalf("debit counterparty: got %+v", debit.Counterparty)
	}
	if got := debit.BalanceAfter.Amount().StringFixed(2); got != "60.00" {
		t.Fatalf("debit balanceAfter: got %s, want 60.00", got)
	}
	if got := credit.BalanceAfter.Amount().StringFixed(2); got != "50.00" {
		t.Fatalf("credit balanceAfter: got %s, want 50.00", got)
	}

	if resp.Data.DebitReference != debit.Reference || resp.Data.CreditReference != credit.Reference {
		t.Fatal("response references do not match ledger rows")
	}

	types := h.publisher.eventTypes()
	if len(types) == 0 || types[len(types)-1] != "TRANSFER_COMPLETED" {
		t.Fatalf("expected TRANSFER_COMPLETED event, got %v", types)
	}
}

func TestTransferInsufficientFundsTouchesNothing(t *testing.T) {
	h := newHarness()
	source := h.openAccount(t, "100.00", "", domain.AccountTypeCurrent)
	destination := h.openAccount(t, "10.00", "", domain.AccountTypeCurrent)

	_, err := h.transfers.Transfer(context.Background(), models.TransferRequest{
		FromAccountID:   source.ID,
		ToAccountNumber: destination.AccountNumber,
		ToSortCode:      destination.SortCode,
		Amount:          decimal.RequireFromString("100.01"),
		PayeeName:       "J Smith",
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if got := h.balanceOf(t, source.ID); got != "100.00" {
		t.Fatalf("source balance: got %s, want 100.00", got)
	}
	if got := h.balanceOf(t, destination.ID); got != "10.00" {
		t.Fatalf("destination balance: got %s, want 10.00", got)
	}
	if rows := h.store.TransactionsForAccount(source.ID); len(rows) != 0 {
		t.Fatalf("source ledger must be empty, got %d rows", len(rows))
	}
	if rows := h.store.TransactionsForAccount(destination.ID); len(rows) != 0 {
		t.Fatalf("destination ledger must be empty, got %d rows", len(rows))
	}
}

func TestTransferToFrozenDestinationRollsBackDebit(t *testing.T) {
	h := newHarness()
	source := h.openAccount(t, "100.00", "", domain.AccountTypeCurrent)
	destination := h.openAccount(t, "10.00", "", domain.AccountTypeCurrent)

	if _, err := h.accounts.FreezeAccount(context.Background(), destination.ID); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	_, err := h.transfers.Transfer(context.Background(), models.TransferRequest{
		FromAccountID:   source.ID,
		ToAccountNumber: destination.AccountNumber,
		ToSortCode:      destination.SortCode,
		Amount:          decimal.RequireFromString("40.00"),
		PayeeName:       "J Smith",
	})
	if !errors.Is(err, domain.ErrAccountNotActive) {
		t.Fatalf("expected ErrAccountNotActive, got %v", err)
	}

	// the in-memory debit must not survive the failed credit
	if got := h.balanceOf(t, source.ID); got != "100.00" {
		t.Fatalf("source balance after rollback: got %s, want 100.00", got)
	}
	if rows := h.store.TransactionsForAccount(source.ID); len(rows) != 0 {
		t.Fatalf("source ledger must be empty, got %d rows", len(rows))
	}
}

func TestTransferToUnknownDestination(t *testing.T) {
	h := newHarness()
	source := h.openAccount(t, "100.00", "", domain.AccountTypeCurrent)

	_, err := h.transfers.Transfer(context.Background(), models.TransferRequest{
		FromAccountID:   source.ID,
		ToAccountNumber: "99999999",
		ToSortCode:      testSortCode,
		Amount:          decimal.RequireFromString("1.00"),
		PayeeName:       "Nobody",
	})
	if !errors.Is(err, domain.ErrDestinationAccountNotFound) {
		t.Fatalf("expected ErrDestinationAccountNotFound, got %v", err)
	}
	if got := h.balanceOf(t, source.ID); got != "100.00" {
		t.Fatalf("source balance: got %s, want 100.00", got)
	}
}

func TestTransferToSelfNetsToZeroWithTwoEntries(t *testing.T) {
	h := newHarness()
	account := h.openAccount(t, "100.00", "", domain.AccountTypeCurrent)

	_, err := h.transfers.Transfer(context.Background(), models.TransferRequest{
		FromAccountID:   account.ID,
		ToAccountNumber: account.AccountNumber,
		ToSortCode:      account.SortCode,
		Amount:          decimal.RequireFromString("40.00"),
		PayeeName:       "Self",
	})
	if err != nil {
		t.Fatalf("self transfer: %v", err)
	}

	if got := h.balanceOf(t, account.ID); got != "100.00" {
		t.Fatalf("balance: got %s, want 100.00", got)
	}

	rows := h.store.TransactionsForAccount(account.ID)
	if len(rows) != 2 {
		t.Fatalf("ledger rows: got %d, want 2", len(rows))
	}
	if rows[0].Type != domain.TransactionTypeDebit || rows[1].Type != domain.TransactionTypeCredit {
		t.Fatalf("entry order: got %s then %s, want DEBIT then CREDIT", rows[0].Type, rows[1].Type)
	}
}

func TestConcurrentOpposingTransfersConserveFunds(t *testing.T) {
	h := newHarness()
	alice := h.openAccount(t, "500.00", "", domain.AccountTypeCurrent)
	bob := h.openAccount(t, "500.00", "", domain.AccountTypeCurrent)

	var group errgroup.Group
	for i := 0; i < 20; i++ {
		group.Go(func() error {
			_, err := h.transfers.Transfer(context.Background(), models.TransferRequest{
				FromAccountID:   alice.ID,
				ToAccountNumber: bob.AccountNumber,
				ToSortCode:      bob.SortCode,
				Amount:          decimal.RequireFromString("5.00"),
				PayeeName:       "Bob",
			})
			return err
		})
		group.Go(func() error {
			_, err := h.transfers.Transfer(context.Background(), models.TransferRequest{
				FromAccountID:   bob.ID,
				ToAccountNumber: alice.AccountNumber,
				ToSortCode:      alice.SortCode,
				Amount:          decimal.RequireFromString("5.00"),
				PayeeName:       "Alice",
			})
			return err
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("concurrent transfers: %v", err)
	}

	aliceBalance := decimal.RequireFromString(h.balanceOf(t, alice.ID))
	bobBalance := decimal.RequireFromString(h.balanceOf(t, bob.ID))
	if !aliceBalance.Add(bobBalance).Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("funds not conserved: %s + %s", aliceBalance, bobBalance)
	}
	// equal counts in both directions must net out
	if !aliceBalance.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("alice balance: got %s, want 500.00", aliceBalance)
	}

	totalRows := len(h.store.TransactionsForAccount(alice.ID)) + len(h.store.TransactionsForAccount(bob.ID))
	if totalRows != 80 {
		t.Fatalf("ledger rows: got %d, want 80", totalRows)
	}
}
