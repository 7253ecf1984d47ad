package refgen_test

import (
	"context"
	"errors"
	"testing"

	"github.com/api-sage/core-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/core-ledger/internal/domain"
	"github.com/api-sage/core-ledger/internal/usecase/refgen"
)

type saturatedStore struct {
	domain.AccountStore
	checks int
}

func (s *saturatedStore) ExistsByIdentifier(context.Context, string, string) (bool, error) {
	s.checks++
	return true, nil
}

func TestAccountNumberFormat(t *testing.T) {
	gen := refgen.NewGenerator(memory.NewAccountStore(), "40-00-01", 0)

	number, err := gen.AccountNumber(context.Background())
	if err != nil {
		t.Fatalf("account number: %v", err)
	}
	if len(number) != 8 {
		t.Fatalf("account number length: got %d, want 8", len(number))
	}
	for _, ch := range number {
		if ch < '0' || ch > '9' {
			t.Fatalf("account number %q contains non-digit", number)
		}
	}
	if number[0] == '0' {
		t.Fatalf("account number %q has a leading zero", number)
	}
}

func TestAccountNumberExhaustsBoundedAttempts(t *testing.T) {
	store := &saturatedStore{}
	gen := refgen.NewGenerator(store, "40-00-01", 10)

	_, err := gen.AccountNumber(context.Background())
	if !errors.Is(err, domain.ErrReferenceSpaceExhausted) {
		t.Fatalf("expected ErrReferenceSpaceExhausted, got %v", err)
	}
	if store.checks != 10 {
		t.Fatalf("attempts: got %d, want 10", store.checks)
	}
}

func TestTransactionReferenceFormat(t *testing.T) {
	gen := refgen.NewGenerator(memory.NewAccountStore(), "40-00-01", 0)

	ref := gen.TransactionReference()
	if len(ref) != 15 {
		t.Fatalf("reference length: got %d, want 15", len(ref))
	}
	if ref[:3] != "TXN" {
		t.Fatalf("reference prefix: got %q", ref[:3])
	}
	for _, ch := range ref[3:] {
		if (ch < '0' || ch > '9') && (ch < 'A' || ch > 'F') {
			t.Fatalf("reference %q contains unexpected character %q", ref, ch)
		}
	}
}

func TestTransactionReferencesDoNotCollide(t *testing.T) {
	gen := refgen.NewGenerator(memory.NewAccountStore(), "40-00-01", 0)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		ref := gen.TransactionReference()
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate reference after %d draws: %s", i, ref)
		}
		seen[ref] = struct{}{}
	}
}
