package refgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"github.com/api-sage/core-ledger/internal/domain"
)

const DefaultMaxAttempts = 50

// Generator produces account numbers and ledger references. Account numbers
// are checked against the store and re-drawn on collision; transaction
// references are unique with overwhelming probability and the store still
// enforces uniqueness at commit time.
type Generator struct {
	store       domain.AccountStore
	sortCode    string
	maxAttempts int
}

func NewGenerator(store domain.AccountStore, sortCode string, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{
		store:       store,
		sortCode:    strings.TrimSpace(sortCode),
		maxAttempts: maxAttempts,
	}
}

// AccountNumber draws 8-digit numbers until one is unused at this
// generator's sort code. Exhausting the attempt ceiling means the address
// space is close to saturated and is treated as fatal.
func (g *Generator) AccountNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate, err := randomAccountNumber()
		if err != nil {
			return "", fmt.Errorf("draw account number: %w", err)
		}

		taken, err := g.store.ExistsByIdentifier(ctx, candidate, g.sortCode)
		if err != nil {
			return "", fmt.Errorf("check account number: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", domain.ErrReferenceSpaceExhausted
}

// TransactionReference returns a 15-character token: a TXN prefix plus 12
// uppercase hex characters drawn from a fresh uuid.
func (g *Generator) TransactionReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TXN" + strings.ToUpper(raw[:12])
}

func randomAccountNumber() (string, error) {
	// 10000000..99999999 so the number never carries a leading zero.
	n, err := rand.Int(rand.Reader, big.NewInt(90000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()+10000000), nil
}
