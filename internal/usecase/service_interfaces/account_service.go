package service_interfaces

import (
	"context"

	"github.com/api-sage/core-ledger/internal/commons"
	"github.com/api-sage/core-ledger/internal/usecase/models"
)

type AccountService interface {
	OpenAccount(ctx context.Context, req models.OpenAccountRequest) (commons.Response[models.AccountResponse], error)
	Deposit(ctx context.Context, req models.DepositRequest) (commons.Response[models.TransactionResponse], error)
	Withdraw(ctx context.Context, req models.WithdrawRequest) (commons.Response[models.TransactionResponse], error)
	FreezeAccount(ctx context.Context, accountID string) (commons.Response[models.AccountResponse], error)
	UnfreezeAccount(ctx context.Context, accountID string) (commons.Response[models.AccountResponse], error)
	CloseAccount(ctx context.Context, accountID string) (commons.Response[models.AccountResponse], error)
}
