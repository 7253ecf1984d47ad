package service_interfaces

import (
	"context"

	"github.com/api-sage/core-ledger/internal/commons"
	"github.com/api-sage/core-ledger/internal/usecase/models"
)

type TransferService interface {
	Transfer(ctx context.Context, req models.TransferRequest) (commons.Response[models.TransferResponse], error)
}
