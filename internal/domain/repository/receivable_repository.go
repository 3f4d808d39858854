package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ReceivableRepository define el puerto de persistencia para AccountReceivable.
type ReceivableRepository interface {
	Create(ctx context.Context, ar *entity.AccountReceivable) error
	// GetByInvoice lectura idempotente por factura; devuelve nil, nil si aún no existe.
	GetByInvoice(ctx context.Context, invoiceID string) (*entity.AccountReceivable, error)
	GetBySale(ctx context.Context, saleID string) (*entity.AccountReceivable, error)
	UpdateBalance(ctx context.Context, ar *entity.AccountReceivable) error
}
