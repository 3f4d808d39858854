package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale y SaleItem.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	CreateItem(ctx context.Context, item *entity.SaleItem) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// FindLatestPendingByCustomer venta pendiente más reciente del cliente en la organización.
	FindLatestPendingByCustomer(ctx context.Context, organizationID, customerID string) (*entity.Sale, error)
	UpdateBalance(ctx context.Context, sale *entity.Sale) error
}
