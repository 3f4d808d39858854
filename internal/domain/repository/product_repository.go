package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ProductRepository catálogo visto desde el punto de venta.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// TaxOverrides impuestos propios del producto (vacío = usa los de la organización).
	TaxOverrides(ctx context.Context, productID string) ([]entity.OrganizationTax, error)
}
