package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// TaxRepository catálogo de impuestos de la organización.
type TaxRepository interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]entity.OrganizationTax, error)
}
