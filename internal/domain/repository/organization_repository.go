package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// OrganizationRepository define el puerto de persistencia para Organization.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
	// BaseCurrency código ISO 4217 de la moneda base de la organización.
	BaseCurrency(ctx context.Context, organizationID string) (string, error)
}
