package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.TaxRepository = (*TaxRepo)(nil)

// TaxRepo catálogo de impuestos de la organización.
type TaxRepo struct {
	q Querier
}

// NewTaxRepository construye el adaptador.
func NewTaxRepository(q Querier) *TaxRepo {
	return &TaxRepo{q: q}
}

// ListByOrganization impuestos de la organización, activos e inactivos, en orden estable.
func (r *TaxRepo) ListByOrganization(ctx context.Context, organizationID string) ([]entity.OrganizationTax, error) {
	query := `
		SELECT id, organization_id, name, rate, is_default, is_active
		FROM organization_taxes
		WHERE organization_id = $1
		ORDER BY name, id`
	rows, err := r.q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list organization taxes: %w", err)
	}
	return scanTaxes(rows)
}

func scanTaxes(rows pgx.Rows) ([]entity.OrganizationTax, error) {
	defer rows.Close()
	var list []entity.OrganizationTax
	for rows.Next() {
		var t entity.OrganizationTax
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Rate, &t.IsDefault, &t.IsActive); err != nil {
			return nil, fmt.Errorf("scan tax: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
