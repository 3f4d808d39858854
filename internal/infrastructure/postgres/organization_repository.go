package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/currency"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

// OrganizationRepo implementación de OrganizationRepository sobre PostgreSQL.
type OrganizationRepo struct {
	q Querier
}

// NewOrganizationRepository construye el adaptador.
func NewOrganizationRepository(q Querier) *OrganizationRepo {
	return &OrganizationRepo{q: q}
}

// GetByID obtiene una organización por ID.
func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	query := `
		SELECT id, name, tax_id, base_currency, tax_included, invoice_prefix, credit_note_prefix, status, created_at, updated_at
		FROM organizations WHERE id = $1`
	var o entity.Organization
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Name, &o.TaxID, &o.BaseCurrency, &o.TaxIncluded, &o.InvoicePrefix, &o.CreditNotePrefix,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// BaseCurrency moneda base validada como código ISO 4217.
func (r *OrganizationRepo) BaseCurrency(ctx context.Context, organizationID string) (string, error) {
	var code string
	err := r.q.QueryRow(ctx, `SELECT base_currency FROM organizations WHERE id = $1`, organizationID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("organización %s: %w", organizationID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get base currency: %w", err)
	}
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("moneda base %q inválida: %w", code, err)
	}
	return unit.String(), nil
}
