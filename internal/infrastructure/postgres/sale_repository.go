package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `
	id, organization_id, COALESCE(branch_id::text, ''), user_id, COALESCE(customer_id::text, ''), cart_id,
	subtotal, tax_total, discount_total, total, balance, status, payment_status, COALESCE(notes, ''),
	created_at, updated_at`

// SaleRepo implementación de SaleRepository (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la cabecera de la venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (id, organization_id, branch_id, user_id, customer_id, cart_id,
		                   subtotal, tax_total, discount_total, total, balance, status, payment_status, notes,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.OrganizationID, nullIfEmpty(s.BranchID), s.UserID, nullIfEmpty(s.CustomerID), s.CartID,
		s.Subtotal, s.TaxTotal, s.DiscountTotal, s.Total, s.Balance, s.Status, s.PaymentStatus, nullIfEmpty(s.Notes),
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de la venta.
func (r *SaleRepo) CreateItem(ctx context.Context, it *entity.SaleItem) error {
	query := `
		INSERT INTO sale_items (id, sale_id, product_id, description, quantity, unit_price, tax_rate, tax_amount, discount_amount, total_line)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.SaleID, it.ProductID, it.Description, it.Quantity, it.UnitPrice,
		it.TaxRate, it.TaxAmount, it.DiscountAmount, it.TotalLine,
	)
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// GetByID obtiene una venta por ID.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.findOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// FindLatestPendingByCustomer venta pendiente más reciente del cliente.
func (r *SaleRepo) FindLatestPendingByCustomer(ctx context.Context, organizationID, customerID string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + `
		FROM sales
		WHERE organization_id = $1 AND customer_id = $2 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1`
	return r.findOne(ctx, query, organizationID, customerID)
}

// UpdateBalance actualiza saldo y estados de la venta.
func (r *SaleRepo) UpdateBalance(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales SET balance = $2, status = $3, payment_status = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, s.ID, s.Balance, s.Status, s.PaymentStatus, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sale balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update sale balance: venta %s no existe", s.ID)
	}
	return nil
}

func (r *SaleRepo) findOne(ctx context.Context, query string, args ...any) (*entity.Sale, error) {
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.OrganizationID, &s.BranchID, &s.UserID, &s.CustomerID, &s.CartID,
		&s.Subtotal, &s.TaxTotal, &s.DiscountTotal, &s.Total, &s.Balance, &s.Status, &s.PaymentStatus, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &s, nil
}
