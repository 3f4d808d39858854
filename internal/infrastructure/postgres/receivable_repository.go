package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.ReceivableRepository = (*ReceivableRepo)(nil)

const receivableColumns = `
	id, organization_id, COALESCE(branch_id::text, ''), customer_id, sale_id, COALESCE(invoice_id::text, ''),
	amount, balance, due_date, status, created_at, updated_at`

// ReceivableRepo cuentas por cobrar (accounts_receivable).
type ReceivableRepo struct {
	q Querier
}

// NewReceivableRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceivableRepository(q Querier) *ReceivableRepo {
	return &ReceivableRepo{q: q}
}

// Create persiste la cuenta por cobrar. Una segunda cuenta para la misma factura devuelve ErrConflict.
func (r *ReceivableRepo) Create(ctx context.Context, ar *entity.AccountReceivable) error {
	query := `
		INSERT INTO accounts_receivable (id, organization_id, branch_id, customer_id, sale_id, invoice_id,
		                                 amount, balance, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		ar.ID, ar.OrganizationID, nullIfEmpty(ar.BranchID), ar.CustomerID, ar.SaleID, nullIfEmpty(ar.InvoiceID),
		ar.Amount, ar.Balance, ar.DueDate, ar.Status, ar.CreatedAt, ar.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: la factura %s ya tiene cuenta por cobrar", domain.ErrConflict, ar.InvoiceID)
		}
		return fmt.Errorf("insert account receivable: %w", err)
	}
	return nil
}

// GetByInvoice cuenta por cobrar de la factura; nil si aún no existe.
func (r *ReceivableRepo) GetByInvoice(ctx context.Context, invoiceID string) (*entity.AccountReceivable, error) {
	return r.findOne(ctx, `SELECT `+receivableColumns+` FROM accounts_receivable WHERE invoice_id = $1`, invoiceID)
}

// GetBySale cuenta por cobrar más reciente de la venta.
func (r *ReceivableRepo) GetBySale(ctx context.Context, saleID string) (*entity.AccountReceivable, error) {
	query := `SELECT ` + receivableColumns + `
		FROM accounts_receivable WHERE sale_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.findOne(ctx, query, saleID)
}

// UpdateBalance actualiza saldo y estado.
func (r *ReceivableRepo) UpdateBalance(ctx context.Context, ar *entity.AccountReceivable) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE accounts_receivable SET balance = $2, status = $3, updated_at = $4 WHERE id = $1`,
		ar.ID, ar.Balance, ar.Status, ar.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account receivable: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update account receivable: cuenta %s no existe", ar.ID)
	}
	return nil
}

func (r *ReceivableRepo) findOne(ctx context.Context, query string, args ...any) (*entity.AccountReceivable, error) {
	var ar entity.AccountReceivable
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&ar.ID, &ar.OrganizationID, &ar.BranchID, &ar.CustomerID, &ar.SaleID, &ar.InvoiceID,
		&ar.Amount, &ar.Balance, &ar.DueDate, &ar.Status, &ar.CreatedAt, &ar.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account receivable: %w", err)
	}
	return &ar, nil
}
