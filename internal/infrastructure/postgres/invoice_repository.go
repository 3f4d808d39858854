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

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `
	id, organization_id, COALESCE(branch_id::text, ''), user_id, sale_id, COALESCE(customer_id::text, ''),
	number, document_type, COALESCE(related_invoice_id::text, ''), issue_date, due_date,
	subtotal, tax_total, discount_total, total, balance, status, COALESCE(payment_method, ''), currency,
	COALESCE(notes, ''), created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository sobre invoice_sales (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura o nota crédito.
// Un número repetido o una segunda nota crédito para la misma factura devuelven ErrConflict.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoice_sales (id, organization_id, branch_id, user_id, sale_id, customer_id,
		                           number, document_type, related_invoice_id, issue_date, due_date,
		                           subtotal, tax_total, discount_total, total, balance, status, payment_method, currency,
		                           notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.OrganizationID, nullIfEmpty(inv.BranchID), inv.UserID, inv.SaleID, nullIfEmpty(inv.CustomerID),
		inv.Number, inv.DocumentType, nullIfEmpty(inv.RelatedInvoiceID), inv.IssueDate, inv.DueDate,
		inv.Subtotal, inv.TaxTotal, inv.DiscountTotal, inv.Total, inv.Balance, inv.Status, nullIfEmpty(inv.PaymentMethod), inv.Currency,
		nullIfEmpty(inv.Notes), inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: documento %s ya registrado", domain.ErrConflict, inv.Number)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de detalle.
func (r *InvoiceRepo) CreateItem(ctx context.Context, it *entity.InvoiceItem) error {
	query := `
		INSERT INTO invoice_sale_items (id, invoice_id, product_id, description, quantity, unit_price, tax_rate, tax_amount, discount_amount, total_line)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.InvoiceID, it.ProductID, it.Description, it.Quantity, it.UnitPrice,
		it.TaxRate, it.TaxAmount, it.DiscountAmount, it.TotalLine,
	)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.findOne(ctx, `SELECT `+invoiceColumns+` FROM invoice_sales WHERE id = $1`, id)
}

// GetByNumber obtiene una factura por su número dentro de la organización.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, organizationID, number string) (*entity.Invoice, error) {
	return r.findOne(ctx, `SELECT `+invoiceColumns+` FROM invoice_sales WHERE organization_id = $1 AND number = $2`, organizationID, number)
}

// GetBySale documento más reciente del tipo indicado para la venta.
func (r *InvoiceRepo) GetBySale(ctx context.Context, saleID, documentType string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoice_sales WHERE sale_id = $1 AND document_type = $2
		ORDER BY created_at DESC LIMIT 1`
	return r.findOne(ctx, query, saleID, documentType)
}

// GetCreditNoteFor nota crédito que reversa la factura. Bloquea la fila de la factura para que dos
// reversiones concurrentes se serialicen.
func (r *InvoiceRepo) GetCreditNoteFor(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	if _, err := r.q.Exec(ctx, `SELECT 1 FROM invoice_sales WHERE id = $1 FOR UPDATE`, invoiceID); err != nil {
		return nil, fmt.Errorf("lock invoice: %w", err)
	}
	query := `SELECT ` + invoiceColumns + `
		FROM invoice_sales WHERE related_invoice_id = $1 AND document_type = 'credit_note'`
	return r.findOne(ctx, query, invoiceID)
}

// ListItems líneas de la factura.
func (r *InvoiceRepo) ListItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, product_id, description, quantity, unit_price, tax_rate, tax_amount, discount_amount, total_line
		FROM invoice_sale_items WHERE invoice_id = $1 ORDER BY description, id`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.Description, &it.Quantity, &it.UnitPrice,
			&it.TaxRate, &it.TaxAmount, &it.DiscountAmount, &it.TotalLine); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// UpdateBalance actualiza saldo y estado de la factura.
func (r *InvoiceRepo) UpdateBalance(ctx context.Context, inv *entity.Invoice) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE invoice_sales SET balance = $2, status = $3, updated_at = $4 WHERE id = $1`,
		inv.ID, inv.Balance, inv.Status, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update invoice balance: factura %s no existe", inv.ID)
	}
	return nil
}

func (r *InvoiceRepo) findOne(ctx context.Context, query string, args ...any) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&inv.ID, &inv.OrganizationID, &inv.BranchID, &inv.UserID, &inv.SaleID, &inv.CustomerID,
		&inv.Number, &inv.DocumentType, &inv.RelatedInvoiceID, &inv.IssueDate, &inv.DueDate,
		&inv.Subtotal, &inv.TaxTotal, &inv.DiscountTotal, &inv.Total, &inv.Balance, &inv.Status, &inv.PaymentMethod, &inv.Currency,
		&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}
