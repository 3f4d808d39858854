package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo pagos imputados a una venta o a una factura.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create persiste el pago con su fuente (source, source_id).
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if p.Source == nil {
		return fmt.Errorf("insert payment: pago %s sin fuente", p.ID)
	}
	query := `
		INSERT INTO payments (id, organization_id, branch_id, user_id, source, source_id, method, amount, reference, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.OrganizationID, nullIfEmpty(p.BranchID), p.UserID, p.Source.SourceType(), p.Source.SourceID(),
		p.Method, p.Amount, nullIfEmpty(p.Reference), p.Currency, p.Status, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListBySource pagos de una venta o factura, en orden cronológico.
func (r *PaymentRepo) ListBySource(ctx context.Context, source entity.PaymentSource) ([]*entity.Payment, error) {
	query := `
		SELECT id, organization_id, COALESCE(branch_id::text, ''), user_id, source, source_id, method, amount,
		       COALESCE(reference, ''), currency, status, created_at
		FROM payments WHERE source = $1 AND source_id = $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, source.SourceType(), source.SourceID())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		var sourceType, sourceID string
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.BranchID, &p.UserID, &sourceType, &sourceID, &p.Method, &p.Amount,
			&p.Reference, &p.Currency, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		src, err := entity.ParsePaymentSource(sourceType, sourceID)
		if err != nil {
			return nil, err
		}
		p.Source = src
		list = append(list, &p)
	}
	return list, rows.Err()
}
