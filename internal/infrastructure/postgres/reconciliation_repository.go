package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

// ReconciliationRepo tareas de conciliación manual.
type ReconciliationRepo struct {
	q Querier
}

// NewReconciliationRepository construye el adaptador.
func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

// Create registra la tarea.
func (r *ReconciliationRepo) Create(ctx context.Context, t *entity.ReconciliationTask) error {
	query := `
		INSERT INTO reconciliation_tasks (id, organization_id, kind, sale_id, invoice_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.OrganizationID, t.Kind, nullIfEmpty(t.SaleID), nullIfEmpty(t.InvoiceID), t.Detail, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reconciliation task: %w", err)
	}
	return nil
}

// ListOpen tareas sin resolver de la organización, más antiguas primero.
func (r *ReconciliationRepo) ListOpen(ctx context.Context, organizationID string) ([]*entity.ReconciliationTask, error) {
	query := `
		SELECT id, organization_id, kind, COALESCE(sale_id::text, ''), COALESCE(invoice_id::text, ''), detail, created_at, resolved_at
		FROM reconciliation_tasks
		WHERE organization_id = $1 AND resolved_at IS NULL
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list reconciliation tasks: %w", err)
	}
	defer rows.Close()
	var list []*entity.ReconciliationTask
	for rows.Next() {
		var t entity.ReconciliationTask
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.Kind, &t.SaleID, &t.InvoiceID, &t.Detail, &t.CreatedAt, &t.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan reconciliation task: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
