package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

const (
	sequenceInvoice    = "invoice"
	sequenceCreditNote = "credit_note"
)

// SequenceRepo consecutivos por organización y tipo de documento (document_sequences).
// Dentro de una transacción la fila queda bloqueada hasta el commit, así dos facturas no comparten número.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// NextInvoiceNumber siguiente número de factura, ej: FV-000001.
func (r *SequenceRepo) NextInvoiceNumber(ctx context.Context, organizationID, prefix string) (string, error) {
	return r.next(ctx, organizationID, sequenceInvoice, prefix)
}

// NextCreditNoteNumber siguiente número de nota crédito, ej: NC-000001.
func (r *SequenceRepo) NextCreditNoteNumber(ctx context.Context, organizationID, prefix string) (string, error) {
	return r.next(ctx, organizationID, sequenceCreditNote, prefix)
}

func (r *SequenceRepo) next(ctx context.Context, organizationID, kind, prefix string) (string, error) {
	query := `
		INSERT INTO document_sequences (organization_id, kind, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (organization_id, kind)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, organizationID, kind).Scan(&n); err != nil {
		return "", fmt.Errorf("next %s number: %w", kind, err)
	}
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}
