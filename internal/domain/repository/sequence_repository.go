package repository

import "context"

// SequenceRepository genera consecutivos monótonos por organización.
// Debe invocarse dentro de la transacción que usa el número.
type SequenceRepository interface {
	NextInvoiceNumber(ctx context.Context, organizationID, prefix string) (string, error)
	NextCreditNoteNumber(ctx context.Context, organizationID, prefix string) (string, error)
}
