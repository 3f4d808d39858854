package entity

import "time"

// Tipos de tareas de conciliación.
const (
	ReconciliationMissingReceivable = "missing_receivable"
)

// ReconciliationTask registra un estado financiero incompleto que requiere revisión manual
// (por ejemplo, factura a crédito sin cuenta por cobrar).
type ReconciliationTask struct {
	ID             string
	OrganizationID string
	Kind           string
	SaleID         string
	InvoiceID      string
	Detail         string
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}
