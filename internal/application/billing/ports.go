package billing

import (
	"context"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// BillingRepos repositorios atados a la misma transacción.
type BillingRepos struct {
	Sales          repository.SaleRepository
	Invoices       repository.InvoiceRepository
	Payments       repository.PaymentRepository
	Receivables    repository.ReceivableRepository
	Sequences      repository.SequenceRepository
	Reconciliation repository.ReconciliationRepository
}

// Savepointer ejecuta fn dentro de un savepoint de la transacción en curso.
// Si fn falla solo se revierte lo hecho dentro del savepoint y la transacción sigue utilizable.
type Savepointer interface {
	Savepoint(ctx context.Context, fn func(repos BillingRepos) error) error
}

// BillingTxRunner ejecuta una función dentro de una transacción con los repos de facturación.
// Si fn retorna error se hace rollback de todo.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(repos BillingRepos, sp Savepointer) error) error
}

// CartSource acceso a los carritos en curso (lo implementa cart.Service).
type CartSource interface {
	Get(ctx context.Context, sess entity.Session, cartID string) (*entity.Cart, error)
	Recalculate(ctx context.Context, c *entity.Cart) error
	Save(ctx context.Context, c *entity.Cart) error
	Remove(ctx context.Context, c *entity.Cart) error
}

// Modos de materialización de la cuenta por cobrar de la venta a crédito.
const (
	ReceivableModeTransactional = "transactional"
	ReceivableModeTrigger       = "trigger"
)

// Config parámetros de los pipelines de cobro, deuda y nota crédito.
type Config struct {
	InvoicePrefix      string
	CreditNotePrefix   string
	PaymentTermsDays   int
	ReceivableDays     int
	ReceivableMode     string
	ReceivableAttempts int
	ReceivableDelay    time.Duration
}

// DefaultConfig valores por defecto del punto de venta.
func DefaultConfig() Config {
	return Config{
		InvoicePrefix:      "FV",
		CreditNotePrefix:   "NC",
		PaymentTermsDays:   30,
		ReceivableDays:     30,
		ReceivableMode:     ReceivableModeTransactional,
		ReceivableAttempts: 3,
		ReceivableDelay:    500 * time.Millisecond,
	}
}
