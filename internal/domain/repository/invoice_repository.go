package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas de venta, notas crédito y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateItem(ctx context.Context, item *entity.InvoiceItem) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByNumber(ctx context.Context, organizationID, number string) (*entity.Invoice, error)
	// GetBySale documento del tipo indicado asociado a la venta.
	GetBySale(ctx context.Context, saleID, documentType string) (*entity.Invoice, error)
	// GetCreditNoteFor nota crédito que reversa la factura, o nil.
	GetCreditNoteFor(ctx context.Context, invoiceID string) (*entity.Invoice, error)
	ListItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
	UpdateBalance(ctx context.Context, invoice *entity.Invoice) error
}
