package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la factura de venta.
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusIssued  = "issued"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
)

// Tipos de documento.
const (
	DocumentTypeInvoice    = "invoice"
	DocumentTypeCreditNote = "credit_note"
)

// Invoice cabecera de factura de venta o nota crédito (tabla invoice_sales).
// Una nota crédito apunta a la factura que reversa con RelatedInvoiceID y lleva montos negativos.
type Invoice struct {
	ID               string
	OrganizationID   string
	BranchID         string
	UserID           string
	SaleID           string
	CustomerID       string
	Number           string
	DocumentType     string
	RelatedInvoiceID string
	IssueDate        time.Time
	DueDate          time.Time
	Subtotal         decimal.Decimal
	TaxTotal         decimal.Decimal
	DiscountTotal    decimal.Decimal
	Total            decimal.Decimal
	Balance          decimal.Decimal
	Status           string
	PaymentMethod    string
	Currency         string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsCreditNote indica si el documento es una nota crédito.
func (i *Invoice) IsCreditNote() bool {
	return i.DocumentType == DocumentTypeCreditNote
}

// InvoiceItem línea de factura.
type InvoiceItem struct {
	ID             string
	InvoiceID      string
	ProductID      string
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalLine      decimal.Decimal
}

// Negated devuelve la línea espejo para una nota crédito: cantidad, impuesto, descuento y total negados.
func (it InvoiceItem) Negated(creditNoteID, id string) InvoiceItem {
	return InvoiceItem{
		ID:             id,
		InvoiceID:      creditNoteID,
		ProductID:      it.ProductID,
		Description:    it.Description,
		Quantity:       it.Quantity.Neg(),
		UnitPrice:      it.UnitPrice,
		TaxRate:        it.TaxRate,
		TaxAmount:      it.TaxAmount.Neg(),
		DiscountAmount: it.DiscountAmount.Neg(),
		TotalLine:      it.TotalLine.Neg(),
	}
}
