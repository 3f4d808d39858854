package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// PaymentEntry pago digitado en caja.
type PaymentEntry struct {
	Method    string          `json:"method"` // cash | card | transfer
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"` // obligatorio para card y transfer
}

// CheckoutRequest body para POST /api/carts/:id/checkout.
// AllowPartial habilita el cobro con saldo pendiente (venta pendiente + cuenta por cobrar si hay cliente).
type CheckoutRequest struct {
	Payments     []PaymentEntry `json:"payments"`
	AllowPartial bool           `json:"allow_partial"`
	Notes        string         `json:"notes,omitempty"`
}

// StepResponse resultado de un paso del pipeline.
type StepResponse struct {
	Step  string `json:"step"`
	Kind  string `json:"kind"` // required | best_effort
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CheckoutResponse resultado del cobro. Degraded indica que algún paso opcional falló.
type CheckoutResponse struct {
	Sale              SaleResponse        `json:"sale"`
	Invoice           *InvoiceResponse    `json:"invoice,omitempty"`
	Payments          []PaymentResponse   `json:"payments"`
	AccountReceivable *ReceivableResponse `json:"account_receivable,omitempty"`
	TotalPaid         decimal.Decimal     `json:"total_paid"`
	Change            decimal.Decimal     `json:"change"`
	Remaining         decimal.Decimal     `json:"remaining"`
	Steps             []StepResponse      `json:"steps"`
	Degraded          bool                `json:"degraded"`
}

// HoldWithDebtRequest body para POST /api/carts/:id/hold-with-debt.
type HoldWithDebtRequest struct {
	Reason           string `json:"reason"`
	PaymentTermsDays int    `json:"payment_terms_days,omitempty"` // 0 = plazo por defecto
	Notes            string `json:"notes,omitempty"`
}

// HoldWithDebtResponse carrito en espera con la factura a crédito y su cuenta por cobrar.
type HoldWithDebtResponse struct {
	Cart              *entity.Cart       `json:"cart"`
	Invoice           InvoiceResponse    `json:"invoice"`
	AccountReceivable ReceivableResponse `json:"account_receivable"`
}

// CreditNoteRequest body para POST /api/carts/:id/credit-note.
type CreditNoteRequest struct {
	Reason string `json:"reason"`
}

// CreditNoteResponse carrito anulado y nota crédito emitida.
type CreditNoteResponse struct {
	Cart       *entity.Cart    `json:"cart"`
	CreditNote InvoiceResponse `json:"credit_note"`
}

// CartInvoiceResponse factura asociada a un carrito en espera con deuda.
type CartInvoiceResponse struct {
	Invoice  InvoiceResponse   `json:"invoice"`
	Customer *CustomerResponse `json:"customer,omitempty"`
}

// SaleResponse venta en respuestas.
type SaleResponse struct {
	ID            string          `json:"id"`
	CartID        string          `json:"cart_id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Total         decimal.Decimal `json:"total"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceResponse factura o nota crédito con sus líneas.
type InvoiceResponse struct {
	ID               string                `json:"id"`
	Number           string                `json:"number"`
	DocumentType     string                `json:"document_type"`
	RelatedInvoiceID string                `json:"related_invoice_id,omitempty"`
	SaleID           string                `json:"sale_id"`
	CustomerID       string                `json:"customer_id,omitempty"`
	IssueDate        string                `json:"issue_date"`
	DueDate          string                `json:"due_date"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	TaxTotal         decimal.Decimal       `json:"tax_total"`
	DiscountTotal    decimal.Decimal       `json:"discount_total"`
	Total            decimal.Decimal       `json:"total"`
	Balance          decimal.Decimal       `json:"balance"`
	Status           string                `json:"status"`
	PaymentMethod    string                `json:"payment_method,omitempty"`
	Currency         string                `json:"currency"`
	Items            []InvoiceItemResponse `json:"items,omitempty"`
}

// InvoiceItemResponse línea de factura.
type InvoiceItemResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalLine      decimal.Decimal `json:"total_line"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"` // sale | invoice
	SourceID  string          `json:"source_id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	Currency  string          `json:"currency"`
}

// ReceivableResponse cuenta por cobrar.
type ReceivableResponse struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	SaleID     string          `json:"sale_id"`
	InvoiceID  string          `json:"invoice_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	DueDate    string          `json:"due_date"`
	Status     string          `json:"status"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ReconciliationTaskResponse tarea de conciliación abierta.
type ReconciliationTaskResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	SaleID    string    `json:"sale_id"`
	InvoiceID string    `json:"invoice_id"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
