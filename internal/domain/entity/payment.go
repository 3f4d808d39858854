package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCredit   = "credit"
)

// Estados de un pago.
const (
	PaymentRecordCompleted = "completed"
)

// PaymentSource documento al que se imputa un pago: la factura o, si no se pudo crear, la venta.
type PaymentSource interface {
	SourceType() string
	SourceID() string
	paymentSource()
}

// SaleSource pago imputado a la venta.
type SaleSource struct{ SaleID string }

func (s SaleSource) SourceType() string { return "sale" }
func (s SaleSource) SourceID() string   { return s.SaleID }
func (SaleSource) paymentSource()       {}

// InvoiceSource pago imputado a la factura.
type InvoiceSource struct{ InvoiceID string }

func (s InvoiceSource) SourceType() string { return "invoice" }
func (s InvoiceSource) SourceID() string   { return s.InvoiceID }
func (InvoiceSource) paymentSource()       {}

// ParsePaymentSource reconstruye la fuente desde las columnas source/source_id.
func ParsePaymentSource(sourceType, id string) (PaymentSource, error) {
	switch sourceType {
	case "sale":
		return SaleSource{SaleID: id}, nil
	case "invoice":
		return InvoiceSource{InvoiceID: id}, nil
	}
	return nil, fmt.Errorf("fuente de pago desconocida %q", sourceType)
}

// Payment pago registrado en el cobro.
type Payment struct {
	ID             string
	OrganizationID string
	BranchID       string
	UserID         string
	Source         PaymentSource
	Method         string
	Amount         decimal.Decimal
	Reference      string
	Currency       string
	Status         string
	CreatedAt      time.Time
}
