package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountReceivable saldo adeudado por un cliente contra una factura o venta.
// Status usa los valores PaymentStatus* (pending, partial, paid).
type AccountReceivable struct {
	ID             string
	OrganizationID string
	BranchID       string
	CustomerID     string
	SaleID         string
	InvoiceID      string
	Amount         decimal.Decimal
	Balance        decimal.Decimal
	DueDate        time.Time
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
