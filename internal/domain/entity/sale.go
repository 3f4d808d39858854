package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la venta.
const (
	SaleStatusPending   = "pending"
	SaleStatusPaid      = "paid"
	SaleStatusCancelled = "cancelled"
)

// Estados de cobro (venta y cuenta por cobrar).
const (
	PaymentStatusPending = "pending"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

// Sale cabecera de la transacción de venta.
type Sale struct {
	ID             string
	OrganizationID string
	BranchID       string
	UserID         string
	CustomerID     string // vacío = consumidor final
	CartID         string
	Subtotal       decimal.Decimal
	TaxTotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	Total          decimal.Decimal
	Balance        decimal.Decimal
	Status         string
	PaymentStatus  string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaleItem línea persistida de la venta, espejo de CartItem.
type SaleItem struct {
	ID             string
	SaleID         string
	ProductID      string
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalLine      decimal.Decimal
}
