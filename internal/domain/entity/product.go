package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product vista mínima del catálogo que necesita el punto de venta.
type Product struct {
	ID             string
	OrganizationID string
	SKU            string
	Name           string
	Description    string
	Price          decimal.Decimal // precio de venta (incluye impuestos si la organización vende con IVA incluido)
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
