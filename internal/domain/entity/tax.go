package entity

import "github.com/shopspring/decimal"

// OrganizationTax impuesto configurado por la organización. Rate es porcentaje (15 = 15%).
type OrganizationTax struct {
	ID             string
	OrganizationID string
	Name           string
	Rate           decimal.Decimal
	IsDefault      bool // se aplica salvo que el producto tenga impuestos propios
	IsActive       bool
}

// AppliedByDefault indica si el impuesto entra en la selección por defecto de un carrito.
func (t OrganizationTax) AppliedByDefault() bool {
	return t.IsDefault && t.IsActive
}
