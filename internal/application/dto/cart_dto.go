package dto

import "github.com/shopspring/decimal"

// AddItemRequest body para POST /api/carts/:id/items.
type AddItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"` // opcional; por defecto el precio del catálogo
}

// UpdateItemRequest body para PATCH /api/carts/:id/items/:productId (al menos un campo).
type UpdateItemRequest struct {
	Quantity        *decimal.Decimal `json:"quantity,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

// SetCustomerRequest body para PUT /api/carts/:id/customer.
type SetCustomerRequest struct {
	CustomerID string `json:"customer_id"`
}

// ToggleTaxRequest body para PUT /api/carts/:id/taxes/:taxId.
type ToggleTaxRequest struct {
	Applied bool `json:"applied"`
}

// HoldRequest body para POST /api/carts/:id/hold.
type HoldRequest struct {
	Reason string `json:"reason,omitempty"`
}
