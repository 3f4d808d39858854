package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain"
)

// CartStatus estado del carrito en la máquina de estados del punto de venta.
type CartStatus string

const (
	CartStatusActive       CartStatus = "active"
	CartStatusHold         CartStatus = "hold"
	CartStatusHoldWithDebt CartStatus = "hold_with_debt"
	CartStatusCompleted    CartStatus = "completed"
	CartStatusCancelled    CartStatus = "cancelled"
)

// cartTransitions transiciones legales: active ⇄ hold, active → hold_with_debt → cancelled, active → completed.
var cartTransitions = map[CartStatus][]CartStatus{
	CartStatusActive:       {CartStatusHold, CartStatusHoldWithDebt, CartStatusCompleted},
	CartStatusHold:         {CartStatusActive},
	CartStatusHoldWithDebt: {CartStatusCancelled},
}

// IsTerminal indica si el estado ya no admite transiciones.
func (s CartStatus) IsTerminal() bool {
	return s == CartStatusCompleted || s == CartStatusCancelled
}

// CanTransitionTo informa si la transición s → to es legal.
func (s CartStatus) CanTransitionTo(to CartStatus) bool {
	for _, allowed := range cartTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CartItem línea del carrito. Los importes calculados los escribe el recálculo de impuestos.
//
//	Total = Subtotal + TaxAmount - DiscountAmount, con Subtotal = Quantity * UnitPrice.
//
// ListPrice es el precio digitado (con impuestos si el carrito vende con IVA incluido);
// UnitPrice es el precio unitario antes de impuestos.
type CartItem struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	SKU             string          `json:"sku,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	ListPrice       decimal.Decimal `json:"list_price"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxRate         decimal.Decimal `json:"tax_rate"` // suma de tasas efectivas de la línea
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Total           decimal.Decimal `json:"total"`
}

// Base importe de la línea antes de descuento, tal como lo ve el cajero (quantity * list price).
func (i CartItem) Base() decimal.Decimal {
	return i.Quantity.Mul(i.ListPrice)
}

// CartTaxLine desglose por impuesto a nivel carrito.
type CartTaxLine struct {
	TaxID  string          `json:"tax_id"`
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Cart venta en curso. Se guarda completo como un documento por carrito.
type Cart struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	BranchID       string          `json:"branch_id"`
	UserID         string          `json:"user_id"`
	CustomerID     string          `json:"customer_id,omitempty"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Status         CartStatus      `json:"status"`
	TaxIncluded    bool            `json:"tax_included"`
	TaxSelection   map[string]bool `json:"tax_selection,omitempty"` // taxID → aplicado (sobrescribe el default)
	Items          []CartItem      `json:"items"`
	TaxBreakdown   []CartTaxLine   `json:"tax_breakdown"`
	GrossSubtotal  decimal.Decimal `json:"gross_subtotal"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxTotal       decimal.Decimal `json:"tax_total"`
	DiscountTotal  decimal.Decimal `json:"discount_total"`
	Total          decimal.Decimal `json:"total"`
	HoldReason     string          `json:"hold_reason,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Processing pipeline de facturación que tiene tomado el carrito; vacío si está libre.
	Processing      string     `json:"processing,omitempty"`
	ProcessingSince *time.Time `json:"processing_since,omitempty"`
}

// HasCustomer indica si hay cliente asignado.
func (c *Cart) HasCustomer() bool {
	return c.CustomerID != ""
}

// FindItem devuelve el índice de la línea del producto o -1.
func (c *Cart) FindItem(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Claim toma el carrito para un pipeline de facturación. Mientras esté tomado no acepta
// mutaciones, transiciones ni otro pipeline.
func (c *Cart) Claim(pipeline string, now time.Time) error {
	if err := c.EnsureNotProcessing(); err != nil {
		return err
	}
	c.Processing = pipeline
	c.ProcessingSince = &now
	return nil
}

// Release libera el carrito tomado.
func (c *Cart) Release() {
	c.Processing = ""
	c.ProcessingSince = nil
}

// EnsureNotProcessing falla si un pipeline de facturación tiene tomado el carrito.
func (c *Cart) EnsureNotProcessing() error {
	if c.Processing != "" {
		return domain.NewGuardViolation("in_process", "el carrito está siendo procesado (%s)", c.Processing)
	}
	return nil
}

// TransitionTo aplica la transición si es legal; en otro caso devuelve GuardViolation.
func (c *Cart) TransitionTo(to CartStatus, now time.Time) error {
	if c.Status.IsTerminal() {
		return domain.NewGuardViolation("terminal_state", "el carrito está en estado terminal %q", c.Status)
	}
	if err := c.EnsureNotProcessing(); err != nil {
		return err
	}
	if !c.Status.CanTransitionTo(to) {
		return domain.NewGuardViolation("invalid_transition", "transición %q → %q no permitida", c.Status, to)
	}
	c.Status = to
	c.UpdatedAt = now
	return nil
}

// EnsureMutable solo los carritos activos aceptan cambios de líneas, cliente o impuestos.
func (c *Cart) EnsureMutable() error {
	if c.Status != CartStatusActive {
		return domain.NewGuardViolation("not_active", "el carrito está en estado %q y no puede modificarse", c.Status)
	}
	return c.EnsureNotProcessing()
}

// CanHoldWithDebt valida las precondiciones de active → hold_with_debt.
func (c *Cart) CanHoldWithDebt() error {
	if c.Status != CartStatusActive {
		return domain.NewGuardViolation("not_active", "solo un carrito activo puede quedar en espera con deuda (estado actual %q)", c.Status)
	}
	if err := c.EnsureNotProcessing(); err != nil {
		return err
	}
	if !c.HasCustomer() {
		return domain.NewGuardViolation("customer_required", "se requiere un cliente para registrar la deuda")
	}
	if len(c.Items) == 0 {
		return domain.NewGuardViolation("empty_cart", "el carrito no tiene productos")
	}
	if !c.Total.IsPositive() {
		return domain.NewGuardViolation("non_positive_total", "el total del carrito debe ser mayor que cero")
	}
	return nil
}

// CanComplete valida active → completed para el monto pagado.
// allowPartial habilita el cobro a crédito (saldo pendiente).
func (c *Cart) CanComplete(totalPaid decimal.Decimal, allowPartial bool) error {
	if c.Status != CartStatusActive {
		return domain.NewGuardViolation("not_active", "solo un carrito activo puede cobrarse (estado actual %q)", c.Status)
	}
	if err := c.EnsureNotProcessing(); err != nil {
		return err
	}
	if len(c.Items) == 0 {
		return domain.NewGuardViolation("empty_cart", "el carrito no tiene productos")
	}
	if !allowPartial && totalPaid.LessThan(c.Total) {
		return domain.NewGuardViolation("insufficient_payment", "pagado %s es menor que el total %s", totalPaid.StringFixed(2), c.Total.StringFixed(2))
	}
	return nil
}
