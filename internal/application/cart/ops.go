package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// Op mutación de un carrito activo. El conjunto es cerrado: solo los tipos de este paquete la implementan.
type Op interface {
	apply(ctx context.Context, s *Service, c *entity.Cart) error
}

// AddItem agrega el producto o suma la cantidad si ya está en el carrito.
// UnitPrice opcional reemplaza el precio del catálogo.
type AddItem struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
}

// RemoveItem quita la línea del producto.
type RemoveItem struct {
	ProductID string
}

// UpdateQuantity fija la cantidad; cero quita la línea.
type UpdateQuantity struct {
	ProductID string
	Quantity  decimal.Decimal
}

// SetDiscount fija el descuento de la línea como porcentaje (0..100) de la base.
type SetDiscount struct {
	ProductID string
	Percent   decimal.Decimal
}

// SetCustomer asigna el cliente del carrito.
type SetCustomer struct {
	CustomerID string
}

// ClearCustomer deja el carrito como consumidor final.
type ClearCustomer struct{}

// ToggleTax activa o desactiva un impuesto de la organización para este carrito.
type ToggleTax struct {
	TaxID   string
	Applied bool
}

// Batch aplica varias operaciones en orden dentro de la misma escritura.
type Batch []Op

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (op AddItem) apply(ctx context.Context, s *Service, c *entity.Cart) error {
	if op.ProductID == "" {
		return invalid("product_id requerido")
	}
	if !op.Quantity.IsPositive() {
		return invalid("la cantidad debe ser mayor que cero")
	}
	if op.UnitPrice != nil && op.UnitPrice.IsNegative() {
		return invalid("el precio no puede ser negativo")
	}
	product, err := s.products.GetByID(ctx, op.ProductID)
	if err != nil {
		return domain.Required("catalog.get_product", err)
	}
	if product == nil || product.OrganizationID != c.OrganizationID {
		return domain.ErrNotFound
	}
	if !product.IsActive {
		return invalid("el producto %s está inactivo", product.SKU)
	}

	if i := c.FindItem(op.ProductID); i >= 0 {
		c.Items[i].Quantity = c.Items[i].Quantity.Add(op.Quantity)
		if op.UnitPrice != nil {
			c.Items[i].ListPrice = *op.UnitPrice
		}
		return nil
	}
	price := product.Price
	if op.UnitPrice != nil {
		price = *op.UnitPrice
	}
	c.Items = append(c.Items, entity.CartItem{
		ProductID:       product.ID,
		ProductName:     product.Name,
		SKU:             product.SKU,
		Quantity:        op.Quantity,
		ListPrice:       price,
		DiscountPercent: decimal.Zero,
	})
	return nil
}

func (b Batch) apply(ctx context.Context, s *Service, c *entity.Cart) error {
	if len(b) == 0 {
		return invalid("no hay cambios para aplicar")
	}
	for _, op := range b {
		if err := op.apply(ctx, s, c); err != nil {
			return err
		}
	}
	return nil
}

func (op RemoveItem) apply(_ context.Context, _ *Service, c *entity.Cart) error {
	i := c.FindItem(op.ProductID)
	if i < 0 {
		return domain.ErrNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

func (op UpdateQuantity) apply(ctx context.Context, s *Service, c *entity.Cart) error {
	if op.Quantity.IsNegative() {
		return invalid("la cantidad no puede ser negativa")
	}
	if op.Quantity.IsZero() {
		return RemoveItem{ProductID: op.ProductID}.apply(ctx, s, c)
	}
	i := c.FindItem(op.ProductID)
	if i < 0 {
		return domain.ErrNotFound
	}
	c.Items[i].Quantity = op.Quantity
	return nil
}

func (op SetDiscount) apply(_ context.Context, _ *Service, c *entity.Cart) error {
	if op.Percent.IsNegative() || op.Percent.GreaterThan(hundred) {
		return invalid("el descuento debe estar entre 0 y 100")
	}
	i := c.FindItem(op.ProductID)
	if i < 0 {
		return domain.ErrNotFound
	}
	c.Items[i].DiscountPercent = op.Percent
	return nil
}

func (op SetCustomer) apply(ctx context.Context, s *Service, c *entity.Cart) error {
	if op.CustomerID == "" {
		return invalid("customer_id requerido")
	}
	customer, err := s.customers.GetByID(ctx, op.CustomerID)
	if err != nil {
		return domain.Required("customer.get", err)
	}
	if customer == nil || customer.OrganizationID != c.OrganizationID {
		return domain.ErrNotFound
	}
	c.CustomerID = customer.ID
	c.CustomerName = customer.Name
	return nil
}

func (ClearCustomer) apply(_ context.Context, _ *Service, c *entity.Cart) error {
	c.CustomerID = ""
	c.CustomerName = ""
	return nil
}

func (op ToggleTax) apply(ctx context.Context, s *Service, c *entity.Cart) error {
	taxes, err := s.taxes.ListByOrganization(ctx, c.OrganizationID)
	if err != nil {
		return domain.Required("tax_catalog.list", err)
	}
	for _, t := range taxes {
		if t.ID == op.TaxID && t.IsActive {
			if c.TaxSelection == nil {
				c.TaxSelection = make(map[string]bool)
			}
			c.TaxSelection[t.ID] = op.Applied
			return nil
		}
	}
	return domain.ErrNotFound
}
