// Package cart administra los carritos en curso: creación, mutaciones, espera y recálculo de impuestos.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/internal/domain/tax"
)

var hundred = decimal.NewFromInt(100)

// maxSaveAttempts reintentos de una mutación cuando otra sesión guardó el mismo carrito primero.
const maxSaveAttempts = 3

// Service dueño de los carritos hasta que un pipeline de cobro o deuda los toma.
type Service struct {
	store     repository.CartRepository
	products  repository.ProductRepository
	taxes     repository.TaxRepository
	orgs      repository.OrganizationRepository
	customers repository.CustomerRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewService construye el servicio.
func NewService(
	store repository.CartRepository,
	products repository.ProductRepository,
	taxes repository.TaxRepository,
	orgs repository.OrganizationRepository,
	customers repository.CustomerRepository,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:     store,
		products:  products,
		taxes:     taxes,
		orgs:      orgs,
		customers: customers,
		log:       log,
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create abre un carrito activo vacío; el modo de precios (IVA incluido) sale de la organización.
func (s *Service) Create(ctx context.Context, sess entity.Session) (*entity.Cart, error) {
	org, err := s.orgs.GetByID(ctx, sess.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	now := s.now()
	c := &entity.Cart{
		ID:             uuid.New().String(),
		OrganizationID: sess.OrganizationID,
		BranchID:       sess.BranchID,
		UserID:         sess.UserID,
		Status:         entity.CartStatusActive,
		TaxIncluded:    org.TaxIncluded,
		Items:          []entity.CartItem{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Recalculate(ctx, c); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get carrito de la organización de la sesión.
func (s *Service) Get(ctx context.Context, sess entity.Session, cartID string) (*entity.Cart, error) {
	c, err := s.store.Get(ctx, sess.OrganizationID, cartID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// List carritos de la organización; status vacío devuelve todos.
func (s *Service) List(ctx context.Context, sess entity.Session, status entity.CartStatus) ([]*entity.Cart, error) {
	all, err := s.store.ListByOrganization(ctx, sess.OrganizationID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	out := make([]*entity.Cart, 0, len(all))
	for _, c := range all {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

// Mutate aplica op sobre un carrito activo, recalcula impuestos y totales, y lo guarda.
// Si otra sesión guardó el carrito entre la lectura y la escritura, se relee y se aplica de nuevo.
func (s *Service) Mutate(ctx context.Context, sess entity.Session, cartID string, op Op) (*entity.Cart, error) {
	return s.update(ctx, sess, cartID, func(c *entity.Cart) error {
		if err := c.EnsureMutable(); err != nil {
			return err
		}
		return op.apply(ctx, s, c)
	})
}

// Hold pone el carrito en espera (active → hold).
func (s *Service) Hold(ctx context.Context, sess entity.Session, cartID, reason string) (*entity.Cart, error) {
	return s.update(ctx, sess, cartID, func(c *entity.Cart) error {
		if err := c.TransitionTo(entity.CartStatusHold, s.now()); err != nil {
			return err
		}
		c.HoldReason = reason
		return nil
	})
}

// Resume retoma un carrito en espera (hold → active) con los impuestos vigentes.
func (s *Service) Resume(ctx context.Context, sess entity.Session, cartID string) (*entity.Cart, error) {
	return s.update(ctx, sess, cartID, func(c *entity.Cart) error {
		if err := c.TransitionTo(entity.CartStatusActive, s.now()); err != nil {
			return err
		}
		c.HoldReason = ""
		return nil
	})
}

// Discard elimina un carrito activo o en espera. No es una transición de estado.
func (s *Service) Discard(ctx context.Context, sess entity.Session, cartID string) error {
	c, err := s.Get(ctx, sess, cartID)
	if err != nil {
		return err
	}
	if c.Status != entity.CartStatusActive && c.Status != entity.CartStatusHold {
		return domain.NewGuardViolation("not_discardable", "un carrito en estado %q no puede descartarse", c.Status)
	}
	if err := c.EnsureNotProcessing(); err != nil {
		return err
	}
	return s.store.Delete(ctx, c.OrganizationID, c.ID)
}

// Save guarda el carrito tal cual (lo usan los pipelines tras cambiar su estado).
func (s *Service) Save(ctx context.Context, c *entity.Cart) error {
	c.UpdatedAt = s.now()
	return s.store.Save(ctx, c)
}

// Remove saca el carrito del conjunto activo.
func (s *Service) Remove(ctx context.Context, c *entity.Cart) error {
	return s.store.Delete(ctx, c.OrganizationID, c.ID)
}

func (s *Service) update(ctx context.Context, sess entity.Session, cartID string, fn func(c *entity.Cart) error) (*entity.Cart, error) {
	var lastErr error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		c, err := s.Get(ctx, sess, cartID)
		if err != nil {
			return nil, err
		}
		if err := fn(c); err != nil {
			return nil, err
		}
		if err := s.Recalculate(ctx, c); err != nil {
			return nil, err
		}
		c.UpdatedAt = s.now()
		err = s.store.Save(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		lastErr = err
		s.log.Debug().Str("cart_id", cartID).Int("attempt", attempt).Msg("carrito modificado por otra sesión, reintentando")
	}
	return nil, lastErr
}

// Recalculate recalcula descuentos, impuestos y totales del carrito.
// Si falla la consulta de impuestos propios de un producto, esa línea queda sin impuesto y se registra.
func (s *Service) Recalculate(ctx context.Context, c *entity.Cart) error {
	orgTaxes, err := s.taxes.ListByOrganization(ctx, c.OrganizationID)
	if err != nil {
		return domain.Required("tax_catalog.list", err)
	}
	applied := make([]tax.OrgTax, 0, len(orgTaxes))
	for _, t := range orgTaxes {
		if !t.IsActive {
			continue
		}
		on := t.AppliedByDefault()
		if v, ok := c.TaxSelection[t.ID]; ok {
			on = v
		}
		applied = append(applied, tax.OrgTax{Tax: t, Applied: on})
	}

	lines := make([]tax.Line, len(c.Items))
	for i := range c.Items {
		it := &c.Items[i]
		it.DiscountAmount = it.Base().Mul(it.DiscountPercent).Div(hundred)
		line := tax.Line{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.ListPrice,
			Discount:  it.DiscountAmount,
		}
		overrides, err := s.products.TaxOverrides(ctx, it.ProductID)
		if err != nil {
			s.log.Warn().Err(err).
				Str("step", "catalog.tax_overrides").
				Str("cart_id", c.ID).
				Str("product_id", it.ProductID).
				Msg("impuestos del producto no disponibles, la línea queda sin impuesto")
			line.OverridesUnavailable = true
		} else {
			line.Overrides = activeOnly(overrides)
		}
		lines[i] = line
	}

	res := tax.Resolve(lines, c.TaxIncluded, applied)
	for i, lr := range res.Lines {
		it := &c.Items[i]
		it.TaxRate = lr.Rate
		it.TaxAmount = lr.TaxAmount
		it.Total = lr.Total
		it.UnitPrice = it.ListPrice
		if c.TaxIncluded && !it.Quantity.IsZero() {
			it.UnitPrice = lr.Net.Div(it.Quantity)
		}
		// Subtotal = Quantity * UnitPrice exacto; el residuo de la división queda en el impuesto de la línea.
		it.Subtotal = it.Quantity.Mul(it.UnitPrice)
		if c.TaxIncluded {
			it.TaxAmount = it.Total.Sub(it.Subtotal).Add(it.DiscountAmount)
		}
	}

	c.GrossSubtotal = res.Subtotal.Round(2)
	c.TaxTotal = res.TotalTax.Round(2)
	c.DiscountTotal = res.TotalDiscount.Round(2)
	c.Total = res.FinalTotal
	c.Subtotal = c.Total.Sub(c.TaxTotal).Add(c.DiscountTotal)
	c.TaxBreakdown = make([]entity.CartTaxLine, 0, len(res.Breakdown))
	for _, b := range res.Breakdown {
		c.TaxBreakdown = append(c.TaxBreakdown, entity.CartTaxLine{
			TaxID:  b.TaxID,
			Name:   b.Name,
			Rate:   b.Rate,
			Amount: b.Amount.Round(2),
		})
	}
	return nil
}

func activeOnly(taxes []entity.OrganizationTax) []entity.OrganizationTax {
	out := make([]entity.OrganizationTax, 0, len(taxes))
	for _, t := range taxes {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out
}
