package cart_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/cart"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/infrastructure/cache"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const orgID = "org-1"

var sess = entity.Session{UserID: "u-1", OrganizationID: orgID, BranchID: "br-1", Role: entity.RoleCajero}

var iva15 = entity.OrganizationTax{ID: "iva", OrganizationID: orgID, Name: "IVA", Rate: decimal.NewFromInt(15), IsDefault: true, IsActive: true}

type fixture struct {
	svc       *cart.Service
	store     *cache.MemoryCartStore
	products  *mockProducts
	taxes     *mockTaxes
	orgs      *mockOrgs
	customers *mockCustomers
}

func newFixture(t *testing.T, taxIncluded bool, orgTaxes ...entity.OrganizationTax) *fixture {
	t.Helper()
	f := &fixture{
		store:     cache.NewMemoryCartStore(),
		products:  new(mockProducts),
		taxes:     new(mockTaxes),
		orgs:      new(mockOrgs),
		customers: new(mockCustomers),
	}
	f.orgs.On("GetByID", mock.Anything, orgID).Return(&entity.Organization{ID: orgID, TaxIncluded: taxIncluded, BaseCurrency: "COP"}, nil)
	f.taxes.On("ListByOrganization", mock.Anything, orgID).Return(orgTaxes, nil)
	f.svc = cart.NewService(f.store, f.products, f.taxes, f.orgs, f.customers, zerolog.Nop()).
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) })
	return f
}

func (f *fixture) product(id, price string, overrides ...entity.OrganizationTax) {
	f.products.On("GetByID", mock.Anything, id).Return(&entity.Product{
		ID: id, OrganizationID: orgID, SKU: "SKU-" + id, Name: "Producto " + id,
		Price: decimal.RequireFromString(price), IsActive: true,
	}, nil)
	f.products.On("TaxOverrides", mock.Anything, id).Return(overrides, nil)
}

func (f *fixture) newCart(t *testing.T) *entity.Cart {
	t.Helper()
	c, err := f.svc.Create(context.Background(), sess)
	require.NoError(t, err)
	return c
}

func (f *fixture) mutate(t *testing.T, cartID string, op cart.Op) *entity.Cart {
	t.Helper()
	c, err := f.svc.Mutate(context.Background(), sess, cartID, op)
	require.NoError(t, err)
	return c
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: esperado %s, obtenido %s", msg, want, got.String())
}

// assertInvariants total de línea y total del carrito cuadran.
func assertInvariants(t *testing.T, c *entity.Cart) {
	t.Helper()
	for _, it := range c.Items {
		net := it.Quantity.Mul(it.UnitPrice)
		assert.True(t, it.Subtotal.Equal(net), "línea %s: subtotal %s != cantidad * precio unitario %s", it.ProductID, it.Subtotal, net)
		assert.True(t, it.Total.Equal(net.Add(it.TaxAmount).Sub(it.DiscountAmount)),
			"línea %s: total %s != cantidad * precio unitario %s + impuesto %s - descuento %s", it.ProductID, it.Total, net, it.TaxAmount, it.DiscountAmount)
	}
	assert.True(t, c.Total.Equal(c.Subtotal.Add(c.TaxTotal).Sub(c.DiscountTotal)),
		"carrito: total %s != subtotal %s + impuesto %s - descuento %s", c.Total, c.Subtotal, c.TaxTotal, c.DiscountTotal)
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación y cálculo
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_CarritoActivoConModoDeLaOrganizacion(t *testing.T) {
	f := newFixture(t, true, iva15)
	c := f.newCart(t)

	assert.Equal(t, entity.CartStatusActive, c.Status)
	assert.True(t, c.TaxIncluded)
	assert.Equal(t, "br-1", c.BranchID)
	assert.True(t, c.Total.IsZero())
	assert.Equal(t, int64(1), c.Version)
}

func TestAddItem_IVAIncluido(t *testing.T) {
	f := newFixture(t, true, iva15)
	f.product("p1", "11500")
	c := f.newCart(t)

	c = f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})

	require.Len(t, c.Items, 1)
	it := c.Items[0]
	assertDec(t, "1500", it.TaxAmount, "impuesto de la línea")
	assertDec(t, "10000", it.Subtotal, "subtotal de la línea")
	assertDec(t, "10000", it.UnitPrice, "precio unitario sin impuesto")
	assertDec(t, "11500", it.ListPrice, "precio digitado")
	assertDec(t, "11500", it.Total, "total de la línea")
	assertDec(t, "11500", c.Total, "total del carrito")
	assertDec(t, "1500", c.TaxTotal, "impuesto del carrito")
	assertDec(t, "11500", c.GrossSubtotal, "base bruta")
	require.Len(t, c.TaxBreakdown, 1)
	assertDec(t, "1500", c.TaxBreakdown[0].Amount, "desglose IVA")
	assertInvariants(t, c)
}

func TestAddItem_IVAIncluido_DivisionInexactaCuadraLaLinea(t *testing.T) {
	iva19 := iva15
	iva19.Rate = decimal.NewFromInt(19)
	f := newFixture(t, true, iva19)
	f.product("p1", "100")
	c := f.newCart(t)

	c = f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("3")})

	require.Len(t, c.Items, 1)
	it := c.Items[0]
	assertDec(t, "300", it.Total, "total de la línea")
	assertDec(t, "300", c.Total, "total del carrito")
	assertDec(t, "47.9", it.TaxAmount.Round(1), "impuesto de la línea")
	assertDec(t, "47.9", c.TaxTotal.Round(1), "impuesto del carrito")
	assertInvariants(t, c)
}

func TestAddItem_IVAAgregado(t *testing.T) {
	f := newFixture(t, false, iva15)
	f.product("p1", "11500")
	c := f.newCart(t)

	c = f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})

	assertDec(t, "1725", c.TaxTotal, "impuesto")
	assertDec(t, "13225", c.Total, "total")
	assertDec(t, "11500", c.Subtotal, "subtotal")
	assertInvariants(t, c)
}

func TestAddItem_MismoProductoSumaCantidad(t *testing.T) {
	f := newFixture(t, false)
	f.product("p1", "1000")
	c := f.newCart(t)

	f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("2")})
	c = f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("3")})

	require.Len(t, c.Items, 1)
	assertDec(t, "5", c.Items[0].Quantity, "cantidad")
	assertDec(t, "5000", c.Total, "total")
}

func TestAddItem_ImpuestoPropioReemplazaAlDeLaOrganizacion(t *testing.T) {
	iva5 := entity.OrganizationTax{ID: "iva5", Name: "IVA 5", Rate: dec("5"), IsActive: true}
	f := newFixture(t, false, iva15)
	f.product("p1", "1000", iva5)
	c := f.newCart(t)

	c = f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})

	assertDec(t, "50", c.TaxTotal, "solo aplica el impuesto propio")
	assertDec(t, "5", c.Items[0].TaxRate, "tasa efectiva")
}

func TestRecalculate_FallaImpuestosPropios_LineaSinImpuesto(t *testing.T) {
	f := newFixture(t, false, iva15)
	f.products.On("GetByID", mock.Anything, "p1").Return(&entity.Product{ID: "p1", OrganizationID: orgID, Price: dec("1000"), IsActive: true}, nil)
	f.products.On("TaxOverrides", mock.Anything, "p1").Return(nil, errors.New("catálogo caído"))
	f.product("p2", "1000")
	c := f.newCart(t)

	f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})
	c = f.mutate(t, c.ID, cart.AddItem{ProductID: "p2", Quantity: dec("1")})

	assert.True(t, c.Items[0].TaxAmount.IsZero(), "la línea con error queda sin impuesto")
	assertDec(t, "150", c.Items[1].TaxAmount, "las demás líneas no se afectan")
	assertDec(t, "2150", c.Total, "total")
	assertInvariants(t, c)
}

func TestRecalculate_FallaCatalogoDeImpuestos_Aborta(t *testing.T) {
	f := newFixture(t, false)
	f.taxes.ExpectedCalls = nil
	f.taxes.On("ListByOrganization", mock.Anything, orgID).Return(nil, errors.New("timeout"))

	_, err := f.svc.Create(context.Background(), sess)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyFailure)
	var se *domain.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "tax_catalog.list", se.Step)
}

func TestMutaciones_OrdenNoAlteraElTotal(t *testing.T) {
	build := func(t *testing.T, ops ...cart.Op) *entity.Cart {
		f := newFixture(t, true, iva15)
		f.product("p1", "11500")
		f.product("p2", "3333")
		c := f.newCart(t)
		f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})
		f.mutate(t, c.ID, cart.AddItem{ProductID: "p2", Quantity: dec("1")})
		for _, op := range ops {
			c = f.mutate(t, c.ID, op)
		}
		return c
	}
	qty := cart.UpdateQuantity{ProductID: "p1", Quantity: dec("3")}
	disc := cart.SetDiscount{ProductID: "p2", Percent: dec("10")}

	a := build(t, qty, disc)
	b := build(t, disc, qty)

	assert.True(t, a.Total.Equal(b.Total), "%s != %s", a.Total, b.Total)
	assert.True(t, a.TaxTotal.Equal(b.TaxTotal))
	assert.True(t, a.DiscountTotal.Equal(b.DiscountTotal))
	assertDec(t, "333.3", a.Items[1].DiscountAmount, "descuento de la línea")
	assertInvariants(t, a)
	assertInvariants(t, b)
}

func TestUpdateQuantity_CeroQuitaLaLinea(t *testing.T) {
	f := newFixture(t, false)
	f.product("p1", "1000")
	c := f.newCart(t)
	f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})

	c = f.mutate(t, c.ID, cart.UpdateQuantity{ProductID: "p1", Quantity: decimal.Zero})

	assert.Empty(t, c.Items)
	assert.True(t, c.Total.IsZero())
}

func TestSetDiscount_FueraDeRango(t *testing.T) {
	f := newFixture(t, false)
	f.product("p1", "1000")
	c := f.newCart(t)
	f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})

	_, err := f.svc.Mutate(context.Background(), sess, c.ID, cart.SetDiscount{ProductID: "p1", Percent: dec("120")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBatch_AplicaCantidadYDescuento(t *testing.T) {
	f := newFixture(t, false)
	f.product("p1", "1000")
	c := f.newCart(t)
	f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})

	c = f.mutate(t, c.ID, cart.Batch{
		cart.UpdateQuantity{ProductID: "p1", Quantity: dec("2")},
		cart.SetDiscount{ProductID: "p1", Percent: dec("10")},
	})

	assertDec(t, "2", c.Items[0].Quantity, "cantidad")
	assertDec(t, "200", c.DiscountTotal, "descuento")
	assertDec(t, "1800", c.Total, "total")
}

func TestBatch_FallaParcial_NoGuardaNada(t *testing.T) {
	f := newFixture(t, false)
	f.product("p1", "1000")
	c := f.newCart(t)
	f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})

	_, err := f.svc.Mutate(context.Background(), sess, c.ID, cart.Batch{
		cart.UpdateQuantity{ProductID: "p1", Quantity: dec("3")},
		cart.SetDiscount{ProductID: "p1", Percent: dec("120")},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := f.svc.Get(context.Background(), sess, c.ID)
	require.NoError(t, err)
	assertDec(t, "1", got.Items[0].Quantity, "cantidad sin cambios")
}

func TestRemoveItem_NoExiste(t *testing.T) {
	f := newFixture(t, false)
	c := f.newCart(t)

	_, err := f.svc.Mutate(context.Background(), sess, c.ID, cart.RemoveItem{ProductID: "nada"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToggleTax_DesactivaElImpuestoPorDefecto(t *testing.T) {
	f := newFixture(t, false, iva15)
	f.product("p1", "1000")
	c := f.newCart(t)
	f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})

	c = f.mutate(t, c.ID, cart.ToggleTax{TaxID: "iva", Applied: false})

	assert.True(t, c.TaxTotal.IsZero())
	assertDec(t, "1000", c.Total, "total sin IVA")

	c = f.mutate(t, c.ID, cart.ToggleTax{TaxID: "iva", Applied: true})
	assertDec(t, "1150", c.Total, "total con IVA")
}

func TestSetCustomer_DeOtraOrganizacion(t *testing.T) {
	f := newFixture(t, false)
	f.customers.On("GetByID", mock.Anything, "cli-x").Return(&entity.Customer{ID: "cli-x", OrganizationID: "otra"}, nil)
	c := f.newCart(t)

	_, err := f.svc.Mutate(context.Background(), sess, c.ID, cart.SetCustomer{CustomerID: "cli-x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetCustomer_YClearCustomer(t *testing.T) {
	f := newFixture(t, false)
	f.customers.On("GetByID", mock.Anything, "cli-1").Return(&entity.Customer{ID: "cli-1", OrganizationID: orgID, Name: "Ana"}, nil)
	c := f.newCart(t)

	c = f.mutate(t, c.ID, cart.SetCustomer{CustomerID: "cli-1"})
	assert.Equal(t, "cli-1", c.CustomerID)
	assert.Equal(t, "Ana", c.CustomerName)

	c = f.mutate(t, c.ID, cart.ClearCustomer{})
	assert.False(t, c.HasCustomer())
}

// ──────────────────────────────────────────────────────────────────────────────
// Estados
// ──────────────────────────────────────────────────────────────────────────────

func TestHold_BloqueaMutacionesHastaResume(t *testing.T) {
	f := newFixture(t, false)
	f.product("p1", "1000")
	c := f.newCart(t)

	c, err := f.svc.Hold(context.Background(), sess, c.ID, "cliente fue por efectivo")
	require.NoError(t, err)
	assert.Equal(t, entity.CartStatusHold, c.Status)
	assert.Equal(t, "cliente fue por efectivo", c.HoldReason)

	_, err = f.svc.Mutate(context.Background(), sess, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})
	var gv *domain.GuardViolation
	require.ErrorAs(t, err, &gv)
	assert.Equal(t, "not_active", gv.Rule)

	c, err = f.svc.Resume(context.Background(), sess, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CartStatusActive, c.Status)
	assert.Empty(t, c.HoldReason)
	f.mutate(t, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})
}

func TestResume_CarritoActivo_Invalido(t *testing.T) {
	f := newFixture(t, false)
	c := f.newCart(t)

	_, err := f.svc.Resume(context.Background(), sess, c.ID)
	assert.ErrorIs(t, err, domain.ErrGuardViolation)
}

func TestDiscard(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	c := f.newCart(t)
	_, err := f.svc.Hold(ctx, sess, c.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Discard(ctx, sess, c.ID))
	_, err = f.svc.Get(ctx, sess, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDiscard_CarritoConDeuda_NoPermitido(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	c := f.newCart(t)
	c.Status = entity.CartStatusHoldWithDebt
	require.NoError(t, f.store.Save(ctx, c))

	err := f.svc.Discard(ctx, sess, c.ID)
	var gv *domain.GuardViolation
	require.ErrorAs(t, err, &gv)
	assert.Equal(t, "not_discardable", gv.Rule)
}

func TestCarritoTomadoPorFacturacion_RechazaCambios(t *testing.T) {
	f := newFixture(t, false)
	f.product("p1", "1000")
	ctx := context.Background()
	c := f.newCart(t)
	require.NoError(t, c.Claim("checkout", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, f.store.Save(ctx, c))

	_, err := f.svc.Mutate(ctx, sess, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})
	var gv *domain.GuardViolation
	require.ErrorAs(t, err, &gv)
	assert.Equal(t, "in_process", gv.Rule)

	_, err = f.svc.Hold(ctx, sess, c.ID, "")
	require.ErrorAs(t, err, &gv)
	assert.Equal(t, "in_process", gv.Rule)

	err = f.svc.Discard(ctx, sess, c.ID)
	require.ErrorAs(t, err, &gv)
	assert.Equal(t, "in_process", gv.Rule)

	stored, err := f.svc.Get(ctx, sess, c.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
	assert.Equal(t, "checkout", stored.Processing)
}

func TestList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	a := f.newCart(t)
	f.newCart(t)
	_, err := f.svc.Hold(ctx, sess, a.ID, "")
	require.NoError(t, err)

	all, err := f.svc.List(ctx, sess, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	held, err := f.svc.List(ctx, sess, entity.CartStatusHold)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, a.ID, held[0].ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia optimista
// ──────────────────────────────────────────────────────────────────────────────

// racyStore simula otra sesión que guarda el carrito justo antes de cada uno de los primeros Save.
type racyStore struct {
	*cache.MemoryCartStore
	races int
}

func (s *racyStore) Save(ctx context.Context, c *entity.Cart) error {
	if s.races > 0 && c.Version > 0 {
		s.races--
		other, _ := s.MemoryCartStore.Get(ctx, c.OrganizationID, c.ID)
		other.Notes = "otra sesión"
		if err := s.MemoryCartStore.Save(ctx, other); err != nil {
			return err
		}
	}
	return s.MemoryCartStore.Save(ctx, c)
}

func TestMutate_ReintentaTrasConflicto(t *testing.T) {
	f := newFixture(t, false)
	f.product("p1", "1000")
	store := &racyStore{MemoryCartStore: cache.NewMemoryCartStore(), races: 1}
	svc := cart.NewService(store, f.products, f.taxes, f.orgs, f.customers, zerolog.Nop())
	ctx := context.Background()
	c, err := svc.Create(ctx, sess)
	require.NoError(t, err)

	c, err = svc.Mutate(ctx, sess, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})
	require.NoError(t, err)

	assert.Equal(t, "otra sesión", c.Notes, "la mutación se aplicó sobre la versión más reciente")
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(3), c.Version)
}

func TestMutate_ConflictoPersistente(t *testing.T) {
	f := newFixture(t, false)
	f.product("p1", "1000")
	store := &racyStore{MemoryCartStore: cache.NewMemoryCartStore(), races: 10}
	svc := cart.NewService(store, f.products, f.taxes, f.orgs, f.customers, zerolog.Nop())
	ctx := context.Background()
	c, err := svc.Create(ctx, sess)
	require.NoError(t, err)

	_, err = svc.Mutate(ctx, sess, c.ID, cart.AddItem{ProductID: "p1", Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
