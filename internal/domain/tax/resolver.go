// Package tax resuelve los impuestos de las líneas de un carrito (servicio de dominio puro).
//
// Por línea: base = cantidad * precio. El conjunto efectivo es el de impuestos propios del
// producto si existe y no está vacío; si no, los impuestos de la organización marcados como aplicados.
// Cada tasa r se calcula de forma independiente sobre la misma base (sin cascada):
//
//	IVA incluido:  impuesto = base * r / (100 + r)
//	IVA agregado:  impuesto = base * r / 100
//
// Los valores por línea conservan precisión completa; solo el total final se redondea a 2 decimales.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Line entrada del resolvedor.
type Line struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // monto de descuento de la línea
	// Overrides impuestos propios del producto; reemplazan por completo los de la organización.
	Overrides []entity.OrganizationTax
	// OverridesUnavailable la consulta de impuestos propios falló: la línea queda sin impuesto.
	OverridesUnavailable bool
}

// OrgTax impuesto de la organización con su marca de aplicado para el carrito.
type OrgTax struct {
	Tax     entity.OrganizationTax
	Applied bool
}

// TaxAmount impuesto calculado para una tasa.
type TaxAmount struct {
	TaxID  string
	Name   string
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// LineResult resultado por línea.
type LineResult struct {
	ProductID string
	Base      decimal.Decimal // cantidad * precio, antes de descuento
	Rate      decimal.Decimal // suma de tasas efectivas
	TaxAmount decimal.Decimal
	Discount  decimal.Decimal
	Net       decimal.Decimal // base sin impuestos
	Total     decimal.Decimal // (incluido ? base : base + impuesto) - descuento
	Taxes     []TaxAmount
}

// Result agregado del carrito.
type Result struct {
	Lines         []LineResult
	Subtotal      decimal.Decimal // suma de bases
	TotalTax      decimal.Decimal
	TotalDiscount decimal.Decimal
	FinalTotal    decimal.Decimal // redondeado a 2 decimales
	Breakdown     []TaxAmount     // por impuesto, en orden de aparición
}

// EffectiveTaxes conjunto de impuestos que aplica a la línea.
func EffectiveTaxes(line Line, orgTaxes []OrgTax) []entity.OrganizationTax {
	if line.OverridesUnavailable {
		return nil
	}
	if len(line.Overrides) > 0 {
		return line.Overrides
	}
	var out []entity.OrganizationTax
	for _, t := range orgTaxes {
		if t.Applied {
			out = append(out, t.Tax)
		}
	}
	return out
}

// Amount impuesto de una tasa sobre la base según el modo de precios.
func Amount(base, rate decimal.Decimal, taxIncluded bool) decimal.Decimal {
	if taxIncluded {
		return base.Mul(rate).Div(hundred.Add(rate))
	}
	return base.Mul(rate).Div(hundred)
}

// ResolveLine calcula una línea.
func ResolveLine(line Line, taxIncluded bool, orgTaxes []OrgTax) LineResult {
	base := line.Quantity.Mul(line.UnitPrice)
	res := LineResult{
		ProductID: line.ProductID,
		Base:      base,
		Rate:      decimal.Zero,
		TaxAmount: decimal.Zero,
		Discount:  line.Discount,
	}
	for _, t := range EffectiveTaxes(line, orgTaxes) {
		amt := Amount(base, t.Rate, taxIncluded)
		res.Rate = res.Rate.Add(t.Rate)
		res.TaxAmount = res.TaxAmount.Add(amt)
		res.Taxes = append(res.Taxes, TaxAmount{TaxID: t.ID, Name: t.Name, Rate: t.Rate, Amount: amt})
	}
	if taxIncluded {
		res.Net = base.Sub(res.TaxAmount)
		res.Total = base.Sub(line.Discount)
	} else {
		res.Net = base
		res.Total = base.Add(res.TaxAmount).Sub(line.Discount)
	}
	return res
}

// Resolve calcula todas las líneas y agrega los totales del carrito.
func Resolve(lines []Line, taxIncluded bool, orgTaxes []OrgTax) Result {
	out := Result{
		Lines:         make([]LineResult, 0, len(lines)),
		Subtotal:      decimal.Zero,
		TotalTax:      decimal.Zero,
		TotalDiscount: decimal.Zero,
	}
	index := map[string]int{}
	for _, l := range lines {
		lr := ResolveLine(l, taxIncluded, orgTaxes)
		out.Lines = append(out.Lines, lr)
		out.Subtotal = out.Subtotal.Add(lr.Base)
		out.TotalTax = out.TotalTax.Add(lr.TaxAmount)
		out.TotalDiscount = out.TotalDiscount.Add(lr.Discount)
		for _, ta := range lr.Taxes {
			i, ok := index[ta.TaxID]
			if !ok {
				index[ta.TaxID] = len(out.Breakdown)
				out.Breakdown = append(out.Breakdown, ta)
				continue
			}
			out.Breakdown[i].Amount = out.Breakdown[i].Amount.Add(ta.Amount)
		}
	}
	final := out.Subtotal
	if !taxIncluded {
		final = final.Add(out.TotalTax)
	}
	out.FinalTotal = final.Sub(out.TotalDiscount).Round(2)
	return out
}
