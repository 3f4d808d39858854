package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// CheckoutUseCase cobra un carrito activo: venta, líneas, factura, pagos y cuenta por cobrar en una transacción.
// La factura y sus líneas son best-effort (savepoint); venta, pagos y cuenta por cobrar son obligatorios.
type CheckoutUseCase struct {
	txRunner BillingTxRunner
	carts    CartSource
	products repository.ProductRepository
	orgs     repository.OrganizationRepository
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewCheckoutUseCase construye el caso de uso.
func NewCheckoutUseCase(
	txRunner BillingTxRunner,
	carts CartSource,
	products repository.ProductRepository,
	orgs repository.OrganizationRepository,
	cfg Config,
	log zerolog.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		txRunner: txRunner,
		carts:    carts,
		products: products,
		orgs:     orgs,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *CheckoutUseCase) WithClock(now func() time.Time) *CheckoutUseCase {
	uc.now = now
	return uc
}

// tender resultado de conciliar los pagos digitados contra el total.
type tender struct {
	applied   []appliedPayment
	totalPaid decimal.Decimal
	change    decimal.Decimal
	remaining decimal.Decimal
}

type appliedPayment struct {
	entry   dto.PaymentEntry
	applied decimal.Decimal // lo que efectivamente abona al total (sin el cambio)
}

// reconcilePayments valida los pagos en orden y calcula pagado, cambio y saldo.
// Montos en cero se ignoran; solo el efectivo puede superar el saldo pendiente.
func reconcilePayments(total decimal.Decimal, entries []dto.PaymentEntry) (*tender, error) {
	t := &tender{totalPaid: decimal.Zero, change: decimal.Zero}
	remaining := total
	for i, e := range entries {
		field := fmt.Sprintf("payments[%d]", i)
		if e.Amount.IsNegative() {
			return nil, &domain.ValidationError{Field: field + ".amount", Message: "el monto no puede ser negativo"}
		}
		if e.Amount.IsZero() {
			continue
		}
		switch e.Method {
		case entity.PaymentMethodCash:
		case entity.PaymentMethodCard, entity.PaymentMethodTransfer:
			if e.Reference == "" {
				return nil, &domain.ValidationError{Field: field + ".reference", Message: fmt.Sprintf("el pago con %s requiere referencia", e.Method)}
			}
			if e.Amount.GreaterThan(remaining) {
				return nil, &domain.ValidationError{Field: field + ".amount", Message: fmt.Sprintf("el monto %s excede el saldo pendiente %s", e.Amount.StringFixed(2), remaining.StringFixed(2))}
			}
		default:
			return nil, &domain.ValidationError{Field: field + ".method", Message: fmt.Sprintf("método de pago no admitido en caja: %q", e.Method)}
		}
		applied := decimal.Min(e.Amount, remaining)
		remaining = remaining.Sub(applied)
		t.totalPaid = t.totalPaid.Add(e.Amount)
		t.change = t.change.Add(e.Amount.Sub(applied))
		t.applied = append(t.applied, appliedPayment{entry: e, applied: applied})
	}
	t.remaining = remaining
	return t, nil
}

// Settle cobra el carrito y lo saca del conjunto activo.
func (uc *CheckoutUseCase) Settle(ctx context.Context, sess entity.Session, cartID string, in dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	c, err := uc.carts.Get(ctx, sess, cartID)
	if err != nil {
		return nil, err
	}
	t, err := reconcilePayments(c.Total, in.Payments)
	if err != nil {
		return nil, err
	}
	if err := c.CanComplete(t.totalPaid, in.AllowPartial); err != nil {
		return nil, err
	}

	log := uc.log.With().Str("cart_id", c.ID).Str("organization_id", c.OrganizationID).Logger()
	steps := &stepLog{log: log}

	currency, err := uc.orgs.BaseCurrency(ctx, c.OrganizationID)
	if err := steps.required("currency.base", err); err != nil {
		return nil, err
	}

	org, err := uc.orgs.GetByID(ctx, c.OrganizationID)
	steps.bestEffort("organization.prefixes", err)
	invoicePrefix, _ := uc.cfg.numberingPrefixes(org)

	now := uc.now()
	if err := claimCart(ctx, uc.carts, c, pipelineCheckout, now); err != nil {
		return nil, err
	}

	descriptions, err := resolveDescriptions(ctx, uc.products, c)
	steps.bestEffort("catalog.descriptions", err)

	balance := t.remaining
	sale := &entity.Sale{
		ID:             uuid.New().String(),
		OrganizationID: c.OrganizationID,
		BranchID:       sess.BranchID,
		UserID:         sess.UserID,
		CustomerID:     c.CustomerID,
		CartID:         c.ID,
		Subtotal:       c.Subtotal,
		TaxTotal:       c.TaxTotal,
		DiscountTotal:  c.DiscountTotal,
		Total:          c.Total,
		Balance:        balance,
		Status:         entity.SaleStatusPaid,
		PaymentStatus:  entity.PaymentStatusPaid,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	invoiceStatus := entity.InvoiceStatusPaid
	if balance.IsPositive() {
		sale.Status = entity.SaleStatusPending
		sale.PaymentStatus = entity.PaymentStatusPartial
		if t.totalPaid.IsZero() {
			sale.PaymentStatus = entity.PaymentStatusPending
		}
		invoiceStatus = entity.InvoiceStatusPartial
	}

	var (
		invoice    *entity.Invoice
		invItems   []*entity.InvoiceItem
		payments   []*entity.Payment
		receivable *entity.AccountReceivable
	)
	err = uc.txRunner.RunBilling(ctx, func(repos BillingRepos, sp Savepointer) error {
		if err := steps.required("sale.create", repos.Sales.Create(ctx, sale)); err != nil {
			return err
		}
		if err := steps.required("sale_items.create", createSaleItems(ctx, repos.Sales, saleItemsFromCart(sale.ID, c, descriptions, uuid.NewString))); err != nil {
			return err
		}

		candidate := &entity.Invoice{
			ID:             uuid.New().String(),
			OrganizationID: c.OrganizationID,
			BranchID:       sess.BranchID,
			UserID:         sess.UserID,
			SaleID:         sale.ID,
			CustomerID:     c.CustomerID,
			DocumentType:   entity.DocumentTypeInvoice,
			IssueDate:      now,
			DueDate:        now,
			Subtotal:       c.Subtotal,
			TaxTotal:       c.TaxTotal,
			DiscountTotal:  c.DiscountTotal,
			Total:          c.Total,
			Balance:        balance,
			Status:         invoiceStatus,
			PaymentMethod:  primaryMethod(t),
			Currency:       currency,
			Notes:          in.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err := sp.Savepoint(ctx, func(r BillingRepos) error {
			number, err := r.Sequences.NextInvoiceNumber(ctx, c.OrganizationID, invoicePrefix)
			if err != nil {
				return err
			}
			candidate.Number = number
			return r.Invoices.Create(ctx, candidate)
		})
		if steps.bestEffort("invoice.create", err) {
			invoice = candidate
			items := invoiceItemsFromCart(invoice.ID, c, descriptions, uuid.NewString)
			err := sp.Savepoint(ctx, func(r BillingRepos) error {
				return createInvoiceItems(ctx, r.Invoices, items)
			})
			if steps.bestEffort("invoice_items.create", err) {
				invItems = items
			}
		}

		var source entity.PaymentSource = entity.SaleSource{SaleID: sale.ID}
		if invoice != nil {
			source = entity.InvoiceSource{InvoiceID: invoice.ID}
		}
		var pending []*entity.Payment
		for _, ap := range t.applied {
			if ap.applied.IsZero() {
				continue
			}
			pending = append(pending, &entity.Payment{
				ID:             uuid.New().String(),
				OrganizationID: c.OrganizationID,
				BranchID:       sess.BranchID,
				UserID:         sess.UserID,
				Source:         source,
				Method:         ap.entry.Method,
				Amount:         ap.applied,
				Reference:      ap.entry.Reference,
				Currency:       currency,
				Status:         entity.PaymentRecordCompleted,
				CreatedAt:      now,
			})
		}
		if err := steps.required("payments.create", createPayments(ctx, repos.Payments, pending)); err != nil {
			return err
		}
		payments = pending

		if balance.IsPositive() && c.HasCustomer() {
			ar := &entity.AccountReceivable{
				ID:             uuid.New().String(),
				OrganizationID: c.OrganizationID,
				BranchID:       sess.BranchID,
				CustomerID:     c.CustomerID,
				SaleID:         sale.ID,
				Amount:         balance,
				Balance:        balance,
				DueDate:        now.AddDate(0, 0, uc.cfg.ReceivableDays),
				Status:         entity.PaymentStatusPending,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if invoice != nil {
				ar.InvoiceID = invoice.ID
			}
			if err := steps.required("receivable.create", repos.Receivables.Create(ctx, ar)); err != nil {
				return err
			}
			receivable = ar
		}
		return nil
	})
	if err != nil {
		releaseCart(ctx, uc.carts, c, log)
		return nil, commitError("checkout.commit", err)
	}

	// Un carrito completado ya no se puede cobrar aunque falle el borrado.
	if err := steps.required("cart.complete", finalizeCart(ctx, uc.carts, sess, c, entity.CartStatusCompleted, now)); err != nil {
		log.Error().Str("sale_id", sale.ID).Msg("venta confirmada pero el carrito no pudo marcarse como completado; queda tomado")
		return nil, err
	}
	steps.bestEffort("cart.remove", uc.carts.Remove(context.WithoutCancel(ctx), c))

	log.Info().
		Str("sale_id", sale.ID).
		Str("sale_status", sale.Status).
		Str("total", sale.Total.StringFixed(2)).
		Bool("degraded", steps.degraded()).
		Msg("venta cobrada")

	resp := &dto.CheckoutResponse{
		Sale:      toSaleResponse(sale),
		Payments:  make([]dto.PaymentResponse, 0, len(payments)),
		TotalPaid: t.totalPaid,
		Change:    t.change,
		Remaining: t.remaining,
		Steps:     toStepResponses(steps.outcomes),
		Degraded:  steps.degraded(),
	}
	if invoice != nil {
		inv := toInvoiceResponse(invoice, invItems)
		resp.Invoice = &inv
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	if receivable != nil {
		ar := toReceivableResponse(receivable)
		resp.AccountReceivable = &ar
	}
	return resp, nil
}

// primaryMethod método con mayor monto abonado; crédito si no hubo pagos.
func primaryMethod(t *tender) string {
	method := entity.PaymentMethodCredit
	best := decimal.Zero
	for _, ap := range t.applied {
		if ap.applied.GreaterThan(best) {
			best = ap.applied
			method = ap.entry.Method
		}
	}
	return method
}
