package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// HoldWithDebtUseCase deja un carrito activo en espera con deuda: venta pendiente, factura a crédito,
// líneas y cuenta por cobrar. El carrito solo cambia de estado cuando todas las escrituras quedaron firmes.
type HoldWithDebtUseCase struct {
	txRunner       BillingTxRunner
	carts          CartSource
	products       repository.ProductRepository
	orgs           repository.OrganizationRepository
	receivables    repository.ReceivableRepository
	reconciliation repository.ReconciliationRepository
	cfg            Config
	log            zerolog.Logger
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewHoldWithDebtUseCase construye el caso de uso. receivables y reconciliation son repos fuera de
// transacción: se usan para releer la cuenta creada por el trigger y registrar la tarea de conciliación.
func NewHoldWithDebtUseCase(
	txRunner BillingTxRunner,
	carts CartSource,
	products repository.ProductRepository,
	orgs repository.OrganizationRepository,
	receivables repository.ReceivableRepository,
	reconciliation repository.ReconciliationRepository,
	cfg Config,
	log zerolog.Logger,
) *HoldWithDebtUseCase {
	return &HoldWithDebtUseCase{
		txRunner:       txRunner,
		carts:          carts,
		products:       products,
		orgs:           orgs,
		receivables:    receivables,
		reconciliation: reconciliation,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
		sleep:          sleepCtx,
	}
}

// WithClock reemplaza el reloj y la espera entre reintentos (tests).
func (uc *HoldWithDebtUseCase) WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *HoldWithDebtUseCase {
	uc.now = now
	if sleep != nil {
		uc.sleep = sleep
	}
	return uc
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute convierte el carrito en deuda del cliente.
func (uc *HoldWithDebtUseCase) Execute(ctx context.Context, sess entity.Session, cartID string, in dto.HoldWithDebtRequest) (*dto.HoldWithDebtResponse, error) {
	terms := in.PaymentTermsDays
	if terms < 0 {
		return nil, fmt.Errorf("%w: payment_terms_days no puede ser negativo", domain.ErrInvalidInput)
	}
	if terms == 0 {
		terms = uc.cfg.PaymentTermsDays
	}

	c, err := uc.carts.Get(ctx, sess, cartID)
	if err != nil {
		return nil, err
	}
	if err := c.CanHoldWithDebt(); err != nil {
		return nil, err
	}
	if err := uc.carts.Recalculate(ctx, c); err != nil {
		return nil, err
	}
	// El recálculo puede cambiar el total (catálogo de impuestos actualizado).
	if err := c.CanHoldWithDebt(); err != nil {
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
	if err := claimCart(ctx, uc.carts, c, pipelineHoldWithDebt, now); err != nil {
		return nil, err
	}
	descriptions, err := resolveDescriptions(ctx, uc.products, c)
	steps.bestEffort("catalog.descriptions", err)

	due := now.AddDate(0, 0, terms)
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
		Balance:        c.Total,
		Status:         entity.SaleStatusPending,
		PaymentStatus:  entity.PaymentStatusPending,
		Notes:          in.Reason,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	invoice := &entity.Invoice{
		ID:             uuid.New().String(),
		OrganizationID: c.OrganizationID,
		BranchID:       sess.BranchID,
		UserID:         sess.UserID,
		SaleID:         sale.ID,
		CustomerID:     c.CustomerID,
		DocumentType:   entity.DocumentTypeInvoice,
		IssueDate:      now,
		DueDate:        due,
		Subtotal:       c.Subtotal,
		TaxTotal:       c.TaxTotal,
		DiscountTotal:  c.DiscountTotal,
		Total:          c.Total,
		Balance:        c.Total,
		Status:         entity.InvoiceStatusIssued,
		PaymentMethod:  entity.PaymentMethodCredit,
		Currency:       currency,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	invItems := invoiceItemsFromCart(invoice.ID, c, descriptions, uuid.NewString)
	transactional := uc.cfg.ReceivableMode != ReceivableModeTrigger

	var receivable *entity.AccountReceivable
	err = uc.txRunner.RunBilling(ctx, func(repos BillingRepos, _ Savepointer) error {
		if err := steps.required("sale.create", repos.Sales.Create(ctx, sale)); err != nil {
			return err
		}
		number, err := repos.Sequences.NextInvoiceNumber(ctx, c.OrganizationID, invoicePrefix)
		if err := steps.required("sequence.invoice_number", err); err != nil {
			return err
		}
		invoice.Number = number
		if err := steps.required("invoice.create", repos.Invoices.Create(ctx, invoice)); err != nil {
			return err
		}
		if err := steps.required("invoice_items.create", createInvoiceItems(ctx, repos.Invoices, invItems)); err != nil {
			return err
		}
		if err := steps.required("sale_items.create", createSaleItems(ctx, repos.Sales, saleItemsFromCart(sale.ID, c, descriptions, uuid.NewString))); err != nil {
			return err
		}
		if !transactional {
			return nil
		}
		ar := &entity.AccountReceivable{
			ID:             uuid.New().String(),
			OrganizationID: c.OrganizationID,
			BranchID:       sess.BranchID,
			CustomerID:     c.CustomerID,
			SaleID:         sale.ID,
			InvoiceID:      invoice.ID,
			Amount:         c.Total,
			Balance:        c.Total,
			DueDate:        due,
			Status:         entity.PaymentStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := steps.required("receivable.create", repos.Receivables.Create(ctx, ar)); err != nil {
			return err
		}
		receivable = ar
		return nil
	})
	if err != nil {
		releaseCart(ctx, uc.carts, c, log)
		return nil, commitError("hold_with_debt.commit", err)
	}

	if !transactional {
		// Sin cuenta por cobrar visible el carrito sigue activo y tomado hasta resolver la conciliación.
		receivable, err = uc.awaitReceivable(ctx, log, sale, invoice)
		if err != nil {
			return nil, err
		}
	}

	c.HoldReason = in.Reason
	c.Notes = FormatDebtNotes(invoice.Number, due, in.Notes)
	if err := steps.required("cart.save", finalizeCart(ctx, uc.carts, sess, c, entity.CartStatusHoldWithDebt, now)); err != nil {
		log.Error().Str("invoice_id", invoice.ID).Msg("factura a crédito emitida pero el carrito no pudo marcarse en espera con deuda; queda tomado")
		return nil, err
	}

	log.Info().
		Str("sale_id", sale.ID).
		Str("invoice_id", invoice.ID).
		Str("invoice_number", invoice.Number).
		Str("total", invoice.Total.StringFixed(2)).
		Msg("carrito en espera con deuda")

	return &dto.HoldWithDebtResponse{
		Cart:              c,
		Invoice:           toInvoiceResponse(invoice, invItems),
		AccountReceivable: toReceivableResponse(receivable),
	}, nil
}

// awaitReceivable relee la cuenta por cobrar creada por el trigger de invoice_sales con reintentos
// de espera fija. Si se agotan, registra una tarea de conciliación y devuelve ConsistencyTimeout.
func (uc *HoldWithDebtUseCase) awaitReceivable(ctx context.Context, log zerolog.Logger, sale *entity.Sale, invoice *entity.Invoice) (*entity.AccountReceivable, error) {
	attempts := uc.cfg.ReceivableAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		ar, err := uc.receivables.GetByInvoice(ctx, invoice.ID)
		if err == nil && ar != nil {
			return ar, nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Str("invoice_id", invoice.ID).Msg("cuenta por cobrar aún no visible")
		if attempt == attempts {
			break
		}
		if err := uc.sleep(ctx, uc.cfg.ReceivableDelay); err != nil {
			lastErr = err
			break
		}
	}

	timeout := &domain.ConsistencyTimeout{
		Step:      "receivable.await",
		Attempts:  attempts,
		InvoiceID: invoice.ID,
		SaleID:    sale.ID,
		Err:       lastErr,
	}
	task := &entity.ReconciliationTask{
		ID:             uuid.New().String(),
		OrganizationID: invoice.OrganizationID,
		Kind:           entity.ReconciliationMissingReceivable,
		SaleID:         sale.ID,
		InvoiceID:      invoice.ID,
		Detail:         timeout.Error(),
		CreatedAt:      uc.now(),
	}
	// La tarea se registra aunque el request ya esté cancelado.
	if err := uc.reconciliation.Create(context.WithoutCancel(ctx), task); err != nil {
		log.Error().Err(err).Str("invoice_id", invoice.ID).Msg("no se pudo registrar la tarea de conciliación")
	}
	log.Error().Str("sale_id", sale.ID).Str("invoice_id", invoice.ID).Int("attempts", attempts).Msg("cuenta por cobrar no materializada")
	return nil, timeout
}

const (
	notesInvoiceLabel = "Factura:"
	notesDueLabel     = "Vence:"
	notesSeparator    = " | "
)

// FormatDebtNotes nota del carrito en espera con deuda: número de factura, vencimiento y notas libres.
func FormatDebtNotes(invoiceNumber string, due time.Time, extra string) string {
	parts := []string{
		notesInvoiceLabel + " " + invoiceNumber,
		notesDueLabel + " " + due.Format(dateLayout),
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, notesSeparator)
}
