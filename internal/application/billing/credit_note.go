package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// CreditNoteUseCase reversa la factura a crédito de un carrito en espera con deuda:
// emite la nota crédito negada y deja en cero los saldos de factura, venta y cuenta por cobrar.
type CreditNoteUseCase struct {
	txRunner BillingTxRunner
	carts    CartSource
	orgs     repository.OrganizationRepository
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewCreditNoteUseCase construye el caso de uso.
func NewCreditNoteUseCase(txRunner BillingTxRunner, carts CartSource, orgs repository.OrganizationRepository, cfg Config, log zerolog.Logger) *CreditNoteUseCase {
	return &CreditNoteUseCase{txRunner: txRunner, carts: carts, orgs: orgs, cfg: cfg, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *CreditNoteUseCase) WithClock(now func() time.Time) *CreditNoteUseCase {
	uc.now = now
	return uc
}

// Execute anula la deuda del carrito con una nota crédito y lo deja cancelado.
func (uc *CreditNoteUseCase) Execute(ctx context.Context, sess entity.Session, cartID string, in dto.CreditNoteRequest) (*dto.CreditNoteResponse, error) {
	c, err := uc.carts.Get(ctx, sess, cartID)
	if err != nil {
		return nil, err
	}
	if c.Status != entity.CartStatusHoldWithDebt {
		return nil, domain.NewGuardViolation("not_held_with_debt", "solo un carrito en espera con deuda puede anularse con nota crédito (estado actual %q)", c.Status)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Anulación de deuda"
	}

	log := uc.log.With().Str("cart_id", c.ID).Str("organization_id", c.OrganizationID).Logger()
	steps := &stepLog{log: log}

	org, err := uc.orgs.GetByID(ctx, c.OrganizationID)
	steps.bestEffort("organization.prefixes", err)
	_, creditNotePrefix := uc.cfg.numberingPrefixes(org)

	now := uc.now()
	if err := claimCart(ctx, uc.carts, c, pipelineCreditNote, now); err != nil {
		return nil, err
	}

	var (
		original   *entity.Invoice
		creditNote *entity.Invoice
		cnItems    []*entity.InvoiceItem
	)
	err = uc.txRunner.RunBilling(ctx, func(repos BillingRepos, _ Savepointer) error {
		inv, err := locateDebtInvoice(ctx, repos, c)
		if err := steps.required("invoice.locate", err); err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		existing, err := repos.Invoices.GetCreditNoteFor(ctx, inv.ID)
		if err := steps.required("credit_note.check", err); err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: la factura %s ya tiene la nota crédito %s", domain.ErrConflict, inv.Number, existing.Number)
		}
		items, err := repos.Invoices.ListItems(ctx, inv.ID)
		if err := steps.required("invoice_items.list", err); err != nil {
			return err
		}
		number, err := repos.Sequences.NextCreditNoteNumber(ctx, c.OrganizationID, creditNotePrefix)
		if err := steps.required("sequence.credit_note_number", err); err != nil {
			return err
		}

		cn := &entity.Invoice{
			ID:               uuid.New().String(),
			OrganizationID:   inv.OrganizationID,
			BranchID:         sess.BranchID,
			UserID:           sess.UserID,
			SaleID:           inv.SaleID,
			CustomerID:       inv.CustomerID,
			Number:           number,
			DocumentType:     entity.DocumentTypeCreditNote,
			RelatedInvoiceID: inv.ID,
			IssueDate:        now,
			DueDate:          now,
			Subtotal:         inv.Subtotal.Neg(),
			TaxTotal:         inv.TaxTotal.Neg(),
			DiscountTotal:    inv.DiscountTotal.Neg(),
			Total:            inv.Total.Neg(),
			Balance:          decimal.Zero,
			Status:           entity.InvoiceStatusIssued,
			PaymentMethod:    inv.PaymentMethod,
			Currency:         inv.Currency,
			Notes:            reason,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := steps.required("credit_note.create", repos.Invoices.Create(ctx, cn)); err != nil {
			return err
		}
		negated := make([]*entity.InvoiceItem, 0, len(items))
		for _, it := range items {
			n := it.Negated(cn.ID, uuid.New().String())
			negated = append(negated, &n)
		}
		if err := steps.required("credit_note_items.create", createInvoiceItems(ctx, repos.Invoices, negated)); err != nil {
			return err
		}

		inv.Balance = decimal.Zero
		inv.Status = entity.InvoiceStatusPaid
		inv.UpdatedAt = now
		if err := steps.required("invoice.settle", repos.Invoices.UpdateBalance(ctx, inv)); err != nil {
			return err
		}

		sale, err := repos.Sales.GetByID(ctx, inv.SaleID)
		if err := steps.required("sale.get", err); err != nil {
			return err
		}
		if sale != nil {
			sale.Balance = decimal.Zero
			sale.Status = entity.SaleStatusPaid
			sale.PaymentStatus = entity.PaymentStatusPaid
			sale.UpdatedAt = now
			if err := steps.required("sale.settle", repos.Sales.UpdateBalance(ctx, sale)); err != nil {
				return err
			}
		}

		ar, err := repos.Receivables.GetByInvoice(ctx, inv.ID)
		if err == nil && ar == nil && inv.SaleID != "" {
			ar, err = repos.Receivables.GetBySale(ctx, inv.SaleID)
		}
		if err := steps.required("receivable.get", err); err != nil {
			return err
		}
		if ar == nil {
			log.Warn().Str("invoice_id", inv.ID).Msg("la factura no tiene cuenta por cobrar; no hay saldo que anular")
		} else {
			ar.Balance = decimal.Zero
			ar.Status = entity.PaymentStatusPaid
			ar.UpdatedAt = now
			if err := steps.required("receivable.settle", repos.Receivables.UpdateBalance(ctx, ar)); err != nil {
				return err
			}
		}

		original, creditNote, cnItems = inv, cn, negated
		return nil
	})
	if err != nil {
		releaseCart(ctx, uc.carts, c, log)
		return nil, commitError("credit_note.commit", err)
	}

	c.HoldReason = reason
	c.Notes = appendNote(c.Notes, fmt.Sprintf("Nota crédito: %s (%s)", creditNote.Number, reason))
	if err := steps.required("cart.save", finalizeCart(ctx, uc.carts, sess, c, entity.CartStatusCancelled, now)); err != nil {
		log.Error().Str("credit_note_id", creditNote.ID).Msg("nota crédito emitida pero el carrito no pudo marcarse como cancelado; queda tomado")
		return nil, err
	}

	log.Info().
		Str("invoice_id", original.ID).
		Str("credit_note_id", creditNote.ID).
		Str("credit_note_number", creditNote.Number).
		Msg("deuda anulada con nota crédito")

	return &dto.CreditNoteResponse{
		Cart:       c,
		CreditNote: toInvoiceResponse(creditNote, cnItems),
	}, nil
}

// locateDebtInvoice factura original: primero por el número en las notas del carrito;
// si no está, la venta pendiente más reciente del cliente y su factura.
func locateDebtInvoice(ctx context.Context, repos BillingRepos, c *entity.Cart) (*entity.Invoice, error) {
	if number, ok := ParseInvoiceNumber(c.Notes); ok {
		inv, err := repos.Invoices.GetByNumber(ctx, c.OrganizationID, number)
		if err != nil || inv != nil {
			return inv, err
		}
	}
	if !c.HasCustomer() {
		return nil, nil
	}
	sale, err := repos.Sales.FindLatestPendingByCustomer(ctx, c.OrganizationID, c.CustomerID)
	if err != nil || sale == nil {
		return nil, err
	}
	return repos.Invoices.GetBySale(ctx, sale.ID, entity.DocumentTypeInvoice)
}

func appendNote(notes, note string) string {
	if strings.TrimSpace(notes) == "" {
		return note
	}
	return notes + notesSeparator + note
}
