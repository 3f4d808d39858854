package billing

import (
	"context"
	"regexp"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var invoiceNumberInNotes = regexp.MustCompile(`Factura:\s*([A-Za-z0-9][A-Za-z0-9-]*)`)

// ParseInvoiceNumber extrae el número de factura guardado en las notas del carrito.
func ParseInvoiceNumber(notes string) (string, bool) {
	m := invoiceNumberInNotes.FindStringSubmatch(notes)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// InvoiceLookupUseCase consulta la factura de un carrito en espera con deuda o anulado.
type InvoiceLookupUseCase struct {
	carts     CartSource
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
}

// NewInvoiceLookupUseCase construye el caso de uso.
func NewInvoiceLookupUseCase(carts CartSource, invoices repository.InvoiceRepository, customers repository.CustomerRepository) *InvoiceLookupUseCase {
	return &InvoiceLookupUseCase{carts: carts, invoices: invoices, customers: customers}
}

// GetForCart devuelve factura, líneas y cliente a partir del número guardado en las notas del carrito.
func (uc *InvoiceLookupUseCase) GetForCart(ctx context.Context, sess entity.Session, cartID string) (*dto.CartInvoiceResponse, error) {
	c, err := uc.carts.Get(ctx, sess, cartID)
	if err != nil {
		return nil, err
	}
	number, ok := ParseInvoiceNumber(c.Notes)
	if !ok {
		return nil, domain.ErrNotFound
	}
	inv, err := uc.invoices.GetByNumber(ctx, sess.OrganizationID, number)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.invoices.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	resp := &dto.CartInvoiceResponse{Invoice: toInvoiceResponse(inv, items)}
	if inv.CustomerID != "" {
		customer, err := uc.customers.GetByID(ctx, inv.CustomerID)
		if err != nil {
			return nil, err
		}
		resp.Customer = toCustomerResponse(customer)
	}
	return resp, nil
}

// ReconciliationUseCase lista las tareas de conciliación abiertas de la organización.
type ReconciliationUseCase struct {
	repo repository.ReconciliationRepository
}

// NewReconciliationUseCase construye el caso de uso.
func NewReconciliationUseCase(repo repository.ReconciliationRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{repo: repo}
}

// ListOpen tareas sin resolver.
func (uc *ReconciliationUseCase) ListOpen(ctx context.Context, sess entity.Session) ([]dto.ReconciliationTaskResponse, error) {
	tasks, err := uc.repo.ListOpen(ctx, sess.OrganizationID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReconciliationTaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, dto.ReconciliationTaskResponse{
			ID:        t.ID,
			Kind:      t.Kind,
			SaleID:    t.SaleID,
			InvoiceID: t.InvoiceID,
			Detail:    t.Detail,
			CreatedAt: t.CreatedAt,
		})
	}
	return out, nil
}
