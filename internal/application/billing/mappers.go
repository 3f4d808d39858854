package billing

import (
	"context"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID:            s.ID,
		CartID:        s.CartID,
		CustomerID:    s.CustomerID,
		Subtotal:      s.Subtotal,
		TaxTotal:      s.TaxTotal,
		DiscountTotal: s.DiscountTotal,
		Total:         s.Total,
		Balance:       s.Balance,
		Status:        s.Status,
		PaymentStatus: s.PaymentStatus,
		CreatedAt:     s.CreatedAt,
	}
}

func toInvoiceResponse(inv *entity.Invoice, items []*entity.InvoiceItem) dto.InvoiceResponse {
	resp := dto.InvoiceResponse{
		ID:               inv.ID,
		Number:           inv.Number,
		DocumentType:     inv.DocumentType,
		RelatedInvoiceID: inv.RelatedInvoiceID,
		SaleID:           inv.SaleID,
		CustomerID:       inv.CustomerID,
		IssueDate:        inv.IssueDate.Format(dateLayout),
		DueDate:          inv.DueDate.Format(dateLayout),
		Subtotal:         inv.Subtotal,
		TaxTotal:         inv.TaxTotal,
		DiscountTotal:    inv.DiscountTotal,
		Total:            inv.Total,
		Balance:          inv.Balance,
		Status:           inv.Status,
		PaymentMethod:    inv.PaymentMethod,
		Currency:         inv.Currency,
		Items:            make([]dto.InvoiceItemResponse, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			TaxRate:        it.TaxRate,
			TaxAmount:      it.TaxAmount,
			DiscountAmount: it.DiscountAmount,
			TotalLine:      it.TotalLine,
		})
	}
	return resp
}

func toPaymentResponse(p *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:        p.ID,
		Source:    p.Source.SourceType(),
		SourceID:  p.Source.SourceID(),
		Method:    p.Method,
		Amount:    p.Amount,
		Reference: p.Reference,
		Currency:  p.Currency,
	}
}

func toReceivableResponse(ar *entity.AccountReceivable) dto.ReceivableResponse {
	return dto.ReceivableResponse{
		ID:         ar.ID,
		CustomerID: ar.CustomerID,
		SaleID:     ar.SaleID,
		InvoiceID:  ar.InvoiceID,
		Amount:     ar.Amount,
		Balance:    ar.Balance,
		DueDate:    ar.DueDate.Format(dateLayout),
		Status:     ar.Status,
	}
}

func toStepResponses(outcomes []StepOutcome) []dto.StepResponse {
	out := make([]dto.StepResponse, 0, len(outcomes))
	for _, o := range outcomes {
		r := dto.StepResponse{Step: o.Step, Kind: string(o.Kind), OK: o.OK()}
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
		out = append(out, r)
	}
	return out
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	if c == nil {
		return nil
	}
	return &dto.CustomerResponse{
		ID:    c.ID,
		Name:  c.Name,
		TaxID: c.TaxID,
		Email: c.Email,
		Phone: c.Phone,
	}
}

// saleItemsFromCart líneas de venta espejo del carrito.
func saleItemsFromCart(saleID string, c *entity.Cart, descriptions map[string]string, newID func() string) []*entity.SaleItem {
	out := make([]*entity.SaleItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, &entity.SaleItem{
			ID:             newID(),
			SaleID:         saleID,
			ProductID:      it.ProductID,
			Description:    descriptions[it.ProductID],
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			TaxRate:        it.TaxRate,
			TaxAmount:      it.TaxAmount,
			DiscountAmount: it.DiscountAmount,
			TotalLine:      it.Total,
		})
	}
	return out
}

// invoiceItemsFromCart líneas de factura espejo del carrito.
func invoiceItemsFromCart(invoiceID string, c *entity.Cart, descriptions map[string]string, newID func() string) []*entity.InvoiceItem {
	out := make([]*entity.InvoiceItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, &entity.InvoiceItem{
			ID:             newID(),
			InvoiceID:      invoiceID,
			ProductID:      it.ProductID,
			Description:    descriptions[it.ProductID],
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			TaxRate:        it.TaxRate,
			TaxAmount:      it.TaxAmount,
			DiscountAmount: it.DiscountAmount,
			TotalLine:      it.Total,
		})
	}
	return out
}

func createSaleItems(ctx context.Context, repo repository.SaleRepository, items []*entity.SaleItem) error {
	for _, it := range items {
		if err := repo.CreateItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func createInvoiceItems(ctx context.Context, repo repository.InvoiceRepository, items []*entity.InvoiceItem) error {
	for _, it := range items {
		if err := repo.CreateItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func createPayments(ctx context.Context, repo repository.PaymentRepository, payments []*entity.Payment) error {
	for _, p := range payments {
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
