package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/dto"
)

// BillingHandler maneja cobro, espera con deuda, nota crédito y consultas de factura (protegido).
type BillingHandler struct {
	checkout       *billing.CheckoutUseCase
	holdWithDebt   *billing.HoldWithDebtUseCase
	creditNote     *billing.CreditNoteUseCase
	lookup         *billing.InvoiceLookupUseCase
	reconciliation *billing.ReconciliationUseCase
	log            zerolog.Logger
}

// NewBillingHandler construye el handler.
func NewBillingHandler(
	checkout *billing.CheckoutUseCase,
	holdWithDebt *billing.HoldWithDebtUseCase,
	creditNote *billing.CreditNoteUseCase,
	lookup *billing.InvoiceLookupUseCase,
	reconciliation *billing.ReconciliationUseCase,
	log zerolog.Logger,
) *BillingHandler {
	return &BillingHandler{
		checkout:       checkout,
		holdWithDebt:   holdWithDebt,
		creditNote:     creditNote,
		lookup:         lookup,
		reconciliation: reconciliation,
		log:            log,
	}
}

// Checkout godoc
// @Summary      Cobrar el carrito
// @Description  Registra venta, factura y pagos. Si la factura falla, los pagos quedan ligados a la venta (degraded).
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "cart id"
// @Param        body  body  dto.CheckoutRequest  true  "pagos"
// @Success      201   {object}  dto.CheckoutResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id}/checkout [post]
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.checkout.Settle(c.UserContext(), sess, c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// HoldWithDebt godoc
// @Summary      Dejar el carrito en espera con deuda
// @Description  Emite la factura y la cuenta por cobrar del cliente; el carrito queda en hold_with_debt.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "cart id"
// @Param        body  body  dto.HoldWithDebtRequest  false  "motivo y plazo"
// @Success      201   {object}  dto.HoldWithDebtResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      504   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id}/hold-with-debt [post]
func (h *BillingHandler) HoldWithDebt(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.HoldWithDebtRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.holdWithDebt.Execute(c.UserContext(), sess, c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreditNote godoc
// @Summary      Anular la deuda con nota crédito
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true   "cart id"
// @Param        body  body  dto.CreditNoteRequest  false  "motivo"
// @Success      201   {object}  dto.CreditNoteResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id}/credit-note [post]
func (h *BillingHandler) CreditNote(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreditNoteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.creditNote.Execute(c.UserContext(), sess, c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetInvoice godoc
// @Summary      Factura asociada a un carrito en espera con deuda
// @Tags         billing
// @Produce      json
// @Param        id   path  string  true  "cart id"
// @Success      200  {object}  dto.CartInvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id}/invoice [get]
func (h *BillingHandler) GetInvoice(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.lookup.GetForCart(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListReconciliationTasks godoc
// @Summary      Tareas de conciliación abiertas
// @Tags         billing
// @Produce      json
// @Success      200  {array}  dto.ReconciliationTaskResponse
// @Security     BearerAuth
// @Router       /api/reconciliation-tasks [get]
func (h *BillingHandler) ListReconciliationTasks(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.reconciliation.ListOpen(c.UserContext(), sess)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
