package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/cart"
	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// CartHandler expone los carritos en curso de la organización (protegido).
type CartHandler struct {
	svc *cart.Service
	log zerolog.Logger
}

// NewCartHandler construye el handler.
func NewCartHandler(svc *cart.Service, log zerolog.Logger) *CartHandler {
	return &CartHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Abrir carrito
// @Tags         carts
// @Produce      json
// @Success      201  {object}  entity.Cart
// @Failure      401  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts [post]
func (h *CartHandler) Create(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.svc.Create(c.UserContext(), sess)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar carritos
// @Tags         carts
// @Produce      json
// @Param        status  query  string  false  "active | hold | hold_with_debt"
// @Success      200  {array}   entity.Cart
// @Security     BearerAuth
// @Router       /api/carts [get]
func (h *CartHandler) List(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	status := entity.CartStatus(c.Query("status"))
	switch status {
	case "", entity.CartStatusActive, entity.CartStatusHold, entity.CartStatusHoldWithDebt, entity.CartStatusCompleted, entity.CartStatusCancelled:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status desconocido"})
	}
	out, err := h.svc.List(c.UserContext(), sess, status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Detalle de un carrito
// @Tags         carts
// @Produce      json
// @Param        id   path  string  true  "cart id"
// @Success      200  {object}  entity.Cart
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id} [get]
func (h *CartHandler) Get(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.svc.Get(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Discard godoc
// @Summary      Descartar carrito
// @Tags         carts
// @Param        id   path  string  true  "cart id"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id} [delete]
func (h *CartHandler) Discard(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.svc.Discard(c.UserContext(), sess, c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddItem godoc
// @Summary      Agregar producto
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "cart id"
// @Param        body  body  dto.AddItemRequest  true  "producto y cantidad"
// @Success      200   {object}  entity.Cart
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id}/items [post]
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddItemRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.mutate(c, cart.AddItem{ProductID: in.ProductID, Quantity: in.Quantity, UnitPrice: in.UnitPrice})
}

// UpdateItem godoc
// @Summary      Cambiar cantidad o descuento de una línea
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        id         path  string                 true  "cart id"
// @Param        productId  path  string                 true  "product id"
// @Param        body       body  dto.UpdateItemRequest  true  "quantity y/o discount_percent"
// @Success      200   {object}  entity.Cart
// @Failure      400   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id}/items/{productId} [patch]
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	productID := c.Params("productId")
	var ops cart.Batch
	if in.Quantity != nil {
		ops = append(ops, cart.UpdateQuantity{ProductID: productID, Quantity: *in.Quantity})
	}
	if in.DiscountPercent != nil {
		ops = append(ops, cart.SetDiscount{ProductID: productID, Percent: *in.DiscountPercent})
	}
	if len(ops) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity o discount_percent requerido"})
	}
	return h.mutate(c, ops)
}

// RemoveItem godoc
// @Summary      Quitar producto
// @Tags         carts
// @Produce      json
// @Param        id         path  string  true  "cart id"
// @Param        productId  path  string  true  "product id"
// @Success      200   {object}  entity.Cart
// @Failure      404   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id}/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	return h.mutate(c, cart.RemoveItem{ProductID: c.Params("productId")})
}

// SetCustomer godoc
// @Summary      Asignar cliente
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "cart id"
// @Param        body  body  dto.SetCustomerRequest  true  "customer_id"
// @Success      200   {object}  entity.Cart
// @Security     BearerAuth
// @Router       /api/carts/{id}/customer [put]
func (h *CartHandler) SetCustomer(c *fiber.Ctx) error {
	var in dto.SetCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.mutate(c, cart.SetCustomer{CustomerID: in.CustomerID})
}

// ClearCustomer godoc
// @Summary      Quitar cliente (consumidor final)
// @Tags         carts
// @Produce      json
// @Param        id   path  string  true  "cart id"
// @Success      200  {object}  entity.Cart
// @Security     BearerAuth
// @Router       /api/carts/{id}/customer [delete]
func (h *CartHandler) ClearCustomer(c *fiber.Ctx) error {
	return h.mutate(c, cart.ClearCustomer{})
}

// ToggleTax godoc
// @Summary      Activar o desactivar un impuesto en el carrito
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        id     path  string                true  "cart id"
// @Param        taxId  path  string                true  "tax id"
// @Param        body   body  dto.ToggleTaxRequest  true  "applied"
// @Success      200   {object}  entity.Cart
// @Security     BearerAuth
// @Router       /api/carts/{id}/taxes/{taxId} [put]
func (h *CartHandler) ToggleTax(c *fiber.Ctx) error {
	var in dto.ToggleTaxRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.mutate(c, cart.ToggleTax{TaxID: c.Params("taxId"), Applied: in.Applied})
}

// Hold godoc
// @Summary      Poner el carrito en espera
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        id    path  string           true   "cart id"
// @Param        body  body  dto.HoldRequest  false  "motivo"
// @Success      200   {object}  entity.Cart
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id}/hold [post]
func (h *CartHandler) Hold(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.HoldRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.svc.Hold(c.UserContext(), sess, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Resume godoc
// @Summary      Retomar un carrito en espera
// @Tags         carts
// @Produce      json
// @Param        id   path  string  true  "cart id"
// @Success      200  {object}  entity.Cart
// @Failure      409  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/carts/{id}/resume [post]
func (h *CartHandler) Resume(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.svc.Resume(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

func (h *CartHandler) mutate(c *fiber.Ctx, op cart.Op) error {
	sess, ok := GetSession(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.svc.Mutate(c.UserContext(), sess, c.Params("id"), op)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
