package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/auth"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/cart"
	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router. DBCheck es opcional; si falla, /health responde 503.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	Carts          *cart.Service
	Checkout       *billing.CheckoutUseCase
	HoldWithDebt   *billing.HoldWithDebtUseCase
	CreditNote     *billing.CreditNoteUseCase
	InvoiceLookup  *billing.InvoiceLookupUseCase
	Reconciliation *billing.ReconciliationUseCase
	JWTSecret      string
	ServiceName    string
	DBCheck        func(ctx context.Context) error
	Logger         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps))

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.Logger)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Carts
	carts := protected.Group("/carts")
	cartHandler := NewCartHandler(deps.Carts, deps.Logger)
	carts.Post("/", cartHandler.Create)
	carts.Get("/", cartHandler.List)
	carts.Get("/:id", cartHandler.Get)
	carts.Delete("/:id", cartHandler.Discard)
	carts.Post("/:id/items", cartHandler.AddItem)
	carts.Patch("/:id/items/:productId", cartHandler.UpdateItem)
	carts.Delete("/:id/items/:productId", cartHandler.RemoveItem)
	carts.Put("/:id/customer", cartHandler.SetCustomer)
	carts.Delete("/:id/customer", cartHandler.ClearCustomer)
	carts.Put("/:id/taxes/:taxId", cartHandler.ToggleTax)
	carts.Post("/:id/hold", cartHandler.Hold)
	carts.Post("/:id/resume", cartHandler.Resume)

	// Facturación
	billingHandler := NewBillingHandler(deps.Checkout, deps.HoldWithDebt, deps.CreditNote, deps.InvoiceLookup, deps.Reconciliation, deps.Logger)
	carts.Post("/:id/checkout", billingHandler.Checkout)
	carts.Post("/:id/hold-with-debt", billingHandler.HoldWithDebt)
	carts.Post("/:id/credit-note", RequireRole(entity.RoleAdmin, entity.RoleSupervisor), billingHandler.CreditNote)
	carts.Get("/:id/invoice", billingHandler.GetInvoice)
	protected.Get("/reconciliation-tasks", billingHandler.ListReconciliationTasks)
}

func healthHandler(deps RouterDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out := dto.HealthResponse{Status: "ok", Service: deps.ServiceName}
		if deps.DBCheck == nil {
			return c.JSON(out)
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := deps.DBCheck(ctx); err != nil {
			deps.Logger.Warn().Err(err).Msg("health: base de datos no responde")
			out.Status = "degraded"
			out.Database = "down"
			return c.Status(fiber.StatusServiceUnavailable).JSON(out)
		}
		out.Database = "up"
		return c.JSON(out)
	}
}
