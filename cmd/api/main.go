package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/pos-api/internal/application/auth"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/cart"
	"github.com/jhoicas/pos-api/internal/infrastructure/cache"
	"github.com/jhoicas/pos-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pos-api/internal/interfaces/http"
	"github.com/jhoicas/pos-api/pkg/config"
	"github.com/jhoicas/pos-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("receivable_mode", cfg.POS.ReceivableMode).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	cartStore, closeCarts, err := cache.NewCartStore(cfg.Redis, log.Component("cart_store"))
	if err != nil {
		log.Fatal().Err(err).Msg("almacén de carritos")
	}
	defer func() {
		if err := closeCarts(); err != nil {
			log.Warn().Err(err).Msg("cerrar almacén de carritos")
		}
	}()

	userRepo := postgres.NewUserRepository(pool)
	orgRepo := postgres.NewOrganizationRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	taxRepo := postgres.NewTaxRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	receivableRepo := postgres.NewReceivableRepository(pool)
	reconciliationRepo := postgres.NewReconciliationRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.POS.ReceivableMode)

	billingCfg := billing.Config{
		InvoicePrefix:      cfg.POS.InvoicePrefix,
		CreditNotePrefix:   cfg.POS.CreditNotePrefix,
		PaymentTermsDays:   cfg.POS.PaymentTermsDays,
		ReceivableDays:     cfg.POS.ReceivableDays,
		ReceivableMode:     cfg.POS.ReceivableMode,
		ReceivableAttempts: cfg.POS.ReceivableAttempts,
		ReceivableDelay:    cfg.POS.ReceivableDelay,
	}

	cartSvc := cart.NewService(cartStore, productRepo, taxRepo, orgRepo, customerRepo, log.Component("cart"))
	checkoutUC := billing.NewCheckoutUseCase(txRunner, cartSvc, productRepo, orgRepo, billingCfg, log.Component("checkout"))
	holdWithDebtUC := billing.NewHoldWithDebtUseCase(txRunner, cartSvc, productRepo, orgRepo, receivableRepo, reconciliationRepo, billingCfg, log.Component("hold_with_debt"))
	creditNoteUC := billing.NewCreditNoteUseCase(txRunner, cartSvc, orgRepo, billingCfg, log.Component("credit_note"))
	invoiceLookupUC := billing.NewInvoiceLookupUseCase(cartSvc, invoiceRepo, customerRepo)
	reconciliationUC := billing.NewReconciliationUseCase(reconciliationRepo)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (solo si se generó docs/swagger.json)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "POS API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		Carts:          cartSvc,
		Checkout:       checkoutUC,
		HoldWithDebt:   holdWithDebtUC,
		CreditNote:     creditNoteUC,
		InvoiceLookup:  invoiceLookupUC,
		Reconciliation: reconciliationUC,
		JWTSecret:      cfg.JWT.Secret,
		ServiceName:    cfg.App.Name,
		DBCheck:        pool.Ping,
		Logger:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
