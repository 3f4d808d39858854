package billing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// Pipelines que toman un carrito.
const (
	pipelineCheckout     = "checkout"
	pipelineHoldWithDebt = "hold_with_debt"
	pipelineCreditNote   = "credit_note"
)

const finalizeAttempts = 3

// claimCart toma el carrito para el pipeline y lo guarda. Si otra sesión lo guardó después de
// la lectura, el guardado falla con conflicto y el pipeline no escribe nada en el libro.
func claimCart(ctx context.Context, carts CartSource, c *entity.Cart, pipeline string, now time.Time) error {
	if err := c.Claim(pipeline, now); err != nil {
		return err
	}
	return carts.Save(ctx, c)
}

// releaseCart devuelve el carrito tras un rollback. Si no se puede guardar queda tomado.
func releaseCart(ctx context.Context, carts CartSource, c *entity.Cart, log zerolog.Logger) {
	c.Release()
	if err := carts.Save(context.WithoutCancel(ctx), c); err != nil {
		log.Error().Err(err).Str("cart_id", c.ID).Msg("no se pudo liberar el carrito tras el rollback; queda tomado")
	}
}

// finalizeCart lleva el carrito tomado a su estado final después del commit.
// Ante conflicto relee la versión vigente y escribe encima el contenido facturado.
func finalizeCart(ctx context.Context, carts CartSource, sess entity.Session, c *entity.Cart, to entity.CartStatus, now time.Time) error {
	c.Release()
	if err := c.TransitionTo(to, now); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	var lastErr error
	for attempt := 1; attempt <= finalizeAttempts; attempt++ {
		lastErr = carts.Save(ctx, c)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, domain.ErrConflict) {
			continue
		}
		stored, err := carts.Get(ctx, sess, c.ID)
		if err != nil {
			lastErr = err
			continue
		}
		if stored.Status == to {
			*c = *stored
			return nil
		}
		c.Version = stored.Version
	}
	return lastErr
}

// numberingPrefixes prefijos de numeración de la organización; los que no tenga salen de configuración.
func (cfg Config) numberingPrefixes(org *entity.Organization) (invoice, creditNote string) {
	invoice, creditNote = cfg.InvoicePrefix, cfg.CreditNotePrefix
	if org == nil {
		return invoice, creditNote
	}
	if org.InvoicePrefix != "" {
		invoice = org.InvoicePrefix
	}
	if org.CreditNotePrefix != "" {
		creditNote = org.CreditNotePrefix
	}
	return invoice, creditNote
}
