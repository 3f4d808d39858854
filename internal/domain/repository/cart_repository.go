package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// CartRepository almacén de carritos en curso, una entrada por carrito.
//
// Save usa concurrencia optimista sobre Cart.Version: si la versión guardada no coincide
// devuelve domain.ErrConflict; en éxito incrementa cart.Version.
type CartRepository interface {
	Get(ctx context.Context, organizationID, cartID string) (*entity.Cart, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*entity.Cart, error)
	Save(ctx context.Context, cart *entity.Cart) error
	Delete(ctx context.Context, organizationID, cartID string) error
}
