package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

const genericDescription = "Producto"

// resolveDescriptions descripción por producto desde el catálogo.
// Si el catálogo falla para un producto se usa el nombre guardado en el carrito y se devuelve el error acumulado.
func resolveDescriptions(ctx context.Context, products repository.ProductRepository, c *entity.Cart) (map[string]string, error) {
	out := make(map[string]string, len(c.Items))
	var errs []error
	for _, it := range c.Items {
		fallback := it.ProductName
		if fallback == "" {
			fallback = genericDescription
		}
		p, err := products.GetByID(ctx, it.ProductID)
		if err != nil {
			errs = append(errs, fmt.Errorf("producto %s: %w", it.ProductID, err))
			out[it.ProductID] = fallback
			continue
		}
		switch {
		case p == nil:
			out[it.ProductID] = fallback
		case p.Description != "":
			out[it.ProductID] = p.Description
		default:
			out[it.ProductID] = p.Name
		}
	}
	return out, errors.Join(errs...)
}
