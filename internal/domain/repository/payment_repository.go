package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para Payment.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	ListBySource(ctx context.Context, source entity.PaymentSource) ([]*entity.Payment, error)
}
