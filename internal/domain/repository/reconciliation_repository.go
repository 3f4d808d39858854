package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ReconciliationRepository tareas de conciliación pendientes.
type ReconciliationRepository interface {
	Create(ctx context.Context, task *entity.ReconciliationTask) error
	ListOpen(ctx context.Context, organizationID string) ([]*entity.ReconciliationTask, error)
}
