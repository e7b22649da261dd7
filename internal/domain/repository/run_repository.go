package repository

import (
	"context"

	"github.com/jhoicas/sire-reportes/internal/domain/entity"
)

// RunRepository define el puerto de persistencia para la bitácora de ejecuciones SIRE.
type RunRepository interface {
	Start(ctx context.Context, run *entity.Run) error
	Finish(ctx context.Context, run *entity.Run) error
	ListByPeriod(ctx context.Context, periodo string, limit int) ([]*entity.Run, error)
}
