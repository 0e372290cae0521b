package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
)

type Filter struct {
	Type string
	From *civil.Date
	To   *civil.Date
}

type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, r *Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Report, int, error)
}

// StatsSource counts incidents started in [from, to).
type StatsSource interface {
	IncidentStats(ctx context.Context, from, to time.Time) (*Stats, error)
}
