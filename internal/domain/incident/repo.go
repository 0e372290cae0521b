package incident

import (
	"context"

	"github.com/google/uuid"
)

type Filter struct {
	TeamID    *uuid.UUID
	Finalized *bool
}

type IncidentRepository interface {
	Create(ctx context.Context, i *Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*Incident, error)
	Update(ctx context.Context, i *Incident) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Incident, int, error)
}

type LocationRepository interface {
	Create(ctx context.Context, l *Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*Location, error)
	Update(ctx context.Context, l *Location) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Location, int, error)
	// Upsert creates the location of l.IncidentID or rewrites the existing
	// one. l.ID is set to the stored id.
	Upsert(ctx context.Context, l *Location) error
	ForIncidents(ctx context.Context, incidentIDs []uuid.UUID) (map[uuid.UUID]*Location, error)
}

// MaterialFilter narrows material records. A nil RecordedBy matches every
// recorder.
type MaterialFilter struct {
	RecordedBy *uuid.UUID
	IncidentID *uuid.UUID
}

type MaterialRepository interface {
	Create(ctx context.Context, m *MaterialUsed) error
	GetByID(ctx context.Context, id uuid.UUID) (*MaterialUsed, error)
	Update(ctx context.Context, m *MaterialUsed) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f MaterialFilter, limit, offset int) ([]*MaterialUsed, int, error)
	ForIncidents(ctx context.Context, incidentIDs []uuid.UUID) (map[uuid.UUID][]*MaterialUsed, error)
}

type SupportRepository interface {
	Create(ctx context.Context, s *SupportVehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*SupportVehicle, error)
	Update(ctx context.Context, s *SupportVehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, incidentID *uuid.UUID, limit, offset int) ([]*SupportVehicle, int, error)
	ForIncidents(ctx context.Context, incidentIDs []uuid.UUID) (map[uuid.UUID][]*SupportVehicle, error)
}
