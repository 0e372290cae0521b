package patient

import (
	"context"

	"github.com/google/uuid"
)

type Filter struct {
	IncidentID *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error)
	ListByIncidents(ctx context.Context, incidentIDs []uuid.UUID) ([]*Patient, error)
}

// DetailRepository stores the three one-to-one records keyed by patient id.
// Inserts fail with a conflict when the patient already has the record.
// Upserts replace every column.
type DetailRepository interface {
	InsertBelongings(ctx context.Context, b *Belongings) error
	UpsertBelongings(ctx context.Context, b *Belongings) error
	GetBelongings(ctx context.Context, patientID uuid.UUID) (*Belongings, error)
	DeleteBelongings(ctx context.Context, patientID uuid.UUID) error
	ListBelongings(ctx context.Context, limit, offset int) ([]*Belongings, int, error)
	BelongingsFor(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]*Belongings, error)

	InsertClinicalInfo(ctx context.Context, c *ClinicalInfo) error
	UpsertClinicalInfo(ctx context.Context, c *ClinicalInfo) error
	GetClinicalInfo(ctx context.Context, patientID uuid.UUID) (*ClinicalInfo, error)
	DeleteClinicalInfo(ctx context.Context, patientID uuid.UUID) error
	ListClinicalInfo(ctx context.Context, limit, offset int) ([]*ClinicalInfo, int, error)
	ClinicalInfoFor(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]*ClinicalInfo, error)

	InsertSpecificData(ctx context.Context, s *SpecificData) error
	UpsertSpecificData(ctx context.Context, s *SpecificData) error
	GetSpecificData(ctx context.Context, patientID uuid.UUID) (*SpecificData, error)
	DeleteSpecificData(ctx context.Context, patientID uuid.UUID) error
	ListSpecificData(ctx context.Context, limit, offset int) ([]*SpecificData, int, error)
	SpecificDataFor(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]*SpecificData, error)
}
