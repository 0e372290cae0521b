package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
)

// Writer creates the patients of a new incident. It runs inside the
// caller's transaction.
type Writer interface {
	CreateNested(ctx context.Context, incidentID uuid.UUID, ops []*PatientOp) error
}

// Reader assembles patient read views for a set of incidents.
type Reader interface {
	ReadByIncidents(ctx context.Context, incidentIDs []uuid.UUID) (map[uuid.UUID][]*PatientRead, error)
}

type Service struct {
	patients Repository
	details  DetailRepository
	tx       db.Transactor
}

func NewService(patients Repository, details DetailRepository, tx db.Transactor) *Service {
	return &Service{patients: patients, details: details, tx: tx}
}

// -- Patient --

// CreatePatient stores the patient and every populated detail record in one
// transaction.
func (s *Service) CreatePatient(ctx context.Context, op *PatientOp) (*PatientRead, error) {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.patients.Create(ctx, op.Patient); err != nil {
			return err
		}
		return s.insertDetails(ctx, op)
	})
	if err != nil {
		return nil, err
	}
	return s.GetPatient(ctx, op.Patient.ID)
}

// UpdatePatient rewrites the patient and merges the detail records op
// carries into the stored ones. Records op leaves nil are kept as stored.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, op *PatientOp) (*PatientRead, error) {
	op.Patient.ID = id
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.patients.Update(ctx, op.Patient); err != nil {
			return err
		}
		return s.mergeDetails(ctx, op)
	})
	if err != nil {
		return nil, err
	}
	return s.GetPatient(ctx, id)
}

// insertDetails stores the populated detail records of a new patient.
func (s *Service) insertDetails(ctx context.Context, op *PatientOp) error {
	id := op.Patient.ID
	if op.Belongings != nil {
		op.Belongings.PatientID = id
		if err := s.details.InsertBelongings(ctx, op.Belongings); err != nil {
			return err
		}
	}
	if op.ClinicalInfo != nil {
		op.ClinicalInfo.PatientID = id
		if err := s.details.InsertClinicalInfo(ctx, op.ClinicalInfo); err != nil {
			return err
		}
	}
	if op.SpecificData != nil {
		op.SpecificData.PatientID = id
		if err := s.details.InsertSpecificData(ctx, op.SpecificData); err != nil {
			return err
		}
	}
	return nil
}

// mergeDetails writes the detail records op carries over the stored ones.
// Fields the payload leaves nil keep their stored value.
func (s *Service) mergeDetails(ctx context.Context, op *PatientOp) error {
	id := op.Patient.ID
	if op.Belongings != nil {
		op.Belongings.PatientID = id
		stored, err := existing(s.details.GetBelongings(ctx, id))
		if err != nil {
			return err
		}
		op.Belongings.fillFrom(stored)
		if err := s.details.UpsertBelongings(ctx, op.Belongings); err != nil {
			return err
		}
	}
	if op.ClinicalInfo != nil {
		op.ClinicalInfo.PatientID = id
		stored, err := existing(s.details.GetClinicalInfo(ctx, id))
		if err != nil {
			return err
		}
		op.ClinicalInfo.fillFrom(stored)
		if err := s.details.UpsertClinicalInfo(ctx, op.ClinicalInfo); err != nil {
			return err
		}
	}
	if op.SpecificData != nil {
		op.SpecificData.PatientID = id
		stored, err := existing(s.details.GetSpecificData(ctx, id))
		if err != nil {
			return err
		}
		op.SpecificData.fillFrom(stored)
		if err := s.details.UpsertSpecificData(ctx, op.SpecificData); err != nil {
			return err
		}
	}
	return nil
}

// existing turns a not-found lookup into a nil record.
func existing[T any](rec *T, err error) (*T, error) {
	if errors.Is(err, apierr.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// CreateNested creates each patient after its incident, each followed by its
// populated detail records.
func (s *Service) CreateNested(ctx context.Context, incidentID uuid.UUID, ops []*PatientOp) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		for i, op := range ops {
			op.Patient.IncidentID = incidentID
			if err := s.patients.Create(ctx, op.Patient); err != nil {
				return nestedError(err, i)
			}
			if err := s.insertDetails(ctx, op); err != nil {
				return nestedError(err, i)
			}
		}
		return nil
	})
}

func nestedError(err error, index int) error {
	var v *apierr.ValidationError
	if !errors.As(err, &v) {
		return err
	}
	out := &apierr.ValidationError{}
	out.Merge(fmt.Sprintf("pacientes.%d.", index), v)
	return out
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*PatientRead, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reads, err := s.assemble(ctx, []*Patient{p})
	if err != nil {
		return nil, err
	}
	return reads[0], nil
}

func (s *Service) ListPatients(ctx context.Context, f Filter, limit, offset int) ([]*PatientRead, int, error) {
	items, total, err := s.patients.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	reads, err := s.assemble(ctx, items)
	return reads, total, err
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) ReadByIncidents(ctx context.Context, incidentIDs []uuid.UUID) (map[uuid.UUID][]*PatientRead, error) {
	items, err := s.patients.ListByIncidents(ctx, incidentIDs)
	if err != nil {
		return nil, err
	}
	reads, err := s.assemble(ctx, items)
	if err != nil {
		return nil, err
	}
	return lo.GroupBy(reads, func(r *PatientRead) uuid.UUID { return r.IncidentID }), nil
}

// assemble loads the detail records of patients in three batched queries.
func (s *Service) assemble(ctx context.Context, patients []*Patient) ([]*PatientRead, error) {
	if len(patients) == 0 {
		return []*PatientRead{}, nil
	}
	ids := lo.Map(patients, func(p *Patient, _ int) uuid.UUID { return p.ID })
	belongings, err := s.details.BelongingsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	clinical, err := s.details.ClinicalInfoFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	specific, err := s.details.SpecificDataFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	return lo.Map(patients, func(p *Patient, _ int) *PatientRead {
		return &PatientRead{
			Patient:      p,
			Belongings:   belongings[p.ID],
			ClinicalInfo: clinical[p.ID],
			SpecificData: specific[p.ID],
		}
	}), nil
}

// -- Detail records --

// requirePatient reports a missing patient against the paciente field.
func (s *Service) requirePatient(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return apierr.NewValidationError("paciente", "this field is required")
	}
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		if errors.Is(err, apierr.ErrNotFound) {
			return apierr.NewValidationError("paciente", "object does not exist")
		}
		return err
	}
	return nil
}

// CreateBelongings stores a new record and fails with a conflict when the
// patient already has one.
func (s *Service) CreateBelongings(ctx context.Context, b *Belongings) error {
	if err := b.validate().Err(); err != nil {
		return err
	}
	if err := s.requirePatient(ctx, b.PatientID); err != nil {
		return err
	}
	return s.details.InsertBelongings(ctx, b)
}

func (s *Service) UpsertBelongings(ctx context.Context, b *Belongings) error {
	if err := b.validate().Err(); err != nil {
		return err
	}
	if err := s.requirePatient(ctx, b.PatientID); err != nil {
		return err
	}
	return s.details.UpsertBelongings(ctx, b)
}

func (s *Service) GetBelongings(ctx context.Context, patientID uuid.UUID) (*Belongings, error) {
	return s.details.GetBelongings(ctx, patientID)
}

func (s *Service) DeleteBelongings(ctx context.Context, patientID uuid.UUID) error {
	return s.details.DeleteBelongings(ctx, patientID)
}

func (s *Service) ListBelongings(ctx context.Context, limit, offset int) ([]*Belongings, int, error) {
	return s.details.ListBelongings(ctx, limit, offset)
}

func (s *Service) CreateClinicalInfo(ctx context.Context, c *ClinicalInfo) error {
	if err := c.validate().Err(); err != nil {
		return err
	}
	if err := s.requirePatient(ctx, c.PatientID); err != nil {
		return err
	}
	return s.details.InsertClinicalInfo(ctx, c)
}

func (s *Service) UpsertClinicalInfo(ctx context.Context, c *ClinicalInfo) error {
	if err := c.validate().Err(); err != nil {
		return err
	}
	if err := s.requirePatient(ctx, c.PatientID); err != nil {
		return err
	}
	return s.details.UpsertClinicalInfo(ctx, c)
}

func (s *Service) GetClinicalInfo(ctx context.Context, patientID uuid.UUID) (*ClinicalInfo, error) {
	return s.details.GetClinicalInfo(ctx, patientID)
}

func (s *Service) DeleteClinicalInfo(ctx context.Context, patientID uuid.UUID) error {
	return s.details.DeleteClinicalInfo(ctx, patientID)
}

func (s *Service) ListClinicalInfo(ctx context.Context, limit, offset int) ([]*ClinicalInfo, int, error) {
	return s.details.ListClinicalInfo(ctx, limit, offset)
}

func (s *Service) CreateSpecificData(ctx context.Context, sd *SpecificData) error {
	if err := sd.validate().Err(); err != nil {
		return err
	}
	if err := s.requirePatient(ctx, sd.PatientID); err != nil {
		return err
	}
	return s.details.InsertSpecificData(ctx, sd)
}

func (s *Service) UpsertSpecificData(ctx context.Context, sd *SpecificData) error {
	if err := sd.validate().Err(); err != nil {
		return err
	}
	if err := s.requirePatient(ctx, sd.PatientID); err != nil {
		return err
	}
	return s.details.UpsertSpecificData(ctx, sd)
}

func (s *Service) GetSpecificData(ctx context.Context, patientID uuid.UUID) (*SpecificData, error) {
	return s.details.GetSpecificData(ctx, patientID)
}

func (s *Service) DeleteSpecificData(ctx context.Context, patientID uuid.UUID) error {
	return s.details.DeleteSpecificData(ctx, patientID)
}

func (s *Service) ListSpecificData(ctx context.Context, limit, offset int) ([]*SpecificData, int, error) {
	return s.details.ListSpecificData(ctx, limit, offset)
}
