package incident

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/domain/patient"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/events"
)

// PatientStore creates nested patients and reads them back per incident.
type PatientStore interface {
	patient.Writer
	patient.Reader
}

type Service struct {
	incidents IncidentRepository
	locations LocationRepository
	materials MaterialRepository
	support   SupportRepository
	patients  PatientStore
	tx        db.Transactor
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewService(
	incidents IncidentRepository,
	locations LocationRepository,
	materials MaterialRepository,
	support SupportRepository,
	patients PatientStore,
	tx db.Transactor,
	publisher events.Publisher,
	logger zerolog.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		incidents: incidents,
		locations: locations,
		materials: materials,
		support:   support,
		patients:  patients,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
	}
}

// -- Incident --

// CreateIncident stores the incident, its location and its patients
// atomically, in that order. Nothing is visible if any step fails.
func (s *Service) CreateIncident(ctx context.Context, op *IncidentOp) (*IncidentRead, error) {
	inc := op.Incident
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.incidents.Create(ctx, inc); err != nil {
			return err
		}
		loc := &Location{IncidentID: inc.ID, LocationFields: *op.Location}
		if err := s.locations.Create(ctx, loc); err != nil {
			return prefixed(err, "localizacao.")
		}
		return s.patients.CreateNested(ctx, inc.ID, op.Patients)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeIncidentCreated, inc)
	if inc.Finalized {
		s.publish(ctx, events.TypeIncidentFinalized, inc)
	}
	return s.GetIncident(ctx, inc.ID)
}

// UpdateIncident rewrites the incident and merges the location op carries
// into the stored one. Patients are never touched here.
func (s *Service) UpdateIncident(ctx context.Context, id uuid.UUID, op *IncidentOp) (*IncidentRead, error) {
	before, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inc := op.Incident
	inc.ID = id
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.incidents.Update(ctx, inc); err != nil {
			return err
		}
		if op.Location == nil {
			return nil
		}
		loc := &Location{IncidentID: id, LocationFields: *op.Location}
		stored, err := s.locations.ForIncidents(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if prev := stored[id]; prev != nil {
			loc.fillFrom(&prev.LocationFields)
		}
		if err := loc.Validate(); err != nil {
			return prefixed(err, "localizacao.")
		}
		return prefixed(s.locations.Upsert(ctx, loc), "localizacao.")
	})
	if err != nil {
		return nil, err
	}

	if inc.Finalized && !before.Finalized {
		s.publish(ctx, events.TypeIncidentFinalized, inc)
	}
	return s.GetIncident(ctx, id)
}

func prefixed(err error, prefix string) error {
	var v *apierr.ValidationError
	if !errors.As(err, &v) {
		return err
	}
	out := &apierr.ValidationError{}
	out.Merge(prefix, v)
	return out
}

// publish runs after commit. Delivery failures are logged and never undo
// the write.
func (s *Service) publish(ctx context.Context, eventType string, inc *Incident) {
	evt := events.New(eventType, inc.ID, inc.RegistryNumber)
	evt.FinalStatus = inc.FinalStatus
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).
			Str("event", eventType).
			Str("ocorrencia_id", inc.ID.String()).
			Msg("incident event not delivered")
	}
}

func (s *Service) GetIncident(ctx context.Context, id uuid.UUID) (*IncidentRead, error) {
	inc, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reads, err := s.assemble(ctx, []*Incident{inc})
	if err != nil {
		return nil, err
	}
	return reads[0], nil
}

// GetIncidentRecord returns the stored incident without children.
func (s *Service) GetIncidentRecord(ctx context.Context, id uuid.UUID) (*Incident, error) {
	return s.incidents.GetByID(ctx, id)
}

func (s *Service) ListIncidents(ctx context.Context, f Filter, limit, offset int) ([]*IncidentRead, int, error) {
	items, total, err := s.incidents.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	reads, err := s.assemble(ctx, items)
	return reads, total, err
}

func (s *Service) DeleteIncident(ctx context.Context, id uuid.UUID) error {
	return s.incidents.Delete(ctx, id)
}

// assemble nests every child record with one batched query per kind.
func (s *Service) assemble(ctx context.Context, items []*Incident) ([]*IncidentRead, error) {
	if len(items) == 0 {
		return []*IncidentRead{}, nil
	}
	ids := lo.Map(items, func(i *Incident, _ int) uuid.UUID { return i.ID })

	locations, err := s.locations.ForIncidents(ctx, ids)
	if err != nil {
		return nil, err
	}
	patients, err := s.patients.ReadByIncidents(ctx, ids)
	if err != nil {
		return nil, err
	}
	materials, err := s.materials.ForIncidents(ctx, ids)
	if err != nil {
		return nil, err
	}
	support, err := s.support.ForIncidents(ctx, ids)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(i *Incident, _ int) *IncidentRead {
		r := &IncidentRead{
			ID:              i.ID,
			Team:            i.TeamLabel,
			TeamID:          i.TeamID,
			RegistryNumber:  i.RegistryNumber,
			StartedAt:       i.StartedAt,
			Type:            i.Type,
			FinalStatus:     i.FinalStatus,
			FinalizedAt:     i.FinalizedAt,
			Finalized:       i.Finalized,
			AudioNotes:      i.AudioNotes,
			Patients:        lo.ValueOr(patients, i.ID, []*patient.PatientRead{}),
			Materials:       lo.ValueOr(materials, i.ID, []*MaterialUsed{}),
			SupportVehicles: lo.ValueOr(support, i.ID, []*SupportVehicle{}),
		}
		if loc, ok := locations[i.ID]; ok {
			r.Location = &loc.LocationFields
		}
		return r
	}), nil
}

// -- Location --

func (s *Service) CreateLocation(ctx context.Context, l *Location) error {
	if err := l.Validate(); err != nil {
		return err
	}
	return s.locations.Create(ctx, l)
}

func (s *Service) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	return s.locations.GetByID(ctx, id)
}

func (s *Service) UpdateLocation(ctx context.Context, l *Location) error {
	if err := l.Validate(); err != nil {
		return err
	}
	return s.locations.Update(ctx, l)
}

func (s *Service) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	return s.locations.Delete(ctx, id)
}

func (s *Service) ListLocations(ctx context.Context, limit, offset int) ([]*Location, int, error) {
	return s.locations.List(ctx, limit, offset)
}

// -- Material Used --

func materialFilterFor(p *auth.Principal) (MaterialFilter, bool) {
	switch {
	case p == nil || !p.HasRole():
		return MaterialFilter{}, false
	case p.IsManagement:
		return MaterialFilter{}, true
	default:
		return MaterialFilter{RecordedBy: lo.ToPtr(p.UserID)}, true
	}
}

// RecordMaterial stores m with the caller as recorder.
func (s *Service) RecordMaterial(ctx context.Context, p *auth.Principal, m *MaterialUsed) (*MaterialUsed, error) {
	if p == nil {
		return nil, apierr.ErrUnauthenticated
	}
	m.RecordedBy = p.UserID
	if err := s.materials.Create(ctx, m); err != nil {
		return nil, err
	}
	return s.materials.GetByID(ctx, m.ID)
}

func (s *Service) GetMaterial(ctx context.Context, p *auth.Principal, id uuid.UUID) (*MaterialUsed, error) {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckOwner(p, m.RecordedBy); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMaterial keeps the original recorder.
func (s *Service) UpdateMaterial(ctx context.Context, p *auth.Principal, id uuid.UUID, m *MaterialUsed) (*MaterialUsed, error) {
	existing, err := s.GetMaterial(ctx, p, id)
	if err != nil {
		return nil, err
	}
	m.ID = id
	m.RecordedBy = existing.RecordedBy
	if err := s.materials.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.materials.GetByID(ctx, id)
}

func (s *Service) DeleteMaterial(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if _, err := s.GetMaterial(ctx, p, id); err != nil {
		return err
	}
	return s.materials.Delete(ctx, id)
}

func (s *Service) ListMaterials(ctx context.Context, p *auth.Principal, incidentID *uuid.UUID, limit, offset int) ([]*MaterialUsed, int, error) {
	f, ok := materialFilterFor(p)
	if !ok {
		return nil, 0, nil
	}
	f.IncidentID = incidentID
	return s.materials.List(ctx, f, limit, offset)
}

// -- Support Vehicle --

func (s *Service) CreateSupport(ctx context.Context, sv *SupportVehicle) (*SupportVehicle, error) {
	if err := sv.Validate(); err != nil {
		return nil, err
	}
	if err := s.support.Create(ctx, sv); err != nil {
		return nil, err
	}
	return s.support.GetByID(ctx, sv.ID)
}

func (s *Service) GetSupport(ctx context.Context, id uuid.UUID) (*SupportVehicle, error) {
	return s.support.GetByID(ctx, id)
}

func (s *Service) UpdateSupport(ctx context.Context, sv *SupportVehicle) (*SupportVehicle, error) {
	if err := sv.Validate(); err != nil {
		return nil, err
	}
	if err := s.support.Update(ctx, sv); err != nil {
		return nil, err
	}
	return s.support.GetByID(ctx, sv.ID)
}

func (s *Service) DeleteSupport(ctx context.Context, id uuid.UUID) error {
	return s.support.Delete(ctx, id)
}

func (s *Service) ListSupport(ctx context.Context, incidentID *uuid.UUID, limit, offset int) ([]*SupportVehicle, int, error) {
	return s.support.List(ctx, incidentID, limit, offset)
}
