package incident

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/domain/patient"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

// IncidentWrite is the client shape of an incident. Patients are accepted
// on create only.
type IncidentWrite struct {
	TeamID         *uuid.UUID             `json:"equipe"`
	RegistryNumber *string                `json:"num_reg_central"`
	StartedAt      *time.Time             `json:"data_hora_inicio"`
	Type           *string                `json:"tipo_ocorrencia"`
	FinalStatus    *string                `json:"status_final"`
	FinalizedAt    *time.Time             `json:"data_hora_finalizacao"`
	Finalized      *bool                  `json:"finalizada"`
	AudioNotes     *string                `json:"observacoes_audio"`
	Location       *LocationFields        `json:"localizacao"`
	Patients       []patient.PatientWrite `json:"pacientes"`
}

// IncidentOp is a validated incident write. A nil Location leaves the
// stored one unchanged on update.
type IncidentOp struct {
	Incident *Incident
	Location *LocationFields
	Patients []*patient.PatientOp
}

// Validate checks w for a create (creating set) or an update.
func (w IncidentWrite) Validate(creating bool) (*IncidentOp, error) {
	inc := &Incident{
		TeamID:         lo.FromPtr(w.TeamID),
		RegistryNumber: lo.FromPtr(w.RegistryNumber),
		StartedAt:      lo.FromPtr(w.StartedAt),
		Type:           lo.FromPtr(w.Type),
		FinalStatus:    lo.FromPtr(w.FinalStatus),
		FinalizedAt:    w.FinalizedAt,
		Finalized:      lo.FromPtr(w.Finalized),
		AudioNotes:     w.AudioNotes,
	}
	v := inc.validate()
	op := &IncidentOp{Incident: inc, Location: w.Location}

	switch {
	case w.Location != nil:
		v.Merge("localizacao.", w.Location.validate(!creating))
	case creating:
		v.Add("localizacao", "this field is required")
	}

	if creating {
		for i, pw := range w.Patients {
			pop, perr := pw.Validate(true)
			if perr != nil {
				v.Merge(fmt.Sprintf("pacientes.%d.", i), perr)
				continue
			}
			op.Patients = append(op.Patients, pop)
		}
	} else if w.Patients != nil {
		v.Add("pacientes", "patients cannot be changed through the incident; use the patient endpoints")
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return op, nil
}

// ToIncidentWrite is the starting point of a partial update. Location and
// patients are left out so that absent keys change nothing.
func ToIncidentWrite(i *Incident) IncidentWrite {
	return IncidentWrite{
		TeamID:         lo.ToPtr(i.TeamID),
		RegistryNumber: lo.ToPtr(i.RegistryNumber),
		StartedAt:      lo.ToPtr(i.StartedAt),
		Type:           lo.ToPtr(i.Type),
		FinalStatus:    lo.ToPtr(i.FinalStatus),
		FinalizedAt:    i.FinalizedAt,
		Finalized:      lo.ToPtr(i.Finalized),
		AudioNotes:     i.AudioNotes,
	}
}

// IncidentRead is the response shape with every child record nested.
type IncidentRead struct {
	ID              uuid.UUID              `json:"id"`
	Team            string                 `json:"equipe"`
	TeamID          uuid.UUID              `json:"equipe_id"`
	RegistryNumber  string                 `json:"num_reg_central"`
	StartedAt       time.Time              `json:"data_hora_inicio"`
	Type            string                 `json:"tipo_ocorrencia"`
	FinalStatus     string                 `json:"status_final"`
	FinalizedAt     *time.Time             `json:"data_hora_finalizacao"`
	Finalized       bool                   `json:"finalizada"`
	AudioNotes      *string                `json:"observacoes_audio"`
	Location        *LocationFields        `json:"localizacao"`
	Patients        []*patient.PatientRead `json:"pacientes"`
	Materials       []*MaterialUsed        `json:"materiais_utilizados"`
	SupportVehicles []*SupportVehicle      `json:"viaturas_apoio"`
}

// MaterialWrite is the client shape of a material record.
type MaterialWrite struct {
	IncidentID *uuid.UUID `json:"ocorrencia"`
	ItemID     *uuid.UUID `json:"item_id"`
	Quantity   *int       `json:"quantidade_usada"`
}

func (w MaterialWrite) Validate() (*MaterialUsed, error) {
	v := &apierr.ValidationError{}
	m := &MaterialUsed{}
	if w.IncidentID == nil || *w.IncidentID == uuid.Nil {
		v.Add("ocorrencia", "this field is required")
	} else {
		m.IncidentID = *w.IncidentID
	}
	if w.ItemID == nil || *w.ItemID == uuid.Nil {
		v.Add("item_id", "this field is required")
	} else {
		m.ItemID = *w.ItemID
	}
	switch {
	case w.Quantity == nil:
		v.Add("quantidade_usada", "this field is required")
	case *w.Quantity <= 0:
		v.Add("quantidade_usada", "ensure this value is greater than 0")
	default:
		m.Quantity = *w.Quantity
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func ToMaterialWrite(m *MaterialUsed) MaterialWrite {
	return MaterialWrite{
		IncidentID: lo.ToPtr(m.IncidentID),
		ItemID:     lo.ToPtr(m.ItemID),
		Quantity:   lo.ToPtr(m.Quantity),
	}
}
