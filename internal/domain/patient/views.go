package patient

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

// PatientWrite is the client shape of a patient, standalone or nested in an
// incident. Each detail record is tri-state: absent or empty leaves the
// stored record alone, populated replaces it.
type PatientWrite struct {
	IncidentID    *uuid.UUID `json:"ocorrencia"`
	Name          *string    `json:"nome"`
	Age           *int       `json:"idade"`
	Sex           *Sex       `json:"sexo"`
	IsPregnant    *bool      `json:"is_gestante"`
	IsPsychiatric *bool      `json:"is_psiquiatrico"`
	IsPalliative  *bool      `json:"is_paliativo"`
	RefusedCare   *bool      `json:"recusa_atendimento"`
	RefusalPhoto  *string    `json:"foto_recusa"`

	Belongings   *Belongings   `json:"pertences"`
	ClinicalInfo *ClinicalInfo `json:"info_clinica"`
	SpecificData *SpecificData `json:"dados_especificos"`
}

// PatientOp is a validated patient write. Nil detail records are not
// touched.
type PatientOp struct {
	Patient      *Patient
	Belongings   *Belongings
	ClinicalInfo *ClinicalInfo
	SpecificData *SpecificData
}

// Validate checks w. With nested set the incident comes from the enclosing
// payload and ocorrencia is not required.
func (w PatientWrite) Validate(nested bool) (*PatientOp, *apierr.ValidationError) {
	p := &Patient{
		Name:          lo.FromPtr(w.Name),
		Age:           lo.FromPtr(w.Age),
		Sex:           lo.FromPtr(w.Sex),
		IsPregnant:    lo.FromPtr(w.IsPregnant),
		IsPsychiatric: lo.FromPtr(w.IsPsychiatric),
		IsPalliative:  lo.FromPtr(w.IsPalliative),
		RefusedCare:   lo.FromPtr(w.RefusedCare),
		RefusalPhoto:  w.RefusalPhoto,
	}
	v := p.validate()
	if w.Age == nil {
		v.Add("idade", "this field is required")
	}
	if !nested {
		if w.IncidentID == nil || *w.IncidentID == uuid.Nil {
			v.Add("ocorrencia", "this field is required")
		} else {
			p.IncidentID = *w.IncidentID
		}
	}

	op := &PatientOp{Patient: p}
	if !w.Belongings.IsEmpty() {
		v.Merge("pertences.", w.Belongings.validate())
		op.Belongings = w.Belongings
	}
	if !w.ClinicalInfo.IsEmpty() {
		v.Merge("info_clinica.", w.ClinicalInfo.validate())
		op.ClinicalInfo = w.ClinicalInfo
	}
	if !w.SpecificData.IsEmpty() {
		v.Merge("dados_especificos.", w.SpecificData.validate())
		op.SpecificData = w.SpecificData
	}
	if !v.Empty() {
		return nil, v
	}
	return op, nil
}

// ToPatientWrite is the starting point of a partial update. Detail records
// are left out so that an absent key does not rewrite them.
func ToPatientWrite(p *Patient) PatientWrite {
	return PatientWrite{
		IncidentID:    lo.ToPtr(p.IncidentID),
		Name:          lo.ToPtr(p.Name),
		Age:           lo.ToPtr(p.Age),
		Sex:           lo.ToPtr(p.Sex),
		IsPregnant:    lo.ToPtr(p.IsPregnant),
		IsPsychiatric: lo.ToPtr(p.IsPsychiatric),
		IsPalliative:  lo.ToPtr(p.IsPalliative),
		RefusedCare:   lo.ToPtr(p.RefusedCare),
		RefusalPhoto:  p.RefusalPhoto,
	}
}

// PatientRead nests the detail records under the patient fields.
type PatientRead struct {
	*Patient
	Belongings   *Belongings   `json:"pertences"`
	ClinicalInfo *ClinicalInfo `json:"info_clinica"`
	SpecificData *SpecificData `json:"dados_especificos"`
}
