package patient

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

type Sex string

const (
	SexMale       Sex = "M"
	SexFemale     Sex = "F"
	SexUnreported Sex = "I"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexUnreported
}

// Patient belongs to exactly one incident and is deleted with it.
type Patient struct {
	ID            uuid.UUID `json:"id"`
	IncidentID    uuid.UUID `json:"ocorrencia"`
	Name          string    `json:"nome"`
	Age           int       `json:"idade"`
	Sex           Sex       `json:"sexo"`
	IsPregnant    bool      `json:"is_gestante"`
	IsPsychiatric bool      `json:"is_psiquiatrico"`
	IsPalliative  bool      `json:"is_paliativo"`
	RefusedCare   bool      `json:"recusa_atendimento"`
	RefusalPhoto  *string   `json:"foto_recusa"`
}

func maxLen(v *apierr.ValidationError, field string, s *string, n int) {
	if s != nil && utf8.RuneCountInString(*s) > n {
		v.Add(field, fmt.Sprintf("ensure this field has no more than %d characters", n))
	}
}

func (p *Patient) validate() *apierr.ValidationError {
	v := &apierr.ValidationError{}
	if p.Name == "" {
		v.Add("nome", "this field is required")
	}
	maxLen(v, "nome", &p.Name, 100)
	if p.Age < 0 {
		v.Add("idade", "ensure this value is greater than or equal to 0")
	}
	if !p.Sex.Valid() {
		v.Add("sexo", fmt.Sprintf("%q is not a valid choice", p.Sex))
	}
	return v
}

// Belongings are the valuables found with a patient. At most one per
// patient.
type Belongings struct {
	PatientID   uuid.UUID `json:"paciente"`
	Description *string   `json:"descricao_pertences"`
	AmountFound *float64  `json:"valores_encontrados"`
	HandedTo    *string   `json:"entregue_para"`
	Photo       *string   `json:"foto_pertences"`
}

// IsEmpty reports whether no field carries a value. Empty sub-records are
// never stored.
func (b *Belongings) IsEmpty() bool {
	return b == nil || (b.Description == nil && b.AmountFound == nil && b.HandedTo == nil && b.Photo == nil)
}

func (b *Belongings) validate() *apierr.ValidationError {
	v := &apierr.ValidationError{}
	maxLen(v, "entregue_para", b.HandedTo, 100)
	// NUMERIC(10, 2)
	if b.AmountFound != nil && math.Abs(*b.AmountFound) >= 1e8 {
		v.Add("valores_encontrados", "ensure there are no more than 10 digits in total")
	}
	return v
}

// ClinicalInfo holds the vital signs and scales taken on scene.
type ClinicalInfo struct {
	PatientID        uuid.UUID `json:"paciente"`
	SeverityColor    *string   `json:"gravidade_cor"`
	SeverityText     *string   `json:"gravidade_texto"`
	BloodPressure    *string   `json:"pressao_arterial"`
	HeartRate        *int      `json:"frequencia_cardiaca"`
	RespiratoryRate  *string   `json:"frequencia_respiratoria"`
	PainScale        *int      `json:"eva_dor"`
	GlasgowTotal     *int      `json:"glasgow_total"`
	CincinnatiStatus *string   `json:"cincinnati_status"`
	MallampatiClass  *string   `json:"mallampati_classe"`
}

func (c *ClinicalInfo) IsEmpty() bool {
	return c == nil || (c.SeverityColor == nil && c.SeverityText == nil && c.BloodPressure == nil &&
		c.HeartRate == nil && c.RespiratoryRate == nil && c.PainScale == nil && c.GlasgowTotal == nil &&
		c.CincinnatiStatus == nil && c.MallampatiClass == nil)
}

func (c *ClinicalInfo) validate() *apierr.ValidationError {
	v := &apierr.ValidationError{}
	maxLen(v, "gravidade_cor", c.SeverityColor, 20)
	maxLen(v, "gravidade_texto", c.SeverityText, 20)
	maxLen(v, "pressao_arterial", c.BloodPressure, 10)
	maxLen(v, "frequencia_respiratoria", c.RespiratoryRate, 20)
	maxLen(v, "cincinnati_status", c.CincinnatiStatus, 50)
	maxLen(v, "mallampati_classe", c.MallampatiClass, 10)
	if c.HeartRate != nil && *c.HeartRate < 0 {
		v.Add("frequencia_cardiaca", "ensure this value is greater than or equal to 0")
	}
	if c.PainScale != nil && (*c.PainScale < 0 || *c.PainScale > 10) {
		v.Add("eva_dor", "must be between 0 and 10")
	}
	if c.GlasgowTotal != nil && (*c.GlasgowTotal < 3 || *c.GlasgowTotal > 15) {
		v.Add("glasgow_total", "must be between 3 and 15")
	}
	return v
}

// SpecificData carries the obstetric and psychiatric fields. The patient id
// is its key.
type SpecificData struct {
	PatientID        uuid.UUID `json:"paciente"`
	GestationalAge   *string   `json:"idade_gestacional"`
	FluidLoss        *bool     `json:"perdas"`
	Bleeding         *bool     `json:"sangramento"`
	PrenatalCard     *bool     `json:"cartao_pre_natal"`
	FetalMovements   *bool     `json:"movimentos_fetais"`
	GuardianContact  *string   `json:"contato_responsavel"`
	InTreatment      *bool     `json:"faz_tratamento"`
	PsychiatricNotes *string   `json:"observacoes_psiquiatricas"`
}

func (s *SpecificData) IsEmpty() bool {
	return s == nil || (s.GestationalAge == nil && s.FluidLoss == nil && s.Bleeding == nil &&
		s.PrenatalCard == nil && s.FetalMovements == nil && s.GuardianContact == nil &&
		s.InTreatment == nil && s.PsychiatricNotes == nil)
}

func (s *SpecificData) validate() *apierr.ValidationError {
	v := &apierr.ValidationError{}
	maxLen(v, "idade_gestacional", s.GestationalAge, 50)
	maxLen(v, "contato_responsavel", s.GuardianContact, 50)
	return v
}

// keep returns v, or stored when v is nil.
func keep[T any](v, stored *T) *T {
	if v != nil {
		return v
	}
	return stored
}

// fillFrom copies into b every field it leaves nil from stored.
func (b *Belongings) fillFrom(stored *Belongings) {
	if stored == nil {
		return
	}
	b.Description = keep(b.Description, stored.Description)
	b.AmountFound = keep(b.AmountFound, stored.AmountFound)
	b.HandedTo = keep(b.HandedTo, stored.HandedTo)
	b.Photo = keep(b.Photo, stored.Photo)
}

func (c *ClinicalInfo) fillFrom(stored *ClinicalInfo) {
	if stored == nil {
		return
	}
	c.SeverityColor = keep(c.SeverityColor, stored.SeverityColor)
	c.SeverityText = keep(c.SeverityText, stored.SeverityText)
	c.BloodPressure = keep(c.BloodPressure, stored.BloodPressure)
	c.HeartRate = keep(c.HeartRate, stored.HeartRate)
	c.RespiratoryRate = keep(c.RespiratoryRate, stored.RespiratoryRate)
	c.PainScale = keep(c.PainScale, stored.PainScale)
	c.GlasgowTotal = keep(c.GlasgowTotal, stored.GlasgowTotal)
	c.CincinnatiStatus = keep(c.CincinnatiStatus, stored.CincinnatiStatus)
	c.MallampatiClass = keep(c.MallampatiClass, stored.MallampatiClass)
}

func (s *SpecificData) fillFrom(stored *SpecificData) {
	if stored == nil {
		return
	}
	s.GestationalAge = keep(s.GestationalAge, stored.GestationalAge)
	s.FluidLoss = keep(s.FluidLoss, stored.FluidLoss)
	s.Bleeding = keep(s.Bleeding, stored.Bleeding)
	s.PrenatalCard = keep(s.PrenatalCard, stored.PrenatalCard)
	s.FetalMovements = keep(s.FetalMovements, stored.FetalMovements)
	s.GuardianContact = keep(s.GuardianContact, stored.GuardianContact)
	s.InTreatment = keep(s.InTreatment, stored.InTreatment)
	s.PsychiatricNotes = keep(s.PsychiatricNotes, stored.PsychiatricNotes)
}
