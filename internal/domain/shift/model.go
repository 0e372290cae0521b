package shift

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
)

// AlertStatus is the traffic-light state of an inventory line.
type AlertStatus string

const (
	AlertGreen  AlertStatus = "VERDE"
	AlertYellow AlertStatus = "AMARELO"
	AlertRed    AlertStatus = "VERMELHO"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertGreen, AlertYellow, AlertRed:
		return true
	}
	return false
}

// ShiftTeam is the crew of one vehicle on one shift date. Driver and nursing
// technician are mandatory; nurse and doctor are optional.
type ShiftTeam struct {
	ID           uuid.UUID  `json:"id"`
	VehicleTag   string     `json:"vtr_sigla"`
	ShiftDate    civil.Date `json:"data_plantao"`
	DriverID     uuid.UUID  `json:"condutor"`
	TechnicianID uuid.UUID  `json:"tecnico_enf"`
	NurseID      *uuid.UUID `json:"enfermeiro"`
	DoctorID     *uuid.UUID `json:"medico"`
}

// Label renders "USA-01 - 01/05/2024".
func (t *ShiftTeam) Label() string {
	return TeamLabel(t.VehicleTag, t.ShiftDate)
}

func TeamLabel(vehicleTag string, date civil.Date) string {
	return fmt.Sprintf("%s - %s", vehicleTag, date.Format())
}

func (t *ShiftTeam) Validate() error {
	v := &apierr.ValidationError{}
	switch n := utf8.RuneCountInString(t.VehicleTag); {
	case n == 0:
		v.Add("vtr_sigla", "this field is required")
	case n > 20:
		v.Add("vtr_sigla", "ensure this field has no more than 20 characters")
	}
	if t.ShiftDate.IsZero() {
		v.Add("data_plantao", "this field is required")
	}
	if t.DriverID == uuid.Nil {
		v.Add("condutor", "this field is required")
	}
	if t.TechnicianID == uuid.Nil {
		v.Add("tecnico_enf", "this field is required")
	}
	return v.Err()
}

// InventoryItem is a catalogue entry. Items without an owning group are
// visible to every clinical user.
type InventoryItem struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"nome_item"`
	OwnerGroupID *uuid.UUID `json:"responsavel_grupo_id"`
	// OwnerGroup is the group name, filled on reads.
	OwnerGroup *string `json:"responsavel_grupo"`
}

func (i *InventoryItem) Validate() error {
	v := &apierr.ValidationError{}
	switch n := utf8.RuneCountInString(i.Name); {
	case n == 0:
		v.Add("nome_item", "this field is required")
	case n > 100:
		v.Add("nome_item", "ensure this field has no more than 100 characters")
	}
	return v.Err()
}

// Checklist is the header of an inventory check submitted by one user for
// one shift team.
type Checklist struct {
	ID           uuid.UUID
	TeamID       uuid.UUID
	SubmittedBy  uuid.UUID
	SubmittedAt  time.Time
	VehicleNote  string
	VehiclePhoto *string
	Lines        []*ChecklistLine

	TeamLabel      string
	SubmitterLabel string
}

// Label renders "Checklist USA-01 - 01/05/2024 - 01/05/2024 07:30".
func (c *Checklist) Label() string {
	return fmt.Sprintf("Checklist %s - %s", c.TeamLabel, c.SubmittedAt.Format("02/01/2006 15:04"))
}

// ChecklistLine is one counted item of a checklist. (checklist, item) is
// unique.
type ChecklistLine struct {
	ID          uuid.UUID
	ChecklistID uuid.UUID
	ItemID      uuid.UUID
	Quantity    int
	AlertStatus *AlertStatus

	Item *InventoryItem
}
