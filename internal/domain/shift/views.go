package shift

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

// ChecklistLineWrite is the client shape of one line.
type ChecklistLineWrite struct {
	ItemID      *uuid.UUID   `json:"item_id"`
	Quantity    *int         `json:"quantidade"`
	AlertStatus *AlertStatus `json:"status_alerta"`
}

// LineWrite is the payload of the standalone line endpoint.
type LineWrite struct {
	ChecklistID *uuid.UUID `json:"checklist"`
	ChecklistLineWrite
}

// ChecklistWrite is the client shape of a checklist. The submitting user and
// timestamp are server-owned and not accepted. A nil Lines leaves existing
// lines untouched; a non-nil Lines replaces them.
type ChecklistWrite struct {
	TeamID       *uuid.UUID           `json:"equipe_id"`
	VehicleNote  *string              `json:"vtr_observacao"`
	VehiclePhoto *string              `json:"foto_vtr"`
	Lines        []ChecklistLineWrite `json:"detalhes"`
}

// ChecklistOp is a validated checklist write.
type ChecklistOp struct {
	TeamID       uuid.UUID
	VehicleNote  string
	VehiclePhoto *string
	ReplaceLines bool
	Lines        []*ChecklistLine
}

func (w ChecklistLineWrite) toLine(prefix string, v *apierr.ValidationError) *ChecklistLine {
	line := &ChecklistLine{AlertStatus: w.AlertStatus}
	if w.ItemID == nil || *w.ItemID == uuid.Nil {
		v.Add(prefix+"item_id", "this field is required")
	} else {
		line.ItemID = *w.ItemID
	}
	if w.Quantity == nil {
		v.Add(prefix+"quantidade", "this field is required")
	} else if *w.Quantity < 0 {
		v.Add(prefix+"quantidade", "ensure this value is greater than or equal to 0")
	} else {
		line.Quantity = *w.Quantity
	}
	if w.AlertStatus != nil && !w.AlertStatus.Valid() {
		v.Add(prefix+"status_alerta", fmt.Sprintf("%q is not a valid choice", *w.AlertStatus))
	}
	return line
}

// FromChecklistWrite validates a checklist payload.
func FromChecklistWrite(w ChecklistWrite) (*ChecklistOp, error) {
	v := &apierr.ValidationError{}
	op := &ChecklistOp{VehiclePhoto: w.VehiclePhoto}

	if w.TeamID == nil || *w.TeamID == uuid.Nil {
		v.Add("equipe_id", "this field is required")
	} else {
		op.TeamID = *w.TeamID
	}
	if w.VehicleNote != nil {
		op.VehicleNote = *w.VehicleNote
	}

	if w.Lines != nil {
		op.ReplaceLines = true
		seen := make(map[uuid.UUID]bool, len(w.Lines))
		for i, lw := range w.Lines {
			prefix := fmt.Sprintf("detalhes.%d.", i)
			line := lw.toLine(prefix, v)
			if line.ItemID != uuid.Nil {
				if seen[line.ItemID] {
					v.Add(prefix+"item_id", "item appears more than once in this checklist")
				}
				seen[line.ItemID] = true
			}
			op.Lines = append(op.Lines, line)
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return op, nil
}

// FromLineWrite validates a standalone line payload.
func FromLineWrite(w LineWrite) (*ChecklistLine, error) {
	v := &apierr.ValidationError{}
	line := w.ChecklistLineWrite.toLine("", v)
	if w.ChecklistID == nil || *w.ChecklistID == uuid.Nil {
		v.Add("checklist", "this field is required")
	} else {
		line.ChecklistID = *w.ChecklistID
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return line, nil
}

// ToChecklistWrite is the starting point for a partial update: the existing
// header as a payload, without lines.
func ToChecklistWrite(c *Checklist) ChecklistWrite {
	return ChecklistWrite{
		TeamID:       lo.ToPtr(c.TeamID),
		VehicleNote:  lo.ToPtr(c.VehicleNote),
		VehiclePhoto: c.VehiclePhoto,
	}
}

func ToLineWrite(l *ChecklistLine) LineWrite {
	return LineWrite{
		ChecklistID: lo.ToPtr(l.ChecklistID),
		ChecklistLineWrite: ChecklistLineWrite{
			ItemID:      lo.ToPtr(l.ItemID),
			Quantity:    lo.ToPtr(l.Quantity),
			AlertStatus: l.AlertStatus,
		},
	}
}

// ChecklistLineRead is the response shape of one line.
type ChecklistLineRead struct {
	ID          uuid.UUID      `json:"id"`
	ChecklistID uuid.UUID      `json:"checklist"`
	Item        *InventoryItem `json:"item"`
	ItemID      uuid.UUID      `json:"item_id"`
	Quantity    int            `json:"quantidade"`
	AlertStatus *AlertStatus   `json:"status_alerta"`
}

// ChecklistRead is the response shape of a checklist with nested lines.
type ChecklistRead struct {
	ID            uuid.UUID           `json:"id"`
	Team          string              `json:"equipe"`
	TeamID        uuid.UUID           `json:"equipe_id"`
	SubmittedBy   string              `json:"usuario"`
	SubmittedByID uuid.UUID           `json:"usuario_id"`
	SubmittedAt   time.Time           `json:"data_hora"`
	VehicleNote   string              `json:"vtr_observacao"`
	VehiclePhoto  *string             `json:"foto_vtr"`
	Lines         []ChecklistLineRead `json:"detalhes"`
}

func ToLineRead(l *ChecklistLine) ChecklistLineRead {
	return ChecklistLineRead{
		ID:          l.ID,
		ChecklistID: l.ChecklistID,
		Item:        l.Item,
		ItemID:      l.ItemID,
		Quantity:    l.Quantity,
		AlertStatus: l.AlertStatus,
	}
}

func ToChecklistRead(c *Checklist) ChecklistRead {
	return ChecklistRead{
		ID:            c.ID,
		Team:          c.TeamLabel,
		TeamID:        c.TeamID,
		SubmittedBy:   c.SubmitterLabel,
		SubmittedByID: c.SubmittedBy,
		SubmittedAt:   c.SubmittedAt,
		VehicleNote:   c.VehicleNote,
		VehiclePhoto:  c.VehiclePhoto,
		Lines: lo.Map(c.Lines, func(l *ChecklistLine, _ int) ChecklistLineRead {
			return ToLineRead(l)
		}),
	}
}
