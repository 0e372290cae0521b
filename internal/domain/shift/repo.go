package shift

import (
	"context"

	"github.com/google/uuid"

	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
)

type TeamFilter struct {
	VehicleTag string
	Date       *civil.Date
}

type TeamRepository interface {
	Create(ctx context.Context, t *ShiftTeam) error
	GetByID(ctx context.Context, id uuid.UUID) (*ShiftTeam, error)
	Update(ctx context.Context, t *ShiftTeam) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f TeamFilter, limit, offset int) ([]*ShiftTeam, int, error)
}

// ItemFilter restricts items to those without an owning group or owned by
// one of GroupIDs, unless All is set.
type ItemFilter struct {
	All      bool
	GroupIDs []uuid.UUID
}

func (f ItemFilter) Match(it *InventoryItem) bool {
	if f.All || it.OwnerGroupID == nil {
		return true
	}
	for _, id := range f.GroupIDs {
		if id == *it.OwnerGroupID {
			return true
		}
	}
	return false
}

type ItemRepository interface {
	Create(ctx context.Context, it *InventoryItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	Update(ctx context.Context, it *InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ItemFilter, limit, offset int) ([]*InventoryItem, int, error)
}

// ChecklistFilter narrows checklists (and lines, through their header) by
// submitter. A nil SubmittedBy matches every checklist.
type ChecklistFilter struct {
	SubmittedBy *uuid.UUID
	TeamID      *uuid.UUID
}

type ChecklistRepository interface {
	Create(ctx context.Context, c *Checklist) error
	GetByID(ctx context.Context, id uuid.UUID) (*Checklist, error)
	Update(ctx context.Context, c *Checklist) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ChecklistFilter, limit, offset int) ([]*Checklist, int, error)

	CreateLine(ctx context.Context, l *ChecklistLine) error
	GetLine(ctx context.Context, id uuid.UUID) (*ChecklistLine, error)
	UpdateLine(ctx context.Context, l *ChecklistLine) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
	DeleteLines(ctx context.Context, checklistID uuid.UUID) error
	// LinesFor returns the lines of each checklist, keyed by checklist id.
	LinesFor(ctx context.Context, checklistIDs []uuid.UUID) (map[uuid.UUID][]*ChecklistLine, error)
	ListLines(ctx context.Context, f ChecklistFilter, limit, offset int) ([]*ChecklistLine, int, error)
}
