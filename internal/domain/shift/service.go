package shift

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
)

type Service struct {
	teams      TeamRepository
	items      ItemRepository
	checklists ChecklistRepository
	tx         db.Transactor
	now        func() time.Time
}

func NewService(teams TeamRepository, items ItemRepository, checklists ChecklistRepository, tx db.Transactor) *Service {
	return &Service{teams: teams, items: items, checklists: checklists, tx: tx, now: time.Now}
}

// -- Shift Team --

func (s *Service) CreateTeam(ctx context.Context, t *ShiftTeam) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.teams.Create(ctx, t)
}

func (s *Service) GetTeam(ctx context.Context, id uuid.UUID) (*ShiftTeam, error) {
	return s.teams.GetByID(ctx, id)
}

func (s *Service) UpdateTeam(ctx context.Context, t *ShiftTeam) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.teams.Update(ctx, t)
}

func (s *Service) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	return s.teams.Delete(ctx, id)
}

func (s *Service) ListTeams(ctx context.Context, f TeamFilter, limit, offset int) ([]*ShiftTeam, int, error) {
	return s.teams.List(ctx, f, limit, offset)
}

// -- Inventory Item --

// itemFilterFor returns the visibility filter for p. ok is false when p may
// see nothing.
func itemFilterFor(p *auth.Principal) (f ItemFilter, ok bool) {
	switch {
	case p == nil || !p.HasRole():
		return ItemFilter{}, false
	case p.IsManagement:
		return ItemFilter{All: true}, true
	default:
		return ItemFilter{GroupIDs: p.GroupIDs}, true
	}
}

func (s *Service) ListItems(ctx context.Context, p *auth.Principal, limit, offset int) ([]*InventoryItem, int, error) {
	f, ok := itemFilterFor(p)
	if !ok {
		return nil, 0, nil
	}
	return s.items.List(ctx, f, limit, offset)
}

// GetItem returns ErrNotFound for unknown ids and ErrForbidden for items
// owned by a group the caller does not belong to.
func (s *Service) GetItem(ctx context.Context, p *auth.Principal, id uuid.UUID) (*InventoryItem, error) {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f, ok := itemFilterFor(p)
	if !ok || !f.Match(it) {
		return nil, apierr.ErrForbidden
	}
	return it, nil
}

func (s *Service) CreateItem(ctx context.Context, it *InventoryItem) error {
	if err := it.Validate(); err != nil {
		return err
	}
	return s.items.Create(ctx, it)
}

func (s *Service) UpdateItem(ctx context.Context, it *InventoryItem) error {
	if err := it.Validate(); err != nil {
		return err
	}
	return s.items.Update(ctx, it)
}

func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.items.Delete(ctx, id)
}

// -- Checklist --

func checklistFilterFor(p *auth.Principal) (f ChecklistFilter, ok bool) {
	switch {
	case p == nil || !p.HasRole():
		return ChecklistFilter{}, false
	case p.IsManagement:
		return ChecklistFilter{}, true
	default:
		return ChecklistFilter{SubmittedBy: lo.ToPtr(p.UserID)}, true
	}
}

// CreateChecklist stores the header and its lines atomically. The caller
// becomes the submitter.
func (s *Service) CreateChecklist(ctx context.Context, p *auth.Principal, op *ChecklistOp) (*Checklist, error) {
	if p == nil {
		return nil, apierr.ErrUnauthenticated
	}
	c := &Checklist{
		TeamID:       op.TeamID,
		SubmittedBy:  p.UserID,
		SubmittedAt:  s.now().UTC(),
		VehicleNote:  op.VehicleNote,
		VehiclePhoto: op.VehiclePhoto,
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checklists.Create(ctx, c); err != nil {
			return err
		}
		return s.createLines(ctx, c.ID, op.Lines)
	})
	if err != nil {
		return nil, err
	}
	return s.loadChecklist(ctx, c.ID)
}

func (s *Service) createLines(ctx context.Context, checklistID uuid.UUID, lines []*ChecklistLine) error {
	for i, l := range lines {
		l.ChecklistID = checklistID
		if err := s.checklists.CreateLine(ctx, l); err != nil {
			return prefixValidation(err, "detalhes", i)
		}
	}
	return nil
}

// prefixValidation moves the field errors of a nested line under its
// position in the payload.
func prefixValidation(err error, field string, index int) error {
	var v *apierr.ValidationError
	if !errors.As(err, &v) {
		return err
	}
	out := &apierr.ValidationError{}
	out.Merge(field+"."+strconv.Itoa(index)+".", v)
	return out
}

func (s *Service) loadChecklist(ctx context.Context, id uuid.UUID) (*Checklist, error) {
	c, err := s.checklists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.checklists.LinesFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	c.Lines = lines[id]
	return c, nil
}

func (s *Service) GetChecklist(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Checklist, error) {
	c, err := s.loadChecklist(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckOwner(p, c.SubmittedBy); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListChecklists(ctx context.Context, p *auth.Principal, teamID *uuid.UUID, limit, offset int) ([]*Checklist, int, error) {
	f, ok := checklistFilterFor(p)
	if !ok {
		return nil, 0, nil
	}
	f.TeamID = teamID
	items, total, err := s.checklists.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	lines, err := s.checklists.LinesFor(ctx, lo.Map(items, func(c *Checklist, _ int) uuid.UUID { return c.ID }))
	if err != nil {
		return nil, 0, err
	}
	for _, c := range items {
		c.Lines = lines[c.ID]
	}
	return items, total, nil
}

// UpdateChecklist rewrites the header and, when op carries lines, replaces
// every existing line. Submitter and timestamp never change.
func (s *Service) UpdateChecklist(ctx context.Context, p *auth.Principal, id uuid.UUID, op *ChecklistOp) (*Checklist, error) {
	c, err := s.checklists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckOwner(p, c.SubmittedBy); err != nil {
		return nil, err
	}
	c.TeamID = op.TeamID
	c.VehicleNote = op.VehicleNote
	c.VehiclePhoto = op.VehiclePhoto

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checklists.Update(ctx, c); err != nil {
			return err
		}
		if !op.ReplaceLines {
			return nil
		}
		if err := s.checklists.DeleteLines(ctx, c.ID); err != nil {
			return err
		}
		return s.createLines(ctx, c.ID, op.Lines)
	})
	if err != nil {
		return nil, err
	}
	return s.loadChecklist(ctx, id)
}

func (s *Service) DeleteChecklist(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	c, err := s.checklists.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CheckOwner(p, c.SubmittedBy); err != nil {
		return err
	}
	return s.checklists.Delete(ctx, id)
}

// -- Checklist Line --

func (s *Service) ListLines(ctx context.Context, p *auth.Principal, limit, offset int) ([]*ChecklistLine, int, error) {
	f, ok := checklistFilterFor(p)
	if !ok {
		return nil, 0, nil
	}
	return s.checklists.ListLines(ctx, f, limit, offset)
}

// authorizeHeader loads the checklist a line belongs to and checks that p
// submitted it. A missing header is reported against the checklist field.
func (s *Service) authorizeHeader(ctx context.Context, p *auth.Principal, checklistID uuid.UUID) error {
	c, err := s.checklists.GetByID(ctx, checklistID)
	if errors.Is(err, apierr.ErrNotFound) {
		return apierr.NewValidationError("checklist", "object does not exist")
	}
	if err != nil {
		return err
	}
	return auth.CheckOwner(p, c.SubmittedBy)
}

func (s *Service) GetLine(ctx context.Context, p *auth.Principal, id uuid.UUID) (*ChecklistLine, error) {
	l, err := s.checklists.GetLine(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeHeader(ctx, p, l.ChecklistID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) CreateLine(ctx context.Context, p *auth.Principal, l *ChecklistLine) (*ChecklistLine, error) {
	if err := s.authorizeHeader(ctx, p, l.ChecklistID); err != nil {
		return nil, err
	}
	if err := s.checklists.CreateLine(ctx, l); err != nil {
		return nil, err
	}
	return s.checklists.GetLine(ctx, l.ID)
}

// UpdateLine requires ownership of the current header and, when the line
// moves, of the target header as well.
func (s *Service) UpdateLine(ctx context.Context, p *auth.Principal, id uuid.UUID, l *ChecklistLine) (*ChecklistLine, error) {
	existing, err := s.GetLine(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if l.ChecklistID != existing.ChecklistID {
		if err := s.authorizeHeader(ctx, p, l.ChecklistID); err != nil {
			return nil, err
		}
	}
	l.ID = id
	if err := s.checklists.UpdateLine(ctx, l); err != nil {
		return nil, err
	}
	return s.checklists.GetLine(ctx, id)
}

func (s *Service) DeleteLine(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if _, err := s.GetLine(ctx, p, id); err != nil {
		return err
	}
	return s.checklists.DeleteLine(ctx, id)
}
