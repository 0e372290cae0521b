package shift

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
)

// =========== Shift Team Repository ===========

type teamRepoPG struct{ pool *pgxpool.Pool }

func NewTeamRepoPG(pool *pgxpool.Pool) TeamRepository { return &teamRepoPG{pool: pool} }

const teamCols = `id, vtr_sigla, data_plantao, condutor_id, tecnico_enf_id, enfermeiro_id, medico_id`

func scanTeam(row pgx.Row) (*ShiftTeam, error) {
	var t ShiftTeam
	err := row.Scan(&t.ID, &t.VehicleTag, &t.ShiftDate, &t.DriverID, &t.TechnicianID, &t.NurseID, &t.DoctorID)
	return &t, err
}

func (r *teamRepoPG) Create(ctx context.Context, t *ShiftTeam) error {
	t.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO equipes_plantao (`+teamCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.ID, t.VehicleTag, t.ShiftDate, t.DriverID, t.TechnicianID, t.NurseID, t.DoctorID)
	return db.Classify(err)
}

func (r *teamRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ShiftTeam, error) {
	t, err := scanTeam(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+teamCols+` FROM equipes_plantao WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return t, nil
}

func (r *teamRepoPG) Update(ctx context.Context, t *ShiftTeam) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE equipes_plantao SET vtr_sigla=$2, data_plantao=$3, condutor_id=$4,
			tecnico_enf_id=$5, enfermeiro_id=$6, medico_id=$7
		WHERE id = $1`,
		t.ID, t.VehicleTag, t.ShiftDate, t.DriverID, t.TechnicianID, t.NurseID, t.DoctorID)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *teamRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, "equipes_plantao", id)
}

func (r *teamRepoPG) List(ctx context.Context, f TeamFilter, limit, offset int) ([]*ShiftTeam, int, error) {
	where := ` WHERE ($1 = '' OR vtr_sigla ILIKE $1) AND ($2::date IS NULL OR data_plantao = $2)`
	args := []interface{}{f.VehicleTag, f.Date}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM equipes_plantao`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+teamCols+` FROM equipes_plantao`+where+` ORDER BY data_plantao DESC, vtr_sigla LIMIT $3 OFFSET $4`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	defer rows.Close()
	var items []*ShiftTeam
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

// =========== Inventory Item Repository ===========

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository { return &itemRepoPG{pool: pool} }

const itemSelect = `SELECT i.id, i.nome_item, i.responsavel_grupo_id, g.nome
	FROM itens_inventario i LEFT JOIN grupos g ON g.id = i.responsavel_grupo_id`

func scanItem(row pgx.Row) (*InventoryItem, error) {
	var it InventoryItem
	err := row.Scan(&it.ID, &it.Name, &it.OwnerGroupID, &it.OwnerGroup)
	return &it, err
}

func (r *itemRepoPG) Create(ctx context.Context, it *InventoryItem) error {
	it.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO itens_inventario (id, nome_item, responsavel_grupo_id) VALUES ($1,$2,$3)`,
		it.ID, it.Name, it.OwnerGroupID)
	return db.Classify(err)
}

func (r *itemRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error) {
	it, err := scanItem(db.Conn(ctx, r.pool).QueryRow(ctx, itemSelect+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return it, nil
}

func (r *itemRepoPG) Update(ctx context.Context, it *InventoryItem) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE itens_inventario SET nome_item=$2, responsavel_grupo_id=$3 WHERE id = $1`,
		it.ID, it.Name, it.OwnerGroupID)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *itemRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, "itens_inventario", id)
}

func (r *itemRepoPG) List(ctx context.Context, f ItemFilter, limit, offset int) ([]*InventoryItem, int, error) {
	where := ` WHERE ($1::bool OR i.responsavel_grupo_id IS NULL OR i.responsavel_grupo_id = ANY($2::uuid[]))`
	groups := f.GroupIDs
	if groups == nil {
		groups = []uuid.UUID{}
	}
	args := []interface{}{f.All, groups}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM itens_inventario i`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, itemSelect+where+` ORDER BY i.nome_item LIMIT $3 OFFSET $4`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	defer rows.Close()
	var items []*InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// =========== Checklist Repository ===========

type checklistRepoPG struct{ pool *pgxpool.Pool }

func NewChecklistRepoPG(pool *pgxpool.Pool) ChecklistRepository {
	return &checklistRepoPG{pool: pool}
}

const checklistSelect = `SELECT c.id, c.equipe_id, c.usuario_id, c.data_hora, c.vtr_observacao, c.foto_vtr,
		e.vtr_sigla, e.data_plantao, u.nome_completo, u.matricula
	FROM checklists c
	JOIN equipes_plantao e ON e.id = c.equipe_id
	JOIN usuarios u ON u.id = c.usuario_id`

func scanChecklist(row pgx.Row) (*Checklist, error) {
	var (
		c            Checklist
		vehicleTag   string
		shiftDate    civil.Date
		fullName     string
		registration string
	)
	err := row.Scan(&c.ID, &c.TeamID, &c.SubmittedBy, &c.SubmittedAt, &c.VehicleNote, &c.VehiclePhoto,
		&vehicleTag, &shiftDate, &fullName, &registration)
	if err != nil {
		return nil, err
	}
	c.TeamLabel = TeamLabel(vehicleTag, shiftDate)
	c.SubmitterLabel = fmt.Sprintf("%s (%s)", fullName, registration)
	return &c, nil
}

func (r *checklistRepoPG) Create(ctx context.Context, c *Checklist) error {
	c.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO checklists (id, equipe_id, usuario_id, data_hora, vtr_observacao, foto_vtr)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.TeamID, c.SubmittedBy, c.SubmittedAt, c.VehicleNote, c.VehiclePhoto)
	return db.Classify(err)
}

func (r *checklistRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Checklist, error) {
	c, err := scanChecklist(db.Conn(ctx, r.pool).QueryRow(ctx, checklistSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return c, nil
}

func (r *checklistRepoPG) Update(ctx context.Context, c *Checklist) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE checklists SET equipe_id=$2, vtr_observacao=$3, foto_vtr=$4 WHERE id = $1`,
		c.ID, c.TeamID, c.VehicleNote, c.VehiclePhoto)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *checklistRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, "checklists", id)
}

func (r *checklistRepoPG) List(ctx context.Context, f ChecklistFilter, limit, offset int) ([]*Checklist, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR c.usuario_id = $1) AND ($2::uuid IS NULL OR c.equipe_id = $2)`
	args := []interface{}{f.SubmittedBy, f.TeamID}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM checklists c`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, checklistSelect+where+` ORDER BY c.data_hora DESC LIMIT $3 OFFSET $4`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	defer rows.Close()
	var items []*Checklist
	for rows.Next() {
		c, err := scanChecklist(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

const lineSelect = `SELECT d.id, d.checklist_id, d.item_id, d.quantidade, d.status_alerta,
		i.nome_item, i.responsavel_grupo_id, g.nome
	FROM checklist_detalhes d
	JOIN checklists c ON c.id = d.checklist_id
	JOIN itens_inventario i ON i.id = d.item_id
	LEFT JOIN grupos g ON g.id = i.responsavel_grupo_id`

func scanLine(row pgx.Row) (*ChecklistLine, error) {
	l := ChecklistLine{Item: &InventoryItem{}}
	err := row.Scan(&l.ID, &l.ChecklistID, &l.ItemID, &l.Quantity, &l.AlertStatus,
		&l.Item.Name, &l.Item.OwnerGroupID, &l.Item.OwnerGroup)
	l.Item.ID = l.ItemID
	return &l, err
}

func (r *checklistRepoPG) CreateLine(ctx context.Context, l *ChecklistLine) error {
	l.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO checklist_detalhes (id, checklist_id, item_id, quantidade, status_alerta)
		VALUES ($1,$2,$3,$4,$5)`,
		l.ID, l.ChecklistID, l.ItemID, l.Quantity, l.AlertStatus)
	return db.Classify(err)
}

func (r *checklistRepoPG) GetLine(ctx context.Context, id uuid.UUID) (*ChecklistLine, error) {
	l, err := scanLine(db.Conn(ctx, r.pool).QueryRow(ctx, lineSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return l, nil
}

func (r *checklistRepoPG) UpdateLine(ctx context.Context, l *ChecklistLine) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE checklist_detalhes SET checklist_id=$2, item_id=$3, quantidade=$4, status_alerta=$5
		WHERE id = $1`,
		l.ID, l.ChecklistID, l.ItemID, l.Quantity, l.AlertStatus)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *checklistRepoPG) DeleteLine(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, "checklist_detalhes", id)
}

func (r *checklistRepoPG) DeleteLines(ctx context.Context, checklistID uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM checklist_detalhes WHERE checklist_id = $1`, checklistID)
	return db.Classify(err)
}

func (r *checklistRepoPG) LinesFor(ctx context.Context, checklistIDs []uuid.UUID) (map[uuid.UUID][]*ChecklistLine, error) {
	out := make(map[uuid.UUID][]*ChecklistLine, len(checklistIDs))
	if len(checklistIDs) == 0 {
		return out, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, lineSelect+` WHERE d.checklist_id = ANY($1::uuid[]) ORDER BY i.nome_item`, checklistIDs)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out[l.ChecklistID] = append(out[l.ChecklistID], l)
	}
	return out, rows.Err()
}

func (r *checklistRepoPG) ListLines(ctx context.Context, f ChecklistFilter, limit, offset int) ([]*ChecklistLine, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR c.usuario_id = $1) AND ($2::uuid IS NULL OR c.equipe_id = $2)`
	args := []interface{}{f.SubmittedBy, f.TeamID}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM checklist_detalhes d JOIN checklists c ON c.id = d.checklist_id`+where,
		args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, lineSelect+where+` ORDER BY c.data_hora DESC, i.nome_item LIMIT $3 OFFSET $4`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	defer rows.Close()
	var items []*ChecklistLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, rows.Err()
}

// deleteByID removes one row and reports ErrNotFound when nothing matched.
// table is always a package constant.
func deleteByID(ctx context.Context, pool *pgxpool.Pool, table string, id uuid.UUID) error {
	tag, err := db.Conn(ctx, pool).Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}
