package incident

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
)

// =========== Incident Repository ===========

type incidentRepoPG struct{ pool *pgxpool.Pool }

func NewIncidentRepoPG(pool *pgxpool.Pool) IncidentRepository { return &incidentRepoPG{pool: pool} }

const incidentSelect = `SELECT o.id, o.equipe_id, o.num_reg_central, o.data_hora_inicio, o.tipo_ocorrencia,
		o.status_final, o.data_hora_finalizacao, o.finalizada, o.observacoes_audio,
		e.vtr_sigla, e.data_plantao
	FROM ocorrencias o JOIN equipes_plantao e ON e.id = o.equipe_id`

func scanIncident(row pgx.Row) (*Incident, error) {
	var (
		i          Incident
		vehicleTag string
		shiftDate  civil.Date
	)
	err := row.Scan(&i.ID, &i.TeamID, &i.RegistryNumber, &i.StartedAt, &i.Type,
		&i.FinalStatus, &i.FinalizedAt, &i.Finalized, &i.AudioNotes, &vehicleTag, &shiftDate)
	if err != nil {
		return nil, err
	}
	i.TeamLabel = teamLabel(vehicleTag, shiftDate)
	return &i, nil
}

func teamLabel(vehicleTag string, date civil.Date) string {
	return fmt.Sprintf("%s - %s", vehicleTag, date.Format())
}

func (r *incidentRepoPG) Create(ctx context.Context, i *Incident) error {
	i.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO ocorrencias (id, equipe_id, num_reg_central, data_hora_inicio, tipo_ocorrencia,
			status_final, data_hora_finalizacao, finalizada, observacoes_audio)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		i.ID, i.TeamID, i.RegistryNumber, i.StartedAt, i.Type,
		i.FinalStatus, i.FinalizedAt, i.Finalized, i.AudioNotes)
	return db.Classify(err)
}

func (r *incidentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Incident, error) {
	i, err := scanIncident(db.Conn(ctx, r.pool).QueryRow(ctx, incidentSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return i, nil
}

func (r *incidentRepoPG) Update(ctx context.Context, i *Incident) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE ocorrencias SET equipe_id=$2, num_reg_central=$3, data_hora_inicio=$4, tipo_ocorrencia=$5,
			status_final=$6, data_hora_finalizacao=$7, finalizada=$8, observacoes_audio=$9
		WHERE id = $1`,
		i.ID, i.TeamID, i.RegistryNumber, i.StartedAt, i.Type,
		i.FinalStatus, i.FinalizedAt, i.Finalized, i.AudioNotes)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *incidentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, `DELETE FROM ocorrencias WHERE id = $1`, id)
}

func (r *incidentRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Incident, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR o.equipe_id = $1) AND ($2::bool IS NULL OR o.finalizada = $2)`
	args := []interface{}{f.TeamID, f.Finalized}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM ocorrencias o`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, incidentSelect+where+` ORDER BY o.data_hora_inicio DESC LIMIT $3 OFFSET $4`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	items, err := collect(rows, scanIncident)
	return items, total, err
}

// =========== Location Repository ===========

type locationRepoPG struct{ pool *pgxpool.Pool }

func NewLocationRepoPG(pool *pgxpool.Pool) LocationRepository { return &locationRepoPG{pool: pool} }

const locationCols = `id, ocorrencia_id, endereco, bairro, foto_local, meios_acionados, info_transito, link_gps`

func scanLocation(row pgx.Row) (*Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.IncidentID, &l.Address, &l.District, &l.Photo, &l.Dispatched, &l.TrafficInfo, &l.GPSLink)
	return &l, err
}

func (r *locationRepoPG) Create(ctx context.Context, l *Location) error {
	l.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO localizacoes (`+locationCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		l.ID, l.IncidentID, l.Address, l.District, l.Photo, l.Dispatched, l.TrafficInfo, l.GPSLink)
	return db.Classify(err)
}

func (r *locationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Location, error) {
	l, err := scanLocation(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+locationCols+` FROM localizacoes WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return l, nil
}

func (r *locationRepoPG) Update(ctx context.Context, l *Location) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE localizacoes SET ocorrencia_id=$2, endereco=$3, bairro=$4, foto_local=$5,
			meios_acionados=$6, info_transito=$7, link_gps=$8
		WHERE id = $1`,
		l.ID, l.IncidentID, l.Address, l.District, l.Photo, l.Dispatched, l.TrafficInfo, l.GPSLink)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *locationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, `DELETE FROM localizacoes WHERE id = $1`, id)
}

func (r *locationRepoPG) List(ctx context.Context, limit, offset int) ([]*Location, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM localizacoes`).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+locationCols+` FROM localizacoes ORDER BY bairro, endereco LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	items, err := collect(rows, scanLocation)
	return items, total, err
}

func (r *locationRepoPG) Upsert(ctx context.Context, l *Location) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO localizacoes (`+locationCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (ocorrencia_id) DO UPDATE SET
			endereco = EXCLUDED.endereco,
			bairro = EXCLUDED.bairro,
			foto_local = EXCLUDED.foto_local,
			meios_acionados = EXCLUDED.meios_acionados,
			info_transito = EXCLUDED.info_transito,
			link_gps = EXCLUDED.link_gps
		RETURNING id`,
		uuid.New(), l.IncidentID, l.Address, l.District, l.Photo, l.Dispatched, l.TrafficInfo, l.GPSLink,
	).Scan(&l.ID)
	return db.Classify(err)
}

func (r *locationRepoPG) ForIncidents(ctx context.Context, incidentIDs []uuid.UUID) (map[uuid.UUID]*Location, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+locationCols+` FROM localizacoes WHERE ocorrencia_id = ANY($1::uuid[])`, incidentIDs)
	if err != nil {
		return nil, db.Classify(err)
	}
	items, err := collect(rows, scanLocation)
	if err != nil {
		return nil, err
	}
	return lo.KeyBy(items, func(l *Location) uuid.UUID { return l.IncidentID }), nil
}

// =========== Material Repository ===========

type materialRepoPG struct{ pool *pgxpool.Pool }

func NewMaterialRepoPG(pool *pgxpool.Pool) MaterialRepository { return &materialRepoPG{pool: pool} }

const materialSelect = `SELECT m.id, m.ocorrencia_id, m.item_id, i.nome_item, m.quantidade_usada,
		m.usuario_id, u.nome_completo, u.matricula
	FROM materiais_utilizados m
	JOIN itens_inventario i ON i.id = m.item_id
	JOIN usuarios u ON u.id = m.usuario_id`

func scanMaterial(row pgx.Row) (*MaterialUsed, error) {
	var (
		m                      MaterialUsed
		fullName, registration string
	)
	err := row.Scan(&m.ID, &m.IncidentID, &m.ItemID, &m.ItemName, &m.Quantity,
		&m.RecordedBy, &fullName, &registration)
	if err != nil {
		return nil, err
	}
	m.RecorderLabel = fmt.Sprintf("%s (%s)", fullName, registration)
	return &m, nil
}

func (r *materialRepoPG) Create(ctx context.Context, m *MaterialUsed) error {
	m.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO materiais_utilizados (id, ocorrencia_id, item_id, quantidade_usada, usuario_id)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.IncidentID, m.ItemID, m.Quantity, m.RecordedBy)
	return db.Classify(err)
}

func (r *materialRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MaterialUsed, error) {
	m, err := scanMaterial(db.Conn(ctx, r.pool).QueryRow(ctx, materialSelect+` WHERE m.id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return m, nil
}

func (r *materialRepoPG) Update(ctx context.Context, m *MaterialUsed) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE materiais_utilizados SET ocorrencia_id=$2, item_id=$3, quantidade_usada=$4
		WHERE id = $1`,
		m.ID, m.IncidentID, m.ItemID, m.Quantity)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *materialRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, `DELETE FROM materiais_utilizados WHERE id = $1`, id)
}

func (r *materialRepoPG) List(ctx context.Context, f MaterialFilter, limit, offset int) ([]*MaterialUsed, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR m.usuario_id = $1) AND ($2::uuid IS NULL OR m.ocorrencia_id = $2)`
	args := []interface{}{f.RecordedBy, f.IncidentID}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM materiais_utilizados m`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, materialSelect+where+` ORDER BY i.nome_item LIMIT $3 OFFSET $4`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	items, err := collect(rows, scanMaterial)
	return items, total, err
}

func (r *materialRepoPG) ForIncidents(ctx context.Context, incidentIDs []uuid.UUID) (map[uuid.UUID][]*MaterialUsed, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		materialSelect+` WHERE m.ocorrencia_id = ANY($1::uuid[]) ORDER BY i.nome_item`, incidentIDs)
	if err != nil {
		return nil, db.Classify(err)
	}
	items, err := collect(rows, scanMaterial)
	if err != nil {
		return nil, err
	}
	return lo.GroupBy(items, func(m *MaterialUsed) uuid.UUID { return m.IncidentID }), nil
}

// =========== Support Vehicle Repository ===========

type supportRepoPG struct{ pool *pgxpool.Pool }

func NewSupportRepoPG(pool *pgxpool.Pool) SupportRepository { return &supportRepoPG{pool: pool} }

const supportSelect = `SELECT a.id, a.ocorrencia_mestre_id, a.vtr_apoio_sigla, a.data_hora_apoio,
		a.equipe_apoio_id, e.vtr_sigla, e.data_plantao
	FROM apoios_ocorrencia a JOIN equipes_plantao e ON e.id = a.equipe_apoio_id`

func scanSupport(row pgx.Row) (*SupportVehicle, error) {
	var (
		s          SupportVehicle
		vehicleTag string
		shiftDate  civil.Date
	)
	err := row.Scan(&s.ID, &s.IncidentID, &s.VehicleTag, &s.ArrivedAt, &s.TeamID, &vehicleTag, &shiftDate)
	if err != nil {
		return nil, err
	}
	s.TeamLabel = teamLabel(vehicleTag, shiftDate)
	return &s, nil
}

func (r *supportRepoPG) Create(ctx context.Context, s *SupportVehicle) error {
	s.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO apoios_ocorrencia (id, ocorrencia_mestre_id, vtr_apoio_sigla, data_hora_apoio, equipe_apoio_id)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.IncidentID, s.VehicleTag, s.ArrivedAt, s.TeamID)
	return db.Classify(err)
}

func (r *supportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*SupportVehicle, error) {
	s, err := scanSupport(db.Conn(ctx, r.pool).QueryRow(ctx, supportSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return s, nil
}

func (r *supportRepoPG) Update(ctx context.Context, s *SupportVehicle) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE apoios_ocorrencia SET ocorrencia_mestre_id=$2, vtr_apoio_sigla=$3, data_hora_apoio=$4, equipe_apoio_id=$5
		WHERE id = $1`,
		s.ID, s.IncidentID, s.VehicleTag, s.ArrivedAt, s.TeamID)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *supportRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, `DELETE FROM apoios_ocorrencia WHERE id = $1`, id)
}

func (r *supportRepoPG) List(ctx context.Context, incidentID *uuid.UUID, limit, offset int) ([]*SupportVehicle, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR a.ocorrencia_mestre_id = $1)`
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM apoios_ocorrencia a`+where, incidentID).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, supportSelect+where+` ORDER BY a.data_hora_apoio LIMIT $2 OFFSET $3`,
		incidentID, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	items, err := collect(rows, scanSupport)
	return items, total, err
}

func (r *supportRepoPG) ForIncidents(ctx context.Context, incidentIDs []uuid.UUID) (map[uuid.UUID][]*SupportVehicle, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		supportSelect+` WHERE a.ocorrencia_mestre_id = ANY($1::uuid[]) ORDER BY a.data_hora_apoio`, incidentIDs)
	if err != nil {
		return nil, db.Classify(err)
	}
	items, err := collect(rows, scanSupport)
	if err != nil {
		return nil, err
	}
	return lo.GroupBy(items, func(s *SupportVehicle) uuid.UUID { return s.IncidentID }), nil
}

// -- helpers --

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	var items []*T
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func deleteByID(ctx context.Context, pool *pgxpool.Pool, sql string, id uuid.UUID) error {
	tag, err := db.Conn(ctx, pool).Exec(ctx, sql, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}
