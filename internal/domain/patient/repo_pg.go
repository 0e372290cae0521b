package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
)

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &patientRepoPG{pool: pool} }

const patientCols = `id, ocorrencia_id, nome, idade, sexo, is_gestante, is_psiquiatrico,
	is_paliativo, recusa_atendimento, foto_recusa`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.IncidentID, &p.Name, &p.Age, &p.Sex, &p.IsPregnant, &p.IsPsychiatric,
		&p.IsPalliative, &p.RefusedCare, &p.RefusalPhoto)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO pacientes (`+patientCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.IncidentID, p.Name, p.Age, p.Sex, p.IsPregnant, p.IsPsychiatric,
		p.IsPalliative, p.RefusedCare, p.RefusalPhoto)
	return db.Classify(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+` FROM pacientes WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE pacientes SET ocorrencia_id=$2, nome=$3, idade=$4, sexo=$5, is_gestante=$6,
			is_psiquiatrico=$7, is_paliativo=$8, recusa_atendimento=$9, foto_recusa=$10
		WHERE id = $1`,
		p.ID, p.IncidentID, p.Name, p.Age, p.Sex, p.IsPregnant,
		p.IsPsychiatric, p.IsPalliative, p.RefusedCare, p.RefusalPhoto)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.pool, `DELETE FROM pacientes WHERE id = $1`, id)
}

func (r *patientRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR ocorrencia_id = $1)`

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM pacientes`+where, f.IncidentID).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+patientCols+` FROM pacientes`+where+` ORDER BY nome LIMIT $2 OFFSET $3`,
		f.IncidentID, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	items, err := collect(rows, scanPatient)
	return items, total, err
}

func (r *patientRepoPG) ListByIncidents(ctx context.Context, incidentIDs []uuid.UUID) ([]*Patient, error) {
	if len(incidentIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+patientCols+` FROM pacientes WHERE ocorrencia_id = ANY($1::uuid[]) ORDER BY nome`, incidentIDs)
	if err != nil {
		return nil, db.Classify(err)
	}
	return collect(rows, scanPatient)
}

// =========== Detail Repository ===========

type detailRepoPG struct{ pool *pgxpool.Pool }

func NewDetailRepoPG(pool *pgxpool.Pool) DetailRepository { return &detailRepoPG{pool: pool} }

func (r *detailRepoPG) count(ctx context.Context, table string) (int, error) {
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&total)
	return total, db.Classify(err)
}

// -- Belongings --

const belongingsCols = `paciente_id, descricao_pertences, valores_encontrados, entregue_para, foto_pertences`

func scanBelongings(row pgx.Row) (*Belongings, error) {
	var b Belongings
	err := row.Scan(&b.PatientID, &b.Description, &b.AmountFound, &b.HandedTo, &b.Photo)
	return &b, err
}

const belongingsUpsert = `
		ON CONFLICT (paciente_id) DO UPDATE SET
			descricao_pertences = EXCLUDED.descricao_pertences,
			valores_encontrados = EXCLUDED.valores_encontrados,
			entregue_para = EXCLUDED.entregue_para,
			foto_pertences = EXCLUDED.foto_pertences`

func (r *detailRepoPG) InsertBelongings(ctx context.Context, b *Belongings) error {
	return r.writeBelongings(ctx, b, "")
}

func (r *detailRepoPG) UpsertBelongings(ctx context.Context, b *Belongings) error {
	return r.writeBelongings(ctx, b, belongingsUpsert)
}

func (r *detailRepoPG) writeBelongings(ctx context.Context, b *Belongings, onConflict string) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO pertences_paciente (`+belongingsCols+`)
		VALUES ($1,$2,$3,$4,$5)`+onConflict,
		b.PatientID, b.Description, b.AmountFound, b.HandedTo, b.Photo)
	return db.Classify(err)
}

func (r *detailRepoPG) GetBelongings(ctx context.Context, patientID uuid.UUID) (*Belongings, error) {
	b, err := scanBelongings(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+belongingsCols+` FROM pertences_paciente WHERE paciente_id = $1`, patientID))
	if err != nil {
		return nil, db.Classify(err)
	}
	return b, nil
}

func (r *detailRepoPG) DeleteBelongings(ctx context.Context, patientID uuid.UUID) error {
	return execOne(ctx, r.pool, `DELETE FROM pertences_paciente WHERE paciente_id = $1`, patientID)
}

func (r *detailRepoPG) ListBelongings(ctx context.Context, limit, offset int) ([]*Belongings, int, error) {
	total, err := r.count(ctx, "pertences_paciente")
	if err != nil {
		return nil, 0, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+belongingsCols+` FROM pertences_paciente ORDER BY paciente_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	items, err := collect(rows, scanBelongings)
	return items, total, err
}

func (r *detailRepoPG) BelongingsFor(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]*Belongings, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+belongingsCols+` FROM pertences_paciente WHERE paciente_id = ANY($1::uuid[])`, patientIDs)
	if err != nil {
		return nil, db.Classify(err)
	}
	items, err := collect(rows, scanBelongings)
	if err != nil {
		return nil, err
	}
	return lo.KeyBy(items, func(b *Belongings) uuid.UUID { return b.PatientID }), nil
}

// -- Clinical Info --

const clinicalCols = `paciente_id, gravidade_cor, gravidade_texto, pressao_arterial, frequencia_cardiaca,
	frequencia_respiratoria, eva_dor, glasgow_total, cincinnati_status, mallampati_classe`

func scanClinicalInfo(row pgx.Row) (*ClinicalInfo, error) {
	var c ClinicalInfo
	err := row.Scan(&c.PatientID, &c.SeverityColor, &c.SeverityText, &c.BloodPressure, &c.HeartRate,
		&c.RespiratoryRate, &c.PainScale, &c.GlasgowTotal, &c.CincinnatiStatus, &c.MallampatiClass)
	return &c, err
}

func (r *detailRepoPG) InsertClinicalInfo(ctx context.Context, c *ClinicalInfo) error {
	return r.writeClinicalInfo(ctx, c, "")
}

func (r *detailRepoPG) UpsertClinicalInfo(ctx context.Context, c *ClinicalInfo) error {
	return r.writeClinicalInfo(ctx, c, clinicalUpsert)
}

func (r *detailRepoPG) writeClinicalInfo(ctx context.Context, c *ClinicalInfo, onConflict string) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO informacoes_clinicas (`+clinicalCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`+onConflict,
		c.PatientID, c.SeverityColor, c.SeverityText, c.BloodPressure, c.HeartRate,
		c.RespiratoryRate, c.PainScale, c.GlasgowTotal, c.CincinnatiStatus, c.MallampatiClass)
	return db.Classify(err)
}

const clinicalUpsert = `
		ON CONFLICT (paciente_id) DO UPDATE SET
			gravidade_cor = EXCLUDED.gravidade_cor,
			gravidade_texto = EXCLUDED.gravidade_texto,
			pressao_arterial = EXCLUDED.pressao_arterial,
			frequencia_cardiaca = EXCLUDED.frequencia_cardiaca,
			frequencia_respiratoria = EXCLUDED.frequencia_respiratoria,
			eva_dor = EXCLUDED.eva_dor,
			glasgow_total = EXCLUDED.glasgow_total,
			cincinnati_status = EXCLUDED.cincinnati_status,
			mallampati_classe = EXCLUDED.mallampati_classe`

func (r *detailRepoPG) GetClinicalInfo(ctx context.Context, patientID uuid.UUID) (*ClinicalInfo, error) {
	c, err := scanClinicalInfo(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+clinicalCols+` FROM informacoes_clinicas WHERE paciente_id = $1`, patientID))
	if err != nil {
		return nil, db.Classify(err)
	}
	return c, nil
}

func (r *detailRepoPG) DeleteClinicalInfo(ctx context.Context, patientID uuid.UUID) error {
	return execOne(ctx, r.pool, `DELETE FROM informacoes_clinicas WHERE paciente_id = $1`, patientID)
}

func (r *detailRepoPG) ListClinicalInfo(ctx context.Context, limit, offset int) ([]*ClinicalInfo, int, error) {
	total, err := r.count(ctx, "informacoes_clinicas")
	if err != nil {
		return nil, 0, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+clinicalCols+` FROM informacoes_clinicas ORDER BY paciente_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	items, err := collect(rows, scanClinicalInfo)
	return items, total, err
}

func (r *detailRepoPG) ClinicalInfoFor(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]*ClinicalInfo, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+clinicalCols+` FROM informacoes_clinicas WHERE paciente_id = ANY($1::uuid[])`, patientIDs)
	if err != nil {
		return nil, db.Classify(err)
	}
	items, err := collect(rows, scanClinicalInfo)
	if err != nil {
		return nil, err
	}
	return lo.KeyBy(items, func(c *ClinicalInfo) uuid.UUID { return c.PatientID }), nil
}

// -- Specific Data --

const specificCols = `paciente_id, idade_gestacional, perdas, sangramento, cartao_pre_natal,
	movimentos_fetais, contato_responsavel, faz_tratamento, observacoes_psiquiatricas`

func scanSpecificData(row pgx.Row) (*SpecificData, error) {
	var s SpecificData
	err := row.Scan(&s.PatientID, &s.GestationalAge, &s.FluidLoss, &s.Bleeding, &s.PrenatalCard,
		&s.FetalMovements, &s.GuardianContact, &s.InTreatment, &s.PsychiatricNotes)
	return &s, err
}

func (r *detailRepoPG) InsertSpecificData(ctx context.Context, s *SpecificData) error {
	return r.writeSpecificData(ctx, s, "")
}

func (r *detailRepoPG) UpsertSpecificData(ctx context.Context, s *SpecificData) error {
	return r.writeSpecificData(ctx, s, specificUpsert)
}

func (r *detailRepoPG) writeSpecificData(ctx context.Context, s *SpecificData, onConflict string) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO dados_especificos_paciente (`+specificCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`+onConflict,
		s.PatientID, s.GestationalAge, s.FluidLoss, s.Bleeding, s.PrenatalCard,
		s.FetalMovements, s.GuardianContact, s.InTreatment, s.PsychiatricNotes)
	return db.Classify(err)
}

const specificUpsert = `
		ON CONFLICT (paciente_id) DO UPDATE SET
			idade_gestacional = EXCLUDED.idade_gestacional,
			perdas = EXCLUDED.perdas,
			sangramento = EXCLUDED.sangramento,
			cartao_pre_natal = EXCLUDED.cartao_pre_natal,
			movimentos_fetais = EXCLUDED.movimentos_fetais,
			contato_responsavel = EXCLUDED.contato_responsavel,
			faz_tratamento = EXCLUDED.faz_tratamento,
			observacoes_psiquiatricas = EXCLUDED.observacoes_psiquiatricas`

func (r *detailRepoPG) GetSpecificData(ctx context.Context, patientID uuid.UUID) (*SpecificData, error) {
	s, err := scanSpecificData(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+specificCols+` FROM dados_especificos_paciente WHERE paciente_id = $1`, patientID))
	if err != nil {
		return nil, db.Classify(err)
	}
	return s, nil
}

func (r *detailRepoPG) DeleteSpecificData(ctx context.Context, patientID uuid.UUID) error {
	return execOne(ctx, r.pool, `DELETE FROM dados_especificos_paciente WHERE paciente_id = $1`, patientID)
}

func (r *detailRepoPG) ListSpecificData(ctx context.Context, limit, offset int) ([]*SpecificData, int, error) {
	total, err := r.count(ctx, "dados_especificos_paciente")
	if err != nil {
		return nil, 0, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+specificCols+` FROM dados_especificos_paciente ORDER BY paciente_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	items, err := collect(rows, scanSpecificData)
	return items, total, err
}

func (r *detailRepoPG) SpecificDataFor(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]*SpecificData, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+specificCols+` FROM dados_especificos_paciente WHERE paciente_id = ANY($1::uuid[])`, patientIDs)
	if err != nil {
		return nil, db.Classify(err)
	}
	items, err := collect(rows, scanSpecificData)
	if err != nil {
		return nil, err
	}
	return lo.KeyBy(items, func(s *SpecificData) uuid.UUID { return s.PatientID }), nil
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

func execOne(ctx context.Context, pool *pgxpool.Pool, sql string, id uuid.UUID) error {
	tag, err := db.Conn(ctx, pool).Exec(ctx, sql, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}
