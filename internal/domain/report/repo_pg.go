package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
)

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &reportRepoPG{pool: pool} }

const reportCols = `id, tipo_relatorio, data_referencia, total_ocorrencias, estatistica_tipo, data_geracao`

func scanReport(row pgx.Row) (*Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.Type, &r.ReferenceDate, &r.TotalIncidents, &r.Statistics, &r.GeneratedAt)
	return &r, err
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	rep.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO relatorios_gerenciais (id, tipo_relatorio, data_referencia, total_ocorrencias, estatistica_tipo)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING data_geracao`,
		rep.ID, rep.Type, rep.ReferenceDate, rep.TotalIncidents, rep.Statistics).Scan(&rep.GeneratedAt)
	return db.Classify(err)
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	rep, err := scanReport(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+reportCols+` FROM relatorios_gerenciais WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return rep, nil
}

func (r *reportRepoPG) Update(ctx context.Context, rep *Report) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE relatorios_gerenciais
		SET tipo_relatorio=$2, data_referencia=$3, total_ocorrencias=$4, estatistica_tipo=$5
		WHERE id = $1`,
		rep.ID, rep.Type, rep.ReferenceDate, rep.TotalIncidents, rep.Statistics)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *reportRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM relatorios_gerenciais WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows)
	}
	return nil
}

func (r *reportRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Report, int, error) {
	where := ` WHERE ($1 = '' OR tipo_relatorio = $1)
		AND ($2::date IS NULL OR data_referencia >= $2)
		AND ($3::date IS NULL OR data_referencia <= $3)`
	args := []interface{}{f.Type, f.From, f.To}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM relatorios_gerenciais`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+reportCols+` FROM relatorios_gerenciais`+where+` ORDER BY data_referencia DESC, data_geracao DESC LIMIT $4 OFFSET $5`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	defer rows.Close()
	var items []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, db.Classify(err)
		}
		items = append(items, rep)
	}
	return items, total, db.Classify(rows.Err())
}

type statsPG struct{ pool *pgxpool.Pool }

func NewStatsPG(pool *pgxpool.Pool) StatsSource { return &statsPG{pool: pool} }

// UnknownDistrict labels incidents stored without a location.
const UnknownDistrict = "Não informado"

func (s *statsPG) IncidentStats(ctx context.Context, from, to time.Time) (*Stats, error) {
	rows, err := db.Conn(ctx, s.pool).Query(ctx, `
		SELECT COALESCE(NULLIF(l.bairro, ''), $3), COUNT(*)
		FROM ocorrencias o
		LEFT JOIN localizacoes l ON l.ocorrencia_id = o.id
		WHERE o.data_hora_inicio >= $1 AND o.data_hora_inicio < $2
		GROUP BY 1`, from, to, UnknownDistrict)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	stats := &Stats{ByDistrict: map[string]int{}}
	for rows.Next() {
		var district string
		var n int
		if err := rows.Scan(&district, &n); err != nil {
			return nil, db.Classify(err)
		}
		stats.ByDistrict[district] = n
		stats.Total += n
	}
	return stats, db.Classify(rows.Err())
}
