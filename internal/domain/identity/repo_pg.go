package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
)

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

const userCols = `id, matricula, cpf, nome_completo, email, password_hash, is_active, is_staff, is_superuser, date_joined, last_login`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Registration, &u.CPF, &u.FullName, &u.Email, &u.PasswordHash,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.DateJoined, &u.LastLogin)
	return &u, err
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO usuarios (id, matricula, cpf, nome_completo, email, password_hash, is_active, is_staff, is_superuser)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING date_joined`,
		u.ID, u.Registration, u.CPF, u.FullName, u.Email, u.PasswordHash, u.IsActive, u.IsStaff, u.IsSuperuser,
	).Scan(&u.DateJoined)
	return db.Classify(err)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM usuarios WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return u, nil
}

func (r *userRepoPG) GetByRegistration(ctx context.Context, registration string) (*User, error) {
	u, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM usuarios WHERE matricula = $1`, registration))
	if err != nil {
		return nil, db.Classify(err)
	}
	return u, nil
}

func (r *userRepoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM usuarios`).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+userCols+` FROM usuarios ORDER BY nome_completo LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	defer rows.Close()
	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, db.Classify(err)
		}
		items = append(items, u)
	}
	return items, total, db.Classify(rows.Err())
}

func (r *userRepoPG) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `UPDATE usuarios SET last_login = $2 WHERE id = $1`, id, at)
	return db.Classify(err)
}

// =========== Group Repository ===========

type groupRepoPG struct{ pool *pgxpool.Pool }

func NewGroupRepoPG(pool *pgxpool.Pool) GroupRepository { return &groupRepoPG{pool: pool} }

func (r *groupRepoPG) List(ctx context.Context) ([]Group, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT id, nome FROM grupos ORDER BY nome`)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, db.Classify(err)
		}
		groups = append(groups, g)
	}
	return groups, db.Classify(rows.Err())
}

func (r *groupRepoPG) GetByName(ctx context.Context, name string) (*Group, error) {
	var g Group
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT id, nome FROM grupos WHERE nome = $1`, name).Scan(&g.ID, &g.Name)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &g, nil
}

func (r *groupRepoPG) AddMember(ctx context.Context, userID, groupID uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO usuarios_grupos (usuario_id, grupo_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, groupID)
	return db.Classify(err)
}

func (r *groupRepoPG) RemoveMember(ctx context.Context, userID, groupID uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM usuarios_grupos WHERE usuario_id = $1 AND grupo_id = $2`, userID, groupID)
	return db.Classify(err)
}

func (r *groupRepoPG) ForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]Group, error) {
	out := make(map[uuid.UUID][]Group, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT ug.usuario_id, g.id, g.nome
		FROM usuarios_grupos ug
		JOIN grupos g ON g.id = ug.grupo_id
		WHERE ug.usuario_id = ANY($1::uuid[])
		ORDER BY g.nome`, userIDs)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID uuid.UUID
		var g Group
		if err := rows.Scan(&userID, &g.ID, &g.Name); err != nil {
			return nil, db.Classify(err)
		}
		out[userID] = append(out[userID], g)
	}
	return out, db.Classify(rows.Err())
}
