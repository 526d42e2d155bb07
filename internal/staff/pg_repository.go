package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinisalud/citas-api/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const usuarioCols = `id, dni, username, password, nombres_completos, rol_id, activo, created_at`

func scanUsuario(row pgx.Row) (*Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.DNI, &u.Username, &u.PasswordHash, &u.NombresCompletos,
		&u.RolID, &u.Activo, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUsuarioNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Usuario, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+usuarioCols+` FROM usuarios WHERE id = $1`, id)
	return scanUsuario(row)
}

func (r *PgRepository) GetByDNI(ctx context.Context, dni string) (*Usuario, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+usuarioCols+` FROM usuarios WHERE dni = $1`, dni)
	return scanUsuario(row)
}

func (r *PgRepository) Insert(ctx context.Context, u *Usuario) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO usuarios (dni, username, password, nombres_completos, rol_id, activo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at
	`, u.DNI, u.Username, u.PasswordHash, u.NombresCompletos, u.RolID, u.Activo).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert usuario: %w", err)
	}
	return nil
}

func (r *PgRepository) ListMedicos(ctx context.Context, areaID *int64) ([]Usuario, error) {
	sql := `SELECT ` + usuarioCols + ` FROM usuarios WHERE rol_id = 2`
	var args []any
	if areaID != nil {
		sql += ` AND id IN (SELECT DISTINCT medico_id FROM horarios_medicos WHERE area_id = $1)`
		args = append(args, *areaID)
	}
	sql += ` ORDER BY id`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}
