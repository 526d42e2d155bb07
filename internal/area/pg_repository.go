package area

import (
	"context"
	"errors"

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

func scanArea(row pgx.Row) (*Area, error) {
	var a Area
	err := row.Scan(&a.ID, &a.Nombre, &a.Descripcion, &a.Activo, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAreaNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Area, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT id, nombre, descripcion, activo, created_at FROM areas WHERE id = $1
	`, id)
	return scanArea(row)
}

func (r *PgRepository) FindByNombre(ctx context.Context, nombre string) (*Area, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT id, nombre, descripcion, activo, created_at FROM areas WHERE nombre = $1
	`, nombre)
	return scanArea(row)
}

func (r *PgRepository) Insert(ctx context.Context, a *Area) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO areas (nombre, descripcion, activo, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_at
	`, a.Nombre, a.Descripcion, a.Activo).Scan(&a.ID, &a.CreatedAt)
}

func (r *PgRepository) Update(ctx context.Context, a *Area) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE areas SET nombre = $2, descripcion = $3, activo = $4 WHERE id = $1
	`, a.ID, a.Nombre, a.Descripcion, a.Activo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAreaNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM areas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAreaNotFound
	}
	return nil
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Area, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, nombre, descripcion, activo, created_at FROM areas ORDER BY id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Area
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
