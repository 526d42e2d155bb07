package manual

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

const manualCols = `id, nombre, descripcion, url_drive, rol_id, created_at, updated_at`

func scanManual(row pgx.Row) (*Manual, error) {
	var m Manual
	err := row.Scan(&m.ID, &m.Nombre, &m.Descripcion, &m.URLDrive, &m.RolID,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrManualNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Manual, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+manualCols+` FROM manuales WHERE id = $1`, id)
	return scanManual(row)
}

func (r *PgRepository) Insert(ctx context.Context, m *Manual) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO manuales (nombre, descripcion, url_drive, rol_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at
	`, m.Nombre, m.Descripcion, m.URLDrive, m.RolID).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert manual: %w", err)
	}
	return nil
}

func (r *PgRepository) Update(ctx context.Context, m *Manual) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE manuales
		SET nombre = $2, descripcion = $3, url_drive = $4, rol_id = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, m.ID, m.Nombre, m.Descripcion, m.URLDrive, m.RolID).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrManualNotFound
		}
		return err
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM manuales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrManualNotFound
	}
	return nil
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Manual, error) {
	return r.list(ctx, `SELECT `+manualCols+` FROM manuales ORDER BY id`)
}

func (r *PgRepository) ListForRol(ctx context.Context, rolID int) ([]Manual, error) {
	return r.list(ctx, `
		SELECT `+manualCols+` FROM manuales
		WHERE rol_id = $1 OR rol_id IS NULL
		ORDER BY id
	`, rolID)
}

func (r *PgRepository) list(ctx context.Context, sql string, args ...any) ([]Manual, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Manual
	for rows.Next() {
		m, err := scanManual(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}
