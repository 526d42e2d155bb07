package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const horarioCols = `h.id, h.medico_id, h.area_id, h.fecha, h.dia_semana, h.turno, h.cupos,
	COALESCE(u.nombres_completos, u.username, ''), COALESCE(a.nombre, '')`

const horarioJoins = `
	FROM horarios_medicos h
	LEFT JOIN usuarios u ON u.id = h.medico_id
	LEFT JOIN areas a ON a.id = h.area_id`

func scanHorario(row pgx.Row) (*Horario, error) {
	var h Horario
	err := row.Scan(
		&h.ID,
		&h.MedicoID,
		&h.AreaID,
		&h.Fecha,
		&h.DiaSemana,
		&h.Turno,
		&h.Cupos,
		&h.MedicoNombre,
		&h.AreaNombre,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHorarioNotFound
		}
		return nil, err
	}
	h.Fecha = h.Fecha.UTC()
	return &h, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Horario, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+horarioCols+horarioJoins+`
		WHERE h.id = $1
	`, id)
	return scanHorario(row)
}

func (r *PgRepository) FindByNaturalKey(ctx context.Context, medicoID int64, fecha time.Time, turno Turno) (*Horario, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+horarioCols+horarioJoins+`
		WHERE h.medico_id = $1 AND h.fecha = $2 AND h.turno = $3
	`, medicoID, fecha, turno)
	return scanHorario(row)
}

func (r *PgRepository) Insert(ctx context.Context, h *Horario) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO horarios_medicos (medico_id, area_id, fecha, dia_semana, turno, cupos)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, h.MedicoID, h.AreaID, h.Fecha, h.DiaSemana, h.Turno, h.Cupos).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("insert horario: %w", err)
	}
	return nil
}

func (r *PgRepository) UpdateAreaCupos(ctx context.Context, id, areaID int64, cupos int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE horarios_medicos
		SET area_id = $2,
		    cupos = $3
		WHERE id = $1
	`, id, areaID, cupos)
	if err != nil {
		return fmt.Errorf("update horario: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHorarioNotFound
	}
	return nil
}

// List computes each slot's active-cita count with one grouped LEFT JOIN
// instead of a count query per row.
func (r *PgRepository) List(ctx context.Context, f ListFilter, limit, offset int) ([]HorarioConCupos, int, error) {
	where := ` WHERE 1=1`

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.MedicoID != nil {
		where += ` AND h.medico_id = ` + arg(*f.MedicoID)
	}
	if f.AreaID != nil {
		where += ` AND h.area_id = ` + arg(*f.AreaID)
	}
	if f.Turno != nil {
		where += ` AND h.turno = ` + arg(*f.Turno)
	}
	if f.Fecha != nil {
		where += ` AND h.fecha = ` + arg(*f.Fecha)
	} else if f.DesdeFecha != nil && f.HastaFecha != nil {
		where += ` AND h.fecha >= ` + arg(*f.DesdeFecha) + ` AND h.fecha <= ` + arg(*f.HastaFecha)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM horarios_medicos h`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `
		SELECT ` + horarioCols + `, COALESCE(c.citas_activas, 0)` + horarioJoins + `
		LEFT JOIN (
			SELECT horario_id, COUNT(*) AS citas_activas
			FROM citas
			WHERE estado <> 'cancelada' AND horario_id IS NOT NULL
			GROUP BY horario_id
		) c ON c.horario_id = h.id` + where + `
		ORDER BY h.fecha, h.turno
		LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []HorarioConCupos
	for rows.Next() {
		var hc HorarioConCupos
		err := rows.Scan(
			&hc.ID,
			&hc.MedicoID,
			&hc.AreaID,
			&hc.Fecha,
			&hc.DiaSemana,
			&hc.Turno,
			&hc.Cupos,
			&hc.MedicoNombre,
			&hc.AreaNombre,
			&hc.CitasActivas,
		)
		if err != nil {
			return nil, 0, err
		}
		hc.Fecha = hc.Fecha.UTC()
		result = append(result, hc)
	}
	return result, total, rows.Err()
}

func (r *PgRepository) ListByMedicoRange(ctx context.Context, medicoID int64, desde, hasta time.Time) ([]Horario, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+horarioCols+horarioJoins+`
		WHERE h.medico_id = $1 AND h.fecha >= $2 AND h.fecha <= $3
		ORDER BY h.fecha, h.turno
	`, medicoID, desde, hasta)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Horario
	for rows.Next() {
		h, err := scanHorario(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *h)
	}
	return result, rows.Err()
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM horarios_medicos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHorarioNotFound
	}
	return nil
}

func (r *PgRepository) DeleteByMedicoRange(ctx context.Context, medicoID int64, desde, hasta time.Time, turno *Turno) (int64, error) {
	sql := `DELETE FROM horarios_medicos WHERE medico_id = $1 AND fecha >= $2 AND fecha <= $3`
	args := []any{medicoID, desde, hasta}
	if turno != nil {
		sql += ` AND turno = $4`
		args = append(args, *turno)
	}

	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) LockByID(ctx context.Context, id int64) error {
	var locked int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id FROM horarios_medicos WHERE id = $1 FOR UPDATE
	`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrHorarioNotFound
		}
		return err
	}
	return nil
}

func (r *PgRepository) LockByMedicoRange(ctx context.Context, medicoID int64, desde, hasta time.Time, turno *Turno) error {
	sql := `SELECT id FROM horarios_medicos WHERE medico_id = $1 AND fecha >= $2 AND fecha <= $3`
	args := []any{medicoID, desde, hasta}
	if turno != nil {
		sql += ` AND turno = $4`
		args = append(args, *turno)
	}
	sql += ` FOR UPDATE`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}

func (r *PgRepository) CountActiveCitas(ctx context.Context, horarioID int64) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM citas
		WHERE horario_id = $1 AND estado <> 'cancelada'
	`, horarioID).Scan(&count)
	return count, err
}

func (r *PgRepository) CountActiveCitasInRange(ctx context.Context, medicoID int64, desde, hasta time.Time, turno *Turno) (int, error) {
	sql := `
		SELECT COUNT(*)
		FROM citas c
		JOIN horarios_medicos h ON h.id = c.horario_id
		WHERE c.estado <> 'cancelada'
		  AND h.medico_id = $1 AND h.fecha >= $2 AND h.fecha <= $3`
	args := []any{medicoID, desde, hasta}
	if turno != nil {
		sql += ` AND h.turno = $4`
		args = append(args, *turno)
	}

	var count int
	err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&count)
	return count, err
}
