package dashboard

import (
	"context"
	"fmt"
	"time"

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

func (r *PgRepository) Stats(ctx context.Context, hoy time.Time) (*Stats, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM pacientes),
			(SELECT COUNT(*) FROM citas WHERE fecha = $1 AND estado <> 'cancelada'),
			(SELECT COUNT(*) FROM citas WHERE fecha = $1 AND estado = 'pendiente'),
			(SELECT COUNT(*) FROM usuarios WHERE rol_id = 2 AND activo),
			(SELECT COUNT(*) FROM citas WHERE estado = 'pendiente')`

	var s Stats
	err := r.conn(ctx).QueryRow(ctx, q, hoy).Scan(
		&s.TotalPacientes,
		&s.CitasHoy,
		&s.CitasPendientesHoy,
		&s.MedicosActivos,
		&s.CitasPendientesTotal,
	)
	if err != nil {
		return nil, fmt.Errorf("query dashboard stats: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) ProximasCitas(ctx context.Context, desde time.Time, limit int) ([]ProximaCita, error) {
	const q = `
		SELECT c.id,
		       COALESCE(p.nombres || ' ' || p.apellido_paterno, ''),
		       COALESCE(u.nombres_completos, u.username, ''),
		       c.area, c.fecha, h.turno, c.estado
		FROM citas c
		LEFT JOIN pacientes p ON p.id = c.paciente_id
		LEFT JOIN usuarios u ON u.id = c.doctor_id
		LEFT JOIN horarios_medicos h ON h.id = c.horario_id
		WHERE c.fecha >= $1 AND c.estado IN ('pendiente', 'confirmada')
		ORDER BY c.fecha ASC, h.turno ASC
		LIMIT $2`

	rows, err := r.conn(ctx).Query(ctx, q, desde, limit)
	if err != nil {
		return nil, fmt.Errorf("query proximas citas: %w", err)
	}
	defer rows.Close()

	var citas []ProximaCita
	for rows.Next() {
		var c ProximaCita
		if err := rows.Scan(&c.ID, &c.PacienteNombre, &c.DoctorNombre, &c.Area, &c.Fecha, &c.Turno, &c.Estado); err != nil {
			return nil, fmt.Errorf("scan proxima cita: %w", err)
		}
		citas = append(citas, c)
	}
	return citas, rows.Err()
}

func (r *PgRepository) CargaPorArea(ctx context.Context, hoy time.Time) ([]AreaCarga, error) {
	const q = `
		SELECT area, COUNT(*)
		FROM citas
		WHERE fecha = $1 AND estado <> 'cancelada'
		GROUP BY area
		ORDER BY COUNT(*) DESC`

	rows, err := r.conn(ctx).Query(ctx, q, hoy)
	if err != nil {
		return nil, fmt.Errorf("query carga por area: %w", err)
	}
	defer rows.Close()

	var carga []AreaCarga
	for rows.Next() {
		var a AreaCarga
		if err := rows.Scan(&a.Area, &a.Citas); err != nil {
			return nil, fmt.Errorf("scan carga por area: %w", err)
		}
		carga = append(carga, a)
	}
	return carga, rows.Err()
}
