package cita

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinisalud/citas-api/internal/db"
	"github.com/clinisalud/citas-api/internal/schedule"
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

const slotQuery = `
	SELECT h.id, h.medico_id, h.area_id, h.fecha, h.dia_semana, h.turno, h.cupos,
	       COALESCE(u.nombres_completos, u.username, ''), COALESCE(a.nombre, '')
	FROM horarios_medicos h
	LEFT JOIN usuarios u ON u.id = h.medico_id
	LEFT JOIN areas a ON a.id = h.area_id
	WHERE h.id = $1`

// GetHorarioForUpdate locks the slot row so a concurrent admission
// serializes behind this transaction. FOR UPDATE OF h keeps the joined
// display tables out of the lock.
func (r *PgRepository) GetHorarioForUpdate(ctx context.Context, horarioID int64) (*schedule.Horario, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, slotQuery+`
		FOR UPDATE OF h`, horarioID))
}

// GetHorario reads the slot without locking, for advisory capacity checks.
func (r *PgRepository) GetHorario(ctx context.Context, horarioID int64) (*schedule.Horario, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, slotQuery, horarioID))
}

func (r *PgRepository) scanSlot(row pgx.Row) (*schedule.Horario, error) {
	var h schedule.Horario
	err := row.Scan(&h.ID, &h.MedicoID, &h.AreaID, &h.Fecha, &h.DiaSemana, &h.Turno, &h.Cupos,
		&h.MedicoNombre, &h.AreaNombre)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, schedule.ErrHorarioNotFound
		}
		return nil, err
	}
	h.Fecha = h.Fecha.UTC()
	return &h, nil
}

func (r *PgRepository) CountActivas(ctx context.Context, horarioID int64) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM citas
		WHERE horario_id = $1 AND estado <> 'cancelada'
	`, horarioID).Scan(&count)
	return count, err
}

func (r *PgRepository) PacienteExists(ctx context.Context, pacienteID int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM pacientes WHERE id = $1)
	`, pacienteID).Scan(&exists)
	return exists, err
}

func (r *PgRepository) Insert(ctx context.Context, c *Cita) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO citas (paciente_id, horario_id, doctor_id, area_id, area, fecha, sintomas,
			dni_acompanante, nombre_acompanante, telefono_acompanante, datos_adicionales,
			fecha_registro, estado)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), $12)
		RETURNING id, fecha_registro
	`, c.PacienteID, c.HorarioID, c.DoctorID, c.AreaID, c.Area, c.Fecha, c.Sintomas,
		c.DNIAcompanante, c.NombreAcompanante, c.TelefonoAcompanante, c.DatosAdicionales,
		c.Estado).Scan(&c.ID, &c.FechaRegistro)
	if err != nil {
		return fmt.Errorf("insert cita: %w", err)
	}
	return nil
}

const citaCols = `c.id, c.paciente_id, c.horario_id, c.doctor_id, c.area_id, COALESCE(c.area, ''),
	c.fecha, c.sintomas, c.dni_acompanante, c.nombre_acompanante, c.telefono_acompanante,
	c.datos_adicionales, c.fecha_registro, c.estado,
	p.id, p.dni, p.nombres, p.apellido_paterno, p.apellido_materno,
	h.id, h.turno`

const citaJoins = `
	FROM citas c
	LEFT JOIN pacientes p ON p.id = c.paciente_id
	LEFT JOIN horarios_medicos h ON h.id = c.horario_id`

func scanCitaDetalle(row pgx.Row) (*CitaDetalle, error) {
	var (
		d        CitaDetalle
		pID      *int64
		pDNI     *string
		pNombres *string
		pPaterno *string
		pMaterno *string
		hID      *int64
		hTurno   *schedule.Turno
	)

	err := row.Scan(
		&d.ID, &d.PacienteID, &d.HorarioID, &d.DoctorID, &d.AreaID, &d.Area,
		&d.Fecha, &d.Sintomas, &d.DNIAcompanante, &d.NombreAcompanante, &d.TelefonoAcompanante,
		&d.DatosAdicionales, &d.FechaRegistro, &d.Estado,
		&pID, &pDNI, &pNombres, &pPaterno, &pMaterno,
		&hID, &hTurno,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCitaNotFound
		}
		return nil, err
	}

	if pID != nil {
		d.Paciente = &PacienteResumen{
			ID:              *pID,
			DNI:             deref(pDNI),
			Nombres:         deref(pNombres),
			ApellidoPaterno: deref(pPaterno),
			ApellidoMaterno: deref(pMaterno),
		}
	}
	if hID != nil && hTurno != nil {
		d.Horario = &HorarioResumen{ID: *hID, Turno: *hTurno}
	}
	return &d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*CitaDetalle, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+citaCols+citaJoins+` WHERE c.id = $1`, id)
	return scanCitaDetalle(row)
}

func (r *PgRepository) Update(ctx context.Context, c *Cita) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE citas
		SET doctor_id = $2,
		    area = $3,
		    sintomas = $4,
		    dni_acompanante = $5,
		    nombre_acompanante = $6,
		    telefono_acompanante = $7,
		    datos_adicionales = $8,
		    estado = $9
		WHERE id = $1
	`, c.ID, c.DoctorID, c.Area, c.Sintomas, c.DNIAcompanante, c.NombreAcompanante,
		c.TelefonoAcompanante, c.DatosAdicionales, c.Estado)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCitaNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM citas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCitaNotFound
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context, f ListFilter, limit, offset int) ([]CitaDetalle, int, error) {
	where := ` WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Fecha != nil {
		where += ` AND c.fecha = ` + arg(*f.Fecha)
	}
	if f.FechaRegistro != nil {
		where += ` AND c.fecha_registro::date = ` + arg(*f.FechaRegistro)
	}
	if f.DoctorID != nil {
		where += ` AND c.doctor_id = ` + arg(*f.DoctorID)
	}
	if f.AreaID != nil {
		where += ` AND c.area_id = ` + arg(*f.AreaID)
	}
	if f.AreaNombre != nil {
		where += ` AND c.area ILIKE ` + arg("%"+*f.AreaNombre+"%")
	}
	if f.Estado != nil {
		where += ` AND c.estado = ` + arg(*f.Estado)
	}
	if f.PacienteDNI != nil {
		where += ` AND p.dni ILIKE ` + arg("%"+*f.PacienteDNI+"%")
	}
	if f.PacienteID != nil {
		where += ` AND c.paciente_id = ` + arg(*f.PacienteID)
	}
	if f.Turno != nil {
		where += ` AND h.turno = ` + arg(*f.Turno)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+citaJoins+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `SELECT ` + citaCols + citaJoins + where +
		` ORDER BY c.fecha DESC NULLS LAST, c.fecha_registro DESC` +
		` LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []CitaDetalle
	for rows.Next() {
		d, err := scanCitaDetalle(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *d)
	}
	return result, total, rows.Err()
}

func (r *PgRepository) InsertHistorial(ctx context.Context, h *HistorialEstado) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO historial_estado_citas
			(cita_id, estado_anterior, estado_nuevo, usuario_id, fecha_cambio, comentario, ip_address)
		VALUES ($1, $2, $3, $4, now(), $5, $6)
		RETURNING id, fecha_cambio
	`, h.CitaID, h.EstadoAnterior, h.EstadoNuevo, h.UsuarioID, h.Comentario, h.IPAddress).
		Scan(&h.ID, &h.FechaCambio)
	if err != nil {
		return fmt.Errorf("insert historial: %w", err)
	}
	return nil
}

func (r *PgRepository) ListHistorial(ctx context.Context, citaID int64) ([]HistorialEstado, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT hist.id, hist.cita_id, hist.estado_anterior, hist.estado_nuevo, hist.usuario_id,
		       COALESCE(u.nombres_completos, u.username, 'Sistema'),
		       hist.fecha_cambio, hist.comentario, hist.ip_address
		FROM historial_estado_citas hist
		LEFT JOIN usuarios u ON u.id = hist.usuario_id
		WHERE hist.cita_id = $1
		ORDER BY hist.fecha_cambio DESC, hist.id DESC
	`, citaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []HistorialEstado
	for rows.Next() {
		var h HistorialEstado
		err := rows.Scan(&h.ID, &h.CitaID, &h.EstadoAnterior, &h.EstadoNuevo, &h.UsuarioID,
			&h.UsuarioNombre, &h.FechaCambio, &h.Comentario, &h.IPAddress)
		if err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}
