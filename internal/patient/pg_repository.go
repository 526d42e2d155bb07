package patient

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

const pacienteCols = `id, dni, nombres, apellido_paterno, apellido_materno, fecha_nacimiento,
	sexo, estado_civil, grado_instruccion, religion, procedencia, ocupacion, telefono, email,
	direccion, seguro, numero_seguro, fecha_registro`

func scanPaciente(row pgx.Row) (*Paciente, error) {
	var p Paciente
	err := row.Scan(
		&p.ID, &p.DNI, &p.Nombres, &p.ApellidoPaterno, &p.ApellidoMaterno, &p.FechaNacimiento,
		&p.Sexo, &p.EstadoCivil, &p.GradoInstruccion, &p.Religion, &p.Procedencia, &p.Ocupacion,
		&p.Telefono, &p.Email, &p.Direccion, &p.Seguro, &p.NumeroSeguro, &p.FechaRegistro,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPacienteNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Paciente, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+pacienteCols+` FROM pacientes WHERE id = $1`, id)
	return scanPaciente(row)
}

func (r *PgRepository) GetByDNI(ctx context.Context, dni string) (*Paciente, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+pacienteCols+` FROM pacientes WHERE dni = $1`, dni)
	return scanPaciente(row)
}

func (r *PgRepository) Insert(ctx context.Context, p *Paciente) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO pacientes (dni, nombres, apellido_paterno, apellido_materno, fecha_nacimiento,
			sexo, estado_civil, grado_instruccion, religion, procedencia, ocupacion, telefono,
			email, direccion, seguro, numero_seguro, fecha_registro)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
		RETURNING id, fecha_registro
	`, p.DNI, p.Nombres, p.ApellidoPaterno, p.ApellidoMaterno, p.FechaNacimiento,
		p.Sexo, p.EstadoCivil, p.GradoInstruccion, p.Religion, p.Procedencia, p.Ocupacion,
		p.Telefono, p.Email, p.Direccion, p.Seguro, p.NumeroSeguro).Scan(&p.ID, &p.FechaRegistro)
	if err != nil {
		return fmt.Errorf("insert paciente: %w", err)
	}
	return nil
}

func (r *PgRepository) Update(ctx context.Context, p *Paciente) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE pacientes
		SET nombres = $2, apellido_paterno = $3, apellido_materno = $4, fecha_nacimiento = $5,
		    sexo = $6, estado_civil = $7, grado_instruccion = $8, religion = $9,
		    procedencia = $10, ocupacion = $11, telefono = $12, email = $13, direccion = $14,
		    seguro = $15, numero_seguro = $16
		WHERE id = $1
	`, p.ID, p.Nombres, p.ApellidoPaterno, p.ApellidoMaterno, p.FechaNacimiento,
		p.Sexo, p.EstadoCivil, p.GradoInstruccion, p.Religion, p.Procedencia, p.Ocupacion,
		p.Telefono, p.Email, p.Direccion, p.Seguro, p.NumeroSeguro)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPacienteNotFound
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context, search string, limit, offset int) ([]Paciente, int, error) {
	where := ``
	var args []any
	if search != "" {
		args = append(args, "%"+search+"%")
		where = ` WHERE dni ILIKE $1 OR nombres ILIKE $1 OR apellido_paterno ILIKE $1 OR apellido_materno ILIKE $1`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pacientes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	sql := fmt.Sprintf(`SELECT `+pacienteCols+` FROM pacientes`+where+
		` ORDER BY fecha_registro DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Paciente
	for rows.Next() {
		p, err := scanPaciente(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	return result, total, rows.Err()
}
