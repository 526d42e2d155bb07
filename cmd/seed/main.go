package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinisalud/citas-api/internal/auth"
	"github.com/clinisalud/citas-api/internal/db"
	"github.com/clinisalud/citas-api/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAreas(context.Background(), pool); err != nil {
		log.Fatalf("seed areas: %v", err)
	}
	if err := seedUsuarios(context.Background(), pool, 20); err != nil {
		log.Fatalf("seed usuarios: %v", err)
	}
	if err := seedPacientes(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed pacientes: %v", err)
	}
	if err := seedHorarios(context.Background(), pool); err != nil {
		log.Fatalf("seed horarios: %v", err)
	}

	log.Println("seed complete")
}

var nombresAreas = []string{
	"Medicina General",
	"Pediatría",
	"Obstetricia",
	"Odontología",
	"Psicología",
	"Enfermería",
	"Nutrición",
	"Laboratorio",
}

func seedAreas(ctx context.Context, pool *pgxpool.Pool) error {
	log.Printf("seeding %d areas", len(nombresAreas))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, nombre := range nombresAreas {
		_, err := tx.Exec(ctx, `
			INSERT INTO areas (nombre, descripcion, activo)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (nombre) DO NOTHING
		`, nombre, gofakeit.Sentence(8))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedUsuarios(ctx context.Context, pool *pgxpool.Pool, medicos int) error {
	log.Printf("seeding 1 admin and %d medicos", medicos)

	hash, err := bcrypt.GenerateFromPassword([]byte("cambiame"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO usuarios (dni, username, password, nombres_completos, rol_id, activo)
		VALUES ('00000001', 'admin', $1, 'Administrador', $2, TRUE)
		ON CONFLICT (dni) DO NOTHING
	`, string(hash), auth.RolAdministrador)
	if err != nil {
		return err
	}

	for i := 0; i < medicos; i++ {
		dni := gofakeit.Numerify("########")
		_, err := tx.Exec(ctx, `
			INSERT INTO usuarios (dni, password, nombres_completos, rol_id, activo)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (dni) DO NOTHING
		`, dni, string(hash), gofakeit.Name(), auth.RolMedico)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedPacientes(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d pacientes", count)

	sexos := []string{"Masculino", "Femenino"}
	estadosCiviles := []string{"Soltero", "Casado", "Viudo", "Divorciado", "Conviviente"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		nacimiento := gofakeit.DateRange(
			time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		)

		_, err := tx.Exec(ctx, `
			INSERT INTO pacientes (
				dni, nombres, apellido_paterno, apellido_materno, fecha_nacimiento,
				sexo, estado_civil, telefono, direccion
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (dni) DO NOTHING
		`,
			gofakeit.Numerify("########"),
			gofakeit.FirstName(),
			gofakeit.LastName(),
			gofakeit.LastName(),
			nacimiento,
			sexos[gofakeit.Number(0, 1)],
			estadosCiviles[gofakeit.Number(0, len(estadosCiviles)-1)],
			gofakeit.Numerify("9########"),
			gofakeit.Street(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedHorarios gives every medico weekday slots for the next 30 days,
// morning and afternoon shifts with the standard cupos.
func seedHorarios(ctx context.Context, pool *pgxpool.Pool) error {
	rows, err := pool.Query(ctx, `SELECT id, (SELECT id FROM areas ORDER BY random() LIMIT 1) FROM usuarios WHERE rol_id = $1`, auth.RolMedico)
	if err != nil {
		return err
	}
	defer rows.Close()

	type medicoArea struct{ medicoID, areaID int64 }
	var medicos []medicoArea
	for rows.Next() {
		var m medicoArea
		if err := rows.Scan(&m.medicoID, &m.areaID); err != nil {
			return err
		}
		medicos = append(medicos, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	log.Printf("seeding horarios for %d medicos", len(medicos))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	hoy := time.Now().UTC().Truncate(24 * time.Hour)
	for _, m := range medicos {
		for d := 0; d < 30; d++ {
			fecha := hoy.AddDate(0, 0, d)
			dia := schedule.DiaSemana(fecha)
			if dia >= 5 { // skip weekends
				continue
			}

			for turno, cupos := range map[string]int{"M": 5, "T": 7} {
				_, err := tx.Exec(ctx, `
					INSERT INTO horarios_medicos (medico_id, area_id, fecha, dia_semana, turno, cupos)
					VALUES ($1, $2, $3, $4, $5, $6)
					ON CONFLICT (medico_id, fecha, turno) DO NOTHING
				`, m.medicoID, m.areaID, fecha, dia, turno, cupos)
				if err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit(ctx)
}
