package cita

import (
	"context"
	"errors"
	"time"

	"github.com/clinisalud/citas-api/internal/schedule"
)

var (
	ErrCitaNotFound     = errors.New("cita not found")
	ErrPacienteNotFound = errors.New("paciente not found")
)

// ListFilter narrows cita listings for the staff UI.
type ListFilter struct {
	Fecha         *time.Time // cita date
	FechaRegistro *time.Time // registration date
	DoctorID      *int64
	AreaID        *int64
	AreaNombre    *string // fuzzy match on the denormalized name
	Estado        *Estado
	PacienteDNI   *string // fuzzy match
	PacienteID    *int64
	Turno         *schedule.Turno // joined through the referenced slot
}

// Repository contains all cita DB interactions needed by the service.
type Repository interface {
	// GetHorarioForUpdate locks the slot row for the admission check.
	// Must be called inside a transaction.
	GetHorarioForUpdate(ctx context.Context, horarioID int64) (*schedule.Horario, error)

	// GetHorario is the lock-free variant for advisory capacity reads.
	GetHorario(ctx context.Context, horarioID int64) (*schedule.Horario, error)

	// CountActivas counts citas referencing the slot whose estado is not
	// 'cancelada'. The authoritative capacity check re-derives this under
	// the slot row lock.
	CountActivas(ctx context.Context, horarioID int64) (int, error)

	PacienteExists(ctx context.Context, pacienteID int64) (bool, error)

	Insert(ctx context.Context, c *Cita) error
	GetByID(ctx context.Context, id int64) (*CitaDetalle, error)
	Update(ctx context.Context, c *Cita) error
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, f ListFilter, limit, offset int) ([]CitaDetalle, int, error)

	InsertHistorial(ctx context.Context, h *HistorialEstado) error
	ListHistorial(ctx context.Context, citaID int64) ([]HistorialEstado, error)
}
