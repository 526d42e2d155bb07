package cita

import (
	"time"

	"github.com/clinisalud/citas-api/internal/schedule"
)

type Estado string

const (
	EstadoPendiente  Estado = "pendiente"
	EstadoConfirmada Estado = "confirmada"
	EstadoAtendida   Estado = "atendida"
	EstadoCancelada  Estado = "cancelada"
	EstadoReferido   Estado = "referido"
)

func (e Estado) Valid() bool {
	switch e {
	case EstadoPendiente, EstadoConfirmada, EstadoAtendida, EstadoCancelada, EstadoReferido:
		return true
	}
	return false
}

// Activa reports whether the cita consumes one unit of its slot's
// capacity. Only cancelled citas stop counting.
func (e Estado) Activa() bool {
	return e != EstadoCancelada
}

// Cita is one patient's booking, optionally against a horario. Doctor,
// area and fecha are denormalized from the slot at creation time;
// nullable fields support legacy free-form citas without a slot.
type Cita struct {
	ID         int64
	PacienteID int64
	HorarioID  *int64
	DoctorID   *int64
	AreaID     *int64
	Area       string     // display name, denormalized at creation
	Fecha      *time.Time // cita date, from the slot
	Sintomas   string

	DNIAcompanante      *string
	NombreAcompanante   *string
	TelefonoAcompanante *string

	DatosAdicionales map[string]any

	FechaRegistro time.Time
	Estado        Estado
}

// PacienteResumen carries the patient display fields joined onto listings.
type PacienteResumen struct {
	ID              int64
	DNI             string
	Nombres         string
	ApellidoPaterno string
	ApellidoMaterno string
}

// HorarioResumen carries the slot display fields joined onto listings.
type HorarioResumen struct {
	ID    int64
	Turno schedule.Turno
}

type CitaDetalle struct {
	Cita
	Paciente *PacienteResumen
	Horario  *HorarioResumen
}

// HistorialEstado is one row of the append-only status audit trail.
// UsuarioID nil means the transition was system-generated.
type HistorialEstado struct {
	ID             int64
	CitaID         int64
	EstadoAnterior *Estado // nil on initial creation
	EstadoNuevo    Estado
	UsuarioID      *int64
	UsuarioNombre  string // joined; "Sistema" when UsuarioID is nil
	FechaCambio    time.Time
	Comentario     *string
	IPAddress      *string
}
