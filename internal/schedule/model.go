package schedule

import (
	"time"
)

// Turno identifies one of the two fixed daily shifts.
type Turno string

const (
	TurnoManana Turno = "M" // 07:30-13:30
	TurnoTarde  Turno = "T" // 13:30-19:30
)

func (t Turno) Valid() bool {
	return t == TurnoManana || t == TurnoTarde
}

// Nombre returns the display name for the shift.
func (t Turno) Nombre() string {
	if t == TurnoManana {
		return "Mañana"
	}
	return "Tarde"
}

// Fixed shift hours. Not configurable per slot.
const (
	horaMananaInicio = "07:30"
	horaMananaFin    = "13:30"
	horaTardeInicio  = "13:30"
	horaTardeFin     = "19:30"
)

func (t Turno) HoraInicio() string {
	if t == TurnoManana {
		return horaMananaInicio
	}
	return horaTardeInicio
}

func (t Turno) HoraFin() string {
	if t == TurnoManana {
		return horaMananaFin
	}
	return horaTardeFin
}

// Horario is one doctor's bookable shift on one calendar date.
// Unique on (medico_id, fecha, turno).
type Horario struct {
	ID       int64
	MedicoID int64
	AreaID   int64
	Fecha    time.Time // date only, normalized to midnight UTC
	// 0=Lunes..6=Domingo. Derived from Fecha, stored redundantly for
	// fast weekday filtering.
	DiaSemana int
	Turno     Turno
	Cupos     int

	// Joined display fields, populated on reads.
	MedicoNombre string
	AreaNombre   string
}

// HorarioConCupos pairs a slot with its live count of active citas, from
// which the remaining capacity is derived at read time.
type HorarioConCupos struct {
	Horario
	CitasActivas int
}

func (h *HorarioConCupos) CuposDisponibles() int {
	return h.Cupos - h.CitasActivas
}

// DiaSemana converts a date to the 0=Lunes..6=Domingo convention used
// across the schema and the monthly-template weekday selection.
func DiaSemana(fecha time.Time) int {
	return (int(fecha.Weekday()) + 6) % 7
}

// Date normalizes a timestamp to its calendar date in UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last day of a calendar month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := Date(year, month, 1)
	end := start.AddDate(0, 1, -1)
	return start, end
}
