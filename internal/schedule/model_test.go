package schedule

import (
	"testing"
	"time"
)

func TestDiaSemana(t *testing.T) {
	cases := []struct {
		fecha time.Time
		want  int
	}{
		{Date(2025, time.January, 6), 0},  // lunes
		{Date(2025, time.January, 7), 1},  // martes
		{Date(2025, time.January, 10), 4}, // viernes
		{Date(2025, time.January, 11), 5}, // sabado
		{Date(2025, time.January, 12), 6}, // domingo
	}

	for _, tc := range cases {
		if got := DiaSemana(tc.fecha); got != tc.want {
			t.Errorf("DiaSemana(%s) = %d, want %d", tc.fecha.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestTurnoHoras(t *testing.T) {
	if got := TurnoManana.HoraInicio(); got != "07:30" {
		t.Errorf("manana inicio = %s, want 07:30", got)
	}
	if got := TurnoManana.HoraFin(); got != "13:30" {
		t.Errorf("manana fin = %s, want 13:30", got)
	}
	if got := TurnoTarde.HoraInicio(); got != "13:30" {
		t.Errorf("tarde inicio = %s, want 13:30", got)
	}
	if got := TurnoTarde.HoraFin(); got != "19:30" {
		t.Errorf("tarde fin = %s, want 19:30", got)
	}
	if Turno("X").Valid() {
		t.Error("Turno X should be invalid")
	}
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2024, time.February)
	if !start.Equal(Date(2024, time.February, 1)) {
		t.Errorf("start = %s", start)
	}
	if !end.Equal(Date(2024, time.February, 29)) {
		t.Errorf("end = %s, want leap-year Feb 29", end)
	}
}

func TestCuposDisponibles(t *testing.T) {
	h := HorarioConCupos{Horario: Horario{Cupos: 5}, CitasActivas: 3}
	if got := h.CuposDisponibles(); got != 2 {
		t.Errorf("CuposDisponibles = %d, want 2", got)
	}
}
