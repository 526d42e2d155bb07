package patient

import (
	"time"
)

// Paciente is a patient record, keyed naturally by the 8-digit DNI.
type Paciente struct {
	ID               int64
	DNI              string
	Nombres          string
	ApellidoPaterno  string
	ApellidoMaterno  string
	FechaNacimiento  time.Time
	Sexo             string
	EstadoCivil      string
	GradoInstruccion *string
	Religion         *string
	Procedencia      *string
	Ocupacion        *string
	Telefono         *string
	Email            *string
	Direccion        string
	Seguro           *string
	NumeroSeguro     *string
	FechaRegistro    time.Time
}

// Edad computes the patient's age at now. Never persisted.
func (p *Paciente) Edad(now time.Time) int {
	edad := now.Year() - p.FechaNacimiento.Year()
	if now.Month() < p.FechaNacimiento.Month() ||
		(now.Month() == p.FechaNacimiento.Month() && now.Day() < p.FechaNacimiento.Day()) {
		edad--
	}
	return edad
}

// NombreCompleto renders "Paterno Materno, Nombres" for display.
func (p *Paciente) NombreCompleto() string {
	return p.ApellidoPaterno + " " + p.ApellidoMaterno + ", " + p.Nombres
}

// ValidDNI reports whether s is an 8-digit national identifier.
func ValidDNI(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
