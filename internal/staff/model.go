package staff

import (
	"time"
)

// Usuario is a staff account: administrators, medicos and asistentes.
type Usuario struct {
	ID               int64
	DNI              string
	Username         *string
	PasswordHash     string
	NombresCompletos *string
	RolID            int
	Activo           bool
	CreatedAt        time.Time
}

// Nombre returns the best display name available.
func (u *Usuario) Nombre() string {
	if u.NombresCompletos != nil && *u.NombresCompletos != "" {
		return *u.NombresCompletos
	}
	if u.Username != nil {
		return *u.Username
	}
	return u.DNI
}
