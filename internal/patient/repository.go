package patient

import (
	"context"
	"errors"
)

var (
	ErrPacienteNotFound = errors.New("paciente not found")
)

// Repository contains all paciente DB interactions needed by the service.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Paciente, error)
	GetByDNI(ctx context.Context, dni string) (*Paciente, error)
	Insert(ctx context.Context, p *Paciente) error
	Update(ctx context.Context, p *Paciente) error

	// List applies a fuzzy search across dni, nombres and apellidos,
	// ordered by fecha_registro descending.
	List(ctx context.Context, search string, limit, offset int) ([]Paciente, int, error)
}
