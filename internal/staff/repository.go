package staff

import (
	"context"
	"errors"
)

var (
	ErrUsuarioNotFound = errors.New("usuario not found")
)

// Repository contains all usuario DB interactions needed by the service.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Usuario, error)
	GetByDNI(ctx context.Context, dni string) (*Usuario, error)
	Insert(ctx context.Context, u *Usuario) error

	// ListMedicos returns rol-2 users; areaID restricts to medicos that
	// have slots in that area.
	ListMedicos(ctx context.Context, areaID *int64) ([]Usuario, error)
}
