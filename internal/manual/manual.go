package manual

import (
	"context"
	"errors"
	"time"

	"github.com/clinisalud/citas-api/internal/auth"
)

var (
	ErrManualNotFound  = errors.New("manual not found")
	ErrCamposFaltantes = errors.New("nombre and url_drive are required")
)

// Manual is one entry of the user-guide catalog, linking out to the
// hosted document. RolID nil means the manual is visible to every role.
type Manual struct {
	ID          int64
	Nombre      string
	Descripcion *string
	URLDrive    string
	RolID       *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RolNombre is a display name derived from the role scope, never stored.
func (m *Manual) RolNombre() string {
	if m.RolID == nil {
		return "General"
	}
	switch *m.RolID {
	case auth.RolAdministrador:
		return "Administrador"
	case auth.RolMedico:
		return "Médico"
	case auth.RolAsistente:
		return "Asistente"
	}
	return "General"
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Manual, error)
	Insert(ctx context.Context, m *Manual) error
	Update(ctx context.Context, m *Manual) error
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]Manual, error)

	// ListForRol returns manuals scoped to the role plus the unscoped
	// ones.
	ListForRol(ctx context.Context, rolID int) ([]Manual, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Nombre      string
	Descripcion *string
	URLDrive    string
	RolID       *int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Manual, error) {
	if in.Nombre == "" || in.URLDrive == "" {
		return nil, ErrCamposFaltantes
	}

	m := &Manual{
		Nombre:      in.Nombre,
		Descripcion: in.Descripcion,
		URLDrive:    in.URLDrive,
		RolID:       in.RolID,
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

type UpdateInput struct {
	Nombre      *string
	Descripcion *string
	URLDrive    *string
	RolID       *int
	ClearRol    bool // widen a role-scoped manual back to everyone
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Manual, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Nombre != nil {
		m.Nombre = *in.Nombre
	}
	if in.Descripcion != nil {
		m.Descripcion = in.Descripcion
	}
	if in.URLDrive != nil {
		m.URLDrive = *in.URLDrive
	}
	if in.RolID != nil {
		m.RolID = in.RolID
	} else if in.ClearRol {
		m.RolID = nil
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]Manual, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListForRol(ctx context.Context, rolID int) ([]Manual, error) {
	return s.repo.ListForRol(ctx, rolID)
}
