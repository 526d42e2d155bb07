package area

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAreaNotFound    = errors.New("area not found")
	ErrNombreDuplicado = errors.New("area name already exists")
	ErrNombreRequerido = errors.New("area name is required")
)

// Area is one clinical specialty in the catalog. nombre is unique.
type Area struct {
	ID          int64
	Nombre      string
	Descripcion *string
	Activo      bool
	CreatedAt   time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Area, error)
	FindByNombre(ctx context.Context, nombre string) (*Area, error)
	Insert(ctx context.Context, a *Area) error
	Update(ctx context.Context, a *Area) error
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]Area, error)
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
	Activo      *bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Area, error) {
	if in.Nombre == "" {
		return nil, ErrNombreRequerido
	}

	existing, err := s.repo.FindByNombre(ctx, in.Nombre)
	if err != nil && !errors.Is(err, ErrAreaNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrNombreDuplicado
	}

	a := &Area{
		Nombre:      in.Nombre,
		Descripcion: in.Descripcion,
		Activo:      true,
	}
	if in.Activo != nil {
		a.Activo = *in.Activo
	}

	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

type UpdateInput struct {
	Nombre      *string
	Descripcion *string
	Activo      *bool
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Area, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Nombre != nil {
		existing, err := s.repo.FindByNombre(ctx, *in.Nombre)
		if err != nil && !errors.Is(err, ErrAreaNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrNombreDuplicado
		}
		a.Nombre = *in.Nombre
	}
	if in.Descripcion != nil {
		a.Descripcion = in.Descripcion
	}
	if in.Activo != nil {
		a.Activo = *in.Activo
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]Area, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Area, error) {
	return s.repo.GetByID(ctx, id)
}
