package patient

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDNIInvalido = errors.New("dni must be an 8-digit string")
)

// RequiredFieldError names the missing intake field.
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("field %q is required", e.Field)
}

type Service struct {
	repo     Repository
	registry RegistryClient
}

func NewService(repo Repository, registry RegistryClient) *Service {
	return &Service{repo: repo, registry: registry}
}

type RegisterInput struct {
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
}

func (in *RegisterInput) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"dni", in.DNI},
		{"nombres", in.Nombres},
		{"apellido_paterno", in.ApellidoPaterno},
		{"apellido_materno", in.ApellidoMaterno},
		{"sexo", in.Sexo},
		{"estado_civil", in.EstadoCivil},
		{"direccion", in.Direccion},
	}
	for _, f := range required {
		if f.value == "" {
			return &RequiredFieldError{Field: f.name}
		}
	}
	if in.FechaNacimiento.IsZero() {
		return &RequiredFieldError{Field: "fecha_nacimiento"}
	}
	if !ValidDNI(in.DNI) {
		return ErrDNIInvalido
	}
	return nil
}

// RegisterOrUpdate upserts a patient by DNI: an existing record is
// refreshed with the submitted data, otherwise a new one is created.
// Public intake path, so no acting user is involved.
func (s *Service) RegisterOrUpdate(ctx context.Context, in RegisterInput) (*Paciente, bool, error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.GetByDNI(ctx, in.DNI)
	if err != nil && !errors.Is(err, ErrPacienteNotFound) {
		return nil, false, fmt.Errorf("find paciente by dni: %w", err)
	}

	p := existing
	isNew := p == nil
	if isNew {
		p = &Paciente{DNI: in.DNI}
	}

	p.Nombres = in.Nombres
	p.ApellidoPaterno = in.ApellidoPaterno
	p.ApellidoMaterno = in.ApellidoMaterno
	p.FechaNacimiento = in.FechaNacimiento
	p.Sexo = in.Sexo
	p.EstadoCivil = in.EstadoCivil
	p.GradoInstruccion = in.GradoInstruccion
	p.Religion = in.Religion
	p.Procedencia = in.Procedencia
	p.Ocupacion = in.Ocupacion
	p.Telefono = in.Telefono
	p.Email = in.Email
	p.Direccion = in.Direccion
	p.Seguro = in.Seguro
	p.NumeroSeguro = in.NumeroSeguro

	if isNew {
		err = s.repo.Insert(ctx, p)
	} else {
		err = s.repo.Update(ctx, p)
	}
	if err != nil {
		return nil, false, err
	}
	return p, isNew, nil
}

// UpdateInput applies replace-if-present semantics per field.
type UpdateInput struct {
	Nombres          *string
	ApellidoPaterno  *string
	ApellidoMaterno  *string
	FechaNacimiento  *time.Time
	Sexo             *string
	EstadoCivil      *string
	GradoInstruccion *string
	Religion         *string
	Procedencia      *string
	Ocupacion        *string
	Telefono         *string
	Email            *string
	Direccion        *string
	Seguro           *string
	NumeroSeguro     *string
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Paciente, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Nombres != nil {
		p.Nombres = *in.Nombres
	}
	if in.ApellidoPaterno != nil {
		p.ApellidoPaterno = *in.ApellidoPaterno
	}
	if in.ApellidoMaterno != nil {
		p.ApellidoMaterno = *in.ApellidoMaterno
	}
	if in.FechaNacimiento != nil {
		p.FechaNacimiento = *in.FechaNacimiento
	}
	if in.Sexo != nil {
		p.Sexo = *in.Sexo
	}
	if in.EstadoCivil != nil {
		p.EstadoCivil = *in.EstadoCivil
	}
	if in.GradoInstruccion != nil {
		p.GradoInstruccion = in.GradoInstruccion
	}
	if in.Religion != nil {
		p.Religion = in.Religion
	}
	if in.Procedencia != nil {
		p.Procedencia = in.Procedencia
	}
	if in.Ocupacion != nil {
		p.Ocupacion = in.Ocupacion
	}
	if in.Telefono != nil {
		p.Telefono = in.Telefono
	}
	if in.Email != nil {
		p.Email = in.Email
	}
	if in.Direccion != nil {
		p.Direccion = *in.Direccion
	}
	if in.Seguro != nil {
		p.Seguro = in.Seguro
	}
	if in.NumeroSeguro != nil {
		p.NumeroSeguro = in.NumeroSeguro
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Paciente, error) {
	return s.repo.GetByID(ctx, id)
}

// LookupResult is either a locally registered patient or, as a fallback,
// the bare registry data for pre-filling the intake form.
type LookupResult struct {
	Paciente *Paciente
	Registro *PersonaRegistro
}

// FindByDNI checks the local registry first and falls back to the
// external national registry when the patient is unknown.
func (s *Service) FindByDNI(ctx context.Context, dni string) (*LookupResult, error) {
	if !ValidDNI(dni) {
		return nil, ErrDNIInvalido
	}

	p, err := s.repo.GetByDNI(ctx, dni)
	if err == nil {
		return &LookupResult{Paciente: p}, nil
	}
	if !errors.Is(err, ErrPacienteNotFound) {
		return nil, fmt.Errorf("find paciente by dni: %w", err)
	}

	persona, err := s.registry.LookupDNI(ctx, dni)
	if err != nil {
		if errors.Is(err, ErrDNILookupFailed) {
			return nil, ErrPacienteNotFound
		}
		return nil, err
	}
	return &LookupResult{Registro: persona}, nil
}

// LookupRegistry proxies the external registry without the local check.
func (s *Service) LookupRegistry(ctx context.Context, dni string) (*PersonaRegistro, error) {
	if !ValidDNI(dni) {
		return nil, ErrDNIInvalido
	}
	return s.registry.LookupDNI(ctx, dni)
}

func (s *Service) List(ctx context.Context, search string, page, perPage int) ([]Paciente, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return s.repo.List(ctx, search, perPage, (page-1)*perPage)
}
