package patient

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockRepository struct {
	nextID    int64
	pacientes map[int64]*Paciente
}

func newMockRepository() *mockRepository {
	return &mockRepository{pacientes: make(map[int64]*Paciente)}
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*Paciente, error) {
	p, ok := m.pacientes[id]
	if !ok {
		return nil, ErrPacienteNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) GetByDNI(_ context.Context, dni string) (*Paciente, error) {
	for _, p := range m.pacientes {
		if p.DNI == dni {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrPacienteNotFound
}

func (m *mockRepository) Insert(_ context.Context, p *Paciente) error {
	m.nextID++
	p.ID = m.nextID
	p.FechaRegistro = time.Now()
	copied := *p
	m.pacientes[p.ID] = &copied
	return nil
}

func (m *mockRepository) Update(_ context.Context, p *Paciente) error {
	if _, ok := m.pacientes[p.ID]; !ok {
		return ErrPacienteNotFound
	}
	copied := *p
	m.pacientes[p.ID] = &copied
	return nil
}

func (m *mockRepository) List(_ context.Context, _ string, limit, offset int) ([]Paciente, int, error) {
	var out []Paciente
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.pacientes[id]; ok {
			out = append(out, *p)
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

type mockRegistry struct {
	personas map[string]*PersonaRegistro
	fail     bool
}

func (m *mockRegistry) LookupDNI(_ context.Context, dni string) (*PersonaRegistro, error) {
	if m.fail {
		return nil, ErrDNILookupFailed
	}
	p, ok := m.personas[dni]
	if !ok {
		return nil, ErrDNILookupFailed
	}
	return p, nil
}

func validInput() RegisterInput {
	return RegisterInput{
		DNI:             "12345678",
		Nombres:         "Maria",
		ApellidoPaterno: "Quispe",
		ApellidoMaterno: "Flores",
		FechaNacimiento: time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC),
		Sexo:            "Femenino",
		EstadoCivil:     "Soltero",
		Direccion:       "Av. Principal 123",
	}
}

func TestRegisterOrUpdateUpsertsByDNI(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockRegistry{})

	p, isNew, err := svc.RegisterOrUpdate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !isNew {
		t.Error("first registration should be new")
	}

	in := validInput()
	in.Nombres = "Maria Elena"
	telefono := "999888777"
	in.Telefono = &telefono

	p2, isNew, err := svc.RegisterOrUpdate(context.Background(), in)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if isNew {
		t.Error("same DNI should update, not create")
	}
	if p2.ID != p.ID {
		t.Errorf("id = %d, want %d", p2.ID, p.ID)
	}
	if p2.Nombres != "Maria Elena" {
		t.Errorf("nombres = %q, want refreshed value", p2.Nombres)
	}
	if len(repo.pacientes) != 1 {
		t.Errorf("repo holds %d pacientes, want 1", len(repo.pacientes))
	}
}

func TestRegisterOrUpdateValidation(t *testing.T) {
	svc := NewService(newMockRepository(), &mockRegistry{})

	t.Run("missing required field", func(t *testing.T) {
		in := validInput()
		in.Direccion = ""
		_, _, err := svc.RegisterOrUpdate(context.Background(), in)

		var required *RequiredFieldError
		if !errors.As(err, &required) {
			t.Fatalf("error = %v, want RequiredFieldError", err)
		}
		if required.Field != "direccion" {
			t.Errorf("field = %q, want direccion", required.Field)
		}
	})

	t.Run("missing fecha nacimiento", func(t *testing.T) {
		in := validInput()
		in.FechaNacimiento = time.Time{}
		_, _, err := svc.RegisterOrUpdate(context.Background(), in)

		var required *RequiredFieldError
		if !errors.As(err, &required) || required.Field != "fecha_nacimiento" {
			t.Errorf("error = %v, want RequiredFieldError{fecha_nacimiento}", err)
		}
	})

	t.Run("malformed dni", func(t *testing.T) {
		in := validInput()
		in.DNI = "12AB"
		_, _, err := svc.RegisterOrUpdate(context.Background(), in)
		if !errors.Is(err, ErrDNIInvalido) {
			t.Errorf("error = %v, want ErrDNIInvalido", err)
		}
	})
}

func TestFindByDNIPrefersLocalRecord(t *testing.T) {
	repo := newMockRepository()
	registry := &mockRegistry{personas: map[string]*PersonaRegistro{
		"12345678": {DNI: "12345678", Nombres: "REGISTRO", ApellidoPaterno: "X", ApellidoMaterno: "Y"},
	}}
	svc := NewService(repo, registry)

	if _, _, err := svc.RegisterOrUpdate(context.Background(), validInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.FindByDNI(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("FindByDNI: %v", err)
	}
	if result.Paciente == nil {
		t.Fatal("local record should win over the registry")
	}
	if result.Paciente.Nombres != "Maria" {
		t.Errorf("nombres = %q, want local data", result.Paciente.Nombres)
	}
}

func TestFindByDNIFallsBackToRegistry(t *testing.T) {
	registry := &mockRegistry{personas: map[string]*PersonaRegistro{
		"87654321": {DNI: "87654321", Nombres: "Jose", ApellidoPaterno: "Mamani", ApellidoMaterno: "Cruz"},
	}}
	svc := NewService(newMockRepository(), registry)

	result, err := svc.FindByDNI(context.Background(), "87654321")
	if err != nil {
		t.Fatalf("FindByDNI: %v", err)
	}
	if result.Paciente != nil {
		t.Error("no local record exists")
	}
	if result.Registro == nil || result.Registro.Nombres != "Jose" {
		t.Errorf("registro = %+v, want registry data", result.Registro)
	}
}

func TestFindByDNIRegistryFailure(t *testing.T) {
	svc := NewService(newMockRepository(), &mockRegistry{fail: true})

	_, err := svc.FindByDNI(context.Background(), "87654321")
	if !errors.Is(err, ErrPacienteNotFound) {
		t.Errorf("error = %v, want ErrPacienteNotFound when registry is down", err)
	}
}

func TestFindByDNIRejectsMalformed(t *testing.T) {
	svc := NewService(newMockRepository(), &mockRegistry{})

	for _, dni := range []string{"", "123", "123456789", "abcdefgh"} {
		if _, err := svc.FindByDNI(context.Background(), dni); !errors.Is(err, ErrDNIInvalido) {
			t.Errorf("FindByDNI(%q) error = %v, want ErrDNIInvalido", dni, err)
		}
	}
}

func TestEdad(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		nacimiento time.Time
		want       int
	}{
		{time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC), 35},
		{time.Date(1990, time.June, 16, 0, 0, 0, 0, time.UTC), 34}, // birthday tomorrow
		{time.Date(1990, time.December, 1, 0, 0, 0, 0, time.UTC), 34},
		{time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tc := range cases {
		p := Paciente{FechaNacimiento: tc.nacimiento}
		if got := p.Edad(now); got != tc.want {
			t.Errorf("Edad(%s) = %d, want %d", tc.nacimiento.Format("2006-01-02"), got, tc.want)
		}
	}
}
