package area

import (
	"context"
	"errors"
	"testing"
)

type mockRepository struct {
	nextID int64
	areas  map[int64]*Area
}

func newMockRepository() *mockRepository {
	return &mockRepository{areas: make(map[int64]*Area)}
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*Area, error) {
	a, ok := m.areas[id]
	if !ok {
		return nil, ErrAreaNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockRepository) FindByNombre(_ context.Context, nombre string) (*Area, error) {
	for _, a := range m.areas {
		if a.Nombre == nombre {
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrAreaNotFound
}

func (m *mockRepository) Insert(_ context.Context, a *Area) error {
	m.nextID++
	a.ID = m.nextID
	copied := *a
	m.areas[a.ID] = &copied
	return nil
}

func (m *mockRepository) Update(_ context.Context, a *Area) error {
	if _, ok := m.areas[a.ID]; !ok {
		return ErrAreaNotFound
	}
	copied := *a
	m.areas[a.ID] = &copied
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	delete(m.areas, id)
	return nil
}

func (m *mockRepository) ListAll(_ context.Context) ([]Area, error) {
	var out []Area
	for id := m.nextID; id >= 1; id-- {
		if a, ok := m.areas[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func TestCreateRejectsDuplicateNombre(t *testing.T) {
	svc := NewService(newMockRepository())

	if _, err := svc.Create(context.Background(), CreateInput{Nombre: "Pediatría"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateInput{Nombre: "Pediatría"})
	if !errors.Is(err, ErrNombreDuplicado) {
		t.Errorf("error = %v, want ErrNombreDuplicado", err)
	}
}

func TestCreateRequiresNombre(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), CreateInput{})
	if !errors.Is(err, ErrNombreRequerido) {
		t.Errorf("error = %v, want ErrNombreRequerido", err)
	}
}

func TestCreateDefaultsActivo(t *testing.T) {
	svc := NewService(newMockRepository())

	a, err := svc.Create(context.Background(), CreateInput{Nombre: "Obstetricia"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !a.Activo {
		t.Error("new area should default to activo")
	}
}

func TestUpdateRejectsNombreTakenByOther(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	first, _ := svc.Create(context.Background(), CreateInput{Nombre: "Pediatría"})
	second, _ := svc.Create(context.Background(), CreateInput{Nombre: "Obstetricia"})

	nombre := "Pediatría"
	_, err := svc.Update(context.Background(), second.ID, UpdateInput{Nombre: &nombre})
	if !errors.Is(err, ErrNombreDuplicado) {
		t.Errorf("error = %v, want ErrNombreDuplicado", err)
	}

	// Renaming to its own current name is fine.
	propio := "Pediatría"
	if _, err := svc.Update(context.Background(), first.ID, UpdateInput{Nombre: &propio}); err != nil {
		t.Errorf("self-rename: %v", err)
	}
}

func TestDeleteUnknownArea(t *testing.T) {
	svc := NewService(newMockRepository())

	if err := svc.Delete(context.Background(), 42); !errors.Is(err, ErrAreaNotFound) {
		t.Errorf("error = %v, want ErrAreaNotFound", err)
	}
}
