package staff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinisalud/citas-api/internal/auth"
)

type mockRepository struct {
	nextID   int64
	usuarios map[int64]*Usuario
}

func newMockRepository() *mockRepository {
	return &mockRepository{usuarios: make(map[int64]*Usuario)}
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*Usuario, error) {
	u, ok := m.usuarios[id]
	if !ok {
		return nil, ErrUsuarioNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) GetByDNI(_ context.Context, dni string) (*Usuario, error) {
	for _, u := range m.usuarios {
		if u.DNI == dni {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUsuarioNotFound
}

func (m *mockRepository) Insert(_ context.Context, u *Usuario) error {
	m.nextID++
	u.ID = m.nextID
	copied := *u
	m.usuarios[u.ID] = &copied
	return nil
}

func (m *mockRepository) ListMedicos(_ context.Context, _ *int64) ([]Usuario, error) {
	var out []Usuario
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.usuarios[id]; ok && u.RolID == auth.RolMedico {
			out = append(out, *u)
		}
	}
	return out, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, auth.NewManager("test-secret", 15*time.Minute, 7*24*time.Hour))
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	u, err := svc.Create(context.Background(), CreateInput{
		DNI:      "12345678",
		Password: "secreto123",
		RolID:    auth.RolMedico,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.PasswordHash == "secreto123" {
		t.Error("password stored in clear")
	}
	if !u.Activo {
		t.Error("new usuario should default to activo")
	}
}

func TestCreateRejectsDuplicateDNI(t *testing.T) {
	svc := newTestService(newMockRepository())

	in := CreateInput{DNI: "12345678", Password: "secreto123", RolID: auth.RolAsistente}
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := svc.Create(context.Background(), in)
	if !errors.Is(err, ErrDNIDuplicado) {
		t.Errorf("error = %v, want ErrDNIDuplicado", err)
	}
}

func TestCreateRequiresFields(t *testing.T) {
	svc := newTestService(newMockRepository())

	cases := []CreateInput{
		{Password: "x", RolID: 1},
		{DNI: "12345678", RolID: 1},
		{DNI: "12345678", Password: "x"},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrCamposRequeridos) {
			t.Errorf("Create(%+v) error = %v, want ErrCamposRequeridos", in, err)
		}
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateInput{
		DNI:      "12345678",
		Password: "secreto123",
		RolID:    auth.RolAdministrador,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.Login(context.Background(), "12345678", "secreto123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("login should return both tokens")
	}
	if result.Usuario.ID != created.ID {
		t.Errorf("usuario id = %d, want %d", result.Usuario.ID, created.ID)
	}

	access, err := svc.Refresh(context.Background(), result.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if access == "" {
		t.Error("refresh should return a new access token")
	}

	// An access token must not pass as a refresh token.
	if _, err := svc.Refresh(context.Background(), result.AccessToken); !errors.Is(err, auth.ErrWrongTokenType) {
		t.Errorf("Refresh(access) error = %v, want ErrWrongTokenType", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(newMockRepository())

	if _, err := svc.Create(context.Background(), CreateInput{
		DNI: "12345678", Password: "secreto123", RolID: auth.RolMedico,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cases := []struct {
		name          string
		dni, password string
	}{
		{"wrong password", "12345678", "otra"},
		{"unknown dni", "00000000", "secreto123"},
		{"empty password", "12345678", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(context.Background(), tc.dni, tc.password); !errors.Is(err, ErrCredencialesInvalidas) {
				t.Errorf("error = %v, want ErrCredencialesInvalidas", err)
			}
		})
	}
}
