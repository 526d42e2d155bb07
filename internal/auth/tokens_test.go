package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()
	identity := Identity{UsuarioID: 42, DNI: "12345678", RolID: RolMedico}

	token, err := m.CreateAccessToken(identity)
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	decoded, err := m.Decode(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *decoded != identity {
		t.Errorf("decoded = %+v, want %+v", decoded, identity)
	}
}

func TestDecodeEnforcesTokenType(t *testing.T) {
	m := newTestManager()
	identity := Identity{UsuarioID: 1, DNI: "12345678", RolID: RolAdministrador}

	refresh, err := m.CreateRefreshToken(identity)
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}

	if _, err := m.Decode(refresh, TokenTypeAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("refresh as access: error = %v, want ErrWrongTokenType", err)
	}
	if _, err := m.Decode(refresh, TokenTypeRefresh); err != nil {
		t.Errorf("refresh as refresh: %v", err)
	}
}

func TestDecodeRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, -time.Minute)

	token, err := m.CreateAccessToken(Identity{UsuarioID: 1, DNI: "12345678", RolID: RolAsistente})
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	if _, err := m.Decode(token, TokenTypeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	token, err := newTestManager().CreateAccessToken(Identity{UsuarioID: 1, DNI: "12345678", RolID: RolMedico})
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	other := NewManager("another-secret", 15*time.Minute, time.Hour)
	if _, err := other.Decode(token, TokenTypeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	m := newTestManager()
	if _, err := m.Decode("not.a.jwt", TokenTypeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestIdentityContext(t *testing.T) {
	identity := &Identity{UsuarioID: 9, DNI: "87654321", RolID: RolAsistente}

	ctx := WithIdentity(context.Background(), identity)
	if got := IdentityFromContext(ctx); got != identity {
		t.Errorf("IdentityFromContext = %+v, want %+v", got, identity)
	}

	if got := IdentityFromContext(context.Background()); got != nil {
		t.Errorf("empty context should yield nil, got %+v", got)
	}
}
