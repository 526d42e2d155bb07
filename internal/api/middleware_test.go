package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinisalud/citas-api/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generates one when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Error("request id missing from context")
		}
		if rec.Header().Get("X-Request-ID") != seen {
			t.Error("response header should echo the request id")
		}
	})

	t.Run("preserves the caller's", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "caller-chosen")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen != "caller-chosen" {
			t.Errorf("request id = %q, want caller-chosen", seen)
		}
	})
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewManager("test-secret", 15*time.Minute, time.Hour)
	identity := auth.Identity{UsuarioID: 7, DNI: "12345678", RolID: auth.RolMedico}

	var got *auth.Identity
	handler := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.IdentityFromContext(r.Context())
	}))

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := tokens.CreateAccessToken(identity)
		if err != nil {
			t.Fatalf("CreateAccessToken: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got == nil || *got != identity {
			t.Errorf("identity = %+v, want %+v", got, identity)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		refresh, err := tokens.CreateRefreshToken(identity)
		if err != nil {
			t.Fatalf("CreateRefreshToken: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestRequireRoles(t *testing.T) {
	handler := RequireRoles(auth.RolAdministrador)(okHandler())

	request := func(rol int) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		identity := &auth.Identity{UsuarioID: 1, DNI: "12345678", RolID: rol}
		return req.WithContext(auth.WithIdentity(req.Context(), identity))
	}

	t.Run("allowed role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request(auth.RolAdministrador))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("forbidden role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request(auth.RolAsistente))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("no identity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}
