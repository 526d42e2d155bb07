package api

import (
	"errors"
	"net/http"

	"github.com/clinisalud/citas-api/internal/auth"
	"github.com/clinisalud/citas-api/internal/staff"
)

func loginHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		result, err := svc.Login(r.Context(), req.DNI, req.Password)
		if err != nil {
			if errors.Is(err, staff.ErrCredencialesInvalidas) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "dni or password is incorrect")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
			Usuario:      newUsuarioResponse(result.Usuario),
		})
	}
}

func refreshHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "refresh_token is required")
			return
		}

		access, err := svc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrWrongTokenType):
				writeError(w, http.StatusUnauthorized, "wrong_token_type", "a refresh token is required")
			case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenInvalid):
				writeError(w, http.StatusUnauthorized, "invalid_token", "refresh token is invalid or expired")
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, RefreshResponse{AccessToken: access})
	}
}

func createUsuarioHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUsuarioRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		u, err := svc.Create(r.Context(), staff.CreateInput{
			DNI:              req.DNI,
			Password:         req.Password,
			Username:         req.Username,
			NombresCompletos: req.NombresCompletos,
			RolID:            req.RolID,
		})
		if err != nil {
			switch {
			case errors.Is(err, staff.ErrCamposRequeridos):
				writeError(w, http.StatusBadRequest, "missing_fields", err.Error())
			case errors.Is(err, staff.ErrDNIDuplicado):
				writeError(w, http.StatusConflict, "dni_duplicado", "a usuario with that dni already exists")
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusCreated, newUsuarioResponse(u))
	}
}

func listMedicosHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		medicos, err := svc.ListMedicos(r.Context(), queryInt64(r, "area_id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]UsuarioResponse, 0, len(medicos))
		for i := range medicos {
			resp = append(resp, newUsuarioResponse(&medicos[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
