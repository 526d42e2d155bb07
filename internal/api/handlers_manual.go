package api

import (
	"errors"
	"net/http"

	"github.com/clinisalud/citas-api/internal/manual"
)

func listManualesHandler(svc *manual.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manuales, err := svc.ListAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, manualResponses(manuales))
	}
}

func listManualesPorRolHandler(svc *manual.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rolID, ok := idParam(r, "rol_id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "rol_id must be a positive integer")
			return
		}

		manuales, err := svc.ListForRol(r.Context(), int(rolID))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, manualResponses(manuales))
	}
}

func createManualHandler(svc *manual.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ManualRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		m, err := svc.Create(r.Context(), manual.CreateInput{
			Nombre:      req.Nombre,
			Descripcion: req.Descripcion,
			URLDrive:    req.URLDrive,
			RolID:       req.RolID,
		})
		if err != nil {
			handleManualError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newManualResponse(m))
	}
}

func updateManualHandler(svc *manual.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		var req ActualizarManualRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		m, err := svc.Update(r.Context(), id, manual.UpdateInput{
			Nombre:      req.Nombre,
			Descripcion: req.Descripcion,
			URLDrive:    req.URLDrive,
			RolID:       req.RolID,
			ClearRol:    req.ClearRol,
		})
		if err != nil {
			handleManualError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newManualResponse(m))
	}
}

func deleteManualHandler(svc *manual.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleManualError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func manualResponses(manuales []manual.Manual) []ManualResponse {
	resp := make([]ManualResponse, 0, len(manuales))
	for i := range manuales {
		resp = append(resp, newManualResponse(&manuales[i]))
	}
	return resp
}

func handleManualError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manual.ErrCamposFaltantes):
		writeError(w, http.StatusBadRequest, "missing_fields", err.Error())
	case errors.Is(err, manual.ErrManualNotFound):
		writeError(w, http.StatusNotFound, "manual_not_found", "manual does not exist")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
