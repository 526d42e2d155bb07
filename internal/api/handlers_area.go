package api

import (
	"errors"
	"net/http"

	"github.com/clinisalud/citas-api/internal/area"
)

func listAreasHandler(svc *area.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		areas, err := svc.ListAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AreaResponse, 0, len(areas))
		for i := range areas {
			resp = append(resp, newAreaResponse(&areas[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createAreaHandler(svc *area.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AreaRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		a, err := svc.Create(r.Context(), area.CreateInput{
			Nombre:      req.Nombre,
			Descripcion: req.Descripcion,
			Activo:      req.Activo,
		})
		if err != nil {
			handleAreaError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newAreaResponse(a))
	}
}

func updateAreaHandler(svc *area.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		var req AreaRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := area.UpdateInput{Descripcion: req.Descripcion, Activo: req.Activo}
		if req.Nombre != "" {
			in.Nombre = &req.Nombre
		}

		a, err := svc.Update(r.Context(), id, in)
		if err != nil {
			handleAreaError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAreaResponse(a))
	}
}

func deleteAreaHandler(svc *area.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleAreaError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAreaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, area.ErrNombreRequerido):
		writeError(w, http.StatusBadRequest, "nombre_requerido", err.Error())
	case errors.Is(err, area.ErrNombreDuplicado):
		writeError(w, http.StatusConflict, "nombre_duplicado", "an area with that name already exists")
	case errors.Is(err, area.ErrAreaNotFound):
		writeError(w, http.StatusNotFound, "area_not_found", "area does not exist")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
