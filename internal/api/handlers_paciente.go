package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinisalud/citas-api/internal/cita"
	"github.com/clinisalud/citas-api/internal/patient"
)

func registrarPacienteHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegistrarPacienteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, isNew, err := svc.RegisterOrUpdate(r.Context(), patient.RegisterInput{
			DNI:              req.DNI,
			Nombres:          req.Nombres,
			ApellidoPaterno:  req.ApellidoPaterno,
			ApellidoMaterno:  req.ApellidoMaterno,
			FechaNacimiento:  req.FechaNacimiento.Time,
			Sexo:             req.Sexo,
			EstadoCivil:      req.EstadoCivil,
			GradoInstruccion: req.GradoInstruccion,
			Religion:         req.Religion,
			Procedencia:      req.Procedencia,
			Ocupacion:        req.Ocupacion,
			Telefono:         req.Telefono,
			Email:            req.Email,
			Direccion:        req.Direccion,
			Seguro:           req.Seguro,
			NumeroSeguro:     req.NumeroSeguro,
		})
		if err != nil {
			handlePacienteError(w, err)
			return
		}

		status := http.StatusOK
		if isNew {
			status = http.StatusCreated
		}
		writeJSON(w, status, newPacienteResponse(p, time.Now()))
	}
}

func actualizarPacienteHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		var req ActualizarPacienteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := patient.UpdateInput{
			Nombres:          req.Nombres,
			ApellidoPaterno:  req.ApellidoPaterno,
			ApellidoMaterno:  req.ApellidoMaterno,
			Sexo:             req.Sexo,
			EstadoCivil:      req.EstadoCivil,
			GradoInstruccion: req.GradoInstruccion,
			Religion:         req.Religion,
			Procedencia:      req.Procedencia,
			Ocupacion:        req.Ocupacion,
			Telefono:         req.Telefono,
			Email:            req.Email,
			Direccion:        req.Direccion,
			Seguro:           req.Seguro,
			NumeroSeguro:     req.NumeroSeguro,
		}
		if req.FechaNacimiento != nil {
			in.FechaNacimiento = &req.FechaNacimiento.Time
		}

		p, err := svc.Update(r.Context(), id, in)
		if err != nil {
			handlePacienteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newPacienteResponse(p, time.Now()))
	}
}

func getPacienteHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			handlePacienteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newPacienteResponse(p, time.Now()))
	}
}

func listPacientesHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, perPage := pageParams(r)
		search := r.URL.Query().Get("buscar")

		pacientes, total, err := svc.List(r.Context(), search, page, perPage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		now := time.Now()
		data := make([]PacienteResponse, 0, len(pacientes))
		for i := range pacientes {
			data = append(data, newPacienteResponse(&pacientes[i], now))
		}
		writeJSON(w, http.StatusOK, newPageResponse(total, page, perPage, data))
	}
}

// buscarPacienteHandler resolves a DNI locally first, falling back to the
// national registry for unknown patients so the intake form can pre-fill.
func buscarPacienteHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dni := chi.URLParam(r, "dni")

		result, err := svc.FindByDNI(r.Context(), dni)
		if err != nil {
			handlePacienteError(w, err)
			return
		}

		if result.Paciente != nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"registrado": true,
				"paciente":   newPacienteResponse(result.Paciente, time.Now()),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"registrado": false,
			"persona": PersonaRegistroResponse{
				DNI:             result.Registro.DNI,
				Nombres:         result.Registro.Nombres,
				ApellidoPaterno: result.Registro.ApellidoPaterno,
				ApellidoMaterno: result.Registro.ApellidoMaterno,
			},
		})
	}
}

func listCitasDePacienteHandler(svc *cita.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		page, perPage := pageParams(r)
		f := cita.ListFilter{PacienteID: &id}
		if raw := queryString(r, "estado"); raw != nil {
			estado := cita.Estado(*raw)
			f.Estado = &estado
		}

		citas, total, err := svc.List(r.Context(), f, page, perPage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		data := make([]CitaResponse, 0, len(citas))
		for i := range citas {
			data = append(data, newCitaResponse(&citas[i]))
		}
		writeJSON(w, http.StatusOK, newPageResponse(total, page, perPage, data))
	}
}

func dniLookupHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DNIRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		persona, err := svc.LookupRegistry(r.Context(), req.DNI)
		if err != nil {
			handlePacienteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, PersonaRegistroResponse{
			DNI:             persona.DNI,
			Nombres:         persona.Nombres,
			ApellidoPaterno: persona.ApellidoPaterno,
			ApellidoMaterno: persona.ApellidoMaterno,
		})
	}
}

func handlePacienteError(w http.ResponseWriter, err error) {
	var required *patient.RequiredFieldError
	switch {
	case errors.Is(err, patient.ErrDNIInvalido):
		writeError(w, http.StatusBadRequest, "dni_invalido", err.Error())
	case errors.As(err, &required):
		writeError(w, http.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, patient.ErrPacienteNotFound):
		writeError(w, http.StatusNotFound, "paciente_not_found", "no patient registered with that identifier")
	case errors.Is(err, patient.ErrDNILookupFailed):
		writeError(w, http.StatusBadGateway, "registry_unavailable", "national registry lookup failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
