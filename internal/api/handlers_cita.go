package api

import (
	"errors"
	"net/http"

	"github.com/clinisalud/citas-api/internal/auth"
	"github.com/clinisalud/citas-api/internal/cita"
	"github.com/clinisalud/citas-api/internal/metrics"
	redisclient "github.com/clinisalud/citas-api/internal/redis"
	"github.com/clinisalud/citas-api/internal/schedule"
)

func crearCitaHandler(svc *cita.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CrearCitaRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.HorarioID <= 0 || req.PacienteID <= 0 {
			writeError(w, http.StatusBadRequest, "missing_fields", "horario_id and paciente_id are required")
			return
		}

		result, err := svc.Admit(r.Context(), cita.AdmitInput{
			HorarioID:           req.HorarioID,
			PacienteID:          req.PacienteID,
			Fecha:               req.Fecha.Time,
			Sintomas:            req.Sintomas,
			DNIAcompanante:      req.DNIAcompanante,
			NombreAcompanante:   req.NombreAcompanante,
			TelefonoAcompanante: req.TelefonoAcompanante,
			DatosAdicionales:    req.DatosAdicionales,
		})
		if err != nil {
			handleAdmitError(w, err)
			return
		}

		metrics.RecordAdmission()
		writeJSON(w, http.StatusCreated, AdmisionResponse{
			Cita:           newCitaResponse(&cita.CitaDetalle{Cita: *result.Cita}),
			CuposRestantes: result.CuposRestantes,
		})
	}
}

func handleAdmitError(w http.ResponseWriter, err error) {
	var capacity *cita.CapacityError
	switch {
	case errors.Is(err, cita.ErrSintomasVacios):
		writeError(w, http.StatusBadRequest, "sintomas_requeridos", err.Error())
	case errors.Is(err, cita.ErrFechaMismatch):
		writeError(w, http.StatusBadRequest, "fecha_mismatch", "fecha does not match the horario's date")
	case errors.Is(err, schedule.ErrHorarioNotFound):
		writeError(w, http.StatusNotFound, "horario_not_found", "horario does not exist")
	case errors.Is(err, cita.ErrPacienteNotFound):
		writeError(w, http.StatusNotFound, "paciente_not_found", "paciente does not exist")
	case errors.As(err, &capacity):
		metrics.RecordRejection("sin_cupos")
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":          "sin_cupos",
			"details":        capacity.Error(),
			"cupos_totales":  capacity.CuposTotales,
			"cupos_ocupados": capacity.CuposOcupados,
		})
	case errors.Is(err, cita.ErrSlotBeingBooked), errors.Is(err, redisclient.ErrLockNotAcquired):
		metrics.RecordRejection("slot_ocupado")
		writeError(w, http.StatusConflict, "slot_being_booked", "horario is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// disponibilidadHandler is the booking UI's pre-submit capacity check.
// Advisory only: admission re-derives the count under the slot row lock.
func disponibilidadHandler(svc *cita.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		horarioID := queryInt64(r, "horario_id")
		if horarioID == nil {
			writeError(w, http.StatusBadRequest, "missing_fields", "horario_id is required")
			return
		}

		disp, err := svc.AvailableCapacity(r.Context(), *horarioID)
		if err != nil {
			handleAdmitError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{
			"cupos_totales":     disp.CuposTotales,
			"cupos_ocupados":    disp.CuposOcupados,
			"cupos_disponibles": disp.CuposDisponibles,
		})
	}
}

func listCitasHandler(svc *cita.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, perPage := pageParams(r)

		fecha, err := queryDate(r, "fecha")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		fechaRegistro, err := queryDate(r, "fecha_registro")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		f := cita.ListFilter{
			Fecha:         fecha,
			FechaRegistro: fechaRegistro,
			DoctorID:      queryInt64(r, "doctor_id"),
			AreaID:        queryInt64(r, "area_id"),
			AreaNombre:    queryString(r, "area"),
			PacienteDNI:   queryString(r, "dni"),
			PacienteID:    queryInt64(r, "paciente_id"),
		}
		if raw := queryString(r, "estado"); raw != nil {
			estado := cita.Estado(*raw)
			f.Estado = &estado
		}
		if raw := queryString(r, "turno"); raw != nil {
			turno := schedule.Turno(*raw)
			f.Turno = &turno
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

func getCitaHandler(svc *cita.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			handleCitaError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCitaResponse(detail))
	}
}

func updateCitaHandler(svc *cita.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		var req ActualizarCitaRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := cita.UpdateInput{
			DoctorID:            req.DoctorID,
			Area:                req.Area,
			Sintomas:            req.Sintomas,
			DNIAcompanante:      req.DNIAcompanante,
			NombreAcompanante:   req.NombreAcompanante,
			TelefonoAcompanante: req.TelefonoAcompanante,
			DatosAdicionales:    req.DatosAdicionales,
			Comentario:          req.Comentario,
		}
		if req.Estado != nil {
			estado := cita.Estado(*req.Estado)
			in.Estado = &estado
		}

		var actor *cita.Actor
		if identity := auth.IdentityFromContext(r.Context()); identity != nil {
			actor = &cita.Actor{UsuarioID: identity.UsuarioID, IPAddress: clientIP(r)}
		}

		detail, err := svc.Update(r.Context(), id, in, actor)
		if err != nil {
			handleCitaError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCitaResponse(detail))
	}
}

func deleteCitaHandler(svc *cita.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleCitaError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func historialCitaHandler(svc *cita.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		historial, err := svc.Historial(r.Context(), id)
		if err != nil {
			handleCitaError(w, err)
			return
		}

		resp := make([]HistorialResponse, 0, len(historial))
		for i := range historial {
			resp = append(resp, newHistorialResponse(&historial[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCitaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cita.ErrCitaNotFound):
		writeError(w, http.StatusNotFound, "cita_not_found", "cita does not exist")
	case errors.Is(err, cita.ErrEstadoInvalido):
		writeError(w, http.StatusBadRequest, "estado_invalido", "estado must be one of pendiente, confirmada, atendida, cancelada, referido")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
