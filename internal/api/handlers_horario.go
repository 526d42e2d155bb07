package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/clinisalud/citas-api/internal/metrics"
	"github.com/clinisalud/citas-api/internal/schedule"
)

const (
	defaultCuposManana = 5
	defaultCuposTarde  = 7
)

// crearHorariosHandler accepts three body shapes: a single slot object, a
// list of slot objects, or a monthly template. The shape is resolved once
// here and dispatched to the matching service operation.
func crearHorariosHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not read body")
			return
		}

		payload, err := resolveHorarioPayload(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
			return
		}

		switch payload.Kind {
		case horarioPayloadMonthly:
			handleMonthlyGenerate(w, r, svc, payload.Monthly)
		case horarioPayloadBatch:
			handleBatchUpsert(w, r, svc, payload.Batch)
		default:
			handleSingleUpsert(w, r, svc, payload.Single)
		}
	}
}

func handleMonthlyGenerate(w http.ResponseWriter, r *http.Request, svc *schedule.Service, req *HorarioMensualRequest) {
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields", err.Error())
		return
	}

	turnos := make(map[schedule.Turno]int)
	for nombre, cfg := range req.Turnos {
		if !cfg.Activo {
			continue
		}
		var turno schedule.Turno
		cupos := 0
		switch nombre {
		case "manana", "M":
			turno, cupos = schedule.TurnoManana, defaultCuposManana
		case "tarde", "T":
			turno, cupos = schedule.TurnoTarde, defaultCuposTarde
		default:
			writeError(w, http.StatusBadRequest, "turno_invalido", "turnos keys must be 'manana' or 'tarde'")
			return
		}
		if cfg.Cupos != nil {
			cupos = *cfg.Cupos
		}
		turnos[turno] = cupos
	}

	result, err := svc.GenerateMonth(r.Context(), schedule.GenerateMonthInput{
		MedicoID: req.MedicoID,
		AreaID:   req.AreaID,
		Year:     req.Anio,
		Month:    time.Month(req.Mes),
		Weekdays: req.DiasSemana,
		Turnos:   turnos,
	})
	if err != nil {
		handleHorarioError(w, err)
		return
	}

	metrics.RecordSlotsCreated(len(result.Creados))
	writeJSON(w, http.StatusCreated, GenerarHorariosResponse{
		Creados:      horarioResponses(result.Creados),
		Actualizados: horarioResponses(result.Actualizados),
	})
}

// handleBatchUpsert applies the whole list in one service call, so a
// failure on any item rolls back the ones already processed.
func handleBatchUpsert(w http.ResponseWriter, r *http.Request, svc *schedule.Service, batch []HorarioSimpleRequest) {
	items := make([]schedule.SlotInput, 0, len(batch))
	for i := range batch {
		if err := batch[i].validate(); err != nil {
			writeError(w, http.StatusBadRequest, "missing_fields", err.Error())
			return
		}
		items = append(items, slotInput(&batch[i]))
	}

	result, err := svc.UpsertBatch(r.Context(), items)
	if err != nil {
		handleHorarioError(w, err)
		return
	}

	metrics.RecordSlotsCreated(len(result.Creados))
	writeJSON(w, http.StatusCreated, GenerarHorariosResponse{
		Creados:      horarioResponses(result.Creados),
		Actualizados: horarioResponses(result.Actualizados),
	})
}

func handleSingleUpsert(w http.ResponseWriter, r *http.Request, svc *schedule.Service, req *HorarioSimpleRequest) {
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields", err.Error())
		return
	}

	in := slotInput(req)
	h, created, err := svc.UpsertSingle(r.Context(), in.MedicoID, in.AreaID, in.Fecha, in.Turno, in.Cupos)
	if err != nil {
		handleHorarioError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		metrics.RecordSlotsCreated(1)
		status = http.StatusCreated
	}
	writeJSON(w, status, newHorarioResponse(h))
}

func slotInput(req *HorarioSimpleRequest) schedule.SlotInput {
	turno := schedule.Turno(req.Turno)
	cupos := defaultCuposManana
	if turno == schedule.TurnoTarde {
		cupos = defaultCuposTarde
	}
	if req.Cupos != nil {
		cupos = *req.Cupos
	}
	return schedule.SlotInput{
		MedicoID: req.MedicoID,
		AreaID:   req.AreaID,
		Fecha:    req.Fecha.Time,
		Turno:    turno,
		Cupos:    cupos,
	}
}

func horarioResponses(horarios []schedule.Horario) []HorarioResponse {
	resp := make([]HorarioResponse, 0, len(horarios))
	for i := range horarios {
		resp = append(resp, newHorarioResponse(&horarios[i]))
	}
	return resp
}

// listHorariosHandler filters by medico, area, turno, a single fecha or a
// whole mes (YYYY-MM), and pages the result.
func listHorariosHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fecha, err := queryDate(r, "fecha")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		desde, hasta, err := queryMonth(r, "mes")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		if fecha != nil {
			// fecha wins when both are given.
			desde, hasta = nil, nil
		}

		f := schedule.ListFilter{
			MedicoID:   queryInt64(r, "medico_id"),
			AreaID:     queryInt64(r, "area_id"),
			Fecha:      fecha,
			DesdeFecha: desde,
			HastaFecha: hasta,
		}
		if raw := queryString(r, "turno"); raw != nil {
			turno := schedule.Turno(*raw)
			f.Turno = &turno
		}

		page, perPage := pageParams(r)
		horarios, total, err := svc.List(r.Context(), f, page, perPage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		data := make([]HorarioResponse, 0, len(horarios))
		for i := range horarios {
			data = append(data, newHorarioConCuposResponse(&horarios[i]))
		}
		writeJSON(w, http.StatusOK, newPageResponse(total, page, perPage, data))
	}
}

func resumenMesHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		medicoID := queryInt64(r, "medico_id")
		anio := queryInt(r, "anio", 0)
		mes := queryInt(r, "mes", 0)
		if medicoID == nil || anio == 0 || mes < 1 || mes > 12 {
			writeError(w, http.StatusBadRequest, "missing_fields", "medico_id, anio and mes are required")
			return
		}

		dias, err := svc.MonthSummary(r.Context(), *medicoID, anio, time.Month(mes))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]DiaResumenResponse, 0, len(dias))
		for i := range dias {
			resp = append(resp, newDiaResumenResponse(&dias[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteHorarioHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleHorarioError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteMesHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		medicoID := queryInt64(r, "medico_id")
		anio := queryInt(r, "anio", 0)
		mes := queryInt(r, "mes", 0)
		if medicoID == nil || anio == 0 || mes < 1 || mes > 12 {
			writeError(w, http.StatusBadRequest, "missing_fields", "medico_id, anio and mes are required")
			return
		}

		var turno *schedule.Turno
		if raw := queryString(r, "turno"); raw != nil {
			t := schedule.Turno(*raw)
			turno = &t
		}

		eliminados, err := svc.DeleteMonth(r.Context(), *medicoID, anio, time.Month(mes), turno)
		if err != nil {
			handleHorarioError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"eliminados": eliminados})
	}
}

func handleHorarioError(w http.ResponseWriter, err error) {
	var inUse *schedule.SlotInUseError
	switch {
	case errors.Is(err, schedule.ErrHorarioNotFound):
		writeError(w, http.StatusNotFound, "horario_not_found", "horario does not exist")
	case errors.Is(err, schedule.ErrNoTurnoActivo):
		writeError(w, http.StatusBadRequest, "sin_turnos", err.Error())
	case errors.Is(err, schedule.ErrTurnoInvalido):
		writeError(w, http.StatusBadRequest, "turno_invalido", err.Error())
	case errors.Is(err, schedule.ErrCuposNegativos):
		writeError(w, http.StatusBadRequest, "cupos_invalidos", err.Error())
	case errors.Is(err, schedule.ErrWeekdayInvalido):
		writeError(w, http.StatusBadRequest, "dia_semana_invalido", err.Error())
	case errors.As(err, &inUse):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":         "horario_en_uso",
			"details":       inUse.Error(),
			"citas_activas": inUse.CitasActivas,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
