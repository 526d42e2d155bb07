package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/clinisalud/citas-api/internal/area"
	"github.com/clinisalud/citas-api/internal/cita"
	"github.com/clinisalud/citas-api/internal/dashboard"
	"github.com/clinisalud/citas-api/internal/manual"
	"github.com/clinisalud/citas-api/internal/patient"
	"github.com/clinisalud/citas-api/internal/schedule"
	"github.com/clinisalud/citas-api/internal/staff"
)

const dateLayout = "2006-01-02"

// Fecha is a calendar date that marshals as "2006-01-02".
type Fecha struct {
	time.Time
}

func (f Fecha) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Format(dateLayout))
}

func (f *Fecha) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

func fechaPtr(t *time.Time) *Fecha {
	if t == nil {
		return nil
	}
	return &Fecha{*t}
}

// --- auth ---

type LoginRequest struct {
	DNI      string `json:"dni"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Usuario      UsuarioResponse `json:"usuario"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type CreateUsuarioRequest struct {
	DNI              string  `json:"dni"`
	Password         string  `json:"password"`
	Username         *string `json:"username"`
	NombresCompletos *string `json:"nombres_completos"`
	RolID            int     `json:"rol_id"`
}

type UsuarioResponse struct {
	ID               int64   `json:"id"`
	DNI              string  `json:"dni"`
	Username         *string `json:"username"`
	NombresCompletos *string `json:"nombres_completos"`
	RolID            int     `json:"rol_id"`
	Activo           bool    `json:"activo"`
}

func newUsuarioResponse(u *staff.Usuario) UsuarioResponse {
	return UsuarioResponse{
		ID:               u.ID,
		DNI:              u.DNI,
		Username:         u.Username,
		NombresCompletos: u.NombresCompletos,
		RolID:            u.RolID,
		Activo:           u.Activo,
	}
}

// --- pacientes ---

type RegistrarPacienteRequest struct {
	DNI              string  `json:"dni"`
	Nombres          string  `json:"nombres"`
	ApellidoPaterno  string  `json:"apellido_paterno"`
	ApellidoMaterno  string  `json:"apellido_materno"`
	FechaNacimiento  Fecha   `json:"fecha_nacimiento"`
	Sexo             string  `json:"sexo"`
	EstadoCivil      string  `json:"estado_civil"`
	GradoInstruccion *string `json:"grado_instruccion"`
	Religion         *string `json:"religion"`
	Procedencia      *string `json:"procedencia"`
	Ocupacion        *string `json:"ocupacion"`
	Telefono         *string `json:"telefono"`
	Email            *string `json:"email"`
	Direccion        string  `json:"direccion"`
	Seguro           *string `json:"seguro"`
	NumeroSeguro     *string `json:"numero_seguro"`
}

type ActualizarPacienteRequest struct {
	Nombres          *string `json:"nombres"`
	ApellidoPaterno  *string `json:"apellido_paterno"`
	ApellidoMaterno  *string `json:"apellido_materno"`
	FechaNacimiento  *Fecha  `json:"fecha_nacimiento"`
	Sexo             *string `json:"sexo"`
	EstadoCivil      *string `json:"estado_civil"`
	GradoInstruccion *string `json:"grado_instruccion"`
	Religion         *string `json:"religion"`
	Procedencia      *string `json:"procedencia"`
	Ocupacion        *string `json:"ocupacion"`
	Telefono         *string `json:"telefono"`
	Email            *string `json:"email"`
	Direccion        *string `json:"direccion"`
	Seguro           *string `json:"seguro"`
	NumeroSeguro     *string `json:"numero_seguro"`
}

type PacienteResponse struct {
	ID               int64   `json:"id"`
	DNI              string  `json:"dni"`
	Nombres          string  `json:"nombres"`
	ApellidoPaterno  string  `json:"apellido_paterno"`
	ApellidoMaterno  string  `json:"apellido_materno"`
	FechaNacimiento  Fecha   `json:"fecha_nacimiento"`
	Edad             int     `json:"edad"`
	Sexo             string  `json:"sexo"`
	EstadoCivil      string  `json:"estado_civil"`
	GradoInstruccion *string `json:"grado_instruccion"`
	Religion         *string `json:"religion"`
	Procedencia      *string `json:"procedencia"`
	Ocupacion        *string `json:"ocupacion"`
	Telefono         *string `json:"telefono"`
	Email            *string `json:"email"`
	Direccion        string  `json:"direccion"`
	Seguro           *string `json:"seguro"`
	NumeroSeguro     *string `json:"numero_seguro"`
	FechaRegistro    string  `json:"fecha_registro"`
}

func newPacienteResponse(p *patient.Paciente, now time.Time) PacienteResponse {
	return PacienteResponse{
		ID:               p.ID,
		DNI:              p.DNI,
		Nombres:          p.Nombres,
		ApellidoPaterno:  p.ApellidoPaterno,
		ApellidoMaterno:  p.ApellidoMaterno,
		FechaNacimiento:  Fecha{p.FechaNacimiento},
		Edad:             p.Edad(now),
		Sexo:             p.Sexo,
		EstadoCivil:      p.EstadoCivil,
		GradoInstruccion: p.GradoInstruccion,
		Religion:         p.Religion,
		Procedencia:      p.Procedencia,
		Ocupacion:        p.Ocupacion,
		Telefono:         p.Telefono,
		Email:            p.Email,
		Direccion:        p.Direccion,
		Seguro:           p.Seguro,
		NumeroSeguro:     p.NumeroSeguro,
		FechaRegistro:    p.FechaRegistro.Format(time.RFC3339),
	}
}

type DNIRequest struct {
	DNI string `json:"dni"`
}

type PersonaRegistroResponse struct {
	DNI             string `json:"dni"`
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
}

// --- areas ---

type AreaRequest struct {
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	Activo      *bool   `json:"activo"`
}

type AreaResponse struct {
	ID          int64   `json:"id"`
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	Activo      bool    `json:"activo"`
}

func newAreaResponse(a *area.Area) AreaResponse {
	return AreaResponse{ID: a.ID, Nombre: a.Nombre, Descripcion: a.Descripcion, Activo: a.Activo}
}

// --- citas ---

type CrearCitaRequest struct {
	HorarioID  int64  `json:"horario_id"`
	PacienteID int64  `json:"paciente_id"`
	Fecha      Fecha  `json:"fecha"`
	Sintomas   string `json:"sintomas"`

	DNIAcompanante      *string        `json:"dni_acompanante"`
	NombreAcompanante   *string        `json:"nombre_acompanante"`
	TelefonoAcompanante *string        `json:"telefono_acompanante"`
	DatosAdicionales    map[string]any `json:"datos_adicionales"`
}

type ActualizarCitaRequest struct {
	DoctorID            *int64         `json:"doctor_id"`
	Area                *string        `json:"area"`
	Sintomas            *string        `json:"sintomas"`
	Estado              *string        `json:"estado"`
	DNIAcompanante      *string        `json:"dni_acompanante"`
	NombreAcompanante   *string        `json:"nombre_acompanante"`
	TelefonoAcompanante *string        `json:"telefono_acompanante"`
	DatosAdicionales    map[string]any `json:"datos_adicionales"`
	Comentario          *string        `json:"comentario"`
}

type CitaPacienteResponse struct {
	ID              int64  `json:"id"`
	DNI             string `json:"dni"`
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
}

type CitaResponse struct {
	ID         int64                 `json:"id"`
	PacienteID int64                 `json:"paciente_id"`
	Paciente   *CitaPacienteResponse `json:"paciente,omitempty"`
	HorarioID  *int64                `json:"horario_id"`
	DoctorID   *int64                `json:"doctor_id"`
	AreaID     *int64                `json:"area_id"`
	Area       string                `json:"area"`
	Fecha      *Fecha                `json:"fecha"`
	Turno      *string               `json:"turno"`
	Sintomas   string                `json:"sintomas"`

	DNIAcompanante      *string        `json:"dni_acompanante"`
	NombreAcompanante   *string        `json:"nombre_acompanante"`
	TelefonoAcompanante *string        `json:"telefono_acompanante"`
	DatosAdicionales    map[string]any `json:"datos_adicionales"`

	FechaRegistro string `json:"fecha_registro"`
	Estado        string `json:"estado"`
}

func newCitaResponse(d *cita.CitaDetalle) CitaResponse {
	resp := CitaResponse{
		ID:                  d.ID,
		PacienteID:          d.PacienteID,
		HorarioID:           d.HorarioID,
		DoctorID:            d.DoctorID,
		AreaID:              d.AreaID,
		Area:                d.Area,
		Fecha:               fechaPtr(d.Fecha),
		Sintomas:            d.Sintomas,
		DNIAcompanante:      d.DNIAcompanante,
		NombreAcompanante:   d.NombreAcompanante,
		TelefonoAcompanante: d.TelefonoAcompanante,
		DatosAdicionales:    d.DatosAdicionales,
		FechaRegistro:       d.FechaRegistro.Format(time.RFC3339),
		Estado:              string(d.Estado),
	}
	if d.Paciente != nil {
		resp.Paciente = &CitaPacienteResponse{
			ID:              d.Paciente.ID,
			DNI:             d.Paciente.DNI,
			Nombres:         d.Paciente.Nombres,
			ApellidoPaterno: d.Paciente.ApellidoPaterno,
			ApellidoMaterno: d.Paciente.ApellidoMaterno,
		}
	}
	if d.Horario != nil {
		turno := string(d.Horario.Turno)
		resp.Turno = &turno
	}
	return resp
}

type AdmisionResponse struct {
	Cita           CitaResponse `json:"cita"`
	CuposRestantes int          `json:"cupos_restantes"`
}

type HistorialResponse struct {
	ID             int64   `json:"id"`
	EstadoAnterior *string `json:"estado_anterior"`
	EstadoNuevo    string  `json:"estado_nuevo"`
	Usuario        string  `json:"usuario"`
	FechaCambio    string  `json:"fecha_cambio"`
	Comentario     *string `json:"comentario"`
}

func newHistorialResponse(h *cita.HistorialEstado) HistorialResponse {
	resp := HistorialResponse{
		ID:          h.ID,
		EstadoNuevo: string(h.EstadoNuevo),
		Usuario:     h.UsuarioNombre,
		FechaCambio: h.FechaCambio.Format(time.RFC3339),
		Comentario:  h.Comentario,
	}
	if h.EstadoAnterior != nil {
		s := string(*h.EstadoAnterior)
		resp.EstadoAnterior = &s
	}
	return resp
}

// --- horarios ---

type HorarioResponse struct {
	ID               int64  `json:"id"`
	MedicoID         int64  `json:"medico_id"`
	Medico           string `json:"medico,omitempty"`
	AreaID           int64  `json:"area_id"`
	Area             string `json:"area,omitempty"`
	Fecha            Fecha  `json:"fecha"`
	DiaSemana        int    `json:"dia_semana"`
	Turno            string `json:"turno"`
	TurnoNombre      string `json:"turno_nombre"`
	HoraInicio       string `json:"hora_inicio"`
	HoraFin          string `json:"hora_fin"`
	Cupos            int    `json:"cupos"`
	CuposOcupados    *int   `json:"cupos_ocupados,omitempty"`
	CuposDisponibles *int   `json:"cupos_disponibles,omitempty"`
}

func newHorarioResponse(h *schedule.Horario) HorarioResponse {
	return HorarioResponse{
		ID:          h.ID,
		MedicoID:    h.MedicoID,
		Medico:      h.MedicoNombre,
		AreaID:      h.AreaID,
		Area:        h.AreaNombre,
		Fecha:       Fecha{h.Fecha},
		DiaSemana:   h.DiaSemana,
		Turno:       string(h.Turno),
		TurnoNombre: h.Turno.Nombre(),
		HoraInicio:  h.Turno.HoraInicio(),
		HoraFin:     h.Turno.HoraFin(),
		Cupos:       h.Cupos,
	}
}

func newHorarioConCuposResponse(h *schedule.HorarioConCupos) HorarioResponse {
	resp := newHorarioResponse(&h.Horario)
	ocupados := h.CitasActivas
	disponibles := h.CuposDisponibles()
	resp.CuposOcupados = &ocupados
	resp.CuposDisponibles = &disponibles
	return resp
}

type GenerarHorariosResponse struct {
	Creados      []HorarioResponse `json:"creados"`
	Actualizados []HorarioResponse `json:"actualizados"`
}

// TurnoConfig is one turno's activation in the monthly template.
type TurnoConfig struct {
	Activo bool `json:"activo"`
	Cupos  *int `json:"cupos"`
}

// HorarioMensualRequest describes a whole month of slots via a weekly
// template.
type HorarioMensualRequest struct {
	MedicoID   int64                  `json:"medico_id"`
	AreaID     int64                  `json:"area_id"`
	Anio       int                    `json:"anio"`
	Mes        int                    `json:"mes"`
	DiasSemana []int                  `json:"dias_semana"`
	Turnos     map[string]TurnoConfig `json:"turnos"`
}

// HorarioSimpleRequest creates or updates a single slot.
type HorarioSimpleRequest struct {
	MedicoID int64  `json:"medico_id"`
	AreaID   int64  `json:"area_id"`
	Fecha    Fecha  `json:"fecha"`
	Turno    string `json:"turno"`
	Cupos    *int   `json:"cupos"`
}

func (r *HorarioSimpleRequest) validate() error {
	switch {
	case r.MedicoID <= 0:
		return errors.New("medico_id is required")
	case r.AreaID <= 0:
		return errors.New("area_id is required")
	case r.Fecha.IsZero():
		return errors.New("fecha is required")
	case r.Turno == "":
		return errors.New("turno is required")
	}
	return nil
}

func (r *HorarioMensualRequest) validate() error {
	switch {
	case r.MedicoID <= 0:
		return errors.New("medico_id is required")
	case r.AreaID <= 0:
		return errors.New("area_id is required")
	case r.Anio <= 0:
		return errors.New("anio is required")
	case r.Mes < 1 || r.Mes > 12:
		return errors.New("mes must be in 1..12")
	}
	return nil
}

const (
	horarioPayloadSingle = iota
	horarioPayloadBatch
	horarioPayloadMonthly
)

// horarioPayload is the resolved shape of a POST /api/horarios body.
// Exactly one of the variant fields is set, per Kind.
type horarioPayload struct {
	Kind    int
	Single  *HorarioSimpleRequest
	Batch   []HorarioSimpleRequest
	Monthly *HorarioMensualRequest
}

var errPayloadShape = errors.New("body must be a slot object, a list of slot objects, or a monthly template with a turnos object")

// resolveHorarioPayload classifies the request body into one of the three
// accepted shapes. A JSON array is a batch; an object with a "turnos" key
// is a monthly template; any other object is a single slot.
func resolveHorarioPayload(data []byte) (*horarioPayload, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, errPayloadShape
	}

	if trimmed[0] == '[' {
		var batch []HorarioSimpleRequest
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return nil, errPayloadShape
		}
		return &horarioPayload{Kind: horarioPayloadBatch, Batch: batch}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	if _, ok := fields["turnos"]; ok {
		var monthly HorarioMensualRequest
		if err := json.Unmarshal(data, &monthly); err != nil {
			return nil, err
		}
		return &horarioPayload{Kind: horarioPayloadMonthly, Monthly: &monthly}, nil
	}

	var single HorarioSimpleRequest
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return &horarioPayload{Kind: horarioPayloadSingle, Single: &single}, nil
}

type DiaResumenResponse struct {
	Fecha     Fecha                      `json:"fecha"`
	DiaSemana int                        `json:"dia_semana"`
	Turnos    map[string]HorarioResponse `json:"turnos"`
}

func newDiaResumenResponse(d *schedule.DiaResumen) DiaResumenResponse {
	resp := DiaResumenResponse{
		Fecha:     Fecha{d.Fecha},
		DiaSemana: d.DiaSemana,
		Turnos:    make(map[string]HorarioResponse, len(d.Turnos)),
	}
	for turno, h := range d.Turnos {
		resp.Turnos[string(turno)] = newHorarioResponse(&h)
	}
	return resp
}

// --- manuales ---

type ManualRequest struct {
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	URLDrive    string  `json:"url_drive"`
	RolID       *int    `json:"rol_id"`
}

type ActualizarManualRequest struct {
	Nombre      *string `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	URLDrive    *string `json:"url_drive"`
	RolID       *int    `json:"rol_id"`
	ClearRol    bool    `json:"clear_rol"`
}

type ManualResponse struct {
	ID          int64   `json:"id"`
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	URLDrive    string  `json:"url_drive"`
	RolID       *int    `json:"rol_id"`
	RolNombre   string  `json:"rol_nombre"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func newManualResponse(m *manual.Manual) ManualResponse {
	return ManualResponse{
		ID:          m.ID,
		Nombre:      m.Nombre,
		Descripcion: m.Descripcion,
		URLDrive:    m.URLDrive,
		RolID:       m.RolID,
		RolNombre:   m.RolNombre(),
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   m.UpdatedAt.Format(time.RFC3339),
	}
}

// --- dashboard ---

type DashboardResponse struct {
	Stats         *dashboard.Stats        `json:"stats"`
	ProximasCitas []dashboard.ProximaCita `json:"proximas_citas"`
	CargaPorArea  []dashboard.AreaCarga   `json:"carga_por_area"`
}
