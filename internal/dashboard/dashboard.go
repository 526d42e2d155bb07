package dashboard

import (
	"context"
	"time"
)

// Stats holds the headline counters for the home panel.
type Stats struct {
	TotalPacientes       int64 `json:"total_pacientes"`
	CitasHoy             int64 `json:"citas_hoy"`
	CitasPendientesHoy   int64 `json:"citas_pendientes_hoy"`
	MedicosActivos       int64 `json:"medicos_activos"`
	CitasPendientesTotal int64 `json:"citas_pendientes_total"`
}

// ProximaCita is one row of the upcoming-appointments widget.
type ProximaCita struct {
	ID             int64      `json:"id"`
	PacienteNombre string     `json:"paciente"`
	DoctorNombre   string     `json:"doctor"`
	Area           string     `json:"area"`
	Fecha          *time.Time `json:"fecha"`
	Turno          *string    `json:"turno"`
	Estado         string     `json:"estado"`
}

// AreaCarga is today's appointment count for one area.
type AreaCarga struct {
	Area       string  `json:"area"`
	Citas      int64   `json:"citas"`
	Porcentaje float64 `json:"porcentaje"`
}

type Repository interface {
	Stats(ctx context.Context, hoy time.Time) (*Stats, error)
	ProximasCitas(ctx context.Context, desde time.Time, limit int) ([]ProximaCita, error)
	CargaPorArea(ctx context.Context, hoy time.Time) ([]AreaCarga, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type Resumen struct {
	Stats         *Stats        `json:"stats"`
	ProximasCitas []ProximaCita `json:"proximas_citas"`
	CargaPorArea  []AreaCarga   `json:"carga_por_area"`
}

// Resumen assembles the full dashboard payload in one call.
func (s *Service) Resumen(ctx context.Context) (*Resumen, error) {
	hoy := s.now().UTC().Truncate(24 * time.Hour)

	stats, err := s.repo.Stats(ctx, hoy)
	if err != nil {
		return nil, err
	}
	proximas, err := s.repo.ProximasCitas(ctx, hoy, 5)
	if err != nil {
		return nil, err
	}
	carga, err := s.repo.CargaPorArea(ctx, hoy)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range carga {
		total += c.Citas
	}
	if total > 0 {
		for i := range carga {
			carga[i].Porcentaje = float64(carga[i].Citas) * 100 / float64(total)
		}
	}

	return &Resumen{Stats: stats, ProximasCitas: proximas, CargaPorArea: carga}, nil
}
