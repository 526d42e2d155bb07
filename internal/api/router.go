package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinisalud/citas-api/internal/area"
	"github.com/clinisalud/citas-api/internal/auth"
	"github.com/clinisalud/citas-api/internal/cita"
	"github.com/clinisalud/citas-api/internal/dashboard"
	"github.com/clinisalud/citas-api/internal/manual"
	"github.com/clinisalud/citas-api/internal/patient"
	"github.com/clinisalud/citas-api/internal/schedule"
	"github.com/clinisalud/citas-api/internal/staff"
)

type RouterConfig struct {
	Citas     *cita.Service
	Horarios  *schedule.Service
	Pacientes *patient.Service
	Areas     *area.Service
	Staff     *staff.Service
	Dashboard *dashboard.Service
	Manuales  *manual.Service

	Tokens *auth.Manager
	Logger zerolog.Logger

	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := RequireAuth(cfg.Tokens)
	adminOnly := RequireRoles(auth.RolAdministrador)
	adminOrMedico := RequireRoles(auth.RolAdministrador, auth.RolMedico)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", loginHandler(cfg.Staff))
			r.Post("/refresh", refreshHandler(cfg.Staff))
			r.With(requireAuth, adminOnly).Post("/usuarios", createUsuarioHandler(cfg.Staff))
			r.With(requireAuth).Get("/medicos", listMedicosHandler(cfg.Staff))
		})

		r.Route("/pacientes", func(r chi.Router) {
			// Intake and DNI resolution stay public: patients self-register
			// from the kiosk before any staff session exists.
			r.Post("/", registrarPacienteHandler(cfg.Pacientes))
			r.Get("/buscar/{dni}", buscarPacienteHandler(cfg.Pacientes))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", listPacientesHandler(cfg.Pacientes))
				r.Get("/{id}", getPacienteHandler(cfg.Pacientes))
				r.Put("/{id}", actualizarPacienteHandler(cfg.Pacientes))
				r.Get("/{id}/citas", listCitasDePacienteHandler(cfg.Citas))
			})
		})

		r.Post("/dni", dniLookupHandler(cfg.Pacientes))

		r.Route("/areas", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", listAreasHandler(cfg.Areas))
			r.With(adminOnly).Post("/", createAreaHandler(cfg.Areas))
			r.With(adminOnly).Put("/{id}", updateAreaHandler(cfg.Areas))
			r.With(adminOnly).Delete("/{id}", deleteAreaHandler(cfg.Areas))
		})

		r.Route("/citas", func(r chi.Router) {
			r.Post("/", crearCitaHandler(cfg.Citas))
			r.Get("/disponibilidad", disponibilidadHandler(cfg.Citas))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", listCitasHandler(cfg.Citas))
				r.Get("/{id}", getCitaHandler(cfg.Citas))
				r.Put("/{id}", updateCitaHandler(cfg.Citas))
				r.With(adminOnly).Delete("/{id}", deleteCitaHandler(cfg.Citas))
				r.Get("/{id}/historial", historialCitaHandler(cfg.Citas))
			})
		})

		r.Route("/horarios", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", listHorariosHandler(cfg.Horarios))
			r.Get("/resumen-mes", resumenMesHandler(cfg.Horarios))
			r.With(adminOrMedico).Post("/", crearHorariosHandler(cfg.Horarios))
			r.With(adminOrMedico).Delete("/", deleteMesHandler(cfg.Horarios))
			r.With(adminOrMedico).Delete("/{id}", deleteHorarioHandler(cfg.Horarios))
		})

		r.Route("/manuales", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", listManualesHandler(cfg.Manuales))
			r.Get("/rol/{rol_id}", listManualesPorRolHandler(cfg.Manuales))
			r.With(adminOnly).Post("/", createManualHandler(cfg.Manuales))
			r.With(adminOnly).Put("/{id}", updateManualHandler(cfg.Manuales))
			r.With(adminOnly).Delete("/{id}", deleteManualHandler(cfg.Manuales))
		})

		r.With(requireAuth).Get("/dashboard", dashboardHandler(cfg.Dashboard))
	})

	return r
}
