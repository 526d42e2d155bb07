package api

import (
	"net/http"

	"github.com/clinisalud/citas-api/internal/dashboard"
)

func dashboardHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resumen, err := svc.Resumen(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, DashboardResponse{
			Stats:         resumen.Stats,
			ProximasCitas: resumen.ProximasCitas,
			CargaPorArea:  resumen.CargaPorArea,
		})
	}
}
