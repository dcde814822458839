package handlers

import (
	"net/http"
	"time"

	"retiro-api/internal/export"
	"retiro-api/internal/repository"
	"retiro-api/internal/utils"

	"github.com/rs/zerolog"
)

// ReportsHTTP serves the dashboard counters and the spreadsheet export.
type ReportsHTTP struct {
	agents repository.AgentRepository
	log    zerolog.Logger
}

func NewReportsHTTP(agents repository.AgentRepository, log zerolog.Logger) *ReportsHTTP {
	return &ReportsHTTP{agents: agents, log: log}
}

// GET /agents/stats
// Returns: { total, vencido, proximo, inminente }
func (h *ReportsHTTP) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := h.agents.StatusCounts(r.Context(), scopeFrom(r))
		if err != nil {
			h.log.Error().Err(err).Msg("stats failed")
			utils.Error(w, http.StatusInternalServerError, "Error al obtener estadísticas")
			return
		}
		utils.JSON(w, http.StatusOK, counts)
	}
}

// GET /agents/export
// Re-runs the current filters and streams an .xlsx attachment.
func (h *ReportsHTTP) Export() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agents, err := h.agents.List(r.Context(), scopeFrom(r), parseAgentFilter(r.URL.Query()))
		if err != nil {
			h.log.Error().Err(err).Msg("export query failed")
			utils.Error(w, http.StatusInternalServerError, "Error al exportar")
			return
		}

		f, err := export.Workbook(agents, time.Now())
		if err != nil {
			h.log.Error().Err(err).Msg("export render failed")
			utils.Error(w, http.StatusInternalServerError, "Error al exportar")
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="agentes.xlsx"`)
		if err := f.Write(w); err != nil {
			h.log.Error().Err(err).Msg("export write failed")
		}
	}
}
