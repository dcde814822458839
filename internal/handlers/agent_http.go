package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"retiro-api/internal/dto"
	"retiro-api/internal/middleware"
	"retiro-api/internal/models"
	"retiro-api/internal/repository"
	"retiro-api/internal/service"
	"retiro-api/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AgentHTTP wires the agent registry endpoints to the repository and importer.
type AgentHTTP struct {
	agents   repository.AgentRepository
	importer *service.AgentImporter
	log      zerolog.Logger
}

func NewAgentHTTP(agents repository.AgentRepository, importer *service.AgentImporter, log zerolog.Logger) *AgentHTTP {
	return &AgentHTTP{agents: agents, importer: importer, log: log}
}

// scopeFrom derives the caller's visibility from the auth claims:
// admins see the whole registry, everyone else their own records.
func scopeFrom(r *http.Request) repository.Scope {
	uid, _ := utils.GetString(r.Context(), middleware.CtxUserID)
	role, _ := utils.GetString(r.Context(), middleware.CtxRole)
	return repository.ScopeFor(uid, role)
}

// parseAgentFilter reads the combinable list filters from the query string.
// "surname" is an accepted alias that searches the same full_name column.
func parseAgentFilter(q url.Values) repository.AgentFilter {
	f := repository.AgentFilter{
		StatusCode:      strings.TrimSpace(q.Get("status")),
		FullName:        strings.TrimSpace(q.Get("full_name")),
		DNI:             strings.TrimSpace(q.Get("dni")),
		CUIL:            strings.TrimSpace(q.Get("cuil")),
		AffiliateStatus: strings.TrimSpace(q.Get("affiliate_status")),
		Ministry:        strings.TrimSpace(q.Get("ministry")),
		Agreement:       strings.TrimSpace(q.Get("agreement")),
		Limit:           utils.QueryInt(q, "limit", 0),
		Offset:          utils.QueryInt(q, "offset", 0),
	}
	if f.FullName == "" {
		f.FullName = strings.TrimSpace(q.Get("surname"))
	}
	return f
}

// GET /agents
func (h *AgentHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.agents.List(r.Context(), scopeFrom(r), parseAgentFilter(r.URL.Query()))
		if err != nil {
			h.log.Error().Err(err).Msg("agent list failed")
			utils.Error(w, http.StatusInternalServerError, "Error al obtener agentes")
			return
		}
		if items == nil {
			items = []models.Agent{}
		}
		utils.JSON(w, http.StatusOK, items)
	}
}

// GET /agents/{id}
func (h *AgentHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		a, err := h.agents.Get(r.Context(), scopeFrom(r), id)
		if err != nil {
			h.log.Error().Err(err).Str("id", id).Msg("agent get failed")
			utils.Error(w, http.StatusInternalServerError, "Error al obtener agente")
			return
		}
		if a == nil {
			utils.Error(w, http.StatusNotFound, "Agente no encontrado")
			return
		}
		utils.JSON(w, http.StatusOK, a)
	}
}

// POST /agents
func (h *AgentHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in dto.AgentInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		uid, _ := utils.GetString(r.Context(), middleware.CtxUserID)
		a, err := in.ToAgent(uid)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}

		if err := h.agents.Create(r.Context(), &a); err != nil {
			h.log.Error().Err(err).Msg("agent create failed")
			utils.Error(w, http.StatusInternalServerError, "Error al crear agente")
			return
		}
		utils.JSON(w, http.StatusCreated, a)
	}
}

// PUT/PATCH /agents/{id}
func (h *AgentHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		scope := scopeFrom(r)

		a, err := h.agents.Get(r.Context(), scope, id)
		if err != nil {
			h.log.Error().Err(err).Str("id", id).Msg("agent load failed")
			utils.Error(w, http.StatusInternalServerError, "Error al actualizar agente")
			return
		}
		if a == nil {
			utils.Error(w, http.StatusNotFound, "Agente no encontrado")
			return
		}

		var patch dto.AgentPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := patch.Apply(a); err != nil {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := h.agents.Update(r.Context(), scope, a); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				utils.Error(w, http.StatusNotFound, "Agente no encontrado")
				return
			}
			h.log.Error().Err(err).Str("id", id).Msg("agent update failed")
			utils.Error(w, http.StatusInternalServerError, "Error al actualizar agente")
			return
		}
		utils.JSON(w, http.StatusOK, a)
	}
}

// DELETE /agents/{id}
func (h *AgentHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.agents.Delete(r.Context(), scopeFrom(r), id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				utils.Error(w, http.StatusNotFound, "Agente no encontrado")
				return
			}
			h.log.Error().Err(err).Str("id", id).Msg("agent delete failed")
			utils.Error(w, http.StatusInternalServerError, "Error al eliminar")
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"message": "Agente eliminado"})
	}
}

// POST /agents/bulk
func (h *AgentHTTP) Bulk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var inputs []dto.AgentInput
		if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
			utils.Error(w, http.StatusBadRequest, "Se esperaba un array de agentes")
			return
		}

		uid, _ := utils.GetString(r.Context(), middleware.CtxUserID)
		res, err := h.importer.Bulk(r.Context(), uid, inputs)
		if err != nil {
			h.log.Error().Err(err).Msg("bulk import failed")
			utils.Error(w, http.StatusInternalServerError, "Error al crear agentes masivamente")
			return
		}

		utils.JSON(w, http.StatusCreated, map[string]any{
			"message": fmt.Sprintf("%d agentes creados", res.Created),
			"created": res.Created,
			"skipped": res.Skipped,
			"errors":  res.Errors,
		})
	}
}

// POST /agents/bulk_atomic
func (h *AgentHTTP) BulkAtomic() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var inputs []dto.AgentInput
		if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
			utils.Error(w, http.StatusBadRequest, "Se esperaba un array de agentes")
			return
		}

		uid, _ := utils.GetString(r.Context(), middleware.CtxUserID)
		n, err := h.importer.BulkAtomic(r.Context(), uid, inputs)
		if err != nil {
			h.log.Error().Err(err).Msg("atomic bulk import rolled back")
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusCreated, map[string]any{
			"message": fmt.Sprintf("%d agentes creados", n),
		})
	}
}

// DELETE /agents/delete_all
func (h *AgentHTTP) DeleteAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := h.agents.DeleteAll(r.Context(), scopeFrom(r))
		if err != nil {
			h.log.Error().Err(err).Msg("delete all failed")
			utils.Error(w, http.StatusInternalServerError, "Error al eliminar")
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"deleted": n})
	}
}
