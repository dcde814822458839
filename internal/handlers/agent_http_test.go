package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retiro-api/internal/middleware"
	"retiro-api/internal/models"
	"retiro-api/internal/repository"
	"retiro-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAgentRepo records the last call so tests can assert on the plumbing
// between query string, scope and repository.
type stubAgentRepo struct {
	lastScope  repository.Scope
	lastFilter repository.AgentFilter
	created    []models.Agent
	agents     []models.Agent
}

func (s *stubAgentRepo) List(ctx context.Context, scope repository.Scope, f repository.AgentFilter) ([]models.Agent, error) {
	s.lastScope, s.lastFilter = scope, f
	return s.agents, nil
}

func (s *stubAgentRepo) Get(ctx context.Context, scope repository.Scope, id string) (*models.Agent, error) {
	s.lastScope = scope
	for i := range s.agents {
		if s.agents[i].ID == id {
			return &s.agents[i], nil
		}
	}
	return nil, nil
}

func (s *stubAgentRepo) Create(ctx context.Context, a *models.Agent) error {
	s.created = append(s.created, *a)
	return nil
}

func (s *stubAgentRepo) Update(ctx context.Context, scope repository.Scope, a *models.Agent) error {
	s.lastScope = scope
	return nil
}

func (s *stubAgentRepo) Delete(ctx context.Context, scope repository.Scope, id string) error {
	s.lastScope = scope
	return repository.ErrNotFound
}

func (s *stubAgentRepo) DeleteAll(ctx context.Context, scope repository.Scope) (int64, error) {
	s.lastScope = scope
	return int64(len(s.agents)), nil
}

func (s *stubAgentRepo) StatusCounts(ctx context.Context, scope repository.Scope) (repository.StatusCounts, error) {
	s.lastScope = scope
	return repository.StatusCounts{Total: len(s.agents)}, nil
}

func (s *stubAgentRepo) ExistingDNIs(ctx context.Context, dnis []string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (s *stubAgentRepo) BulkInsert(ctx context.Context, agents []models.Agent) (int64, error) {
	s.created = append(s.created, agents...)
	return int64(len(agents)), nil
}

func (s *stubAgentRepo) BulkInsertAtomic(ctx context.Context, agents []models.Agent) error {
	s.created = append(s.created, agents...)
	return nil
}

func agentRouter(repo *stubAgentRepo) http.Handler {
	h := NewAgentHTTP(repo, service.NewAgentImporter(repo), zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/agents", h.List())
	r.Post("/agents", h.Create())
	r.Post("/agents/bulk", h.Bulk())
	r.Get("/agents/{id}", h.Get())
	r.Delete("/agents/{id}", h.Delete())
	return r
}

func asUser(req *http.Request, uid, role string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.CtxUserID, uid)
	ctx = context.WithValue(ctx, middleware.CtxRole, role)
	return req.WithContext(ctx)
}

func TestListPassesFiltersToRepository(t *testing.T) {
	repo := &stubAgentRepo{}
	srv := agentRouter(repo)

	req := asUser(httptest.NewRequest(http.MethodGet,
		"/agents?status=vencido&ministry=Salud&dni=301&limit=50&offset=10", nil),
		"u1", models.RoleUser)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vencido", repo.lastFilter.StatusCode)
	assert.Equal(t, "Salud", repo.lastFilter.Ministry)
	assert.Equal(t, "301", repo.lastFilter.DNI)
	assert.Equal(t, 50, repo.lastFilter.Limit)
	assert.Equal(t, 10, repo.lastFilter.Offset)
}

func TestListSurnameAliasFiltersFullName(t *testing.T) {
	repo := &stubAgentRepo{}
	srv := agentRouter(repo)

	req := asUser(httptest.NewRequest(http.MethodGet, "/agents?surname=Lopez", nil),
		"u1", models.RoleUser)
	srv.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "Lopez", repo.lastFilter.FullName)
}

func TestListScopeByRole(t *testing.T) {
	repo := &stubAgentRepo{}
	srv := agentRouter(repo)

	req := asUser(httptest.NewRequest(http.MethodGet, "/agents", nil), "u1", models.RoleUser)
	srv.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, repo.lastScope.All)
	assert.Equal(t, "u1", repo.lastScope.UserID)

	req = asUser(httptest.NewRequest(http.MethodGet, "/agents", nil), "a1", models.RoleAdmin)
	srv.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, repo.lastScope.All)
}

func TestListEmptyResultIsJSONArray(t *testing.T) {
	srv := agentRouter(&stubAgentRepo{})

	req := asUser(httptest.NewRequest(http.MethodGet, "/agents", nil), "u1", models.RoleUser)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCreateAcceptsAliasKeysAndGeneratesID(t *testing.T) {
	repo := &stubAgentRepo{}
	srv := agentRouter(repo)

	body := `{"fullName": "Ana Lopez", "birthDate": "1960-03-01", "dni": "30111222"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/agents", strings.NewReader(body)),
		"admin-1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.created, 1)
	a := repo.created[0]
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "admin-1", a.UserID)
	assert.Equal(t, "Ana Lopez", a.FullName)
	require.NotNil(t, a.BirthDate)
	assert.Equal(t, "1960-03-01", a.BirthDate.String())
}

func TestCreateRejectsBadDate(t *testing.T) {
	srv := agentRouter(&stubAgentRepo{})

	body := `{"full_name": "X", "birth_date": "01/03/1960"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/agents", strings.NewReader(body)),
		"admin-1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "birth_date")
}

func TestGetNotFound(t *testing.T) {
	srv := agentRouter(&stubAgentRepo{})

	req := asUser(httptest.NewRequest(http.MethodGet, "/agents/nope", nil), "u1", models.RoleUser)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Agente no encontrado")
}

func TestDeleteMapsRepoNotFound(t *testing.T) {
	srv := agentRouter(&stubAgentRepo{})

	req := asUser(httptest.NewRequest(http.MethodDelete, "/agents/nope", nil),
		"admin-1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkResponseShape(t *testing.T) {
	repo := &stubAgentRepo{}
	srv := agentRouter(repo)

	body := `[
		{"fullName": "Ana Lopez", "dni": "30111222"},
		{"full_name": "Dup", "dni": "30111222"},
		{"full_name": "Sin DNI", "dni": "-"}
	]`
	req := asUser(httptest.NewRequest(http.MethodPost, "/agents/bulk", strings.NewReader(body)),
		"admin-1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var out struct {
		Message string `json:"message"`
		Created int    `json:"created"`
		Skipped int    `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "1 agentes creados", out.Message)
	assert.Equal(t, 1, out.Created)
	assert.Equal(t, 2, out.Skipped)
}

func TestBulkRejectsNonArrayBody(t *testing.T) {
	srv := agentRouter(&stubAgentRepo{})

	req := asUser(httptest.NewRequest(http.MethodPost, "/agents/bulk",
		strings.NewReader(`{"fullName": "Ana"}`)), "admin-1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "array")
}
