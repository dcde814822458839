package repository

import (
	"context"
	"errors"

	"retiro-api/internal/models"
)

// ErrNotFound is returned by mutations targeting a row outside the caller's
// scope or missing entirely.
var ErrNotFound = errors.New("not found")

// Scope bounds agent queries to what the caller may see: admins get the whole
// registry, everyone else only their own records.
type Scope struct {
	UserID string
	All    bool
}

func ScopeFor(userID, role string) Scope {
	return Scope{UserID: userID, All: role == models.RoleAdmin}
}

type StatusCounts struct {
	Total     int `json:"total"`
	Vencido   int `json:"vencido"`
	Proximo   int `json:"proximo"`
	Inminente int `json:"inminente"`
}

type AgentRepository interface {
	List(ctx context.Context, scope Scope, f AgentFilter) ([]models.Agent, error)
	Get(ctx context.Context, scope Scope, id string) (*models.Agent, error)
	Create(ctx context.Context, a *models.Agent) error
	Update(ctx context.Context, scope Scope, a *models.Agent) error
	Delete(ctx context.Context, scope Scope, id string) error
	DeleteAll(ctx context.Context, scope Scope) (int64, error)
	StatusCounts(ctx context.Context, scope Scope) (StatusCounts, error)

	// ExistingDNIs returns which of the given DNIs are already registered.
	ExistingDNIs(ctx context.Context, dnis []string) (map[string]struct{}, error)
	// BulkInsert inserts in chunks, skipping DNI conflicts, and returns the
	// number of rows actually written.
	BulkInsert(ctx context.Context, agents []models.Agent) (int64, error)
	// BulkInsertAtomic inserts everything in one transaction; any failure
	// rolls back the whole batch.
	BulkInsertAtomic(ctx context.Context, agents []models.Agent) error
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	// EnsureAdmin creates the admin account or resets its password and flags.
	EnsureAdmin(ctx context.Context, u *models.User) error
}
