package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"retiro-api/internal/models"
	"retiro-api/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// bulkChunkSize caps the rows per multi-row INSERT during imports.
const bulkChunkSize = 1000

const agentColumns = `id, user_id, full_name, birth_date, gender, retirement_date, status,
	agreement, law, affiliate_status, ministry, location, branch, cuil, dni, seniority, created_at`

type AgentRepo struct{ db *pgxpool.Pool }

func NewAgentRepo(db *pgxpool.Pool) *AgentRepo { return &AgentRepo{db: db} }

// -----------------------------------------------------------------------------
// Listing with combinable filters, always ordered by full_name ASC
// -----------------------------------------------------------------------------

func (r *AgentRepo) List(ctx context.Context, scope repository.Scope, f repository.AgentFilter) ([]models.Agent, error) {
	whereSQL, args := buildAgentWhere(scope, f)

	sql := `SELECT ` + agentColumns + ` FROM agents ` + whereSQL + ` ORDER BY full_name ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sql += " LIMIT $" + itoa(len(args))
		if f.Offset > 0 {
			args = append(args, f.Offset)
			sql += " OFFSET $" + itoa(len(args))
		}
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AgentRepo) Get(ctx context.Context, scope repository.Scope, id string) (*models.Agent, error) {
	args := []any{id}
	sql := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	if !scope.All {
		args = append(args, scope.UserID)
		sql += ` AND user_id = $2`
	}

	row := r.db.QueryRow(ctx, sql, args...)
	a, err := scanAgent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AgentRepo) Create(ctx context.Context, a *models.Agent) error {
	statusJSON, err := json.Marshal(a.Status)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO agents (id, user_id, full_name, birth_date, gender, retirement_date, status,
			agreement, law, affiliate_status, ministry, location, branch, cuil, dni, seniority)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at`,
		a.ID, a.UserID, a.FullName, datePtr(a.BirthDate), a.Gender, datePtr(a.RetirementDate),
		statusJSON, a.Agreement, a.Law, a.AffiliateStatus, a.Ministry, a.Location, a.Branch,
		a.CUIL, a.DNI, a.Seniority,
	).Scan(&a.CreatedAt)
}

func (r *AgentRepo) Update(ctx context.Context, scope repository.Scope, a *models.Agent) error {
	statusJSON, err := json.Marshal(a.Status)
	if err != nil {
		return err
	}

	args := []any{
		a.FullName, datePtr(a.BirthDate), a.Gender, datePtr(a.RetirementDate), statusJSON,
		a.Agreement, a.Law, a.AffiliateStatus, a.Ministry, a.Location, a.Branch,
		a.CUIL, a.DNI, a.Seniority, a.ID,
	}
	sql := `
		UPDATE agents SET
			full_name=$1, birth_date=$2, gender=$3, retirement_date=$4, status=$5,
			agreement=$6, law=$7, affiliate_status=$8, ministry=$9, location=$10,
			branch=$11, cuil=$12, dni=$13, seniority=$14
		WHERE id=$15`
	if !scope.All {
		args = append(args, scope.UserID)
		sql += ` AND user_id=$16`
	}

	ct, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AgentRepo) Delete(ctx context.Context, scope repository.Scope, id string) error {
	args := []any{id}
	sql := `DELETE FROM agents WHERE id=$1`
	if !scope.All {
		args = append(args, scope.UserID)
		sql += ` AND user_id=$2`
	}
	ct, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AgentRepo) DeleteAll(ctx context.Context, scope repository.Scope) (int64, error) {
	if scope.All {
		ct, err := r.db.Exec(ctx, `DELETE FROM agents`)
		return ct.RowsAffected(), err
	}
	ct, err := r.db.Exec(ctx, `DELETE FROM agents WHERE user_id=$1`, scope.UserID)
	return ct.RowsAffected(), err
}

// -----------------------------------------------------------------------------
// Dashboard counters
// -----------------------------------------------------------------------------

func (r *AgentRepo) StatusCounts(ctx context.Context, scope repository.Scope) (repository.StatusCounts, error) {
	args := []any{}
	where := ""
	if !scope.All {
		args = append(args, scope.UserID)
		where = `WHERE user_id=$1`
	}

	var c repository.StatusCounts
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status->>'code' = 'vencido'),
			COUNT(*) FILTER (WHERE status->>'code' = 'proximo'),
			COUNT(*) FILTER (WHERE status->>'code' = 'inminente')
		FROM agents `+where, args...).
		Scan(&c.Total, &c.Vencido, &c.Proximo, &c.Inminente)
	return c, err
}

// -----------------------------------------------------------------------------
// Bulk import support
// -----------------------------------------------------------------------------

func (r *AgentRepo) ExistingDNIs(ctx context.Context, dnis []string) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(dnis))
	if len(dnis) == 0 {
		return seen, nil
	}
	rows, err := r.db.Query(ctx, `SELECT dni FROM agents WHERE dni = ANY($1)`, dnis)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var dni string
		if err := rows.Scan(&dni); err != nil {
			return nil, err
		}
		seen[dni] = struct{}{}
	}
	return seen, rows.Err()
}

// BulkInsert writes agents in multi-row chunks. A DNI already present (from a
// concurrent import that won the race) is skipped by the conflict clause
// instead of failing the chunk; the return value counts rows actually written.
func (r *AgentRepo) BulkInsert(ctx context.Context, agents []models.Agent) (int64, error) {
	var created int64
	for start := 0; start < len(agents); start += bulkChunkSize {
		end := start + bulkChunkSize
		if end > len(agents) {
			end = len(agents)
		}
		n, err := r.insertChunk(ctx, agents[start:end])
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

func (r *AgentRepo) insertChunk(ctx context.Context, chunk []models.Agent) (int64, error) {
	const cols = 16
	var sb strings.Builder
	sb.WriteString(`INSERT INTO agents (id, user_id, full_name, birth_date, gender, retirement_date, status,
		agreement, law, affiliate_status, ministry, location, branch, cuil, dni, seniority) VALUES `)

	args := make([]any, 0, len(chunk)*cols)
	for i, a := range chunk {
		statusJSON, err := json.Marshal(a.Status)
		if err != nil {
			return 0, fmt.Errorf("agent %s: %w", a.ID, err)
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i * cols
		sb.WriteByte('(')
		for j := 1; j <= cols; j++ {
			if j > 1 {
				sb.WriteByte(',')
			}
			sb.WriteString("$" + itoa(base+j))
		}
		sb.WriteByte(')')
		args = append(args,
			a.ID, a.UserID, a.FullName, datePtr(a.BirthDate), a.Gender, datePtr(a.RetirementDate),
			statusJSON, a.Agreement, a.Law, a.AffiliateStatus, a.Ministry, a.Location, a.Branch,
			a.CUIL, a.DNI, a.Seniority)
	}
	sb.WriteString(` ON CONFLICT (dni) WHERE dni <> '' AND dni <> '-' DO NOTHING`)

	ct, err := r.db.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// BulkInsertAtomic is the all-or-nothing variant: one transaction, row by row,
// and the first failure rolls everything back.
func (r *AgentRepo) BulkInsertAtomic(ctx context.Context, agents []models.Agent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, a := range agents {
		statusJSON, err := json.Marshal(a.Status)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO agents (id, user_id, full_name, birth_date, gender, retirement_date, status,
				agreement, law, affiliate_status, ministry, location, branch, cuil, dni, seniority)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			a.ID, a.UserID, a.FullName, datePtr(a.BirthDate), a.Gender, datePtr(a.RetirementDate),
			statusJSON, a.Agreement, a.Law, a.AffiliateStatus, a.Ministry, a.Location, a.Branch,
			a.CUIL, a.DNI, a.Seniority); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// buildAgentWhere composes the WHERE clause for scope + combinable filters.
func buildAgentWhere(scope repository.Scope, f repository.AgentFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if !scope.All {
		args = append(args, scope.UserID)
		clauses = append(clauses, "user_id = $"+itoa(len(args)))
	}
	if s := strings.TrimSpace(f.StatusCode); s != "" {
		args = append(args, s)
		clauses = append(clauses, "status->>'code' = $"+itoa(len(args)))
	}

	like := func(col, v string) {
		if s := strings.TrimSpace(v); s != "" {
			args = append(args, "%"+s+"%")
			clauses = append(clauses, col+" ILIKE $"+itoa(len(args)))
		}
	}
	like("full_name", f.FullName)
	like("dni", f.DNI)
	like("cuil", f.CUIL)
	like("affiliate_status", f.AffiliateStatus)
	like("ministry", f.Ministry)
	like("agreement", f.Agreement)

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanAgent(row pgx.Row) (models.Agent, error) {
	var a models.Agent
	var birth, retirement *time.Time
	var statusJSON []byte
	if err := row.Scan(
		&a.ID, &a.UserID, &a.FullName, &birth, &a.Gender, &retirement, &statusJSON,
		&a.Agreement, &a.Law, &a.AffiliateStatus, &a.Ministry, &a.Location, &a.Branch,
		&a.CUIL, &a.DNI, &a.Seniority, &a.CreatedAt,
	); err != nil {
		return models.Agent{}, err
	}
	if birth != nil {
		a.BirthDate = models.NewDate(*birth)
	}
	if retirement != nil {
		a.RetirementDate = models.NewDate(*retirement)
	}
	if len(statusJSON) > 0 {
		if err := json.Unmarshal(statusJSON, &a.Status); err != nil {
			return models.Agent{}, err
		}
	}
	return a, nil
}

func datePtr(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

// small helper to avoid fmt for performance-sensitive path.
func itoa(i int) string { return strconv.Itoa(i) }
