package postgres

import (
	"context"

	"retiro-api/internal/models"
	"retiro-api/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct{ db *pgxpool.Pool }

func NewUserRepo(db *pgxpool.Pool) repository.UserRepository { return &UserRepo{db: db} }

const userColumns = `id, username, email, password_h, first_name, last_name, role, active, staff, superuser, created_at`

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_h, first_name, last_name, role, active, staff, superuser)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.Role, u.Active, u.Staff, u.Superuser).
		Scan(&u.CreatedAt)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *UserRepo) getOne(ctx context.Context, sql string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, sql, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.Active, &u.Staff, &u.Superuser, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	ct, err := r.db.Exec(ctx, `UPDATE users SET active=$1 WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureAdmin upserts the bootstrap admin account, resetting password and
// flags when the username already exists.
func (r *UserRepo) EnsureAdmin(ctx context.Context, u *models.User) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_h, first_name, last_name, role, active, staff, superuser)
		VALUES ($1,$2,$3,$4,$5,$6,'admin',TRUE,TRUE,TRUE)
		ON CONFLICT (username) DO UPDATE SET
			email=EXCLUDED.email, password_h=EXCLUDED.password_h,
			role='admin', active=TRUE, staff=TRUE, superuser=TRUE
		RETURNING id, created_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName).
		Scan(&u.ID, &u.CreatedAt)
}
