package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"charitychain/internal/domain"
	"charitychain/internal/infra"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// Create inserts a new account. The unique index on email enforces the
// uniqueness invariant under concurrent registrations; a violation surfaces
// as domain.ErrDuplicateEmail.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (id, name, email, password_hash, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at;
`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role)

	if err := row.Scan(&user.CreatedAt); err != nil {
		if infra.IsUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByID fetches an account by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail fetches an account by its normalized email.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
