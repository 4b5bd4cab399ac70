package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"charitychain/internal/domain"
)

// DistributionRepositoryPG implements domain.DistributionRepository using PostgreSQL.
type DistributionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDistributionRepository creates a new distribution repo.
func NewDistributionRepository(pool *pgxpool.Pool) *DistributionRepositoryPG {
	return &DistributionRepositoryPG{pool: pool}
}

// Create inserts a new distribution record.
func (r *DistributionRepositoryPG) Create(ctx context.Context, distribution *domain.Distribution) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO distributions (id, ngo_id, cid, location, amount, description)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at;
`, distribution.ID, distribution.NgoID, distribution.CID, distribution.Location, distribution.Amount, distribution.Description)
	return row.Scan(&distribution.CreatedAt)
}

// ListAll returns every distribution with the owner expanded to the public projection.
func (r *DistributionRepositoryPG) ListAll(ctx context.Context) ([]domain.Distribution, error) {
	rows, err := r.pool.Query(ctx, `
SELECT d.id, d.ngo_id, d.cid, d.location, d.amount, d.description, d.created_at, u.name, u.email
FROM distributions d
JOIN users u ON u.id = d.ngo_id
ORDER BY d.created_at DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Distribution
	for rows.Next() {
		var d domain.Distribution
		var owner domain.OwnerRef
		if err := rows.Scan(&d.ID, &d.NgoID, &d.CID, &d.Location, &d.Amount, &d.Description, &d.CreatedAt, &owner.Name, &owner.Email); err != nil {
			return nil, err
		}
		owner.ID = d.NgoID
		d.Owner = &owner
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByOwner returns the distributions created by a single NGO account.
func (r *DistributionRepositoryPG) ListByOwner(ctx context.Context, ngoID string) ([]domain.Distribution, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, ngo_id, cid, location, amount, description, created_at
FROM distributions
WHERE ngo_id = $1
ORDER BY created_at DESC;
`, ngoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Distribution
	for rows.Next() {
		var d domain.Distribution
		if err := rows.Scan(&d.ID, &d.NgoID, &d.CID, &d.Location, &d.Amount, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
