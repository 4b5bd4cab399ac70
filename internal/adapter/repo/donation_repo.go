package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"charitychain/internal/domain"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(pool *pgxpool.Pool) *DonationRepositoryPG {
	return &DonationRepositoryPG{pool: pool}
}

// Create inserts a new donation record.
func (r *DonationRepositoryPG) Create(ctx context.Context, donation *domain.Donation) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO donations (id, user_id, cid, amount, note)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at;
`, donation.ID, donation.UserID, donation.CID, donation.Amount, donation.Note)
	return row.Scan(&donation.CreatedAt)
}

// ListAll returns every donation with the owner reference expanded to the
// public projection. The join only ever selects name and email; the password
// hash cannot leak through a listing.
func (r *DonationRepositoryPG) ListAll(ctx context.Context) ([]domain.Donation, error) {
	rows, err := r.pool.Query(ctx, `
SELECT d.id, d.user_id, d.cid, d.amount, d.note, d.created_at, u.name, u.email
FROM donations d
JOIN users u ON u.id = d.user_id
ORDER BY d.created_at DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		var d domain.Donation
		var owner domain.OwnerRef
		if err := rows.Scan(&d.ID, &d.UserID, &d.CID, &d.Amount, &d.Note, &d.CreatedAt, &owner.Name, &owner.Email); err != nil {
			return nil, err
		}
		owner.ID = d.UserID
		d.Owner = &owner
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByOwner returns the donations created by a single account.
func (r *DonationRepositoryPG) ListByOwner(ctx context.Context, userID string) ([]domain.Donation, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, cid, amount, note, created_at
FROM donations
WHERE user_id = $1
ORDER BY created_at DESC;
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.UserID, &d.CID, &d.Amount, &d.Note, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
