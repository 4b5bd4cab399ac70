package domain

import "context"

// UserRepository defines access methods for accounts. Create must enforce the
// email uniqueness invariant in the store itself, not via check-then-insert.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	Create(ctx context.Context, donation *Donation) error
	ListAll(ctx context.Context) ([]Donation, error)
	ListByOwner(ctx context.Context, userID string) ([]Donation, error)
}

// DistributionRepository handles distribution persistence.
type DistributionRepository interface {
	Create(ctx context.Context, distribution *Distribution) error
	ListAll(ctx context.Context) ([]Distribution, error)
	ListByOwner(ctx context.Context, ngoID string) ([]Distribution, error)
}
