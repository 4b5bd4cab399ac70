package httpapi

import (
	"context"
	"sync"
	"time"

	"charitychain/internal/domain"
)

// In-memory doubles for the repository interfaces. They mirror the store
// guarantees the handlers rely on: atomic creates and a duplicate-email
// rejection enforced inside the store, not by the caller.

type memUsers struct {
	mu    sync.Mutex
	users []*domain.User
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.CreatedAt = time.Now()
	cp := *u
	m.users = append(m.users, &cp)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memDonations struct {
	mu    sync.Mutex
	items []domain.Donation
	users *memUsers
}

func (m *memDonations) Create(_ context.Context, d *domain.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.CreatedAt = time.Now()
	m.items = append(m.items, *d)
	return nil
}

func (m *memDonations) ListAll(ctx context.Context) ([]domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Donation, 0, len(m.items))
	for _, d := range m.items {
		if owner, err := m.users.GetByID(ctx, d.UserID); err == nil {
			ref := owner.OwnerRef()
			d.Owner = &ref
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memDonations) ListByOwner(_ context.Context, userID string) ([]domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Donation
	for _, d := range m.items {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

type memDistributions struct {
	mu    sync.Mutex
	items []domain.Distribution
	users *memUsers
}

func (m *memDistributions) Create(_ context.Context, d *domain.Distribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.CreatedAt = time.Now()
	m.items = append(m.items, *d)
	return nil
}

func (m *memDistributions) ListAll(ctx context.Context) ([]domain.Distribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Distribution, 0, len(m.items))
	for _, d := range m.items {
		if owner, err := m.users.GetByID(ctx, d.NgoID); err == nil {
			ref := owner.OwnerRef()
			d.Owner = &ref
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memDistributions) ListByOwner(_ context.Context, ngoID string) ([]domain.Distribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Distribution
	for _, d := range m.items {
		if d.NgoID == ngoID {
			out = append(out, d)
		}
	}
	return out, nil
}
