package domain

import (
	"fmt"
	"strings"
	"time"
)

// Donation is a donor's pledge record. Records are write-once: created via
// the donor-gated endpoint and never updated or deleted afterwards.
type Donation struct {
	ID        string
	UserID    string
	CID       string
	Amount    float64
	Note      string
	CreatedAt time.Time

	// Owner is populated by global listings that expand the owner reference.
	Owner *OwnerRef
}

// Validate checks the required fields before persistence.
func (d *Donation) Validate() error {
	if strings.TrimSpace(d.CID) == "" {
		return fmt.Errorf("%w: cid is required", ErrValidation)
	}
	if d.Amount < 0 {
		return fmt.Errorf("%w: amount must be non-negative", ErrValidation)
	}
	return nil
}
