package domain

import (
	"fmt"
	"strings"
	"time"
)

// Distribution is an NGO's disbursement record. Structurally parallel to
// Donation but kept as a distinct type: the owning role and required field
// set differ and must not be interchangeable.
type Distribution struct {
	ID          string
	NgoID       string
	CID         string
	Location    string
	Amount      float64
	Description string
	CreatedAt   time.Time

	// Owner is populated by global listings that expand the owner reference.
	Owner *OwnerRef
}

// Validate checks the required fields before persistence.
func (d *Distribution) Validate() error {
	if strings.TrimSpace(d.CID) == "" {
		return fmt.Errorf("%w: cid is required", ErrValidation)
	}
	if strings.TrimSpace(d.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrValidation)
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if d.Amount < 0 {
		return fmt.Errorf("%w: amount must be non-negative", ErrValidation)
	}
	return nil
}
