package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"charitychain/internal/domain"
	"charitychain/internal/middleware"
)

type donationRequest struct {
	CID string `json:"cid"`
	// Pointer so an absent amount is distinguishable from an explicit 0;
	// the field is required.
	Amount *float64 `json:"amount"`
	Note   string   `json:"note"`
}

type ownerDTO struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type donationDTO struct {
	ID        string    `json:"_id"`
	User      any       `json:"user"`
	CID       string    `json:"cid"`
	Amount    float64   `json:"amount"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toDonationDTO(d domain.Donation) donationDTO {
	dto := donationDTO{
		ID:        d.ID,
		User:      d.UserID,
		CID:       d.CID,
		Amount:    d.Amount,
		Note:      d.Note,
		CreatedAt: d.CreatedAt,
	}
	if d.Owner != nil {
		dto.User = ownerDTO{ID: d.Owner.ID, Name: d.Owner.Name, Email: d.Owner.Email}
	}
	return dto
}

// DonationsCreate records a new pledge owned by the authenticated donor. The
// donor role gate runs before this handler.
func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	owner := middleware.CurrentUser(r.Context())
	if owner == nil {
		a.error(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	// Validation failures surface as 500 {"error": msg}; existing clients
	// depend on the legacy store-level contract.
	if req.Amount == nil {
		a.error(w, http.StatusInternalServerError, fmt.Errorf("%w: amount is required", domain.ErrValidation).Error())
		return
	}

	donation := &domain.Donation{
		ID:     uuid.NewString(),
		UserID: owner.ID,
		CID:    req.CID,
		Amount: *req.Amount,
		Note:   req.Note,
	}
	if err := donation.Validate(); err != nil {
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := a.Donations.Create(r.Context(), donation); err != nil {
		if !errors.Is(err, context.Canceled) {
			a.Logger.Error().Err(err).Msg("create donation failed")
		}
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.json(w, http.StatusCreated, toDonationDTO(*donation))
}

// DonationsList returns the global donation ledger with owners expanded to
// name and email.
func (a *App) DonationsList(w http.ResponseWriter, r *http.Request) {
	donations, err := a.Donations.ListAll(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list donations failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	items := make([]donationDTO, 0, len(donations))
	for _, d := range donations {
		items = append(items, toDonationDTO(d))
	}
	a.json(w, http.StatusOK, items)
}

// DonationsListMine returns only the caller's donations.
func (a *App) DonationsListMine(w http.ResponseWriter, r *http.Request) {
	owner := middleware.CurrentUser(r.Context())
	if owner == nil {
		a.error(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	donations, err := a.Donations.ListByOwner(r.Context(), owner.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list user donations failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	items := make([]donationDTO, 0, len(donations))
	for _, d := range donations {
		items = append(items, toDonationDTO(d))
	}
	a.json(w, http.StatusOK, items)
}
