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

type distributionRequest struct {
	CID      string `json:"cid"`
	Location string `json:"location"`
	// Pointer so an absent amount is distinguishable from an explicit 0;
	// the field is required.
	Amount      *float64 `json:"amount"`
	Description string   `json:"description"`
}

type distributionDTO struct {
	ID          string    `json:"_id"`
	Ngo         any       `json:"ngo"`
	CID         string    `json:"cid"`
	Location    string    `json:"location"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toDistributionDTO(d domain.Distribution) distributionDTO {
	dto := distributionDTO{
		ID:          d.ID,
		Ngo:         d.NgoID,
		CID:         d.CID,
		Location:    d.Location,
		Amount:      d.Amount,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
	if d.Owner != nil {
		dto.Ngo = ownerDTO{ID: d.Owner.ID, Name: d.Owner.Name, Email: d.Owner.Email}
	}
	return dto
}

// DistributionsCreate records a disbursement owned by the authenticated NGO.
// The NGO role gate runs before this handler.
func (a *App) DistributionsCreate(w http.ResponseWriter, r *http.Request) {
	var req distributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	owner := middleware.CurrentUser(r.Context())
	if owner == nil {
		a.error(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	if req.Amount == nil {
		a.error(w, http.StatusInternalServerError, fmt.Errorf("%w: amount is required", domain.ErrValidation).Error())
		return
	}

	distribution := &domain.Distribution{
		ID:          uuid.NewString(),
		NgoID:       owner.ID,
		CID:         req.CID,
		Location:    req.Location,
		Amount:      *req.Amount,
		Description: req.Description,
	}
	if err := distribution.Validate(); err != nil {
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := a.Distributions.Create(r.Context(), distribution); err != nil {
		if !errors.Is(err, context.Canceled) {
			a.Logger.Error().Err(err).Msg("create distribution failed")
		}
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.json(w, http.StatusCreated, toDistributionDTO(*distribution))
}

// DistributionsList returns the global distribution ledger with owners
// expanded to name and email.
func (a *App) DistributionsList(w http.ResponseWriter, r *http.Request) {
	distributions, err := a.Distributions.ListAll(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list distributions failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	items := make([]distributionDTO, 0, len(distributions))
	for _, d := range distributions {
		items = append(items, toDistributionDTO(d))
	}
	a.json(w, http.StatusOK, items)
}

// DistributionsListMine returns only the caller's distributions.
func (a *App) DistributionsListMine(w http.ResponseWriter, r *http.Request) {
	owner := middleware.CurrentUser(r.Context())
	if owner == nil {
		a.error(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	distributions, err := a.Distributions.ListByOwner(r.Context(), owner.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list ngo distributions failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	items := make([]distributionDTO, 0, len(distributions))
	for _, d := range distributions {
		items = append(items, toDistributionDTO(d))
	}
	a.json(w, http.StatusOK, items)
}
