package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johngachihi/parkgate/internal/model"
	"github.com/johngachihi/parkgate/internal/service"
)

// TariffHandler exposes the tariff settings over HTTP: reading the
// current tiers and overwriting the whole table. Overwrites validate
// that tier upper bounds are pairwise distinct before anything is
// written.
type TariffHandler struct {
	settings *service.TariffSettingsService
}

func NewTariffHandler(settings *service.TariffSettingsService) *TariffHandler {
	return &TariffHandler{settings: settings}
}

// tariffTierDTO is the wire form of a tier; upper bounds travel as
// minute counts.
type tariffTierDTO struct {
	UpperBoundMinutes int64   `json:"upper_bound_minutes"`
	Fee               float64 `json:"fee"`
}

type overwriteTariffsRequest struct {
	Tiers []tariffTierDTO `json:"tiers"`
}

// Get handles GET /v1/settings/tariffs.
func (h *TariffHandler) Get(c echo.Context) error {
	tiers, err := h.settings.Get(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tariffs"})
	}

	out := make([]tariffTierDTO, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, tariffTierDTO{
			UpperBoundMinutes: int64(t.UpperBound.Minutes()),
			Fee:               t.Fee,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"tiers": out})
}

// Overwrite handles PUT /v1/settings/tariffs. Validation failures are
// 400s with a JSON error body; nothing is written in that case.
func (h *TariffHandler) Overwrite(c echo.Context) error {
	var req overwriteTariffsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed request body"})
	}
	if req.Tiers == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tiers is required"})
	}

	tiers := make([]model.TariffTier, 0, len(req.Tiers))
	for _, dto := range req.Tiers {
		if dto.UpperBoundMinutes < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tier upper bounds must be at least 1 minute"})
		}
		tiers = append(tiers, model.TariffTier{
			UpperBound: time.Duration(dto.UpperBoundMinutes) * time.Minute,
			Fee:        dto.Fee,
		})
	}

	err := h.settings.Overwrite(c.Request().Context(), tiers)
	if errors.Is(err, service.ErrNonUniqueUpperBounds) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to overwrite tariffs"})
	}
	return c.NoContent(http.StatusNoContent)
}
