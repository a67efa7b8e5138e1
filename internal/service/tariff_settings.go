package service

import (
	"context"
	"errors"

	"github.com/johngachihi/parkgate/internal/model"
)

// ErrNonUniqueUpperBounds is returned when a tariff overwrite contains
// two tiers with the same upper bound. Handlers translate it into an
// HTTP 400 response.
var ErrNonUniqueUpperBounds = errors.New("tariff tier upper bounds must be unique")

// TariffSettingsService reads and replaces the tariff table. Tier
// uniqueness is validated here, on write; reads trust the stored data.
type TariffSettingsService struct {
	tariffs TariffStore
}

func NewTariffSettingsService(tariffs TariffStore) *TariffSettingsService {
	return &TariffSettingsService{tariffs: tariffs}
}

// Get returns the tariff tiers ordered ascending by upper bound.
func (s *TariffSettingsService) Get(ctx context.Context) ([]model.TariffTier, error) {
	return s.tariffs.ListAscending(ctx)
}

// Overwrite atomically replaces the whole tariff table. It fails with
// ErrNonUniqueUpperBounds when two tiers share an upper bound; the
// store rejects a conflicting concurrent write through its uniqueness
// constraint as well.
func (s *TariffSettingsService) Overwrite(ctx context.Context, tiers []model.TariffTier) error {
	if !upperBoundsUnique(tiers) {
		return ErrNonUniqueUpperBounds
	}
	return s.tariffs.Overwrite(ctx, tiers)
}

func upperBoundsUnique(tiers []model.TariffTier) bool {
	seen := make(map[int64]struct{}, len(tiers))
	for _, t := range tiers {
		minutes := int64(t.UpperBound.Minutes())
		if _, dup := seen[minutes]; dup {
			return false
		}
		seen[minutes] = struct{}{}
	}
	return true
}
