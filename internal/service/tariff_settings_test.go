package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/johngachihi/parkgate/internal/model"
)

func TestOverwriteTariffsReplacesAll(t *testing.T) {
	tariffs := &fakeTariffs{tiers: minuteTiers(60, 5)}
	svc := NewTariffSettingsService(tariffs)
	ctx := context.Background()

	next := minuteTiers(10, 1, 20, 2)
	if err := svc.Overwrite(ctx, next); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("tiers = %d, want 2 (old table fully replaced)", len(got))
	}
	if got[0].UpperBound != 10*time.Minute || got[0].Fee != 1 {
		t.Errorf("first tier = %+v, want 10m/1", got[0])
	}
}

func TestOverwriteTariffsDuplicateUpperBounds(t *testing.T) {
	tariffs := &fakeTariffs{tiers: minuteTiers(60, 5)}
	svc := NewTariffSettingsService(tariffs)

	err := svc.Overwrite(context.Background(), minuteTiers(10, 1, 10, 2))
	if !errors.Is(err, ErrNonUniqueUpperBounds) {
		t.Fatalf("err = %v, want ErrNonUniqueUpperBounds", err)
	}

	// Validation failures must not touch the stored table.
	got, _ := svc.Get(context.Background())
	if len(got) != 1 || got[0].UpperBound != 60*time.Minute {
		t.Errorf("tiers = %+v, want the original table untouched", got)
	}
}

func TestOverwriteTariffsEmpty(t *testing.T) {
	tariffs := &fakeTariffs{tiers: minuteTiers(60, 5)}
	svc := NewTariffSettingsService(tariffs)

	if err := svc.Overwrite(context.Background(), []model.TariffTier{}); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}
	got, _ := svc.Get(context.Background())
	if len(got) != 0 {
		t.Errorf("tiers = %+v, want empty table (parking becomes free)", got)
	}
}
