package service

import (
	"context"
	"time"

	"github.com/johngachihi/parkgate/internal/model"
)

// FeeService computes parking fees from the tiered tariff table and the
// payment history of a visit.
type FeeService struct {
	tariffs  TariffStore
	settings SettingsStore
}

func NewFeeService(tariffs TariffStore, settings SettingsStore) *FeeService {
	return &FeeService{tariffs: tariffs, settings: settings}
}

// GetFee returns the fee owed for a stay of the given duration: the
// first tier (in ascending order of upper bound) whose upper bound
// strictly exceeds the stay. A stay beyond every tier is charged the
// highest tier's fee; with no tiers at all the fee is 0.
func (s *FeeService) GetFee(ctx context.Context, stay time.Duration) (float64, error) {
	tiers, err := s.tariffs.ListAscending(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range tiers {
		if t.UpperBound > stay {
			return t.Fee, nil
		}
	}
	if len(tiers) > 0 {
		return tiers[len(tiers)-1].Fee, nil
	}
	return 0, nil
}

// OutstandingFee returns the balance still owed for an ongoing visit.
// A visit with no payments owes the full tariff fee for its stay. If
// the latest payment has expired, the balance is the tariff fee minus
// everything already paid. A visit inside its exit allowance window
// owes nothing.
func (s *FeeService) OutstandingFee(ctx context.Context, visit *model.Visit) (float64, error) {
	now := time.Now().UTC()

	if len(visit.Payments) == 0 {
		return s.GetFee(ctx, visit.TimeOfStay(now))
	}

	maxAge, err := s.settings.MaxPaymentAge(ctx)
	if err != nil {
		return 0, err
	}

	if visit.LatestPayment().IsExpired(maxAge, now) {
		fee, err := s.GetFee(ctx, visit.TimeOfStay(now))
		if err != nil {
			return 0, err
		}
		return fee - visit.TotalAmountPaid(), nil
	}
	return 0, nil
}

// InExitAllowancePeriod reports whether the visit has a payment whose
// validity window has not yet lapsed, i.e. the vehicle may exit free of
// additional charge.
func (s *FeeService) InExitAllowancePeriod(ctx context.Context, visit *model.Visit) (bool, error) {
	latest := visit.LatestPayment()
	if latest == nil {
		return false, nil
	}
	maxAge, err := s.settings.MaxPaymentAge(ctx)
	if err != nil {
		return false, err
	}
	return !latest.IsExpired(maxAge, time.Now().UTC()), nil
}
