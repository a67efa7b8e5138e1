package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/johngachihi/parkgate/internal/parking"
)

// Setting keys and defaults. The stored value is a bare minute count.
const (
	maxPaymentAgeKey        = "max_age_before_payment_expiry_in_minutes"
	maxPaymentSessionAgeKey = "max_age_before_payment_session_expiry_in_minutes"

	defaultMaxPaymentAge        = 20 * time.Minute
	defaultMaxPaymentSessionAge = 10 * time.Minute
)

// maxSettingDuration caps any configured duration; a value beyond ten
// days is treated as malformed rather than intentional.
const maxSettingDuration = 10 * 24 * time.Hour

// SettingsRepo reads typed values from the configuration key/value
// table. Absent keys fall back to the declared defaults; present but
// malformed values fail with parking.InvalidSettingError, since there
// is no safe numeric fallback once a value exists.
type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// MaxPaymentAge is the payment-validity window (exit allowance length).
func (r *SettingsRepo) MaxPaymentAge(ctx context.Context) (time.Duration, error) {
	return r.durationSetting(ctx, maxPaymentAgeKey, defaultMaxPaymentAge)
}

// MaxPaymentSessionAge is how long a pending session stays completable.
func (r *SettingsRepo) MaxPaymentSessionAge(ctx context.Context) (time.Duration, error) {
	return r.durationSetting(ctx, maxPaymentSessionAgeKey, defaultMaxPaymentSessionAge)
}

func (r *SettingsRepo) durationSetting(ctx context.Context, key string, def time.Duration) (time.Duration, error) {
	value, ok, err := r.getValue(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	d, err := parseMinutes(value)
	if err != nil {
		return 0, &parking.InvalidSettingError{Setting: key, Cause: err}
	}
	return d, nil
}

func (r *SettingsRepo) getValue(ctx context.Context, key string) (string, bool, error) {
	const q = "SELECT `value` FROM configuration WHERE `key` = ?"
	var value string
	err := r.db.QueryRowContext(ctx, q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// parseMinutes parses a stored minute count: a non-negative integer no
// larger than maxSettingDuration.
func parseMinutes(value string) (time.Duration, error) {
	minutes, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer minute count: %q", value)
	}
	if minutes < 0 {
		return 0, fmt.Errorf("the value provided is less than 0: %d", minutes)
	}
	d := time.Duration(minutes) * time.Minute
	if d > maxSettingDuration {
		return 0, fmt.Errorf("the value provided (%d) is greater than the maximum %d minutes",
			minutes, int64(maxSettingDuration.Minutes()))
	}
	return d, nil
}
