package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johngachihi/parkgate/internal/model"
)

// tariffCacheKey holds the JSON-encoded ascending tier list. The entry
// has no TTL; it is invalidated explicitly by Overwrite, so the cache
// can never serve tiers that were edited away at runtime.
const tariffCacheKey = "tariffs:asc"

// tariffRecord is the cached form of a tier; durations are stored as
// minute counts to keep the cache readable.
type tariffRecord struct {
	ID           uint64  `json:"id"`
	UpperMinutes int64   `json:"upper_minutes"`
	Fee          float64 `json:"fee"`
}

// TariffRepo provides data access to the parking_tariffs table with an
// optional Redis read-through cache. A nil cache client disables
// caching entirely; every read then hits MySQL.
type TariffRepo struct {
	db    *sql.DB
	cache *redis.Client
}

func NewTariffRepo(db *sql.DB, cache *redis.Client) *TariffRepo {
	return &TariffRepo{db: db, cache: cache}
}

// ListAscending returns all tiers ordered ascending by upper bound.
func (r *TariffRepo) ListAscending(ctx context.Context) ([]model.TariffTier, error) {
	if tiers, ok := r.cachedTiers(ctx); ok {
		return tiers, nil
	}

	const q = `SELECT id, upper_bound_minutes, fee FROM parking_tariffs ORDER BY upper_bound_minutes ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []model.TariffTier
	for rows.Next() {
		var t model.TariffTier
		var minutes int64
		if err := rows.Scan(&t.ID, &minutes, &t.Fee); err != nil {
			return nil, err
		}
		t.UpperBound = time.Duration(minutes) * time.Minute
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.fillCache(ctx, tiers)
	return tiers, nil
}

// Overwrite replaces the whole tariff table in one transaction and
// drops the cached list afterwards.
func (r *TariffRepo) Overwrite(ctx context.Context, tiers []model.TariffTier) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM parking_tariffs`); err != nil {
		return err
	}

	if len(tiers) > 0 {
		query := `INSERT INTO parking_tariffs (upper_bound_minutes, fee) VALUES `
		args := make([]interface{}, 0, len(tiers)*2)
		for i, t := range tiers {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, int64(t.UpperBound.Minutes()), t.Fee)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if r.cache != nil {
		_ = r.cache.Del(ctx, tariffCacheKey).Err()
	}
	return nil
}

func (r *TariffRepo) cachedTiers(ctx context.Context) ([]model.TariffTier, bool) {
	if r.cache == nil {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, tariffCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var records []tariffRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	tiers := make([]model.TariffTier, 0, len(records))
	for _, rec := range records {
		tiers = append(tiers, model.TariffTier{
			ID:         rec.ID,
			UpperBound: time.Duration(rec.UpperMinutes) * time.Minute,
			Fee:        rec.Fee,
		})
	}
	return tiers, true
}

func (r *TariffRepo) fillCache(ctx context.Context, tiers []model.TariffTier) {
	if r.cache == nil {
		return
	}
	records := make([]tariffRecord, 0, len(tiers))
	for _, t := range tiers {
		records = append(records, tariffRecord{
			ID:           t.ID,
			UpperMinutes: int64(t.UpperBound.Minutes()),
			Fee:          t.Fee,
		})
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return
	}
	_ = r.cache.Set(ctx, tariffCacheKey, raw, 0).Err()
}
