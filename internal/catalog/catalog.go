// Package catalog implements the Catalog Store (C3): relational
// persistence of per-file records, batch upsert with duplicate
// suppression, and request-row bookkeeping.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/waterinstitute/metget/internal/model"
)

// Store wraps a *sql.DB configured for Postgres, matching the teacher's
// database.Connect()-then-hand-back-a-ready-client shape.
type Store struct {
	db             *sql.DB
	maxUncommitted int
}

// Connect opens the catalog database and verifies connectivity. Callers
// must Close() when done.
func Connect(databaseURL string, maxUncommitted int) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, model.NewError(model.ErrInternal, "catalog.Connect", fmt.Errorf("opening database: %w", err))
	}
	if err := db.Ping(); err != nil {
		return nil, model.NewError(model.ErrTransientIO, "catalog.Connect", fmt.Errorf("connecting to database: %w", err))
	}
	if maxUncommitted <= 0 {
		maxUncommitted = 100000
	}
	return &Store{db: db, maxUncommitted: maxUncommitted}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Exists reports whether a catalog record already satisfies the
// service's unique-key tuple.
func (s *Store) Exists(ctx context.Context, service string, r *model.CatalogRecord) (bool, error) {
	var exists bool
	query := fmt.Sprintf(
		`SELECT EXISTS(SELECT 1 FROM %s WHERE forecast_cycle=$1 AND valid_time=$2 AND storm_name=$3 AND ensemble_member=$4)`,
		tableName(service),
	)
	err := s.db.QueryRowContext(ctx, query, r.ForecastCycle, r.ValidTime, r.StormName, r.EnsembleMember).Scan(&exists)
	if err != nil {
		return false, model.NewError(model.ErrTransientIO, "catalog.Exists", err)
	}
	return exists, nil
}

// ExistingKeys returns the unique-key tuples already present for a
// service within [start,end], for hot-path batch-ingest duplicate
// elimination without a per-record round trip.
func (s *Store) ExistingKeys(ctx context.Context, service string, start, end time.Time) (map[[4]string]bool, error) {
	query := fmt.Sprintf(
		`SELECT forecast_cycle, valid_time, storm_name, ensemble_member FROM %s WHERE valid_time BETWEEN $1 AND $2`,
		tableName(service),
	)
	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, model.NewError(model.ErrTransientIO, "catalog.ExistingKeys", err)
	}
	defer rows.Close()

	out := make(map[[4]string]bool)
	for rows.Next() {
		var fc, vt time.Time
		var storm, member string
		if err := rows.Scan(&fc, &vt, &storm, &member); err != nil {
			return nil, model.NewError(model.ErrInternal, "catalog.ExistingKeys", err)
		}
		out[[4]string{fc.UTC().Format(time.RFC3339), vt.UTC().Format(time.RFC3339), storm, member}] = true
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewError(model.ErrTransientIO, "catalog.ExistingKeys", err)
	}
	return out, nil
}

// QueryRecords returns every record for a service with valid_time in
// [start,end], satisfying internal/selection's CatalogReader interface.
// Tie-breaking and policy dispatch happen in the selection package, not
// here — the catalog only reports what exists.
func (s *Store) QueryRecords(ctx context.Context, service string, start, end time.Time) ([]*model.CatalogRecord, error) {
	query := fmt.Sprintf(
		`SELECT id, forecast_cycle, valid_time, tau_hours, storm_name, ensemble_member, filepath, url, accessed_at
		 FROM %s WHERE valid_time BETWEEN $1 AND $2 ORDER BY valid_time`,
		tableName(service),
	)
	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, model.NewError(model.ErrTransientIO, "catalog.QueryRecords", err)
	}
	defer rows.Close()

	var out []*model.CatalogRecord
	for rows.Next() {
		r := &model.CatalogRecord{Service: service}
		if err := rows.Scan(&r.ID, &r.ForecastCycle, &r.ValidTime, &r.TauHours, &r.StormName, &r.EnsembleMember, &r.Filepath, &r.URL, &r.AccessedAt); err != nil {
			return nil, model.NewError(model.ErrInternal, "catalog.QueryRecords", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewError(model.ErrTransientIO, "catalog.QueryRecords", err)
	}
	return out, nil
}

// QueryNhcBestTrack returns the best-track row for a storm, or nil if
// none exists.
func (s *Store) QueryNhcBestTrack(ctx context.Context, year int, basin, stormID string) (*model.NhcBestTrack, error) {
	r := &model.NhcBestTrack{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, storm_year, basin, storm_id, advisory_start, advisory_end, duration_hr, filepath, md5, geojson
		FROM nhc_best_track WHERE storm_year=$1 AND basin=$2 AND storm_id=$3`,
		year, basin, stormID,
	).Scan(&r.ID, &r.StormYear, &r.Basin, &r.StormID, &r.AdvisoryStart, &r.AdvisoryEnd, &r.DurationHr, &r.Filepath, &r.MD5, &r.GeoJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewError(model.ErrTransientIO, "catalog.QueryNhcBestTrack", err)
	}
	return r, nil
}

// QueryNhcForecast returns the forecast row for a storm's advisory, or
// nil if none exists.
func (s *Store) QueryNhcForecast(ctx context.Context, year int, basin, stormID string, advisory int) (*model.NhcForecast, error) {
	r := &model.NhcForecast{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, storm_year, basin, storm_id, advisory, advisory_start, advisory_end, duration_hr, filepath, md5, geojson
		FROM nhc_forecast WHERE storm_year=$1 AND basin=$2 AND storm_id=$3 AND advisory=$4`,
		year, basin, stormID, advisory,
	).Scan(&r.ID, &r.StormYear, &r.Basin, &r.StormID, &r.Advisory, &r.AdvisoryStart, &r.AdvisoryEnd, &r.DurationHr, &r.Filepath, &r.MD5, &r.GeoJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewError(model.ErrTransientIO, "catalog.QueryNhcForecast", err)
	}
	return r, nil
}

// InsertBatch performs "insert ... on conflict do nothing" against the
// service's unique constraint, chunked to cap uncommitted rows per
// transaction at maxUncommitted. Returns the number of rows actually
// inserted (excludes conflicts suppressed by the unique index).
func (s *Store) InsertBatch(ctx context.Context, service string, records []*model.CatalogRecord) (int, error) {
	table := tableName(service)
	inserted := 0

	for start := 0; start < len(records); start += s.maxUncommitted {
		end := start + s.maxUncommitted
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		n, err := s.insertChunk(ctx, table, chunk)
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

func (s *Store) insertChunk(ctx context.Context, table string, chunk []*model.CatalogRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return 0, model.NewError(model.ErrTransientIO, "catalog.insertChunk", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		`INSERT INTO %s (forecast_cycle, valid_time, tau_hours, storm_name, ensemble_member, filepath, url, accessed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (forecast_cycle, valid_time, storm_name, ensemble_member) DO NOTHING`,
		table,
	)

	inserted := 0
	for _, r := range chunk {
		res, err := tx.ExecContext(ctx, query, r.ForecastCycle, r.ValidTime, r.TauHours, r.StormName, r.EnsembleMember, r.Filepath, r.URL, r.AccessedAt)
		if err != nil {
			return 0, model.NewError(model.ErrDBConflict, "catalog.insertChunk", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, model.NewError(model.ErrTransientIO, "catalog.insertChunk", err)
	}
	return inserted, nil
}

// UpdateOrInsertNhcBestTrack upserts a mutable NHC best-track row on
// (storm_year, basin, storm_id).
func (s *Store) UpdateOrInsertNhcBestTrack(ctx context.Context, r *model.NhcBestTrack) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nhc_best_track (storm_year, basin, storm_id, advisory_start, advisory_end, duration_hr, filepath, md5, geojson)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (storm_year, basin, storm_id) DO UPDATE SET
			advisory_start=EXCLUDED.advisory_start, advisory_end=EXCLUDED.advisory_end,
			duration_hr=EXCLUDED.duration_hr, filepath=EXCLUDED.filepath,
			md5=EXCLUDED.md5, geojson=EXCLUDED.geojson`,
		r.StormYear, r.Basin, r.StormID, r.AdvisoryStart, r.AdvisoryEnd, r.DurationHr, r.Filepath, r.MD5, r.GeoJSON,
	)
	if err != nil {
		return model.NewError(model.ErrTransientIO, "catalog.UpdateOrInsertNhcBestTrack", err)
	}
	return nil
}

// UpdateOrInsertNhcForecast upserts a mutable NHC forecast row on
// (storm_year, basin, storm_id, advisory).
func (s *Store) UpdateOrInsertNhcForecast(ctx context.Context, r *model.NhcForecast) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nhc_forecast (storm_year, basin, storm_id, advisory, advisory_start, advisory_end, duration_hr, filepath, md5, geojson)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (storm_year, basin, storm_id, advisory) DO UPDATE SET
			advisory_start=EXCLUDED.advisory_start, advisory_end=EXCLUDED.advisory_end,
			duration_hr=EXCLUDED.duration_hr, filepath=EXCLUDED.filepath,
			md5=EXCLUDED.md5, geojson=EXCLUDED.geojson`,
		r.StormYear, r.Basin, r.StormID, r.Advisory, r.AdvisoryStart, r.AdvisoryEnd, r.DurationHr, r.Filepath, r.MD5, r.GeoJSON,
	)
	if err != nil {
		return model.NewError(model.ErrTransientIO, "catalog.UpdateOrInsertNhcForecast", err)
	}
	return nil
}

// RequestUpsert atomically updates (or inserts) the request row with a
// new status/message and credit/try-count deltas.
func (s *Store) RequestUpsert(ctx context.Context, requestID string, status model.RequestStatus, message string, credit float64, tryDelta int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (request_id, status, message, credit_usage, try_count, last_date)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (request_id) DO UPDATE SET
			status=EXCLUDED.status, message=EXCLUDED.message,
			credit_usage=requests.credit_usage+EXCLUDED.credit_usage,
			try_count=requests.try_count+$5, last_date=now()`,
		requestID, status, message, credit, tryDelta,
	)
	if err != nil {
		return model.NewError(model.ErrTransientIO, "catalog.RequestUpsert", err)
	}
	return nil
}

func tableName(service string) string {
	// Service names use hyphens (e.g. "gfs-ncep"); table names use
	// underscores, matching the registry's TableName field convention.
	out := make([]byte, len(service))
	for i := 0; i < len(service); i++ {
		if service[i] == '-' {
			out[i] = '_'
		} else {
			out[i] = service[i]
		}
	}
	return string(out)
}
