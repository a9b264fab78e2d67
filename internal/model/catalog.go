package model

import "time"

// CatalogRecord is one entry in the relational catalog. All fields are
// populated; the zero value of StormName/EnsembleMember distinguishes
// deterministic-generic from storm/ensemble variants. Invariant:
// ValidTime == ForecastCycle + TauHours, TauHours >= 0, Filepath != "".
type CatalogRecord struct {
	ID              int64
	Service         string
	ForecastCycle   time.Time
	ValidTime       time.Time
	TauHours        int
	StormName       string // empty for non-storm sources
	EnsembleMember  string // empty for non-ensemble sources
	Filepath        string
	URL             string
	AccessedAt      time.Time
}

// UniqueKey returns the discriminator tuple used for the service's unique
// constraint: (forecast_cycle, valid_time[, storm_name][, ensemble_member]).
func (r *CatalogRecord) UniqueKey() [4]string {
	return [4]string{
		r.ForecastCycle.UTC().Format(time.RFC3339),
		r.ValidTime.UTC().Format(time.RFC3339),
		r.StormName,
		r.EnsembleMember,
	}
}

// NhcBestTrack is the mutable NHC observational track record.
type NhcBestTrack struct {
	ID             int64
	StormYear      int
	Basin          string
	StormID        string
	AdvisoryStart  time.Time
	AdvisoryEnd    time.Time
	DurationHr     float64
	Filepath       string
	MD5            string
	GeoJSON        string
}

// NhcForecast is the mutable NHC predictive track record, one per
// advisory number.
type NhcForecast struct {
	ID             int64
	StormYear      int
	Basin          string
	StormID        string
	Advisory       int
	AdvisoryStart  time.Time
	AdvisoryEnd    time.Time
	DurationHr     float64
	Filepath       string
	MD5            string
	GeoJSON        string
}
