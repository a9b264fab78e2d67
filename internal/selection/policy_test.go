package selection

import (
	"testing"
	"time"

	"github.com/waterinstitute/metget/internal/model"
)

func t0(hour int) time.Time {
	return time.Date(2023, 1, 1, hour, 0, 0, 0, time.UTC)
}

func rec(id int64, cycleHour, tau int, accessed time.Time) *model.CatalogRecord {
	cycle := t0(cycleHour)
	return &model.CatalogRecord{
		ID:            id,
		ForecastCycle: cycle,
		ValidTime:     cycle.Add(time.Duration(tau) * time.Hour),
		TauHours:      tau,
		AccessedAt:    accessed,
		Filepath:      "f.grib2",
	}
}

// Scenario 1: nowcast selection (spec §8 seed test 1).
func TestNowcastSelection(t *testing.T) {
	at := t0(0)
	records := []*model.CatalogRecord{
		rec(1, 0, 0, at), rec(2, 0, 3, at), rec(3, 0, 6, at),
		rec(4, 6, 0, at), rec(5, 6, 3, at),
	}
	q := Query{Start: t0(0), End: t0(6), Nowcast: true}
	got := Select(records, q)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	for _, r := range got {
		if r.TauHours != 0 {
			t.Errorf("record valid_time=%v has tau=%d, want 0", r.ValidTime, r.TauHours)
		}
	}
	if !got[0].ValidTime.Equal(t0(0)) || !got[1].ValidTime.Equal(t0(6)) {
		t.Errorf("valid_times = %v, %v; want 00Z, 06Z", got[0].ValidTime, got[1].ValidTime)
	}
}

// Scenario 2: multiple-forecasts stitch (spec §8 seed test 2).
func TestMultipleForecastsStitch(t *testing.T) {
	at := t0(0)
	records := []*model.CatalogRecord{
		rec(1, 0, 0, at), rec(3, 0, 6, at), rec(4, 0, 12, at),
		rec(5, 6, 0, at), rec(6, 6, 6, at),
		rec(7, 12, 0, at),
	}
	q := Query{Start: t0(0), End: t0(12), Tau: 0, MultipleForecasts: true}
	got := Select(records, q)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	wantValidTimes := []time.Time{t0(0), t0(6), t0(12)}
	for i, vt := range wantValidTimes {
		if !got[i].ValidTime.Equal(vt) {
			t.Errorf("got[%d].ValidTime = %v, want %v", i, got[i].ValidTime, vt)
		}
	}
	// valid_time=06Z should come from the 06Z cycle's tau=0 record (id 5),
	// the smallest qualifying tau, not the 00Z cycle's tau=6 record.
	if got[1].ID != 5 {
		t.Errorf("got[1].ID = %d, want 5 (smallest tau at valid_time=06Z)", got[1].ID)
	}
}

// Scenario 3: single-forecast fallback (spec §8 seed test 3).
func TestSingleForecastFallback(t *testing.T) {
	at := t0(0)
	records := []*model.CatalogRecord{
		rec(1, 0, 3, at), rec(2, 0, 6, at), rec(3, 0, 9, at),
		rec(4, 6, 3, at), rec(5, 6, 6, at),
	}
	q := Query{Start: t0(0), End: t0(12), Tau: 3}
	got := Select(records, q)
	if len(got) != 4 {
		t.Fatalf("got %d records, want 4", len(got))
	}
	last := got[len(got)-1]
	if !last.ValidTime.Equal(t0(12)) {
		t.Fatalf("last valid_time = %v, want 12Z", last.ValidTime)
	}
	if !last.ForecastCycle.Equal(t0(6)) {
		t.Errorf("12Z record forecast_cycle = %v, want 06Z cycle (backfill)", last.ForecastCycle)
	}
}

func TestUniversalInvariantValidTimeOrderingAndUniqueness(t *testing.T) {
	at := t0(0)
	records := []*model.CatalogRecord{
		rec(1, 0, 0, at), rec(2, 0, 3, at), rec(3, 6, 0, at), rec(4, 6, 3, at),
	}
	q := Query{Start: t0(0), End: t0(9), MultipleForecasts: true, Tau: 0}
	got := Select(records, q)
	seen := map[int64]bool{}
	for i, r := range got {
		if seen[r.ValidTime.Unix()] {
			t.Errorf("valid_time %v appears more than once", r.ValidTime)
		}
		seen[r.ValidTime.Unix()] = true
		if i > 0 && got[i-1].ValidTime.After(r.ValidTime) {
			t.Errorf("results not strictly ordered by valid_time at index %d", i)
		}
	}
}

func TestNormalizeTau(t *testing.T) {
	tests := []struct {
		name    string
		binding model.VariableBinding
		tau     int
		want    int
	}{
		{"accumulated no decl time tau0", model.VariableBinding{IsAccumulated: true}, 0, 1},
		{"accumulated with decl time tau0", model.VariableBinding{IsAccumulated: true, AccumulationTime: func() *float64 { v := 6.0; return &v }()}, 0, 0},
		{"skip0 tau0", model.VariableBinding{Skip0: true}, 0, 1},
		{"plain tau0", model.VariableBinding{}, 0, 0},
		{"plain tau3 unaffected", model.VariableBinding{IsAccumulated: true}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTau(tt.binding, tt.tau); got != tt.want {
				t.Errorf("NormalizeTau() = %d, want %d", got, tt.want)
			}
		})
	}
}
