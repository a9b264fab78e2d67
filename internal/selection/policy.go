package selection

import (
	"sort"

	"github.com/waterinstitute/metget/internal/model"
)

// NormalizeTau applies spec §4.4's tau-normalization rule ahead of
// every gridded query: if the requested variable is accumulated and
// tau==0 with no declared accumulation_time, or the source declares
// skip_0 for the variable, tau is bumped to 1.
func NormalizeTau(binding model.VariableBinding, tau int) int {
	if tau == 0 && binding.IsAccumulated && binding.AccumulationTime == nil {
		return 1
	}
	if binding.Skip0 && tau == 0 {
		return 1
	}
	return tau
}

// group collects the records that share one valid_time; storm and
// member are not part of the key.
type group struct {
	validTimeUnix int64
	records       []*model.CatalogRecord
}

func groupByValidTime(records []*model.CatalogRecord) []*group {
	idx := make(map[int64]*group)
	var order []int64
	for _, r := range records {
		key := r.ValidTime.Unix()
		g, ok := idx[key]
		if !ok {
			g = &group{validTimeUnix: key}
			idx[key] = g
			order = append(order, key)
		}
		g.records = append(g.records, r)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]*group, len(order))
	for i, k := range order {
		out[i] = idx[k]
	}
	return out
}

// best applies the tie-break order from spec §4.4: smallest tau, then
// most recent accessed_at, then largest id.
func best(records []*model.CatalogRecord) *model.CatalogRecord {
	b := records[0]
	for _, r := range records[1:] {
		if r.TauHours != b.TauHours {
			if r.TauHours < b.TauHours {
				b = r
			}
			continue
		}
		if !r.AccessedAt.Equal(b.AccessedAt) {
			if r.AccessedAt.After(b.AccessedAt) {
				b = r
			}
			continue
		}
		if r.ID > b.ID {
			b = r
		}
	}
	return b
}

// SelectNowcast implements spec §4.4 policy 1: every tau==0 record
// whose valid_time falls in [q.Start, q.End], one per valid_time, ties
// broken by best (most recent accessed_at, then largest id).
func SelectNowcast(records []*model.CatalogRecord, q Query) []*model.CatalogRecord {
	var filtered []*model.CatalogRecord
	for _, r := range records {
		if r.TauHours != 0 {
			continue
		}
		if r.ValidTime.Before(q.Start) || r.ValidTime.After(q.End) {
			continue
		}
		filtered = append(filtered, r)
	}
	var out []*model.CatalogRecord
	for _, g := range groupByValidTime(filtered) {
		out = append(out, best(g.records))
	}
	return out
}

// SelectMultipleForecasts implements spec §4.4 policy 2: for each
// valid_time in range with at least one record with tau >= q.Tau,
// return the record with the smallest qualifying tau (ties broken by
// most recent accessed_at, then largest id).
func SelectMultipleForecasts(records []*model.CatalogRecord, q Query) []*model.CatalogRecord {
	var filtered []*model.CatalogRecord
	for _, r := range records {
		if r.TauHours < q.Tau {
			continue
		}
		if r.ValidTime.Before(q.Start) || r.ValidTime.After(q.End) {
			continue
		}
		filtered = append(filtered, r)
	}
	var out []*model.CatalogRecord
	for _, g := range groupByValidTime(filtered) {
		out = append(out, best(g.records))
	}
	return out
}

// SelectSingleForecast implements spec §4.4 policy 3: pick the earliest
// cycle >= q.Start with coverage, return all its records with
// tau>=q.Tau and valid_time in range, then (if q.Tau>0) union with the
// multiple-forecasts result to backfill valid-times the chosen cycle
// doesn't reach. Records already present (by valid_time) take
// precedence over the union.
func SelectSingleForecast(records []*model.CatalogRecord, q Query) []*model.CatalogRecord {
	cycles := make(map[int64][]*model.CatalogRecord)
	var cycleOrder []int64
	for _, r := range records {
		key := r.ForecastCycle.Unix()
		if _, ok := cycles[key]; !ok {
			cycleOrder = append(cycleOrder, key)
		}
		cycles[key] = append(cycles[key], r)
	}
	sort.Slice(cycleOrder, func(i, j int) bool { return cycleOrder[i] < cycleOrder[j] })

	var chosen []*model.CatalogRecord
	for _, key := range cycleOrder {
		if key < q.Start.Unix() {
			continue
		}
		var candidate []*model.CatalogRecord
		for _, r := range cycles[key] {
			if r.TauHours < q.Tau {
				continue
			}
			if r.ValidTime.Before(q.Start) || r.ValidTime.After(q.End) {
				continue
			}
			candidate = append(candidate, r)
		}
		if len(candidate) > 0 {
			chosen = candidate
			break
		}
	}

	if q.Tau == 0 {
		return chosen
	}

	// Union with multiple-forecasts to backfill valid-times the single
	// cycle doesn't reach; existing valid-times take precedence.
	present := make(map[int64]bool, len(chosen))
	for _, r := range chosen {
		present[r.ValidTime.Unix()] = true
	}
	merged := append([]*model.CatalogRecord{}, chosen...)
	for _, r := range SelectMultipleForecasts(records, q) {
		if !present[r.ValidTime.Unix()] {
			merged = append(merged, r)
			present[r.ValidTime.Unix()] = true
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ValidTime.Before(merged[j].ValidTime) })
	return merged
}

// Select dispatches to the policy named by q, applying the storm/member
// filter first (spec §4.4's "storm/ensemble variants").
func Select(records []*model.CatalogRecord, q Query) []*model.CatalogRecord {
	filtered := make([]*model.CatalogRecord, 0, len(records))
	for _, r := range records {
		if q.Storm != "" && r.StormName != q.Storm {
			continue
		}
		if q.EnsembleMember != "" && r.EnsembleMember != q.EnsembleMember {
			continue
		}
		filtered = append(filtered, r)
	}

	var out []*model.CatalogRecord
	switch {
	case q.Nowcast:
		out = SelectNowcast(filtered, q)
	case q.MultipleForecasts:
		out = SelectMultipleForecasts(filtered, q)
	default:
		out = SelectSingleForecast(filtered, q)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ValidTime.Before(out[j].ValidTime) })
	return out
}
