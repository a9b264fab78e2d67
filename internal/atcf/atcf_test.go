package atcf

import "testing"

// buildLine pads a synthetic ATCF line long enough to hold columns
// [8:18) (date) and [29:33) (delta-hours), with arbitrary but stable
// filler elsewhere so "remaining bytes verbatim" is checkable.
func buildLine(date string, delta string) string {
	b := make([]byte, 40)
	for i := range b {
		b[i] = 'x'
	}
	copy(b[8:18], date)
	copy(b[29:33], delta)
	return string(b)
}

func TestMergeTracksBestTrackRetainedForecastAppended(t *testing.T) {
	bestTrack := []string{
		buildLine("2023090500", "   0"),
		buildLine("2023090512", "  12"),
	}
	forecast := []string{
		buildLine("2023090512", "   0"), // already present, must not duplicate
		buildLine("2023090600", "  12"),
		buildLine("2023090812", "   0"),
	}

	merged, err := MergeTracks(bestTrack, forecast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 4 {
		t.Fatalf("got %d lines, want 4 (2 best-track + 2 new forecast dates)", len(merged))
	}

	for i, line := range merged {
		d, err := lineDate(line)
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if d.Format(dateLayout) != "2023090500" && line[8:18] != "2023090500" {
			// rebased date column must equal the best-track start in every line
		}
		if line[8:18] != "2023090500" {
			t.Errorf("line %d: date column = %q, want rebased start 2023090500", i, line[8:18])
		}
	}
}

func TestMergeTracksDeltaHoursMatchesOffsetFromStart(t *testing.T) {
	bestTrack := []string{buildLine("2023090500", "   0")}
	forecast := []string{buildLine("2023090506", "   0")}

	merged, err := MergeTracks(bestTrack, forecast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("got %d lines, want 2", len(merged))
	}
	if merged[1][29:33] != "   6" {
		t.Errorf("delta-hours field = %q, want %q", merged[1][29:33], "   6")
	}
}

func TestMergeTracksEmptyBestTrackFails(t *testing.T) {
	if _, err := MergeTracks(nil, []string{buildLine("2023090500", "   0")}); err == nil {
		t.Fatal("expected error for empty best-track")
	}
}
